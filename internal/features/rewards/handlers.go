// Package rewards — handlers.go обрабатывает команды /daily, /work, /crime
// и /cooldowns.
package rewards

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
)

// Handler обрабатывает команды наград.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик команд наград.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleDaily — /daily.
//
// Ответ:
//
//	📅 Daily reward
//	You received 120 tokens!
//	Balance: 1,320 tokens
func (h *Handler) HandleDaily(s reply.Responder, i *discordgo.InteractionCreate) {
	res, err := h.service.Daily(reply.Actor(i).ID)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title:       "📅 Daily reward",
		Color:       reply.ColorGreen,
		Description: fmt.Sprintf("You received **%s**!", common.FormatTokens(res.Amount)),
		Fields:      balanceField(res.Balance),
	})
}

// HandleWork — /work.
func (h *Handler) HandleWork(s reply.Responder, i *discordgo.InteractionCreate) {
	res, err := h.service.Work(reply.Actor(i).ID)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title:       "💼 Work",
		Color:       reply.ColorBlue,
		Description: fmt.Sprintf("You worked as a %s and earned **%s**.", res.Flavor, common.FormatTokens(res.Amount)),
		Fields:      balanceField(res.Balance),
	})
}

// HandleCrime — /crime.
func (h *Handler) HandleCrime(s reply.Responder, i *discordgo.InteractionCreate) {
	res, err := h.service.Crime(reply.Actor(i).ID)
	if err != nil {
		reply.Error(s, i, err)
		return
	}

	embed := &discordgo.MessageEmbed{Fields: balanceField(res.Balance)}
	if res.Success {
		embed.Title = "🦹 Crime paid off"
		embed.Color = reply.ColorGreen
		embed.Description = fmt.Sprintf("%s and got away with **%s**.", res.Flavor, common.FormatTokens(res.Amount))
	} else {
		embed.Title = "🚓 Busted"
		embed.Color = reply.ColorRed
		embed.Description = fmt.Sprintf("%s and lost **%s**.", res.Flavor, common.FormatTokens(res.Amount))
	}
	reply.Embed(s, i, embed)
}

// HandleCooldowns — /cooldowns: что доступно сейчас и сколько ждать остальное.
func (h *Handler) HandleCooldowns(s reply.Responder, i *discordgo.InteractionCreate) {
	var sb strings.Builder
	for _, st := range h.service.Cooldowns(reply.Actor(i).ID) {
		if st.Ready {
			sb.WriteString(fmt.Sprintf("✅ **/%s** ready\n", st.Kind.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("⏳ **/%s** in %s\n", st.Kind.Name, cooldown.FormatRemaining(st.Kind, st.Remaining)))
	}
	reply.EphemeralEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "⏱️ Your cooldowns",
		Color:       reply.ColorGrey,
		Description: sb.String(),
	})
}

func balanceField(balance int64) []*discordgo.MessageEmbedField {
	return []*discordgo.MessageEmbedField{
		{Name: "Balance", Value: common.FormatTokens(balance), Inline: true},
	}
}
