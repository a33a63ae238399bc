// Package economy — handlers.go обрабатывает команды:
// /balance (баланс), /gift (подарок), /leaderboard (рейтинг).
package economy

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleBalance — /balance [user]: баланс и сколько всего заработано.
func (h *Handler) HandleBalance(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	user := reply.Actor(i)
	if u, ok := reply.ResolvedUser(i, opts, "user"); ok {
		user = u
	}

	st := h.service.Stats(user.ID)
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title: fmt.Sprintf("💰 %s's balance", displayName(user)),
		Color: reply.ColorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Balance", Value: common.FormatTokens(st.Balance), Inline: true},
			{Name: "Total earned", Value: common.FormatTokens(st.TotalEarned), Inline: true},
			{Name: "Total spent", Value: common.FormatTokens(st.TotalSpent), Inline: true},
		},
	})
}

// HandleGift — /gift user amount.
//
// Ответ при успехе:
//
//	🎁 @a gifted 100 tokens to @b
func (h *Handler) HandleGift(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	from := reply.Actor(i)

	to, ok := reply.ResolvedUser(i, opts, "user")
	if !ok {
		reply.Ephemeral(s, i, "❌ Choose who to gift tokens to.")
		return
	}
	amount, _ := opts.Int("amount")

	res, err := h.service.Gift(GiftRequest{
		FromID:  from.ID,
		ToID:    to.ID,
		ToIsBot: to.Bot,
		Amount:  amount,
	})
	if err != nil {
		reply.Error(s, i, err)
		return
	}

	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title:       "🎁 Gift sent",
		Color:       reply.ColorGreen,
		Description: fmt.Sprintf("<@%s> gifted %s to <@%s>", from.ID, common.FormatTokens(res.Amount), to.ID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Your balance", Value: common.FormatTokens(res.SenderBalance), Inline: true},
			{Name: "Daily limit left", Value: common.FormatTokens(res.CapRemaining), Inline: true},
		},
	})
}

// HandleLeaderboard — /leaderboard: топ-10 по балансу.
func (h *Handler) HandleLeaderboard(s reply.Responder, i *discordgo.InteractionCreate) {
	entries := h.service.Leaderboard(10)
	if len(entries) == 0 {
		reply.Ephemeral(s, i, "📋 Nobody has any tokens yet.")
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s <@%s> — %s\n", medal(e.Rank), e.UserID, common.FormatTokens(e.Balance)))
	}
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title:       "🏆 Leaderboard",
		Color:       reply.ColorGold,
		Description: sb.String(),
	})
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("%d.", rank)
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	if u.Username != "" {
		return u.Username
	}
	return "User " + u.ID
}
