// Package giveaway — handlers.go обрабатывает /giveaway, кнопку участия
// и объявляет итоги в канале.
package giveaway

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
)

// Sender — часть *discordgo.Session для сообщений в канал.
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler обрабатывает команды розыгрышей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик розыгрышей.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGiveaway — /giveaway amount winners.
func (h *Handler) HandleGiveaway(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	amount, _ := opts.Int("amount")
	winners, ok := opts.Int("winners")
	if !ok {
		winners = 1
	}

	host := reply.Actor(i)
	g, err := h.service.Start(host.ID, i.ChannelID, amount, int(winners))
	if err != nil {
		reply.Error(s, i, err)
		return
	}

	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title: "🎉 Giveaway!",
		Color: reply.ColorGold,
		Description: fmt.Sprintf("<@%s> is giving away **%s** to %d %s!\nEnds <t:%d:R>.",
			g.HostID, common.FormatTokens(g.Amount), g.Winners, pluralWinners(g.Winners), g.ClosesAt.Unix()),
	}, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "🎟️ Enter", Style: discordgo.PrimaryButton, CustomID: ButtonID(g.ID)},
	}})
}

// HandleButton — кнопка "giveaway:enter:<id>".
func (h *Handler) HandleButton(s reply.Responder, i *discordgo.InteractionCreate) {
	id, ok := ParseButtonID(i.MessageComponentData().CustomID)
	if !ok {
		log.WithField("custom_id", i.MessageComponentData().CustomID).Warn("Некорректная кнопка розыгрыша")
		return
	}

	weight, err := h.service.Enter(id, reply.Actor(i).ID, reply.ActorRoles(i))
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	if weight == 1 {
		reply.Ephemeral(s, i, "🎟️ You're in! Good luck.")
		return
	}
	reply.Ephemeral(s, i, fmt.Sprintf("🎟️ You're in with **%d** entries thanks to your roles! Good luck.", weight))
}

// Announce читает итоги розыгрышей и публикует их, пока не отменён ctx.
func Announce(ctx context.Context, s Sender, results <-chan Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-results:
			if _, err := s.ChannelMessageSendEmbed(r.Giveaway.ChannelID, ResultEmbed(r)); err != nil {
				log.WithError(err).WithField("giveaway_id", r.Giveaway.ID).Error("Ошибка объявления итогов розыгрыша")
			}
		}
	}
}

// ResultEmbed — сообщение с итогами.
func ResultEmbed(r Result) *discordgo.MessageEmbed {
	if r.Refunded {
		return &discordgo.MessageEmbed{
			Title: "🎉 Giveaway ended",
			Color: reply.ColorGrey,
			Description: fmt.Sprintf("Nobody entered. **%s** returned to <@%s>.",
				common.FormatTokens(r.Giveaway.Amount), r.Giveaway.HostID),
		}
	}

	mentions := make([]string, len(r.WinnerIDs))
	for n, id := range r.WinnerIDs {
		mentions[n] = "<@" + id + ">"
	}
	return &discordgo.MessageEmbed{
		Title: "🎉 Giveaway ended",
		Color: reply.ColorGold,
		Description: fmt.Sprintf("Congratulations %s! Each winner receives **%s**.",
			strings.Join(mentions, ", "), common.FormatTokens(r.Share)),
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d entrants", r.Entrants)},
	}
}

func pluralWinners(n int) string {
	if n == 1 {
		return "winner"
	}
	return "winners"
}
