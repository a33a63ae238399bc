// Package casino — handlers.go обрабатывает команды /coinflip и /duel
// и нажатия кнопок дуэли.
package casino

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
)

// Handler обрабатывает команды казино.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик казино.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleCoinflip — /coinflip amount choice.
//
// Ответ:
//
//	🪙 Heads! You won 100 tokens
//	Balance: 1,100 tokens
func (h *Handler) HandleCoinflip(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	amount, _ := opts.Int("amount")
	choice, _ := opts.String("choice")

	res, err := h.service.Coinflip(reply.Actor(i).ID, amount, choice)
	if err != nil {
		reply.Error(s, i, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Your pick", Value: string(res.Choice), Inline: true},
			{Name: "Balance", Value: common.FormatTokens(res.Balance), Inline: true},
		},
	}
	if res.Won {
		embed.Title = fmt.Sprintf("%s %s! You won", res.Outcome.Emoji(), res.Outcome)
		embed.Color = reply.ColorGreen
		embed.Description = fmt.Sprintf("+%s", common.FormatTokens(res.Stake))
	} else {
		embed.Title = fmt.Sprintf("%s %s! You lost", res.Outcome.Emoji(), res.Outcome)
		embed.Color = reply.ColorRed
		embed.Description = fmt.Sprintf("-%s", common.FormatTokens(res.Stake))
	}
	reply.Embed(s, i, embed)
}

// HandleDuel — /duel user amount: вызов с кнопками Accept/Decline.
func (h *Handler) HandleDuel(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	challenger := reply.Actor(i)

	target, ok := reply.ResolvedUser(i, opts, "user")
	if !ok {
		reply.Ephemeral(s, i, "❌ Choose who to duel.")
		return
	}
	amount, _ := opts.Int("amount")

	d, err := h.service.Challenge(challenger.ID, target.ID, target.Bot, amount)
	if err != nil {
		reply.Error(s, i, err)
		return
	}

	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title: "⚔️ Duel challenge",
		Color: reply.ColorBlue,
		Description: fmt.Sprintf("<@%s> challenges <@%s> to a duel for **%s**!\nThe offer expires in %s.",
			d.ChallengerID, d.TargetID, common.FormatTokens(d.Amount), common.FormatSeconds(d.ExpiresAt.Sub(d.CreatedAt))),
	}, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: ButtonID(ActionAccept, d.ID)},
		discordgo.Button{Label: "Decline", Style: discordgo.DangerButton, CustomID: ButtonID(ActionDecline, d.ID)},
		discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: ButtonID(ActionCancel, d.ID)},
	}})
}

// HandleButton обрабатывает кнопки "duel:<action>:<id>".
// Ошибки показываются нажавшему, исходное сообщение не меняется.
func (h *Handler) HandleButton(s reply.Responder, i *discordgo.InteractionCreate) {
	action, duelID, ok := ParseButtonID(i.MessageComponentData().CustomID)
	if !ok {
		log.WithField("custom_id", i.MessageComponentData().CustomID).Warn("Некорректная кнопка дуэли")
		return
	}
	userID := reply.Actor(i).ID

	switch action {
	case ActionAccept:
		res, err := h.service.Accept(duelID, userID)
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Update(s, i, &discordgo.MessageEmbed{
			Title: "⚔️ Duel finished",
			Color: reply.ColorGold,
			Description: fmt.Sprintf("🏆 <@%s> defeated <@%s> and won **%s**!",
				res.WinnerID, res.LoserID, common.FormatTokens(res.Duel.Amount)),
		}, nil)

	case ActionDecline:
		d, err := h.service.Decline(duelID, userID)
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Update(s, i, &discordgo.MessageEmbed{
			Title:       "⚔️ Duel declined",
			Color:       reply.ColorGrey,
			Description: fmt.Sprintf("<@%s> declined the duel.", d.TargetID),
		}, nil)

	case ActionCancel:
		d, err := h.service.Cancel(duelID, userID)
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Update(s, i, &discordgo.MessageEmbed{
			Title:       "⚔️ Duel cancelled",
			Color:       reply.ColorGrey,
			Description: fmt.Sprintf("<@%s> withdrew the challenge.", d.ChallengerID),
		}, nil)

	default:
		log.WithField("action", action).Warn("Неизвестное действие дуэли")
	}
}
