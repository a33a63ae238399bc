// Package admin — handlers.go обрабатывает /addtokens, /removetokens и /resetdata.
// Роль администратора проверяет маршрутизатор бота до вызова обработчиков.
package admin

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleAddTokens — /addtokens user amount.
func (h *Handler) HandleAddTokens(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	user, ok := reply.ResolvedUser(i, opts, "user")
	if !ok {
		reply.Ephemeral(s, i, "❌ Choose a user.")
		return
	}
	if user.Bot {
		reply.Error(s, i, common.ErrBotTarget)
		return
	}
	amount, _ := opts.Int("amount")

	balance, err := h.service.AddTokens(reply.Actor(i).ID, user.ID, amount)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Ephemeral(s, i, fmt.Sprintf("✅ Added %s to <@%s>. New balance: %s.",
		common.FormatTokens(amount), user.ID, common.FormatTokens(balance)))
}

// HandleRemoveTokens — /removetokens user amount.
func (h *Handler) HandleRemoveTokens(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	user, ok := reply.ResolvedUser(i, opts, "user")
	if !ok {
		reply.Ephemeral(s, i, "❌ Choose a user.")
		return
	}
	amount, _ := opts.Int("amount")

	balance, err := h.service.RemoveTokens(reply.Actor(i).ID, user.ID, amount)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Ephemeral(s, i, fmt.Sprintf("✅ Removed %s from <@%s>. New balance: %s.",
		common.FormatTokens(amount), user.ID, common.FormatTokens(balance)))
}

// HandleResetData — /resetdata password.
func (h *Handler) HandleResetData(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	password, _ := opts.String("password")

	summary, err := h.service.ResetAllData(reply.Actor(i).ID, password)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Ephemeral(s, i, fmt.Sprintf("🧹 All economy data has been reset. Accounts removed: %d. The shop was kept.", summary.Accounts))
}
