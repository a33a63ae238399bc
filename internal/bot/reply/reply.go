// Package reply — общие помощники для ответов на взаимодействия Discord:
// эмбеды, эфемерные сообщения, разбор опций команд и рендер ошибок.
package reply

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
)

// Цвета эмбедов
const (
	ColorGold  = 0xF1C40F
	ColorGreen = 0x2ECC71
	ColorRed   = 0xE74C3C
	ColorBlue  = 0x3498DB
	ColorGrey  = 0x95A5A6
)

// Responder — часть *discordgo.Session, нужная обработчикам.
// В тестах подменяется записывающей реализацией.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Embed отвечает эмбедом (видят все).
func Embed(s Responder, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) {
	respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
}

// Ephemeral отвечает текстом, который видит только автор.
func Ephemeral(s Responder, i *discordgo.InteractionCreate, text string) {
	respond(s, i, &discordgo.InteractionResponseData{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// EphemeralEmbed — эмбед, видимый только автору.
func EphemeralEmbed(s Responder, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// Update заменяет сообщение, к которому привязана кнопка.
func Update(s Responder, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		log.WithError(err).Error("Ошибка обновления сообщения")
	}
}

func respond(s Responder, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.WithError(err).WithField("interaction", i.ID).Error("Ошибка отправки ответа")
	}
}

// Error показывает пользователю понятное сообщение об ошибке.
// Внутренние ошибки логируются, пользователь видит общий текст.
func Error(s Responder, i *discordgo.InteractionCreate, err error) {
	Ephemeral(s, i, "❌ "+ErrorText(err))
}

// ErrorText — английский текст ошибки для пользователя.
func ErrorText(err error) string {
	var (
		ife *common.InsufficientFundsError
		dce *common.DailyCapError
		cde *common.CooldownError
		nfe *common.ItemNotFoundError
	)
	switch {
	case errors.As(err, &ife):
		return fmt.Sprintf("Not enough tokens: you need %s more.", common.FormatTokens(ife.Shortfall()))
	case errors.Is(err, common.ErrInsufficientBalance):
		return "Not enough tokens."
	case errors.As(err, &dce):
		return fmt.Sprintf("Daily limit reached: you can still use %s today (limit %s).",
			common.FormatTokens(dce.Remaining()), common.FormatTokens(dce.Cap))
	case errors.As(err, &cde):
		if cde.Remaining < 0 {
			return "Please wait a moment."
		}
		if cde.Remaining < time.Minute {
			return fmt.Sprintf("Slow down! Try again in %s.", common.FormatSeconds(cde.Remaining))
		}
		return fmt.Sprintf("On cooldown. Try again in %s.", common.FormatRemaining(cde.Remaining))
	case errors.As(err, &nfe):
		if len(nfe.Suggestions) > 0 {
			return fmt.Sprintf("Item %q not found. Did you mean: %s?", nfe.Ref, strings.Join(nfe.Suggestions, ", "))
		}
		return fmt.Sprintf("Item %q not found.", nfe.Ref)
	}

	if text, ok := errorTexts[err]; ok {
		return text
	}
	for target, text := range errorTexts {
		if errors.Is(err, target) {
			return text
		}
	}

	log.WithError(err).Error("Необработанная ошибка в команде")
	return "Something went wrong. Please try again later."
}

var errorTexts = map[error]string{
	common.ErrInvalidAmount:        "Amount must be a positive number.",
	common.ErrInvalidQuantity:      "Quantity must be a positive number.",
	common.ErrInvalidPrice:         "Price must be a positive number.",
	common.ErrInvalidItemName:      "Item name must be 1-100 characters.",
	common.ErrInvalidDescription:   "Description must be at most 500 characters.",
	common.ErrDuplicateItem:        "An item with that name already exists.",
	common.ErrItemIndexOutOfRange:  "There is no item with that number.",
	common.ErrSelfTarget:           "You can't target yourself.",
	common.ErrBotTarget:            "You can't target a bot.",
	common.ErrInvalidChoice:        "Choose heads or tails.",
	common.ErrInvalidWinners:       "Invalid number of winners.",
	common.ErrDailyCapExceeded:     "Daily limit reached.",
	common.ErrItemNotFound:         "Item not found.",
	common.ErrDuelNotFound:         "This duel is no longer available.",
	common.ErrGiveawayNotFound:     "This giveaway is no longer available.",
	common.ErrDuelAlreadyOpen:      "There is already an open duel between you two.",
	common.ErrNotDuelTarget:        "This duel isn't addressed to you.",
	common.ErrNotDuelChallenger:    "Only the challenger can cancel this duel.",
	common.ErrOpponentInsufficient: "Your opponent no longer has enough tokens.",
	common.ErrDuelExpired:          "This duel has expired.",
	common.ErrGiveawayClosed:       "This giveaway has already ended.",
	common.ErrHostCannotEnter:      "You can't enter your own giveaway.",
	common.ErrAlreadyEntered:       "You have already entered.",
	common.ErrNotAdmin:             "You don't have permission to do that.",
	common.ErrWrongPassword:        "Wrong password.",
	common.ErrTooManyAttempts:      "Too many failed attempts. Try again in an hour.",
	common.ErrResetDisabled:        "Data reset is disabled.",
}
