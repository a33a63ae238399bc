// Package bot — commands.go описывает slash-команды и синхронизирует их с Discord.
package bot

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Команды, доступные только роли администратора.
var adminCommands = map[string]bool{
	"adminshop":    true,
	"addtokens":    true,
	"removetokens": true,
	"resetdata":    true,
}

func userOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    required,
	}
}

func intOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func subCommand(name, description string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     opts,
	}
}

// Commands возвращает все slash-команды бота.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "balance", Description: "Show a token balance", Options: []*discordgo.ApplicationCommandOption{
			userOption("Whose balance to show", false),
		}},
		{Name: "leaderboard", Description: "Top 10 richest members"},
		{Name: "inventory", Description: "Show purchase history", Options: []*discordgo.ApplicationCommandOption{
			userOption("Whose inventory to show", false),
		}},
		{Name: "cooldowns", Description: "Show when your rewards are ready"},
		{Name: "daily", Description: "Claim your daily reward"},
		{Name: "work", Description: "Work a shift for tokens"},
		{Name: "crime", Description: "Risk it for a bigger payout"},
		{Name: "coinflip", Description: "Bet tokens on a coin flip", Options: []*discordgo.ApplicationCommandOption{
			intOption("amount", "Tokens to bet", true),
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "choice",
				Description: "Heads or tails",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Heads", Value: "heads"},
					{Name: "Tails", Value: "tails"},
				},
			},
		}},
		{Name: "duel", Description: "Challenge someone to a duel", Options: []*discordgo.ApplicationCommandOption{
			userOption("Who to challenge", true),
			intOption("amount", "Tokens each side stakes", true),
		}},
		{Name: "gift", Description: "Gift tokens to someone", Options: []*discordgo.ApplicationCommandOption{
			userOption("Who receives the tokens", true),
			intOption("amount", "Tokens to gift", true),
		}},
		{Name: "giveaway", Description: "Host a token giveaway", Options: []*discordgo.ApplicationCommandOption{
			intOption("amount", "Total tokens to give away", true),
			intOption("winners", "Number of winners", false),
		}},
		{Name: "shop", Description: "Browse the shop"},
		{Name: "buy", Description: "Buy an item from the shop", Options: []*discordgo.ApplicationCommandOption{
			stringOption("item", "Item name or number", true),
			intOption("quantity", "How many to buy", false),
		}},
		{Name: "adminshop", Description: "Manage the shop", Options: []*discordgo.ApplicationCommandOption{
			subCommand("add", "Add an item",
				stringOption("name", "Item name", true),
				intOption("price", "Price in tokens", true),
				stringOption("description", "Item description", false),
			),
			subCommand("update", "Update an item",
				intOption("position", "Item number", true),
				stringOption("name", "New name", false),
				intOption("price", "New price", false),
				stringOption("description", "New description", false),
			),
			subCommand("delete", "Remove an item",
				intOption("position", "Item number", true),
			),
			subCommand("list", "List items"),
		}},
		{Name: "addtokens", Description: "Give tokens to a member", Options: []*discordgo.ApplicationCommandOption{
			userOption("Who receives the tokens", true),
			intOption("amount", "Tokens to add", true),
		}},
		{Name: "removetokens", Description: "Take tokens from a member", Options: []*discordgo.ApplicationCommandOption{
			userOption("Who loses the tokens", true),
			intOption("amount", "Tokens to remove", true),
		}},
		{Name: "resetdata", Description: "Wipe all balances, cooldowns and limits", Options: []*discordgo.ApplicationCommandOption{
			stringOption("password", "Reset password", true),
		}},
	}
}

// CommandAPI — часть *discordgo.Session для регистрации команд.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// commandNeedsUpdate сравнивает имя, описание и опции верхнего уровня.
func commandNeedsUpdate(existing, desired *discordgo.ApplicationCommand) bool {
	if existing.Name != desired.Name || existing.Description != desired.Description {
		return true
	}
	if len(existing.Options) != len(desired.Options) {
		return true
	}
	for n, opt := range existing.Options {
		want := desired.Options[n]
		if opt.Name != want.Name ||
			opt.Description != want.Description ||
			opt.Type != want.Type ||
			opt.Required != want.Required ||
			len(opt.Options) != len(want.Options) ||
			len(opt.Choices) != len(want.Choices) {
			return true
		}
	}
	return false
}

// RegisterCommands приводит набор команд в Discord к Commands():
// создаёт новые, обновляет изменившиеся, удаляет лишние.
func RegisterCommands(api CommandAPI, appID, guildID string) error {
	existing, err := api.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	byName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		byName[cmd.Name] = cmd
	}

	logger := log.WithField("guild_id", guildID)
	for _, desired := range Commands() {
		cur, ok := byName[desired.Name]
		if !ok {
			logger.WithField("command", desired.Name).Info("Создаём команду")
			if _, err := api.ApplicationCommandCreate(appID, guildID, desired); err != nil {
				logger.WithError(err).WithField("command", desired.Name).Error("Ошибка создания команды")
			}
			continue
		}
		delete(byName, desired.Name)
		if commandNeedsUpdate(cur, desired) {
			logger.WithField("command", desired.Name).Info("Обновляем команду")
			if _, err := api.ApplicationCommandEdit(appID, guildID, cur.ID, desired); err != nil {
				logger.WithError(err).WithField("command", desired.Name).Error("Ошибка обновления команды")
			}
		}
	}

	for _, cmd := range byName {
		logger.WithField("command", cmd.Name).Info("Удаляем устаревшую команду")
		if err := api.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.WithError(err).WithField("command", cmd.Name).Error("Ошибка удаления команды")
		}
	}
	return nil
}
