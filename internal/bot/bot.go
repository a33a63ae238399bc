// Package bot содержит главный модуль бота — подключение к Discord, запуск и остановку.
// bot.go маршрутизирует slash-команды и кнопки к обработчикам фич
// и начисляет пассивную награду за сообщения.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/bot/filters"
	"serotonyl.ru/discord-economy-bot/internal/bot/middleware"
	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/features/admin"
	"serotonyl.ru/discord-economy-bot/internal/features/casino"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/features/giveaway"
	"serotonyl.ru/discord-economy-bot/internal/features/rewards"
	"serotonyl.ru/discord-economy-bot/internal/features/shop"
)

// HandlerFunc — обработчик взаимодействия.
type HandlerFunc func(s reply.Responder, i *discordgo.InteractionCreate)

// Handlers — обработчики всех фич.
type Handlers struct {
	Economy  *economy.Handler
	Rewards  *rewards.Handler
	Casino   *casino.Handler
	Giveaway *giveaway.Handler
	Shop     *shop.Handler
	Admin    *admin.Handler
}

type buttonRoute struct {
	prefix  string
	handler HandlerFunc
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config

	filter      *filters.GuildFilter
	rateLimiter *middleware.RateLimiter

	rewardService   *rewards.Service
	giveawayService *giveaway.Service

	commands map[string]HandlerFunc
	buttons  []buttonRoute

	// ограничитель параллелизма обработки взаимодействий
	inflight chan struct{}
	wg       sync.WaitGroup

	// после stopping новые события не принимаются
	mu       sync.Mutex
	stopping bool
	stopOnce sync.Once
}

// New создаёт новый экземпляр бота со всеми зависимостями.
// session может быть nil в тестах, если не вызывается Start.
func New(
	session *discordgo.Session,
	cfg *config.Config,
	h Handlers,
	rewardService *rewards.Service,
	giveawayService *giveaway.Service,
	filter *filters.GuildFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	b := &Bot{
		session:         session,
		cfg:             cfg,
		filter:          filter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		rewardService:   rewardService,
		giveawayService: giveawayService,
		inflight:        make(chan struct{}, maxInFlight),
	}

	b.commands = map[string]HandlerFunc{
		"balance":      h.Economy.HandleBalance,
		"leaderboard":  h.Economy.HandleLeaderboard,
		"gift":         h.Economy.HandleGift,
		"daily":        h.Rewards.HandleDaily,
		"work":         h.Rewards.HandleWork,
		"crime":        h.Rewards.HandleCrime,
		"cooldowns":    h.Rewards.HandleCooldowns,
		"coinflip":     h.Casino.HandleCoinflip,
		"duel":         h.Casino.HandleDuel,
		"giveaway":     h.Giveaway.HandleGiveaway,
		"shop":         h.Shop.HandleShop,
		"buy":          h.Shop.HandleBuy,
		"inventory":    h.Shop.HandleInventory,
		"adminshop":    h.Shop.HandleAdminShop,
		"addtokens":    h.Admin.HandleAddTokens,
		"removetokens": h.Admin.HandleRemoveTokens,
		"resetdata":    h.Admin.HandleResetData,
	}
	b.buttons = []buttonRoute{
		{prefix: casino.ButtonPrefix, handler: h.Casino.HandleButton},
		{prefix: giveaway.ButtonPrefix, handler: h.Giveaway.HandleButton},
	}
	return b
}

// Start подключается к Discord, регистрирует команды и обрабатывает
// события до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	removeInteraction := b.session.AddHandler(b.onInteraction)
	removeMessage := b.session.AddHandler(b.onMessage)

	if err := b.session.Open(); err != nil {
		removeInteraction()
		removeMessage()
		return fmt.Errorf("не удалось подключиться к Discord: %w", err)
	}

	if err := RegisterCommands(b.session, b.session.State.User.ID, b.cfg.DiscordGuildID); err != nil {
		log.WithError(err).Error("Ошибка регистрации slash-команд")
	}

	go giveaway.Announce(ctx, b.session, b.giveawayService.Results())

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"guild_id":     b.cfg.DiscordGuildID,
		"bot_user":     b.session.State.User.Username,
	}).Info("Бот запущен и ожидает события...")

	<-ctx.Done()
	log.Info("Бот останавливается (ctx done)...")
	removeInteraction()
	removeMessage()
	b.Stop()
	return nil
}

// Stop перестаёт принимать события, закрывает соединение с Discord
// и дожидается уже начатых обработчиков. Повторный вызов ничего не делает.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopping = true
		b.mu.Unlock()

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				log.WithError(err).Warn("Ошибка закрытия сессии Discord")
			}
		}
		b.wg.Wait()
		b.rateLimiter.Close()
	})
}

// begin регистрирует обработчик события в wg; false после Stop.
func (b *Bot) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping {
		return false
	}
	b.wg.Add(1)
	return true
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.begin() {
		return
	}
	// лимит параллелизма
	b.inflight <- struct{}{}
	go func() {
		defer b.wg.Done()
		defer func() { <-b.inflight }()
		b.HandleInteraction(s, i)
	}()
}

func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.begin() {
		return
	}
	defer b.wg.Done()
	b.HandleMessage(m)
}

// HandleMessage начисляет пассивную награду за сообщение в гильдии.
func (b *Bot) HandleMessage(m *discordgo.MessageCreate) {
	defer middleware.RecoverFromPanic(log.Fields{"event": "message_create"})

	if !b.filter.AllowMessage(m) {
		return
	}
	middleware.LogMessage(m)

	if amount, ok := b.rewardService.PassiveReward(m.ID, m.Author.ID); ok {
		log.WithFields(log.Fields{
			"user_id":    m.Author.ID,
			"message_id": m.ID,
			"amount":     amount,
		}).Trace("Пассивная награда")
	}
}

// HandleInteraction обрабатывает одно взаимодействие.
func (b *Bot) HandleInteraction(s reply.Responder, i *discordgo.InteractionCreate) {
	if !b.filter.AllowInteraction(i) {
		return
	}

	fields := middleware.InteractionFields(i)
	defer middleware.RecoverFromPanic(fields)
	middleware.LogInteraction(i)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.routeCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.routeButton(s, i)
	default:
		log.WithFields(fields).WithField("type", i.Type).Debug("Тип взаимодействия не поддерживается")
	}
}

// routeCommand маршрутизирует slash-команду к нужному обработчику.
func (b *Bot) routeCommand(s reply.Responder, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	handler, ok := b.commands[name]
	if !ok {
		reply.Ephemeral(s, i, "❌ Unknown command.")
		return
	}

	if adminCommands[name] && !b.filter.IsAdmin(i) {
		reply.Error(s, i, common.ErrNotAdmin)
		return
	}

	if !b.allow(s, i, name) {
		return
	}
	handler(s, i)
}

// routeButton находит обработчик кнопки по префиксу custom_id.
func (b *Bot) routeButton(s reply.Responder, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	for _, route := range b.buttons {
		if !strings.HasPrefix(customID, route.prefix) {
			continue
		}
		if !b.allow(s, i, route.prefix) {
			return
		}
		route.handler(s, i)
		return
	}
	log.WithField("custom_id", customID).Warn("Кнопка без обработчика")
}

// allow применяет rate limit "userID:команда" и отвечает при отказе.
func (b *Bot) allow(s reply.Responder, i *discordgo.InteractionCreate, action string) bool {
	userID := reply.Actor(i).ID
	retry, ok := b.rateLimiter.Reserve(middleware.Key(userID, action))
	if ok {
		return true
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"action":  action,
	}).Debug("rate limited")
	reply.Error(s, i, &common.CooldownError{Kind: action, Remaining: retry})
	return false
}
