// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: открывает хранилище (файлы или PostgreSQL),
// создаёт сервисы, обработчики, фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/bot"
	"serotonyl.ru/discord-economy-bot/internal/bot/filters"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/db/postgres"
	"serotonyl.ru/discord-economy-bot/internal/features/admin"
	"serotonyl.ru/discord-economy-bot/internal/features/casino"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/features/giveaway"
	"serotonyl.ru/discord-economy-bot/internal/features/rewards"
	"serotonyl.ru/discord-economy-bot/internal/features/shop"
	"serotonyl.ru/discord-economy-bot/internal/jobs"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     *storage.Store
	Giveaways *giveaway.Service
}

// Services — сервисы фич, собранные поверх одного хранилища.
type Services struct {
	Ledger    *economy.Ledger
	Economy   *economy.Service
	Rewards   *rewards.Service
	Casino    *casino.Service
	Giveaways *giveaway.Service
	Shop      *shop.Service
	Admin     *admin.Service
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := storage.New(backend, storage.WithSyncWrites(cfg.StorageSyncWrites))
	if err := store.Load(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("ошибка загрузки данных: %w", err)
	}

	// === 2. Discord ===
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("ошибка создания сессии Discord: %w", err)
	}

	// === 3. Сервисы ===
	svc := NewServices(store, cfg, common.NewRandom(0))

	// === 4. Обработчики ===
	handlers := bot.Handlers{
		Economy:  economy.NewHandler(svc.Economy),
		Rewards:  rewards.NewHandler(svc.Rewards),
		Casino:   casino.NewHandler(svc.Casino),
		Giveaway: giveaway.NewHandler(svc.Giveaways),
		Shop:     shop.NewHandler(svc.Shop, cfg.Location()),
		Admin:    admin.NewHandler(svc.Admin),
	}

	// === 5. Фильтры ===
	guildFilter := filters.NewGuildFilter(cfg.DiscordGuildID, cfg.AdminRoleID)

	// === 6. Собираем бота ===
	b := bot.New(session, cfg, handlers, svc.Rewards, svc.Giveaways, guildFilter)

	// === 7. Планировщик задач ===
	scheduler := NewScheduler(cfg, store, svc)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     store,
		Giveaways: svc.Giveaways,
	}, nil
}

// NewServices собирает сервисы фич поверх хранилища.
func NewServices(store *storage.Store, cfg *config.Config, rng common.Random) *Services {
	loc := cfg.Location()
	ledger := economy.NewLedger(store)
	tracker := cooldown.NewTracker(store)
	kinds := cooldown.KindsFromConfig(cfg)

	return &Services{
		Ledger: ledger,
		Economy: economy.NewService(store, ledger, tracker, kinds.Gift,
			economy.DailyCap{Name: economy.CapGift, Limit: cfg.GiftDailyCap, Loc: loc}),
		Rewards: rewards.NewService(store, ledger, tracker, kinds, rewards.SettingsFromConfig(cfg), rng),
		Casino:  casino.NewService(store, ledger, tracker, kinds, casino.SettingsFromConfig(cfg), rng),
		Giveaways: giveaway.NewService(store, ledger,
			economy.DailyCap{Name: economy.CapGiveaway, Limit: cfg.GiveawayDailyCap, Loc: loc},
			giveaway.SettingsFromConfig(cfg), rng),
		Shop:  shop.NewService(store, ledger, tracker, kinds.Buy),
		Admin: admin.NewService(store, ledger, cfg.AdminPasswordHash),
	}
}

// NewScheduler подключает фоновые задачи к сервисам.
func NewScheduler(cfg *config.Config, store *storage.Store, svc *Services) *jobs.Scheduler {
	return jobs.NewScheduler(jobs.Config{
		Location:      cfg.Location(),
		FlushInterval: cfg.FlushInterval,
		SweepInterval: cfg.SweepInterval,
	}, store, svc.Economy,
		jobs.Sweeper{Name: "passive_seen", Sweep: svc.Rewards.Sweep},
		jobs.Sweeper{Name: "duels", Sweep: func() int { return len(svc.Casino.Sweep()) }},
		jobs.Sweeper{Name: "giveaways", Sweep: func() int { return len(svc.Giveaways.Sweep()) }},
	)
}

// openBackend выбирает backend хранилища по STORAGE_DRIVER.
func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool, postgres.Migrations); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		log.Info("Хранилище: PostgreSQL")
		return postgres.NewDocumentBackend(pool), nil

	default:
		backend, err := storage.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.WithField("dir", cfg.DataDir).Info("Хранилище: JSON-файлы")
		return backend, nil
	}
}

// Shutdown закрывает открытые розыгрыши (победители получают выплаты,
// пустые возвращаются организатору) и делает финальное сохранение.
func (a *App) Shutdown(ctx context.Context) error {
	if results := a.Giveaways.CloseAll(); len(results) > 0 {
		log.WithField("giveaways", len(results)).Info("Открытые розыгрыши закрыты при остановке")
	}
	if err := a.Store.Close(ctx); err != nil {
		return fmt.Errorf("финальное сохранение: %w", err)
	}
	return nil
}
