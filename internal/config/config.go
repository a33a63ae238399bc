// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// перед этим godotenv подхватывает .env (если он есть).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Драйверы хранилища
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Discord ---
	DiscordBotToken string `envconfig:"DISCORD_BOT_TOKEN" required:"true"`
	// Гильдия для регистрации команд; пусто = глобальные команды
	DiscordGuildID string `envconfig:"DISCORD_GUILD_ID" default:""`
	AdminRoleID    string `envconfig:"ADMIN_ROLE_ID" required:"true"`

	// --- Admin ---
	// Пустой хеш = сброс данных отключён
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Storage ---
	StorageDriver     string        `envconfig:"STORAGE_DRIVER" default:"file"`
	DataDir           string        `envconfig:"DATA_DIR" default:"data"`
	StorageSyncWrites bool          `envconfig:"STORAGE_SYNC_WRITES" default:"false"`
	FlushInterval     time.Duration `envconfig:"FLUSH_INTERVAL" default:"30s"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	// --- Database (только для STORAGE_DRIVER=postgres) ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"economy_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`

	// --- Rewards ---
	PassiveRewardRange Range `envconfig:"PASSIVE_REWARD_RANGE" default:"1-5"`
	DailyRewardRange   Range `envconfig:"DAILY_REWARD_RANGE" default:"50-200"`
	WorkRewardRange    Range `envconfig:"WORK_REWARD_RANGE" default:"20-100"`
	CrimeWinRange      Range `envconfig:"CRIME_WIN_RANGE" default:"50-300"`
	CrimeLossRange     Range `envconfig:"CRIME_LOSS_RANGE" default:"20-150"`

	// --- Cooldowns ---
	CooldownDaily    time.Duration `envconfig:"COOLDOWN_DAILY" default:"24h"`
	CooldownWork     time.Duration `envconfig:"COOLDOWN_WORK" default:"3h"`
	CooldownCrime    time.Duration `envconfig:"COOLDOWN_CRIME" default:"1h"`
	CooldownGift     time.Duration `envconfig:"COOLDOWN_GIFT" default:"3s"`
	CooldownBuy      time.Duration `envconfig:"COOLDOWN_BUY" default:"3s"`
	CooldownCoinflip time.Duration `envconfig:"COOLDOWN_COINFLIP" default:"5s"`
	CooldownDuel     time.Duration `envconfig:"COOLDOWN_DUEL" default:"10s"`

	// --- Casino ---
	CoinflipWinProbability float64       `envconfig:"COINFLIP_WIN_PROBABILITY" default:"0.5"`
	DuelOfferTTL           time.Duration `envconfig:"DUEL_OFFER_TTL" default:"60s"`

	// --- Gifts & giveaways ---
	GiftDailyCap         int64          `envconfig:"GIFT_DAILY_CAP" default:"3000"`
	GiveawayDailyCap     int64          `envconfig:"GIVEAWAY_DAILY_CAP" default:"50000"`
	GiveawayWindow       time.Duration  `envconfig:"GIVEAWAY_WINDOW" default:"20s"`
	GiveawayWinnersRange Range          `envconfig:"GIVEAWAY_WINNERS_RANGE" default:"1-12"`
	PriorityRoles        map[string]int `envconfig:"PRIORITY_ROLES" default:""`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Range — закрытый диапазон целых чисел [Min, Max].
// В окружении задаётся как "min-max" или одним числом.
type Range struct {
	Min int64
	Max int64
}

// Decode реализует envconfig.Decoder.
func (r *Range) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("пустой диапазон")
	}

	lo, hi, found := strings.Cut(value, "-")
	min, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return fmt.Errorf("диапазон %q: %w", value, err)
	}
	max := min
	if found {
		max, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return fmt.Errorf("диапазон %q: %w", value, err)
		}
	}
	if min > max {
		return fmt.Errorf("диапазон %q: min > max", value)
	}

	r.Min, r.Max = min, max
	return nil
}

// Contains проверяет, попадает ли n в диапазон.
func (r Range) Contains(n int64) bool {
	return n >= r.Min && n <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс приложения (для суточных лимитов).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR не задан")
		}
	case StoragePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORAGE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}

	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.FlushInterval <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL и SWEEP_INTERVAL должны быть > 0")
	}

	for name, r := range map[string]Range{
		"PASSIVE_REWARD_RANGE": c.PassiveRewardRange,
		"DAILY_REWARD_RANGE":   c.DailyRewardRange,
		"WORK_REWARD_RANGE":    c.WorkRewardRange,
		"CRIME_WIN_RANGE":      c.CrimeWinRange,
		"CRIME_LOSS_RANGE":     c.CrimeLossRange,
	} {
		if r.Min < 0 {
			return fmt.Errorf("%s не может быть отрицательным", name)
		}
	}
	if c.GiveawayWinnersRange.Min < 1 {
		return fmt.Errorf("GIVEAWAY_WINNERS_RANGE: минимум победителей 1")
	}

	if c.CoinflipWinProbability < 0 || c.CoinflipWinProbability > 1 {
		return fmt.Errorf("COINFLIP_WIN_PROBABILITY должен быть в [0, 1]")
	}
	if c.GiftDailyCap <= 0 || c.GiveawayDailyCap <= 0 {
		return fmt.Errorf("GIFT_DAILY_CAP и GIVEAWAY_DAILY_CAP должны быть > 0")
	}
	if c.GiveawayWindow <= 0 || c.DuelOfferTTL <= 0 {
		return fmt.Errorf("GIVEAWAY_WINDOW и DUEL_OFFER_TTL должны быть > 0")
	}
	for role, bonus := range c.PriorityRoles {
		if bonus < 0 {
			return fmt.Errorf("PRIORITY_ROLES: отрицательный бонус у роли %s", role)
		}
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	return nil
}

// Load читает .env (если есть), затем переменные окружения и заполняет Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}
	return Process()
}

// Process заполняет Config только из окружения, без .env.
func Process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
