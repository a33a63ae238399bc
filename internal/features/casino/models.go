// Package casino реализует азартные игры на токены: монетку (/coinflip)
// и дуэли между пользователями (/duel).
// models.go описывает все структуры данных казино.
package casino

import (
	"strings"
	"time"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/config"
)

// Side — сторона монеты.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// ParseSide разбирает выбор пользователя ("heads"/"tails", регистр не важен).
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case Heads:
		return Heads, nil
	case Tails:
		return Tails, nil
	}
	return "", common.ErrInvalidChoice
}

// Opposite — другая сторона.
func (s Side) Opposite() Side {
	if s == Heads {
		return Tails
	}
	return Heads
}

// Emoji для ответа.
func (s Side) Emoji() string {
	if s == Heads {
		return "🪙"
	}
	return "🌑"
}

// Settings — параметры игр.
type Settings struct {
	// Вероятность выигрыша в монетку, [0, 1]
	WinProbability float64
	// Сколько живёт вызов на дуэль
	OfferTTL time.Duration
}

// SettingsFromConfig собирает Settings из конфигурации.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		WinProbability: cfg.CoinflipWinProbability,
		OfferTTL:       cfg.DuelOfferTTL,
	}
}

// CoinflipResult — результат броска монеты.
type CoinflipResult struct {
	Choice  Side
	Outcome Side
	Won     bool
	Stake   int64
	Balance int64
}

// Duel — открытый вызов на дуэль. Живёт только в памяти.
type Duel struct {
	ID           string
	ChallengerID string
	TargetID     string
	Amount       int64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired сообщает, истёк ли вызов к моменту now.
func (d *Duel) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// DuelResult — итог принятой дуэли.
type DuelResult struct {
	Duel          Duel
	WinnerID      string
	LoserID       string
	WinnerBalance int64
	LoserBalance  int64
}

// Префиксы custom_id кнопок дуэли: "duel:accept:<id>", "duel:decline:<id>".
const (
	ButtonPrefix  = "duel:"
	ActionAccept  = "accept"
	ActionDecline = "decline"
	ActionCancel  = "cancel"
)

// ButtonID собирает custom_id кнопки.
func ButtonID(action, duelID string) string {
	return ButtonPrefix + action + ":" + duelID
}

// ParseButtonID разбирает custom_id кнопки дуэли.
func ParseButtonID(customID string) (action, duelID string, ok bool) {
	rest, found := strings.CutPrefix(customID, ButtonPrefix)
	if !found {
		return "", "", false
	}
	action, duelID, ok = strings.Cut(rest, ":")
	if !ok || duelID == "" {
		return "", "", false
	}
	return action, duelID, true
}
