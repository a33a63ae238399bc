// Package giveaway — розыгрыши токенов: организатор вносит сумму сразу,
// в течение окна участники нажимают кнопку, по закрытии победители
// выбираются по весам (роли дают дополнительные билеты).
package giveaway

import (
	"strings"
	"time"

	"serotonyl.ru/discord-economy-bot/internal/config"
)

// Settings — параметры розыгрышей.
type Settings struct {
	Window  time.Duration
	Winners config.Range
	// роль → дополнительные билеты
	PriorityRoles map[string]int
}

// SettingsFromConfig собирает Settings из конфигурации.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Window:        cfg.GiveawayWindow,
		Winners:       cfg.GiveawayWinnersRange,
		PriorityRoles: cfg.PriorityRoles,
	}
}

// Entry — участник и число его билетов.
type Entry struct {
	UserID string
	Weight int
}

// Giveaway — открытый розыгрыш. Живёт только в памяти.
type Giveaway struct {
	ID        string
	HostID    string
	ChannelID string
	Amount    int64
	Winners   int
	// дата суточного лимита, с которой списана сумма
	CapDate   string
	CreatedAt time.Time
	ClosesAt  time.Time

	entries []Entry
	index   map[string]int
	closed  bool
	timer   *time.Timer
}

// Entries — копия списка участников в порядке заявок.
func (g *Giveaway) Entries() []Entry {
	return append([]Entry(nil), g.entries...)
}

func (g *Giveaway) snapshot() Giveaway {
	return Giveaway{
		ID:        g.ID,
		HostID:    g.HostID,
		ChannelID: g.ChannelID,
		Amount:    g.Amount,
		Winners:   g.Winners,
		CapDate:   g.CapDate,
		CreatedAt: g.CreatedAt,
		ClosesAt:  g.ClosesAt,
		entries:   g.Entries(),
	}
}

// Result — итог закрытого розыгрыша.
type Result struct {
	Giveaway Giveaway
	Entrants int
	// уникальные победители в порядке выпадения
	WinnerIDs []string
	// выплата каждому победителю: floor(amount / winners)
	Share int64
	// участников не было, сумма возвращена организатору
	Refunded bool
}

// custom_id кнопки участия: "giveaway:enter:<id>".
const ButtonPrefix = "giveaway:enter:"

// ButtonID собирает custom_id кнопки участия.
func ButtonID(giveawayID string) string {
	return ButtonPrefix + giveawayID
}

// ParseButtonID извлекает id розыгрыша из custom_id.
func ParseButtonID(customID string) (string, bool) {
	id, ok := strings.CutPrefix(customID, ButtonPrefix)
	return id, ok && id != ""
}
