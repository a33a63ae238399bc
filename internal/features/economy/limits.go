package economy

import (
	"time"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// DailyCap — суточный лимит на пользователя, сбрасывается в местную полночь.
// Учитывается отдельно от total_spent.
type DailyCap struct {
	Name  string
	Limit int64
	Loc   *time.Location
}

// Today — текущая дата лимита.
func (c DailyCap) Today(tx *storage.Tx) string {
	return common.LocalDate(tx.Now(), c.Loc)
}

// UsedTx — сколько израсходовано сегодня.
func (c DailyCap) UsedTx(tx *storage.Tx, userID string) int64 {
	return tx.Usage(c.Name, userID, c.Today(tx))
}

// CheckTx возвращает *common.DailyCapError, если amount не помещается в лимит.
func (c DailyCap) CheckTx(tx *storage.Tx, userID string, amount int64) error {
	used := c.UsedTx(tx, userID)
	if used+amount > c.Limit {
		return &common.DailyCapError{Cap: c.Limit, Used: used, Requested: amount}
	}
	return nil
}

// ConsumeTx списывает amount из лимита и возвращает дату, на которую он записан.
func (c DailyCap) ConsumeTx(tx *storage.Tx, userID string, amount int64) string {
	today := c.Today(tx)
	tx.SetUsage(c.Name, userID, today, tx.Usage(c.Name, userID, today)+amount)
	return today
}

// RollbackTx возвращает amount в лимит даты date. Если дата уже
// прошла, возвращать нечего: лимит и так обнулился.
func (c DailyCap) RollbackTx(tx *storage.Tx, userID, date string, amount int64) {
	used := tx.Usage(c.Name, userID, date)
	if used == 0 {
		return
	}
	tx.SetUsage(c.Name, userID, date, used-amount)
}

// RemainingTx — остаток лимита на сегодня.
func (c DailyCap) RemainingTx(tx *storage.Tx, userID string) int64 {
	r := c.Limit - c.UsedTx(tx, userID)
	if r < 0 {
		return 0
	}
	return r
}
