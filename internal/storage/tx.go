package storage

import (
	"sort"
	"time"
)

// Tx — доступ к состоянию внутри Store.Update / Store.View.
// Живёт только на время вызова fn; сохранять его нельзя.
//
// Правило для вызывающих: сначала проверить все условия, потом менять.
// Ошибка из fn не откатывает уже сделанные изменения.
type Tx struct {
	data     *Data
	now      time.Time
	readOnly bool
	changed  bool
}

// Now — время начала транзакции (одно на всю транзакцию).
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) write() {
	if tx.readOnly {
		panic("storage: запись внутри View")
	}
	tx.changed = true
}

// --- Счета ---

// Account возвращает копию счёта; для неизвестного пользователя — нулевой счёт.
// Счёт при этом не создаётся.
func (tx *Tx) Account(userID string) (Account, bool) {
	acc, ok := tx.data.Accounts[userID]
	if !ok {
		return Account{}, false
	}
	return acc.Clone(), true
}

// Balance — текущий баланс (0 для неизвестного).
func (tx *Tx) Balance(userID string) int64 {
	if acc, ok := tx.data.Accounts[userID]; ok {
		return acc.Balance
	}
	return 0
}

// MutateAccount создаёт счёт при необходимости и передаёт его в fn.
func (tx *Tx) MutateAccount(userID string, fn func(acc *Account)) {
	tx.write()
	acc, ok := tx.data.Accounts[userID]
	if !ok {
		acc = &Account{Purchases: []Purchase{}}
		tx.data.Accounts[userID] = acc
	}
	fn(acc)
}

// AccountIDs возвращает id всех счетов по возрастанию.
func (tx *Tx) AccountIDs() []string {
	ids := make([]string, 0, len(tx.data.Accounts))
	for id := range tx.data.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetAccounts удаляет все счета.
func (tx *Tx) ResetAccounts() {
	tx.write()
	tx.data.Accounts = make(map[string]*Account)
}

// --- Магазин ---

// Shop возвращает копию списка товаров.
func (tx *Tx) Shop() []ShopItem {
	return append([]ShopItem(nil), tx.data.Shop...)
}

// SetShop заменяет список товаров целиком.
func (tx *Tx) SetShop(items []ShopItem) {
	tx.write()
	tx.data.Shop = append([]ShopItem{}, items...)
}

// --- Перезарядки ---

// Cooldown возвращает сохранённую метку (kind, user).
func (tx *Tx) Cooldown(kind, userID string) (string, bool) {
	v, ok := tx.data.Cooldowns[kind][userID]
	return v, ok
}

// SetCooldown перезаписывает метку (kind, user).
func (tx *Tx) SetCooldown(kind, userID, value string) {
	tx.write()
	byUser, ok := tx.data.Cooldowns[kind]
	if !ok {
		byUser = make(map[string]string)
		tx.data.Cooldowns[kind] = byUser
	}
	byUser[userID] = value
}

// ResetCooldowns удаляет все метки перезарядок.
func (tx *Tx) ResetCooldowns() {
	tx.write()
	tx.data.Cooldowns = make(map[string]map[string]string)
}

// --- Суточные лимиты ---

// Usage — расход лимита kind пользователем; устаревшая дата = 0.
func (tx *Tx) Usage(kind, userID, date string) int64 {
	u, ok := tx.data.Limits[kind][userID]
	if !ok || u.Date != date {
		return 0
	}
	return u.Amount
}

// SetUsage записывает расход лимита за дату. amount <= 0 удаляет запись.
func (tx *Tx) SetUsage(kind, userID, date string, amount int64) {
	tx.write()
	byUser, ok := tx.data.Limits[kind]
	if !ok {
		byUser = make(map[string]DailyUsage)
		tx.data.Limits[kind] = byUser
	}
	if amount <= 0 {
		delete(byUser, userID)
		return
	}
	byUser[userID] = DailyUsage{Date: date, Amount: amount}
}

// ResetLimits обнуляет все суточные лимиты.
func (tx *Tx) ResetLimits() {
	tx.write()
	tx.data.Limits = make(map[string]map[string]DailyUsage)
}

// PruneLimits удаляет записи с датой, отличной от today. Возвращает число удалённых.
func (tx *Tx) PruneLimits(today string) int {
	removed := 0
	for _, byUser := range tx.data.Limits {
		for userID, u := range byUser {
			if u.Date != today {
				tx.write()
				delete(byUser, userID)
				removed++
			}
		}
	}
	return removed
}
