// Package storage хранит всё состояние бота в памяти и периодически
// сбрасывает его в постоянное хранилище (JSON-файлы или PostgreSQL).
// models.go описывает документы: счета, магазин, перезарядки, суточные лимиты.
package storage

import "time"

// Имена документов в хранилище.
const (
	DocAccounts  = "accounts"
	DocShop      = "shop"
	DocCooldowns = "cooldowns"
	DocLimits    = "limits"
)

// DocumentNames — все документы в порядке загрузки.
var DocumentNames = []string{DocAccounts, DocShop, DocCooldowns, DocLimits}

// Account — счёт пользователя.
// Баланс меняется только относительными корректировками, вместе с totals.
type Account struct {
	Balance     int64      `json:"balance"`
	TotalEarned int64      `json:"total_earned"`
	TotalSpent  int64      `json:"total_spent"`
	Purchases   []Purchase `json:"purchases"`
}

// Clone возвращает глубокую копию счёта.
func (a *Account) Clone() Account {
	c := *a
	c.Purchases = append([]Purchase(nil), a.Purchases...)
	return c
}

// Purchase — неизменяемая запись о покупке.
// Название товара копируется, поэтому переименование товара не меняет историю.
type Purchase struct {
	ItemName    string    `json:"item_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int64     `json:"quantity"`
	TotalCost   int64     `json:"total_cost"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// ShopItem — товар магазина. Позиция в списке значима (адресация по номеру).
type ShopItem struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

// DailyUsage — сколько из суточного лимита израсходовано в дату Date.
type DailyUsage struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// Data — всё состояние, которое сохраняется на диск.
type Data struct {
	Accounts  map[string]*Account
	Shop      []ShopItem
	Cooldowns map[string]map[string]string
	Limits    map[string]map[string]DailyUsage
}

func newData() *Data {
	return &Data{
		Accounts:  make(map[string]*Account),
		Shop:      []ShopItem{},
		Cooldowns: make(map[string]map[string]string),
		Limits:    make(map[string]map[string]DailyUsage),
	}
}

// legacyAccount — формат счёта старых версий: метки последнего
// daily/work/crime лежали прямо в счёте.
type legacyAccount struct {
	Account
	LastDaily string `json:"last_daily,omitempty"`
	LastWork  string `json:"last_work,omitempty"`
	LastCrime string `json:"last_crime,omitempty"`
}
