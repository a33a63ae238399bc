// Package economy реализует экономику бота: баланс, подарки, рейтинг.
// models.go описывает структуры результатов.
package economy

import "serotonyl.ru/discord-economy-bot/internal/storage"

// Stats — сводка по счёту пользователя.
type Stats struct {
	UserID      string
	Balance     int64
	TotalEarned int64
	TotalSpent  int64
	Purchases   []storage.Purchase
}

// LeaderboardEntry — строка рейтинга.
type LeaderboardEntry struct {
	Rank    int
	UserID  string
	Balance int64
}

// GiftRequest — запрос на подарок.
type GiftRequest struct {
	FromID  string
	ToID    string
	ToIsBot bool
	Amount  int64
}

// GiftResult — итог подарка.
type GiftResult struct {
	Amount          int64
	SenderBalance   int64
	ReceiverBalance int64
	// Остаток суточного лимита после подарка
	CapRemaining int64
}

// Имена суточных лимитов
const (
	CapGift     = "gift"
	CapGiveaway = "giveaway"
)
