// Package economy — repository.go: Ledger, единственный путь изменения балансов.
// Баланс, total_earned и total_spent меняются только вместе,
// абсолютной установки баланса нет.
package economy

import (
	"sort"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Ledger — счета пользователей поверх Store.
// Методы *Tx вызываются внутри транзакции другой фичи.
type Ledger struct {
	store *storage.Store
}

// NewLedger создаёт Ledger.
func NewLedger(store *storage.Store) *Ledger {
	return &Ledger{store: store}
}

// GetBalance возвращает баланс; для неизвестного пользователя 0, счёт не создаётся.
func (l *Ledger) GetBalance(userID string) int64 {
	var balance int64
	_ = l.store.View(func(tx *storage.Tx) error {
		balance = tx.Balance(userID)
		return nil
	})
	return balance
}

// AdjustBalance прибавляет delta и возвращает новый баланс.
// Ограничение списаний — забота вызывающего.
func (l *Ledger) AdjustBalance(userID string, delta int64) int64 {
	var balance int64
	_ = l.store.Update(func(tx *storage.Tx) error {
		balance = l.AdjustTx(tx, userID, delta)
		return nil
	})
	return balance
}

// AdjustTx — AdjustBalance внутри транзакции.
// delta == 0 ничего не пишет и не помечает состояние грязным.
func (l *Ledger) AdjustTx(tx *storage.Tx, userID string, delta int64) int64 {
	if delta == 0 {
		return tx.Balance(userID)
	}
	var balance int64
	tx.MutateAccount(userID, func(acc *storage.Account) {
		acc.Balance += delta
		if delta > 0 {
			acc.TotalEarned += delta
		} else {
			acc.TotalSpent += -delta
		}
		balance = acc.Balance
	})
	return balance
}

// DebitTx списывает amount, если хватает средств, иначе возвращает
// *common.InsufficientFundsError и ничего не меняет.
func (l *Ledger) DebitTx(tx *storage.Tx, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if err := common.NewInsufficientFunds(amount, tx.Balance(userID)); err != nil {
		return 0, err
	}
	return l.AdjustTx(tx, userID, -amount), nil
}

// RecordPurchase добавляет запись о покупке. Баланс не меняется.
func (l *Ledger) RecordPurchase(userID, itemName string, unitPrice, quantity int64) storage.Purchase {
	var p storage.Purchase
	_ = l.store.Update(func(tx *storage.Tx) error {
		p = l.RecordPurchaseTx(tx, userID, itemName, unitPrice, quantity)
		return nil
	})
	return p
}

// RecordPurchaseTx — RecordPurchase внутри транзакции.
func (l *Ledger) RecordPurchaseTx(tx *storage.Tx, userID, itemName string, unitPrice, quantity int64) storage.Purchase {
	p := storage.Purchase{
		ItemName:    itemName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		TotalCost:   unitPrice * quantity,
		PurchasedAt: tx.Now().UTC(),
	}
	tx.MutateAccount(userID, func(acc *storage.Account) {
		acc.Purchases = append(acc.Purchases, p)
	})
	return p
}

// Stats возвращает сводку по счёту (нулевую для неизвестного).
func (l *Ledger) Stats(userID string) Stats {
	st := Stats{UserID: userID}
	_ = l.store.View(func(tx *storage.Tx) error {
		acc, _ := tx.Account(userID)
		st.Balance = acc.Balance
		st.TotalEarned = acc.TotalEarned
		st.TotalSpent = acc.TotalSpent
		st.Purchases = acc.Purchases
		return nil
	})
	return st
}

// Leaderboard — топ по балансу; при равенстве — по id.
func (l *Ledger) Leaderboard(limit int) []LeaderboardEntry {
	var entries []LeaderboardEntry
	_ = l.store.View(func(tx *storage.Tx) error {
		for _, id := range tx.AccountIDs() {
			entries = append(entries, LeaderboardEntry{UserID: id, Balance: tx.Balance(id)})
		}
		return nil
	})

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ResetTx удаляет все счета.
func (l *Ledger) ResetTx(tx *storage.Tx) {
	tx.ResetAccounts()
}
