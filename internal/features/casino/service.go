// Package casino — service.go координирует игры от проверки ставки до выплаты.
package casino

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service управляет казино.
//
// Открытые дуэли хранятся в памяти под mu. Порядок блокировок:
// сначала mu, затем мьютекс хранилища (внутри store.Update).
type Service struct {
	store    *storage.Store
	ledger   *economy.Ledger
	tracker  *cooldown.Tracker
	kinds    cooldown.Kinds
	settings Settings
	rng      common.Random

	mu    sync.Mutex
	duels map[string]*Duel
	// пара "min|max" → id открытой дуэли
	pairs map[string]string
}

// NewService создаёт сервис казино.
func NewService(store *storage.Store, ledger *economy.Ledger, tracker *cooldown.Tracker,
	kinds cooldown.Kinds, settings Settings, rng common.Random) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		tracker:  tracker,
		kinds:    kinds,
		settings: settings,
		rng:      rng,
		duels:    make(map[string]*Duel),
		pairs:    make(map[string]string),
	}
}

// Coinflip — ставка amount на сторону монеты.
// Ставка и выбор проверяются до броска; при выигрыше баланс += amount,
// при проигрыше -= amount.
func (s *Service) Coinflip(userID string, amount int64, choice string) (*CoinflipResult, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	side, err := ParseSide(choice)
	if err != nil {
		return nil, err
	}

	res := &CoinflipResult{Choice: side, Stake: amount}
	err = s.store.Update(func(tx *storage.Tx) error {
		if err := s.tracker.CheckTx(tx, userID, s.kinds.Coinflip); err != nil {
			return err
		}
		if err := common.NewInsufficientFunds(amount, tx.Balance(userID)); err != nil {
			return err
		}

		res.Won = s.rng.Float64() < s.settings.WinProbability
		if res.Won {
			res.Outcome = side
			res.Balance = s.ledger.AdjustTx(tx, userID, amount)
		} else {
			res.Outcome = side.Opposite()
			res.Balance = s.ledger.AdjustTx(tx, userID, -amount)
		}

		s.tracker.MarkUsedTx(tx, userID, s.kinds.Coinflip)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"stake":   amount,
		"won":     res.Won,
	}).Info("Coinflip")
	return res, nil
}
