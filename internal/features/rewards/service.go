// Package rewards — service.go содержит логику наград.
package rewards

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service выдаёт награды.
type Service struct {
	store    *storage.Store
	ledger   *economy.Ledger
	tracker  *cooldown.Tracker
	kinds    cooldown.Kinds
	settings Settings
	rng      common.Random

	// id уже награждённых сообщений
	seenMu sync.Mutex
	seen   map[string]time.Time
}

// NewService создаёт сервис наград.
func NewService(store *storage.Store, ledger *economy.Ledger, tracker *cooldown.Tracker,
	kinds cooldown.Kinds, settings Settings, rng common.Random) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		tracker:  tracker,
		kinds:    kinds,
		settings: settings,
		rng:      rng,
		seen:     make(map[string]time.Time),
	}
}

// PassiveReward начисляет случайную награду за сообщение.
// Повторный вызов с тем же messageID ничего не делает и возвращает false.
func (s *Service) PassiveReward(messageID, userID string) (int64, bool) {
	if !s.markSeen(messageID) {
		return 0, false
	}
	amount := roll(s.rng, s.settings.Passive)
	s.ledger.AdjustBalance(userID, amount)

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Debug("Пассивная награда")
	return amount, true
}

func (s *Service) markSeen(messageID string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	if _, ok := s.seen[messageID]; ok {
		return false
	}
	s.seen[messageID] = s.store.Now()
	return true
}

// Sweep забывает id сообщений старше SeenTTL. Возвращает число удалённых.
func (s *Service) Sweep() int {
	cutoff := s.store.Now().Add(-s.settings.SeenTTL)
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	removed := 0
	for id, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, id)
			removed++
		}
	}
	return removed
}

// Daily — ежедневная награда.
func (s *Service) Daily(userID string) (*Result, error) {
	return s.claim(userID, s.kinds.Daily, s.settings.Daily, "")
}

// Work — награда за работу со случайной профессией.
func (s *Service) Work(userID string) (*Result, error) {
	return s.claim(userID, s.kinds.Work, s.settings.Work, common.Pick(s.rng, Jobs))
}

// claim: проверка перезарядки → начисление → отметка, в одной транзакции.
func (s *Service) claim(userID string, kind cooldown.Kind, r config.Range, flavor string) (*Result, error) {
	res := &Result{Flavor: flavor}
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.tracker.CheckTx(tx, userID, kind); err != nil {
			return err
		}
		res.Amount = roll(s.rng, r)
		res.Balance = s.ledger.AdjustTx(tx, userID, res.Amount)
		s.tracker.MarkUsedTx(tx, userID, kind)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"kind":    kind.Name,
		"amount":  res.Amount,
	}).Info("Награда выдана")
	return res, nil
}

// Crime — честная монетка: выигрыш или проигрыш, не уводящий баланс в минус.
func (s *Service) Crime(userID string) (*CrimeResult, error) {
	res := &CrimeResult{}
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.tracker.CheckTx(tx, userID, s.kinds.Crime); err != nil {
			return err
		}

		res.Success = s.rng.Int63n(2) == 0
		if res.Success {
			res.Amount = roll(s.rng, s.settings.CrimeWin)
			res.Flavor = common.Pick(s.rng, CrimeSuccess)
			res.Balance = s.ledger.AdjustTx(tx, userID, res.Amount)
		} else {
			res.RolledLoss = roll(s.rng, s.settings.CrimeLoss)
			res.Amount = min(res.RolledLoss, tx.Balance(userID))
			res.Flavor = common.Pick(s.rng, CrimeFailure)
			res.Balance = s.ledger.AdjustTx(tx, userID, -res.Amount)
		}

		s.tracker.MarkUsedTx(tx, userID, s.kinds.Crime)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"success": res.Success,
		"amount":  res.Amount,
	}).Info("Crime")
	return res, nil
}

// Cooldowns — статус перезарядок пользователя для /cooldowns.
func (s *Service) Cooldowns(userID string) []cooldown.Status {
	return s.tracker.Statuses(userID, s.kinds.All())
}

func roll(rng common.Random, r config.Range) int64 {
	return common.RandomBetween(rng, r.Min, r.Max)
}
