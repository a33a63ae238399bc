// Package casino — duel.go: вызовы на дуэль и их разрешение.
package casino

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// pairKey не зависит от направления вызова.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Challenge создаёт вызов на дуэль со ставкой amount.
// Между двумя пользователями может быть открыт только один вызов
// (в любую сторону). Перезарядка дуэли отмечается у вызывающего.
func (s *Service) Challenge(challengerID, targetID string, targetIsBot bool, amount int64) (*Duel, error) {
	switch {
	case challengerID == targetID:
		return nil, common.ErrSelfTarget
	case targetIsBot:
		return nil, common.ErrBotTarget
	case amount <= 0:
		return nil, common.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.store.Now()
	key := pairKey(challengerID, targetID)
	if id, ok := s.pairs[key]; ok {
		if d := s.duels[id]; d != nil && !d.Expired(now) {
			return nil, common.ErrDuelAlreadyOpen
		}
		s.removeLocked(id)
	}

	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.tracker.CheckTx(tx, challengerID, s.kinds.Duel); err != nil {
			return err
		}
		if err := common.NewInsufficientFunds(amount, tx.Balance(challengerID)); err != nil {
			return err
		}
		s.tracker.MarkUsedTx(tx, challengerID, s.kinds.Duel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d := &Duel{
		ID:           uuid.NewString(),
		ChallengerID: challengerID,
		TargetID:     targetID,
		Amount:       amount,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.settings.OfferTTL),
	}
	s.duels[d.ID] = d
	s.pairs[key] = d.ID

	log.WithFields(log.Fields{
		"duel_id":    d.ID,
		"challenger": challengerID,
		"target":     targetID,
		"amount":     amount,
	}).Info("Вызов на дуэль")

	copied := *d
	return &copied, nil
}

// Accept — вызванный принимает дуэль. Балансы обоих проверяются заново,
// победителя выбирает честная монетка, ставка переходит от проигравшего.
func (s *Service) Accept(duelID, userID string) (*DuelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.duels[duelID]
	if !ok {
		return nil, common.ErrDuelNotFound
	}
	if d.TargetID != userID {
		return nil, common.ErrNotDuelTarget
	}
	if d.Expired(s.store.Now()) {
		s.removeLocked(duelID)
		return nil, common.ErrDuelExpired
	}

	res := &DuelResult{Duel: *d}
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := common.NewInsufficientFunds(d.Amount, tx.Balance(d.TargetID)); err != nil {
			return err
		}
		if tx.Balance(d.ChallengerID) < d.Amount {
			return fmt.Errorf("дуэль %s: %w", d.ID, common.ErrOpponentInsufficient)
		}

		if s.rng.Int63n(2) == 0 {
			res.WinnerID, res.LoserID = d.ChallengerID, d.TargetID
		} else {
			res.WinnerID, res.LoserID = d.TargetID, d.ChallengerID
		}
		res.LoserBalance = s.ledger.AdjustTx(tx, res.LoserID, -d.Amount)
		res.WinnerBalance = s.ledger.AdjustTx(tx, res.WinnerID, d.Amount)
		return nil
	})
	if err != nil {
		// вызвавший больше не может заплатить — вызов снимается
		if errors.Is(err, common.ErrOpponentInsufficient) {
			s.removeLocked(duelID)
		}
		return nil, err
	}
	s.removeLocked(duelID)

	log.WithFields(log.Fields{
		"duel_id": duelID,
		"winner":  res.WinnerID,
		"loser":   res.LoserID,
		"amount":  d.Amount,
	}).Info("Дуэль завершена")
	return res, nil
}

// Decline — вызванный отказывается. Балансы не меняются.
func (s *Service) Decline(duelID, userID string) (*Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.duels[duelID]
	if !ok {
		return nil, common.ErrDuelNotFound
	}
	if d.TargetID != userID {
		return nil, common.ErrNotDuelTarget
	}
	s.removeLocked(duelID)
	return d, nil
}

// Cancel — вызвавший отзывает свой вызов.
func (s *Service) Cancel(duelID, userID string) (*Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.duels[duelID]
	if !ok {
		return nil, common.ErrDuelNotFound
	}
	if d.ChallengerID != userID {
		return nil, common.ErrNotDuelChallenger
	}
	s.removeLocked(duelID)
	return d, nil
}

// Pending возвращает копию открытого вызова.
func (s *Service) Pending(duelID string) (Duel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.duels[duelID]
	if !ok {
		return Duel{}, false
	}
	return *d, true
}

// Sweep удаляет истёкшие вызовы и возвращает их.
func (s *Service) Sweep() []Duel {
	now := s.store.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Duel
	for id, d := range s.duels {
		if d.Expired(now) {
			expired = append(expired, *d)
			s.removeLocked(id)
		}
	}
	if len(expired) > 0 {
		log.WithField("count", len(expired)).Debug("Удалены истёкшие дуэли")
	}
	return expired
}

func (s *Service) removeLocked(duelID string) {
	d, ok := s.duels[duelID]
	if !ok {
		return
	}
	delete(s.duels, duelID)
	key := pairKey(d.ChallengerID, d.TargetID)
	if s.pairs[key] == duelID {
		delete(s.pairs, key)
	}
}
