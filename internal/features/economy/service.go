// Package economy — service.go содержит бизнес-логику экономики.
// Валидация, подарки, получение баланса и рейтинга.
package economy

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service управляет экономикой бота (токены).
type Service struct {
	store   *storage.Store
	ledger  *Ledger
	tracker *cooldown.Tracker
	kind    cooldown.Kind
	giftCap DailyCap
}

// NewService создаёт сервис экономики.
func NewService(store *storage.Store, ledger *Ledger, tracker *cooldown.Tracker, giftKind cooldown.Kind, giftCap DailyCap) *Service {
	return &Service{
		store:   store,
		ledger:  ledger,
		tracker: tracker,
		kind:    giftKind,
		giftCap: giftCap,
	}
}

// Ledger — доступ к счетам для других фич.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(userID string) int64 {
	return s.ledger.GetBalance(userID)
}

// Stats возвращает сводку по счёту.
func (s *Service) Stats(userID string) Stats {
	return s.ledger.Stats(userID)
}

// Leaderboard возвращает топ пользователей по балансу.
func (s *Service) Leaderboard(limit int) []LeaderboardEntry {
	return s.ledger.Leaderboard(limit)
}

// Gift переводит токены от одного пользователя другому.
// Выполняет все проверки до изменения состояния:
//   - нельзя дарить себе и боту
//   - сумма должна быть положительной
//   - перезарядка подарков
//   - у отправителя должно хватать токенов
//   - суточный лимит отправителя (подарок отклоняется целиком)
func (s *Service) Gift(req GiftRequest) (*GiftResult, error) {
	if req.FromID == req.ToID {
		return nil, common.ErrSelfTarget
	}
	if req.ToIsBot {
		return nil, common.ErrBotTarget
	}
	if req.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	res := &GiftResult{Amount: req.Amount}
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.tracker.CheckTx(tx, req.FromID, s.kind); err != nil {
			return err
		}
		if err := common.NewInsufficientFunds(req.Amount, tx.Balance(req.FromID)); err != nil {
			return err
		}
		if err := s.giftCap.CheckTx(tx, req.FromID, req.Amount); err != nil {
			return err
		}

		res.SenderBalance = s.ledger.AdjustTx(tx, req.FromID, -req.Amount)
		res.ReceiverBalance = s.ledger.AdjustTx(tx, req.ToID, req.Amount)
		s.giftCap.ConsumeTx(tx, req.FromID, req.Amount)
		res.CapRemaining = s.giftCap.RemainingTx(tx, req.FromID)
		s.tracker.MarkUsedTx(tx, req.FromID, s.kind)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"from":   req.FromID,
		"to":     req.ToID,
		"amount": req.Amount,
	}).Info("Подарок выполнен")
	return res, nil
}

// DailyReset обнуляет устаревшие суточные лимиты (запускается в полночь).
func (s *Service) DailyReset() int {
	var removed int
	_ = s.store.Update(func(tx *storage.Tx) error {
		removed = tx.PruneLimits(s.giftCap.Today(tx))
		return nil
	})
	return removed
}
