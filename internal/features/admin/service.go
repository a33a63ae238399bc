// Package admin — service.go содержит логику админ-команд.
package admin

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service выполняет админ-операции.
type Service struct {
	store        *storage.Store
	ledger       *economy.Ledger
	passwordHash string
	attempts     *AttemptLog
}

// NewService создаёт админ-сервис. Пустой passwordHash выключает сброс данных.
func NewService(store *storage.Store, ledger *economy.Ledger, passwordHash string) *Service {
	return &Service{
		store:        store,
		ledger:       ledger,
		passwordHash: passwordHash,
		attempts:     NewAttemptLog(),
	}
}

// AddTokens начисляет amount пользователю.
func (s *Service) AddTokens(adminID, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	balance := s.ledger.AdjustBalance(userID, amount)

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"amount":   amount,
	}).Info("Админ начислил токены")
	return balance, nil
}

// RemoveTokens списывает amount. Если токенов меньше — ошибка
// с недостающей суммой, баланс не меняется.
func (s *Service) RemoveTokens(adminID, userID string, amount int64) (int64, error) {
	var balance int64
	err := s.store.Update(func(tx *storage.Tx) error {
		var err error
		balance, err = s.ledger.DebitTx(tx, userID, amount)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"amount":   amount,
	}).Info("Админ списал токены")
	return balance, nil
}

// ResetAllData удаляет счета, перезарядки и суточные лимиты.
// Магазин не трогается. Требует пароль; 3 неудачные попытки за час
// блокируют сброс для этого администратора.
func (s *Service) ResetAllData(adminID, password string) (ResetSummary, error) {
	if s.passwordHash == "" {
		return ResetSummary{}, common.ErrResetDisabled
	}

	match, locked := s.attempts.Try(adminID, s.store.Now(), func() bool {
		return verifyArgon2id(password, s.passwordHash)
	})
	if locked {
		return ResetSummary{}, common.ErrTooManyAttempts
	}
	if !match {
		log.WithField("admin_id", adminID).Warn("Неверный пароль сброса данных")
		return ResetSummary{}, common.ErrWrongPassword
	}

	var summary ResetSummary
	_ = s.store.Update(func(tx *storage.Tx) error {
		summary.Accounts = len(tx.AccountIDs())
		s.ledger.ResetTx(tx)
		tx.ResetCooldowns()
		tx.ResetLimits()
		return nil
	})

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"accounts": summary.Accounts,
	}).Warn("Все данные сброшены")
	return summary, nil
}
