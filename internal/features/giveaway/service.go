// Package giveaway — service.go: запуск, заявки и закрытие розыгрышей.
package giveaway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service ведёт открытые розыгрыши.
//
// Каждый розыгрыш закрывается ровно один раз: по таймеру, из Sweep или
// CloseAll. Повторное закрытие ничего не делает.
type Service struct {
	store    *storage.Store
	ledger   *economy.Ledger
	cap      economy.DailyCap
	settings Settings
	rng      common.Random

	// планировщик таймера закрытия, подменяется в тестах
	afterFunc func(time.Duration, func()) *time.Timer

	mu        sync.Mutex
	giveaways map[string]*Giveaway
	results   chan Result
}

// NewService создаёт сервис розыгрышей.
func NewService(store *storage.Store, ledger *economy.Ledger, dailyCap economy.DailyCap,
	settings Settings, rng common.Random) *Service {
	return &Service{
		store:     store,
		ledger:    ledger,
		cap:       dailyCap,
		settings:  settings,
		rng:       rng,
		afterFunc: time.AfterFunc,
		giveaways: make(map[string]*Giveaway),
		results:   make(chan Result, 16),
	}
}

// Results — итоги закрытых розыгрышей для объявления в канале.
func (s *Service) Results() <-chan Result {
	return s.results
}

// Start запускает розыгрыш: сумма сразу списывается с организатора
// и учитывается в его суточном лимите розыгрышей.
func (s *Service) Start(hostID, channelID string, amount int64, winners int) (*Giveaway, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if !s.settings.Winners.Contains(int64(winners)) || int64(winners) > amount {
		return nil, common.ErrInvalidWinners
	}

	now := s.store.Now()
	g := &Giveaway{
		ID:        uuid.NewString(),
		HostID:    hostID,
		ChannelID: channelID,
		Amount:    amount,
		Winners:   winners,
		CreatedAt: now,
		ClosesAt:  now.Add(s.settings.Window),
		index:     make(map[string]int),
	}

	err := s.store.Update(func(tx *storage.Tx) error {
		if err := common.NewInsufficientFunds(amount, tx.Balance(hostID)); err != nil {
			return err
		}
		if err := s.cap.CheckTx(tx, hostID, amount); err != nil {
			return err
		}
		if _, err := s.ledger.DebitTx(tx, hostID, amount); err != nil {
			return err
		}
		g.CapDate = s.cap.ConsumeTx(tx, hostID, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.giveaways[g.ID] = g
	id := g.ID
	g.timer = s.afterFunc(s.settings.Window, func() { s.Close(id) })
	snap := g.snapshot()
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"giveaway_id": g.ID,
		"host":        hostID,
		"amount":      amount,
		"winners":     winners,
	}).Info("Розыгрыш начат")
	return &snap, nil
}

// Enter регистрирует участника. Возвращает число его билетов.
func (s *Service) Enter(giveawayID, userID string, roles []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.giveaways[giveawayID]
	if !ok {
		return 0, common.ErrGiveawayNotFound
	}
	if g.closed || !s.store.Now().Before(g.ClosesAt) {
		return 0, common.ErrGiveawayClosed
	}
	if userID == g.HostID {
		return 0, common.ErrHostCannotEnter
	}
	if _, dup := g.index[userID]; dup {
		return 0, common.ErrAlreadyEntered
	}

	w := Weight(roles, s.settings.PriorityRoles)
	g.index[userID] = len(g.entries)
	g.entries = append(g.entries, Entry{UserID: userID, Weight: w})
	return w, nil
}

// Close закрывает розыгрыш и распределяет сумму. Повторный вызов
// или неизвестный id возвращают false.
func (s *Service) Close(giveawayID string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.giveaways[giveawayID]
	if !ok || g.closed {
		return nil, false
	}
	res := s.closeLocked(g)
	return &res, true
}

// Sweep закрывает розыгрыши, чьё окно истекло, если таймер не сработал.
func (s *Service) Sweep() []Result {
	now := s.store.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Result
	for _, g := range s.giveaways {
		if !g.closed && !now.Before(g.ClosesAt) {
			out = append(out, s.closeLocked(g))
		}
	}
	return out
}

// CloseAll закрывает все открытые розыгрыши (при остановке бота),
// чтобы внесённые суммы не пропали вместе с памятью процесса.
func (s *Service) CloseAll() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Result
	for _, g := range s.giveaways {
		if !g.closed {
			out = append(out, s.closeLocked(g))
		}
	}
	return out
}

// Open — число открытых розыгрышей.
func (s *Service) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.giveaways)
}

func (s *Service) closeLocked(g *Giveaway) Result {
	g.closed = true
	delete(s.giveaways, g.ID)
	if g.timer != nil {
		g.timer.Stop()
	}

	res := Result{Giveaway: g.snapshot(), Entrants: len(g.entries)}
	if len(g.entries) == 0 {
		res.Refunded = true
	} else {
		res.WinnerIDs = DrawWinners(s.rng, g.entries, g.Winners)
		res.Share = g.Amount / int64(g.Winners)
	}

	err := s.store.Update(func(tx *storage.Tx) error {
		if res.Refunded {
			s.ledger.AdjustTx(tx, g.HostID, g.Amount)
			s.cap.RollbackTx(tx, g.HostID, g.CapDate, g.Amount)
			return nil
		}
		for _, id := range res.WinnerIDs {
			s.ledger.AdjustTx(tx, id, res.Share)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("giveaway_id", g.ID).Error("Ошибка выплаты розыгрыша")
	}

	log.WithFields(log.Fields{
		"giveaway_id": g.ID,
		"entrants":    res.Entrants,
		"winners":     len(res.WinnerIDs),
		"share":       res.Share,
		"refunded":    res.Refunded,
	}).Info("Розыгрыш завершён")

	select {
	case s.results <- res:
	default:
		log.WithField("giveaway_id", g.ID).Warn("Очередь итогов розыгрышей переполнена, итог не объявлен")
	}
	return res
}
