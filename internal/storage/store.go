package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Store — единственный владелец состояния бота.
//
// Жизненный цикл: Load (или пустое состояние) → Update/View → Flush по таймеру → Close.
// Все изменения идут через Update под одним мьютексом: проверка баланса,
// списание и отметка перезарядки выполняются как одна атомарная операция.
type Store struct {
	mu      sync.Mutex
	data    *Data
	dirty   bool
	version uint64

	// flushMu не даёт двум Flush писать одновременно.
	flushMu sync.Mutex

	backend    Backend
	now        func() time.Time
	syncWrites bool
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSyncWrites включает сброс на диск после каждого изменения.
func WithSyncWrites(enabled bool) Option {
	return func(s *Store) { s.syncWrites = enabled }
}

// New создаёт пустое хранилище поверх backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		data:    newData(),
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now — текущее время по часам хранилища.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load читает все документы из backend.
// Отсутствующий или повреждённый документ заменяется пустым (с предупреждением в лог).
func (s *Store) Load(ctx context.Context) error {
	data := newData()
	migrated := false

	for _, name := range DocumentNames {
		body, err := s.backend.Load(ctx, name)
		if errors.Is(err, ErrNoDocument) {
			log.WithField("document", name).Info("Документ не найден, начинаем с пустого")
			continue
		}
		if err != nil {
			return fmt.Errorf("загрузка %s: %w", name, err)
		}

		m, err := decodeDocument(data, name, body)
		if err != nil {
			log.WithError(err).WithField("document", name).Warn("Повреждённый документ, используем пустой")
			continue
		}
		migrated = migrated || m
	}

	s.mu.Lock()
	s.data = data
	s.dirty = migrated
	s.version++
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"accounts":   len(data.Accounts),
		"shop_items": len(data.Shop),
		"migrated":   migrated,
	}).Info("Состояние загружено")
	return nil
}

// decodeDocument разбирает документ в data. Возвращает true, если
// старые поля last_* были перенесены в документ перезарядок.
func decodeDocument(data *Data, name string, body []byte) (bool, error) {
	switch name {
	case DocAccounts:
		raw := make(map[string]*legacyAccount)
		if err := json.Unmarshal(body, &raw); err != nil {
			return false, err
		}
		migrated := false
		for id, la := range raw {
			if la == nil {
				continue
			}
			acc := la.Account
			if acc.Purchases == nil {
				acc.Purchases = []Purchase{}
			}
			data.Accounts[id] = &acc
			for kind, ts := range map[string]string{"daily": la.LastDaily, "work": la.LastWork, "crime": la.LastCrime} {
				if ts == "" {
					continue
				}
				migrated = true
				byUser, ok := data.Cooldowns[kind]
				if !ok {
					byUser = make(map[string]string)
					data.Cooldowns[kind] = byUser
				}
				if _, exists := byUser[id]; !exists {
					byUser[id] = ts
				}
			}
		}
		return migrated, nil

	case DocShop:
		var items []ShopItem
		if err := json.Unmarshal(body, &items); err != nil {
			return false, err
		}
		if items != nil {
			data.Shop = items
		}
		return false, nil

	case DocCooldowns:
		cd := make(map[string]map[string]string)
		if err := json.Unmarshal(body, &cd); err != nil {
			return false, err
		}
		// Перенесённые из счетов метки не перетирают более новые записи документа.
		for kind, byUser := range cd {
			if byUser == nil {
				continue
			}
			if existing, ok := data.Cooldowns[kind]; ok {
				for id, ts := range existing {
					if _, ok := byUser[id]; !ok {
						byUser[id] = ts
					}
				}
			}
			data.Cooldowns[kind] = byUser
		}
		return false, nil

	case DocLimits:
		lim := make(map[string]map[string]DailyUsage)
		if err := json.Unmarshal(body, &lim); err != nil {
			return false, err
		}
		for kind, byUser := range lim {
			if byUser != nil {
				data.Limits[kind] = byUser
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("неизвестный документ %s", name)
}

// Update выполняет fn под эксклюзивной блокировкой.
// Если fn что-то изменил, состояние помечается грязным; синхронная
// запись (WithSyncWrites) делается только при успешном fn.
func (s *Store) Update(fn func(tx *Tx) error) error {
	changed, err := s.update(fn)
	if changed && err == nil && s.syncWrites {
		if ferr := s.Flush(context.Background()); ferr != nil {
			log.WithError(ferr).Warn("Синхронная запись не удалась, повторим по таймеру")
		}
	}
	return err
}

func (s *Store) update(fn func(tx *Tx) error) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{data: s.data, now: s.now()}
	defer func() {
		changed = tx.changed
		if changed {
			s.dirty = true
			s.version++
		}
	}()
	return false, fn(tx)
}

// View выполняет fn только для чтения.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{data: s.data, now: s.now(), readOnly: true})
}

// Dirty сообщает, есть ли несохранённые изменения.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush сохраняет снимок состояния, если оно грязное.
// Снимок сериализуется под блокировкой, запись идёт без неё.
// Флаг снимается только после успешной записи и только если
// с момента снимка не было новых изменений.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	docs, err := s.snapshot()
	version := s.version
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("сериализация снимка: %w", err)
	}

	start := time.Now()
	if err := s.backend.Save(ctx, docs); err != nil {
		log.WithError(err).Error("Не удалось сохранить состояние")
		return fmt.Errorf("сохранение снимка: %w", err)
	}

	s.mu.Lock()
	if s.version == version {
		s.dirty = false
	}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"documents": len(docs),
		"took":      time.Since(start).String(),
	}).Debug("Состояние сохранено")
	return nil
}

// snapshot сериализует все документы. Вызывается под s.mu.
func (s *Store) snapshot() ([]Document, error) {
	docs := make([]Document, 0, len(DocumentNames))
	for _, name := range DocumentNames {
		var v any
		switch name {
		case DocAccounts:
			v = s.data.Accounts
		case DocShop:
			v = s.data.Shop
		case DocCooldowns:
			v = s.data.Cooldowns
		case DocLimits:
			v = s.data.Limits
		}
		body, err := json.MarshalIndent(v, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		docs = append(docs, Document{Name: name, Body: body})
	}
	return docs, nil
}

// Close делает финальный Flush и закрывает backend.
func (s *Store) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if err := s.backend.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}
