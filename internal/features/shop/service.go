// Package shop — service.go содержит логику магазина.
package shop

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Service управляет магазином.
type Service struct {
	store    *storage.Store
	ledger   *economy.Ledger
	tracker  *cooldown.Tracker
	buyKind  cooldown.Kind
	validate *validator.Validate
}

// NewService создаёт сервис магазина.
func NewService(store *storage.Store, ledger *economy.Ledger, tracker *cooldown.Tracker, buyKind cooldown.Kind) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		tracker:  tracker,
		buyKind:  buyKind,
		validate: validator.New(),
	}
}

// ListItems возвращает товары по порядку.
func (s *Service) ListItems() []storage.ShopItem {
	var items []storage.ShopItem
	_ = s.store.View(func(tx *storage.Tx) error {
		items = tx.Shop()
		return nil
	})
	return items
}

// AddItem добавляет товар в конец списка.
func (s *Service) AddItem(in ItemInput) (storage.ShopItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.check(in); err != nil {
		return storage.ShopItem{}, err
	}

	item := storage.ShopItem{Name: in.Name, Price: in.Price, Description: in.Description}
	err := s.store.Update(func(tx *storage.Tx) error {
		items := tx.Shop()
		if nameTaken(items, item.Name, -1) {
			return common.ErrDuplicateItem
		}
		tx.SetShop(append(items, item))
		return nil
	})
	if err != nil {
		return storage.ShopItem{}, err
	}

	log.WithFields(log.Fields{"item": item.Name, "price": item.Price}).Info("Товар добавлен")
	return item, nil
}

// UpdateItem меняет товар на позиции position (с 1). Переименование
// не может совпасть с другим товаром без учёта регистра.
func (s *Service) UpdateItem(position int, patch ItemPatch) (storage.ShopItem, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}
	if err := s.check(patch); err != nil {
		return storage.ShopItem{}, err
	}

	var updated storage.ShopItem
	err := s.store.Update(func(tx *storage.Tx) error {
		items := tx.Shop()
		idx, err := indexOf(items, position)
		if err != nil {
			return err
		}
		if patch.Name != nil && nameTaken(items, *patch.Name, idx) {
			return common.ErrDuplicateItem
		}
		if patch.Empty() {
			updated = items[idx]
			return nil
		}

		item := items[idx]
		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.Price != nil {
			item.Price = *patch.Price
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		items[idx] = item
		tx.SetShop(items)
		updated = item
		return nil
	})
	if err != nil {
		return storage.ShopItem{}, err
	}
	return updated, nil
}

// DeleteItem удаляет товар и возвращает его. Следующие товары
// сдвигаются на одну позицию вверх.
func (s *Service) DeleteItem(position int) (storage.ShopItem, error) {
	var removed storage.ShopItem
	err := s.store.Update(func(tx *storage.Tx) error {
		items := tx.Shop()
		idx, err := indexOf(items, position)
		if err != nil {
			return err
		}
		removed = items[idx]
		tx.SetShop(append(items[:idx], items[idx+1:]...))
		return nil
	})
	if err != nil {
		return storage.ShopItem{}, err
	}

	log.WithField("item", removed.Name).Info("Товар удалён")
	return removed, nil
}

// Purchase покупает quantity штук товара ref (название или номер).
// Списание и запись в историю происходят в одной транзакции,
// перезарядка покупки отмечается после них.
func (s *Service) Purchase(userID, ref string, quantity int64) (*PurchaseResult, error) {
	if quantity <= 0 {
		return nil, common.ErrInvalidQuantity
	}

	res := &PurchaseResult{}
	err := s.store.Update(func(tx *storage.Tx) error {
		items := tx.Shop()
		idx, err := Resolve(items, ref)
		if err != nil {
			return err
		}
		item := items[idx]
		if item.Price <= 0 {
			return common.ErrInvalidPrice
		}
		if quantity > math.MaxInt64/item.Price {
			return common.ErrInvalidQuantity
		}

		if err := s.tracker.CheckTx(tx, userID, s.buyKind); err != nil {
			return err
		}
		balance, err := s.ledger.DebitTx(tx, userID, item.Price*quantity)
		if err != nil {
			return err
		}
		res.Position = idx + 1
		res.Item = item
		res.Balance = balance
		res.Purchase = s.ledger.RecordPurchaseTx(tx, userID, item.Name, item.Price, quantity)

		s.tracker.MarkUsedTx(tx, userID, s.buyKind)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"item":     res.Item.Name,
		"quantity": quantity,
		"total":    res.Purchase.TotalCost,
	}).Info("Покупка")
	return res, nil
}

// History — история покупок пользователя.
func (s *Service) History(userID string) []storage.Purchase {
	return s.ledger.Stats(userID).Purchases
}

// Resolve ищет товар: сначала по точному названию без учёта регистра,
// затем по номеру с 1. Возвращает индекс в items.
func Resolve(items []storage.ShopItem, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, it := range items {
		if strings.EqualFold(it.Name, ref) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return n - 1, nil
	}
	return -1, &common.ItemNotFoundError{Ref: ref, Suggestions: suggest(items, ref)}
}

// suggest — названия, содержащие ref как подстроку (без учёта регистра).
func suggest(items []storage.ShopItem, ref string) []string {
	needle := strings.ToLower(ref)
	if needle == "" {
		return nil
	}
	var out []string
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			out = append(out, it.Name)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}

func indexOf(items []storage.ShopItem, position int) (int, error) {
	if position < 1 || position > len(items) {
		return -1, common.ErrItemIndexOutOfRange
	}
	return position - 1, nil
}

func nameTaken(items []storage.ShopItem, name string, except int) bool {
	for i, it := range items {
		if i != except && strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

// check переводит ошибки validator в ошибки магазина.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Name":
		return common.ErrInvalidItemName
	case "Price":
		return common.ErrInvalidPrice
	case "Description":
		return common.ErrInvalidDescription
	}
	return err
}
