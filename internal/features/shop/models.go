// Package shop — магазин: упорядоченный список товаров, управление
// им администраторами и покупки за токены с историей.
package shop

import "serotonyl.ru/discord-economy-bot/internal/storage"

// Ограничения полей товара
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	// Сколько похожих названий предлагать, если товар не найден
	MaxSuggestions = 5
)

// ItemInput — новый товар.
type ItemInput struct {
	Name        string `validate:"required,max=100"`
	Price       int64  `validate:"gt=0"`
	Description string `validate:"max=500"`
}

// ItemPatch — изменение товара; nil-поле не меняется.
type ItemPatch struct {
	Name        *string `validate:"omitnil,min=1,max=100"`
	Price       *int64  `validate:"omitnil,gt=0"`
	Description *string `validate:"omitnil,max=500"`
}

// Empty сообщает, что в патче нет ни одного поля.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil
}

// PurchaseResult — итог покупки.
type PurchaseResult struct {
	Position int
	Item     storage.ShopItem
	Purchase storage.Purchase
	Balance  int64
}
