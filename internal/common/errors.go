// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Обработчики сравнивают их через errors.Is / errors.As
// и показывают пользователю понятное сообщение.
package common

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ошибки валидации
var (
	// ErrInvalidAmount — сумма должна быть положительной
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrInvalidQuantity — количество должно быть положительным
	ErrInvalidQuantity = errors.New("количество должно быть положительным")
	// ErrInvalidPrice — цена товара должна быть положительной
	ErrInvalidPrice = errors.New("цена должна быть положительной")
	// ErrInvalidItemName — пустое или слишком длинное название товара
	ErrInvalidItemName = errors.New("некорректное название товара")
	// ErrInvalidDescription — слишком длинное описание товара
	ErrInvalidDescription = errors.New("слишком длинное описание товара")
	// ErrDuplicateItem — товар с таким названием уже есть
	ErrDuplicateItem = errors.New("товар с таким названием уже существует")
	// ErrItemIndexOutOfRange — номер товара вне списка
	ErrItemIndexOutOfRange = errors.New("номер товара вне диапазона")
	// ErrSelfTarget — действие над самим собой
	ErrSelfTarget = errors.New("нельзя выбрать самого себя")
	// ErrBotTarget — действие над ботом
	ErrBotTarget = errors.New("нельзя выбрать бота")
	// ErrInvalidChoice — неизвестная сторона монеты
	ErrInvalidChoice = errors.New("выбор должен быть heads или tails")
	// ErrInvalidWinners — число победителей вне допустимого диапазона
	ErrInvalidWinners = errors.New("недопустимое число победителей")
)

// Ошибки нехватки средств и лимитов
var (
	// ErrInsufficientBalance — недостаточно токенов на счёте
	ErrInsufficientBalance = errors.New("недостаточно токенов на счёте")
	// ErrDailyCapExceeded — превышен суточный лимит
	ErrDailyCapExceeded = errors.New("превышен суточный лимит")
	// ErrCooldownActive — действие ещё на перезарядке
	ErrCooldownActive = errors.New("действие на перезарядке")
)

// Ошибки поиска
var (
	// ErrItemNotFound — товар не найден
	ErrItemNotFound = errors.New("товар не найден")
	// ErrDuelNotFound — дуэль не найдена или уже завершена
	ErrDuelNotFound = errors.New("дуэль не найдена")
	// ErrGiveawayNotFound — розыгрыш не найден
	ErrGiveawayNotFound = errors.New("розыгрыш не найден")
)

// Ошибки дуэлей и розыгрышей
var (
	// ErrDuelAlreadyOpen — между игроками уже есть открытый вызов
	ErrDuelAlreadyOpen = errors.New("между игроками уже есть открытая дуэль")
	// ErrNotDuelTarget — принять или отклонить дуэль может только вызванный
	ErrNotDuelTarget = errors.New("эта дуэль адресована не вам")
	// ErrNotDuelChallenger — отменить вызов может только его автор
	ErrNotDuelChallenger = errors.New("отменить дуэль может только вызвавший")
	// ErrOpponentInsufficient — у соперника больше нет нужной суммы
	ErrOpponentInsufficient = errors.New("у соперника недостаточно токенов")
	// ErrDuelExpired — время на ответ истекло
	ErrDuelExpired = errors.New("время на ответ истекло")
	// ErrGiveawayClosed — приём заявок закрыт
	ErrGiveawayClosed = errors.New("розыгрыш уже завершён")
	// ErrHostCannotEnter — организатор не участвует в своём розыгрыше
	ErrHostCannotEnter = errors.New("организатор не может участвовать")
	// ErrAlreadyEntered — повторная заявка
	ErrAlreadyEntered = errors.New("вы уже участвуете")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrResetDisabled — хеш пароля не задан, сброс выключен
	ErrResetDisabled = errors.New("сброс данных отключён")
)

// InsufficientFundsError несёт недостающую сумму.
type InsufficientFundsError struct {
	Need int64
	Have int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно токенов: нужно %d, есть %d", e.Need, e.Have)
}

// Shortfall — сколько не хватает.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Need - e.Have
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// NewInsufficientFunds возвращает ошибку, если have < need, иначе nil.
func NewInsufficientFunds(need, have int64) error {
	if have >= need {
		return nil
	}
	return &InsufficientFundsError{Need: need, Have: have}
}

// DailyCapError — суточный лимит (подарки, розыгрыши).
type DailyCapError struct {
	Cap       int64
	Used      int64
	Requested int64
}

func (e *DailyCapError) Error() string {
	return fmt.Sprintf("суточный лимит %d: уже использовано %d, запрошено %d", e.Cap, e.Used, e.Requested)
}

// Remaining — сколько ещё можно потратить сегодня.
func (e *DailyCapError) Remaining() int64 {
	if e.Used >= e.Cap {
		return 0
	}
	return e.Cap - e.Used
}

func (e *DailyCapError) Is(target error) bool {
	return target == ErrDailyCapExceeded
}

// CooldownError — действие будет доступно в RetryAt.
type CooldownError struct {
	Kind      string
	RetryAt   time.Time
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s на перезарядке ещё %s", e.Kind, FormatRemaining(e.Remaining))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// ItemNotFoundError содержит похожие названия товаров.
type ItemNotFoundError struct {
	Ref         string
	Suggestions []string
}

func (e *ItemNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("товар %q не найден", e.Ref)
	}
	return fmt.Sprintf("товар %q не найден, возможно: %s", e.Ref, strings.Join(e.Suggestions, ", "))
}

func (e *ItemNotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

// Category — класс ошибки для выбора ответа пользователю.
type Category int

const (
	CategoryInternal Category = iota
	CategoryValidation
	CategoryInsufficient
	CategoryCooldown
	CategoryNotFound
	CategoryForbidden
)

// Classify определяет категорию ошибки.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryInternal
	case errors.Is(err, ErrCooldownActive):
		return CategoryCooldown
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrDailyCapExceeded),
		errors.Is(err, ErrOpponentInsufficient):
		return CategoryInsufficient
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrDuelNotFound), errors.Is(err, ErrGiveawayNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrTooManyAttempts), errors.Is(err, ErrResetDisabled),
		errors.Is(err, ErrNotDuelTarget), errors.Is(err, ErrNotDuelChallenger):
		return CategoryForbidden
	}

	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return CategoryValidation
		}
	}
	return CategoryInternal
}

var validationErrors = []error{
	ErrInvalidAmount, ErrInvalidQuantity, ErrInvalidPrice, ErrInvalidItemName, ErrInvalidDescription,
	ErrDuplicateItem, ErrItemIndexOutOfRange, ErrSelfTarget, ErrBotTarget,
	ErrInvalidChoice, ErrInvalidWinners, ErrDuelAlreadyOpen, ErrDuelExpired,
	ErrGiveawayClosed, ErrHostCannotEnter, ErrAlreadyEntered,
}
