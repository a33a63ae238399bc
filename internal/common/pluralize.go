// Package common — pluralize.go отвечает за подписи сумм в ответах бота.
// Пользовательские тексты бота английские, поэтому форма слова одна: token/tokens.
package common

import "fmt"

// PluralizeTokens возвращает "token" для ±1 и "tokens" для остальных.
func PluralizeTokens(n int64) string {
	if n == 1 || n == -1 {
		return "token"
	}
	return "tokens"
}

// FormatTokens форматирует сумму: FormatTokens(2350) → "2,350 tokens".
func FormatTokens(n int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(n), PluralizeTokens(n))
}

// FormatTokensAmount создаёт строку вида "+100 tokens" или "-50 tokens".
// Знак «+» или «-» добавляется автоматически.
func FormatTokensAmount(amount int64) string {
	if amount >= 0 {
		return "+" + FormatTokens(amount)
	}
	return FormatTokens(amount)
}

// FormatNumber форматирует число с разделителями тысяч.
// Пример: FormatNumber(2350) → "2,350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatNumber(n/1000), n%1000)
}
