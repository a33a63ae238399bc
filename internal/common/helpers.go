// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование сумм и интервалов, работа с датами, ГСЧ.
package common

import (
	"fmt"
	"time"
)

// DateLayout — формат календарной даты для суточных лимитов.
const DateLayout = "2006-01-02"

// FormatRemaining форматирует оставшееся время перезарядки.
//
// Правила:
//   - есть часы → "Xh Ym"
//   - меньше часа → "Ym"
//   - отрицательное или нулевое → "0m"
//
// Секунды отбрасываются (целые минуты вниз).
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	totalMinutes := int64(d / time.Minute)
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatSeconds форматирует короткую перезарядку: "3s" или "1m 5s".
func FormatSeconds(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

// LocalDate возвращает календарную дату t в часовом поясе loc.
// Формат: 2006-01-02
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// NextMidnight возвращает ближайшую полночь после t в поясе loc.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
}

// FormatDateTime форматирует время как "02.01.2006 15:04".
// Используется для истории покупок.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
