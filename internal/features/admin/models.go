// Package admin реализует команды администратора: выдачу и списание
// токенов и сброс всех данных, защищённый паролем.
// models.go описывает попытки ввода пароля и итоги операций.
package admin

import (
	"sync"
	"time"
)

// Защита от перебора: MaxFailedAttempts неудачных попыток
// за AttemptWindow блокируют сброс.
const (
	MaxFailedAttempts = 3
	AttemptWindow     = time.Hour
)

// LoginAttempt — попытка ввода пароля.
type LoginAttempt struct {
	AdminID string
	At      time.Time
	Success bool
}

// AttemptLog хранит попытки в памяти процесса.
type AttemptLog struct {
	mu       sync.Mutex
	attempts map[string][]LoginAttempt
}

// NewAttemptLog создаёт пустой журнал попыток.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{attempts: make(map[string][]LoginAttempt)}
}

// Try проверяет блокировку, вызывает verify и записывает попытку под одной
// блокировкой, так что параллельные попытки не обходят лимит.
// locked=true, если лимит уже исчерпан и verify не вызывался.
func (l *AttemptLog) Try(adminID string, now time.Time, verify func() bool) (ok, locked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.recentLocked(adminID, now)
	failures := 0
	for _, a := range kept {
		if !a.Success {
			failures++
		}
	}
	if failures >= MaxFailedAttempts {
		l.attempts[adminID] = kept
		return false, true
	}

	ok = verify()
	l.attempts[adminID] = append(kept, LoginAttempt{AdminID: adminID, At: now, Success: ok})
	return ok, false
}

func (l *AttemptLog) recentLocked(adminID string, now time.Time) []LoginAttempt {
	since := now.Add(-AttemptWindow)
	var out []LoginAttempt
	for _, a := range l.attempts[adminID] {
		if !a.At.Before(since) {
			out = append(out, a)
		}
	}
	return out
}

// ResetSummary — что удалил сброс.
type ResetSummary struct {
	Accounts int
}
