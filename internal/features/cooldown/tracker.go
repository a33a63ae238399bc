// Package cooldown — перезарядки действий (daily, work, buy, ...).
// Метки хранятся в документе cooldowns: для часовых перезарядок — время
// в RFC 3339, для секундных — Unix-время дробным числом с точностью до микросекунды.
package cooldown

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Scale — формат хранения метки.
type Scale int

const (
	// Hours: метка RFC 3339, доступно при now >= last + duration.
	Hours Scale = iota
	// Seconds: метка Unix-время, доступно при now - last >= duration.
	Seconds
)

// Kind — вид действия с перезарядкой.
type Kind struct {
	Name     string
	Duration time.Duration
	Scale    Scale
}

// Kinds — все перезарядки бота.
type Kinds struct {
	Daily    Kind
	Work     Kind
	Crime    Kind
	Gift     Kind
	Buy      Kind
	Coinflip Kind
	Duel     Kind
}

// KindsFromConfig собирает перезарядки из конфигурации.
func KindsFromConfig(cfg *config.Config) Kinds {
	return Kinds{
		Daily:    Kind{Name: "daily", Duration: cfg.CooldownDaily, Scale: Hours},
		Work:     Kind{Name: "work", Duration: cfg.CooldownWork, Scale: Hours},
		Crime:    Kind{Name: "crime", Duration: cfg.CooldownCrime, Scale: Hours},
		Gift:     Kind{Name: "gift", Duration: cfg.CooldownGift, Scale: Seconds},
		Buy:      Kind{Name: "buy", Duration: cfg.CooldownBuy, Scale: Seconds},
		Coinflip: Kind{Name: "coinflip", Duration: cfg.CooldownCoinflip, Scale: Seconds},
		Duel:     Kind{Name: "duel", Duration: cfg.CooldownDuel, Scale: Seconds},
	}
}

// All — список для вывода статуса.
func (k Kinds) All() []Kind {
	return []Kind{k.Daily, k.Work, k.Crime, k.Gift, k.Buy, k.Coinflip, k.Duel}
}

// Tracker проверяет и отмечает перезарядки.
// Методы *Tx работают внутри транзакции вызывающего, чтобы эффект
// действия и отметка перезарядки стали видны одновременно.
type Tracker struct {
	store *storage.Store
}

func NewTracker(store *storage.Store) *Tracker {
	return &Tracker{store: store}
}

// CanUse сообщает, доступно ли действие, и когда оно станет доступно.
func (t *Tracker) CanUse(userID string, kind Kind) (allowed bool, retryAt time.Time) {
	_ = t.store.View(func(tx *storage.Tx) error {
		allowed, retryAt = t.CanUseTx(tx, userID, kind)
		return nil
	})
	return allowed, retryAt
}

// CanUseTx — CanUse внутри транзакции.
func (t *Tracker) CanUseTx(tx *storage.Tx, userID string, kind Kind) (bool, time.Time) {
	raw, ok := tx.Cooldown(kind.Name, userID)
	if !ok {
		return true, time.Time{}
	}
	last, err := parseStamp(raw, kind.Scale)
	if err != nil {
		log.WithFields(log.Fields{
			"kind":    kind.Name,
			"user_id": userID,
			"value":   raw,
		}).Warn("Непонятная метка перезарядки, считаем действие доступным")
		return true, time.Time{}
	}

	now := tx.Now()
	retryAt := last.Add(kind.Duration)
	switch kind.Scale {
	case Seconds:
		return now.Sub(last) >= kind.Duration, retryAt
	default:
		return !now.Before(retryAt), retryAt
	}
}

// CheckTx возвращает *common.CooldownError, если действие ещё недоступно.
func (t *Tracker) CheckTx(tx *storage.Tx, userID string, kind Kind) error {
	allowed, retryAt := t.CanUseTx(tx, userID, kind)
	if allowed {
		return nil
	}
	return &common.CooldownError{
		Kind:      kind.Name,
		RetryAt:   retryAt,
		Remaining: retryAt.Sub(tx.Now()),
	}
}

// MarkUsedTx записывает текущее время транзакции как момент использования.
// Вызывать только после того, как эффект действия применён.
func (t *Tracker) MarkUsedTx(tx *storage.Tx, userID string, kind Kind) {
	tx.SetCooldown(kind.Name, userID, formatStamp(tx.Now(), kind.Scale))
}

// MarkUsed — MarkUsedTx отдельной транзакцией.
func (t *Tracker) MarkUsed(userID string, kind Kind) {
	_ = t.store.Update(func(tx *storage.Tx) error {
		t.MarkUsedTx(tx, userID, kind)
		return nil
	})
}

// Status — состояние одной перезарядки пользователя.
type Status struct {
	Kind      Kind
	Ready     bool
	Remaining time.Duration
}

// Statuses возвращает состояние всех перечисленных перезарядок.
func (t *Tracker) Statuses(userID string, kinds []Kind) []Status {
	out := make([]Status, 0, len(kinds))
	_ = t.store.View(func(tx *storage.Tx) error {
		for _, k := range kinds {
			ok, retryAt := t.CanUseTx(tx, userID, k)
			st := Status{Kind: k, Ready: ok}
			if !ok {
				st.Remaining = retryAt.Sub(tx.Now())
			}
			out = append(out, st)
		}
		return nil
	})
	return out
}

// FormatRemaining — "Xh Ym" / "Ym" для часовых, "Ns" для секундных.
func FormatRemaining(kind Kind, d time.Duration) string {
	if kind.Scale == Seconds && d < time.Minute {
		return common.FormatSeconds(d)
	}
	return common.FormatRemaining(d)
}

// formatStamp для секундной шкалы пишет Unix-время с точностью до
// микросекунды, отбрасывая остаток: прочитанная метка никогда не позже
// настоящего момента использования.
func formatStamp(t time.Time, scale Scale) string {
	if scale == Seconds {
		us := t.UnixMicro()
		return strconv.FormatInt(us/1e6, 10) + "." + fmt.Sprintf("%06d", us%1e6)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// naiveLayout — метка без часового пояса (старые данные), трактуется как UTC.
const naiveLayout = "2006-01-02T15:04:05.999999999"

func parseStamp(raw string, scale Scale) (time.Time, error) {
	if scale == Seconds {
		return parseUnix(raw)
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(naiveLayout, raw, time.UTC)
}

// parseUnix читает "секунды.дробь" точно, без float64. Прочие записи
// (экспонента и т.п.) разбираются как float.
func parseUnix(raw string) (time.Time, error) {
	whole, frac, _ := strings.Cut(raw, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err == nil && sec >= 0 && isDigits(frac) {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nsec := int64(0)
		if frac != "" {
			nsec, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		}
		return time.Unix(sec, nsec), nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}
	fsec, fr := math.Modf(f)
	return time.Unix(int64(fsec), int64(math.Floor(fr*1e9))), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
