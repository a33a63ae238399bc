// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическое сохранение хранилища,
// уборку просроченных дуэлей и розыгрышей и сброс суточных лимитов в полночь.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Flusher сохраняет грязное состояние.
type Flusher interface {
	Flush(ctx context.Context) error
}

// DailyResetter чистит суточные лимиты прошедших дней.
type DailyResetter interface {
	DailyReset() int
}

// Sweeper — одна уборка; Sweep возвращает число убранных записей.
type Sweeper struct {
	Name  string
	Sweep func() int
}

// Config — периоды задач.
type Config struct {
	Location      *time.Location
	FlushInterval time.Duration
	SweepInterval time.Duration
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	store    Flusher
	limits   DailyResetter
	sweepers []Sweeper
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(cfg Config, store Flusher, limits DailyResetter, sweepers ...Sweeper) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{entry: log.WithField("component", "cron")}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		cron:     c,
		cfg:      cfg,
		store:    store,
		limits:   limits,
		sweepers: sweepers,
	}
}

// Start регистрирует и запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Schedule(cron.Every(s.cfg.FlushInterval), cron.FuncJob(func() { s.flush(ctx) }))
	s.cron.Schedule(cron.Every(s.cfg.SweepInterval), cron.FuncJob(s.sweep))

	// Ежедневный сброс лимитов в 00:00
	if _, err := s.cron.AddFunc("0 0 * * *", s.dailyReset); err != nil {
		return err
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"flush_interval": s.cfg.FlushInterval.String(),
		"sweep_interval": s.cfg.SweepInterval.String(),
		"location":       s.cron.Location().String(),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

func (s *Scheduler) flush(ctx context.Context) {
	if err := s.store.Flush(ctx); err != nil {
		// состояние остаётся грязным, следующая попытка по расписанию
		log.WithError(err).Error("[CRON] Ошибка сохранения состояния")
	}
}

func (s *Scheduler) sweep() {
	for _, sw := range s.sweepers {
		if n := sw.Sweep(); n > 0 {
			log.WithFields(log.Fields{
				"sweeper": sw.Name,
				"removed": n,
			}).Debug("[CRON] Уборка")
		}
	}
}

func (s *Scheduler) dailyReset() {
	n := s.limits.DailyReset()
	log.WithField("removed", n).Info("[CRON] Суточные лимиты сброшены")
}

// cronLogger направляет журнал cron в logrus.
type cronLogger struct {
	entry *log.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fieldsOf(keysAndValues)).Trace(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fieldsOf(keysAndValues)).Error(msg)
}

func fieldsOf(keysAndValues []interface{}) log.Fields {
	fields := make(log.Fields, len(keysAndValues)/2)
	for n := 0; n+1 < len(keysAndValues); n += 2 {
		key, ok := keysAndValues[n].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[n+1]
	}
	return fields
}
