// Package rewards — награды за активность: пассивная награда за сообщение,
// /daily, /work и /crime с перезарядками.
package rewards

import (
	"time"

	"serotonyl.ru/discord-economy-bot/internal/config"
)

// Settings — диапазоны наград.
type Settings struct {
	Passive   config.Range
	Daily     config.Range
	Work      config.Range
	CrimeWin  config.Range
	CrimeLoss config.Range
	// Сколько помнить id сообщений для защиты от повторной награды
	SeenTTL time.Duration
}

// SettingsFromConfig собирает Settings из конфигурации.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Passive:   cfg.PassiveRewardRange,
		Daily:     cfg.DailyRewardRange,
		Work:      cfg.WorkRewardRange,
		CrimeWin:  cfg.CrimeWinRange,
		CrimeLoss: cfg.CrimeLossRange,
		SeenTTL:   10 * time.Minute,
	}
}

// Result — итог /daily или /work.
type Result struct {
	Amount  int64
	Balance int64
	// Текст для ответа (профессия для /work)
	Flavor string
}

// CrimeResult — итог /crime.
type CrimeResult struct {
	Success bool
	// Выигрыш (> 0) или фактически списанная сумма (> 0 при провале)
	Amount int64
	// Запрошенный проигрыш до ограничения балансом
	RolledLoss int64
	Balance    int64
	Flavor     string
}
