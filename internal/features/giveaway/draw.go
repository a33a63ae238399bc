package giveaway

import "serotonyl.ru/discord-economy-bot/internal/common"

// Weight — 1 базовый билет плюс бонусы всех совпавших ролей.
func Weight(roles []string, priority map[string]int) int {
	w := 1
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if bonus := priority[r]; bonus > 0 {
			w += bonus
		}
	}
	return w
}

// DrawWinners делает count выборок по весам с возвращением и убирает
// повторы. Победителей может оказаться меньше count.
func DrawWinners(rng common.Random, entries []Entry, count int) []string {
	var total int64
	for _, e := range entries {
		total += int64(e.Weight)
	}
	if total <= 0 || count <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, count)
	winners := make([]string, 0, count)
	for n := 0; n < count; n++ {
		id := pick(entries, rng.Int63n(total))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		winners = append(winners, id)
	}
	return winners
}

// pick находит участника, в чей отрезок попал билет ticket ∈ [0, total).
func pick(entries []Entry, ticket int64) string {
	for _, e := range entries {
		ticket -= int64(e.Weight)
		if ticket < 0 {
			return e.UserID
		}
	}
	return entries[len(entries)-1].UserID
}
