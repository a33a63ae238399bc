package common

import (
	"math/rand"
	"sync"
	"time"
)

// Random — источник случайности для наград и игр.
// В тестах подменяется детерминированной реализацией.
type Random interface {
	// Int63n возвращает число в [0, n).
	Int63n(n int64) int64
	// Float64 возвращает число в [0, 1).
	Float64() float64
}

// LockedRandom — *rand.Rand под мьютексом (rand.Rand не потокобезопасен).
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom создаёт ГСЧ с заданным зерном; seed == 0 → текущее время.
func NewRandom(seed int64) *LockedRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *LockedRandom) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int63n(n)
}

func (r *LockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// RandomBetween возвращает равномерное целое в [min, max].
func RandomBetween(r Random, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + r.Int63n(max-min+1)
}

// Pick возвращает случайный элемент непустого списка.
func Pick[T any](r Random, items []T) T {
	return items[r.Int63n(int64(len(items)))]
}
