// Package commontest содержит детерминированные часы и ГСЧ для тестов.
package commontest

import (
	"sync"
	"time"
)

// Clock — ручные часы.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Random отдаёт заранее заданные значения по кругу.
// Int63n берёт значение из Ints по модулю n, Float64 — из Floats.
type Random struct {
	mu     sync.Mutex
	Ints   []int64
	Floats []float64
	i, f   int
}

func (r *Random) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Ints) == 0 {
		return 0
	}
	v := r.Ints[r.i%len(r.Ints)]
	r.i++
	if v < 0 {
		v = -v
	}
	return v % n
}

func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Floats) == 0 {
		return 0
	}
	v := r.Floats[r.f%len(r.Floats)]
	r.f++
	return v
}
