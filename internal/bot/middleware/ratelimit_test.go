package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	clock := commontest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	rl := newRateLimiter(2, time.Minute, clock.Now, time.Hour)
	defer rl.Close()

	key := Key("u1", "daily")
	assert.Equal(t, "u1:daily", key)

	assert.True(t, rl.Allow(key))
	clock.Advance(10 * time.Second)
	assert.True(t, rl.Allow(key))

	retry, ok := rl.Reserve(key)
	assert.False(t, ok)
	assert.Equal(t, 50*time.Second, retry)

	// другой ключ независим
	assert.True(t, rl.Allow(Key("u1", "work")))

	clock.Advance(50 * time.Second)
	assert.True(t, rl.Allow(key), "первый запрос вышел из окна")
	assert.False(t, rl.Allow(key))
}

func TestRateLimiterPrune(t *testing.T) {
	clock := commontest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	rl := newRateLimiter(5, time.Minute, clock.Now, time.Hour)
	defer rl.Close()

	rl.Allow("a")
	clock.Advance(30 * time.Second)
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	clock.Advance(45 * time.Second)
	rl.Prune()
	assert.Equal(t, 1, rl.Len())

	clock.Advance(time.Minute)
	rl.Prune()
	assert.Zero(t, rl.Len())
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Close()
	rl.Close()
}
