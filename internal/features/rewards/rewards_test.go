package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply/replytest"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var testKinds = cooldown.Kinds{
	Daily:    cooldown.Kind{Name: "daily", Duration: 24 * time.Hour, Scale: cooldown.Hours},
	Work:     cooldown.Kind{Name: "work", Duration: time.Hour, Scale: cooldown.Hours},
	Crime:    cooldown.Kind{Name: "crime", Duration: 2 * time.Hour, Scale: cooldown.Hours},
	Gift:     cooldown.Kind{Name: "gift", Duration: 3 * time.Second, Scale: cooldown.Seconds},
	Buy:      cooldown.Kind{Name: "buy", Duration: 3 * time.Second, Scale: cooldown.Seconds},
	Coinflip: cooldown.Kind{Name: "coinflip", Duration: 3 * time.Second, Scale: cooldown.Seconds},
	Duel:     cooldown.Kind{Name: "duel", Duration: 10 * time.Second, Scale: cooldown.Seconds},
}

var testSettings = Settings{
	Passive:   config.Range{Min: 1, Max: 5},
	Daily:     config.Range{Min: 50, Max: 200},
	Work:      config.Range{Min: 20, Max: 100},
	CrimeWin:  config.Range{Min: 50, Max: 300},
	CrimeLoss: config.Range{Min: 20, Max: 150},
	SeenTTL:   10 * time.Minute,
}

type fixture struct {
	store   *storage.Store
	ledger  *economy.Ledger
	service *Service
	clock   *commontest.Clock
	rng     *commontest.Random
}

func newFixture(t *testing.T, ints ...int64) *fixture {
	t.Helper()
	clock := commontest.NewClock(t0)
	store := storage.New(storage.NewMemoryBackend(), storage.WithClock(clock.Now))
	require.NoError(t, store.Load(context.Background()))

	rng := &commontest.Random{Ints: ints}
	ledger := economy.NewLedger(store)
	svc := NewService(store, ledger, cooldown.NewTracker(store), testKinds, testSettings, rng)
	return &fixture{store: store, ledger: ledger, service: svc, clock: clock, rng: rng}
}

func TestPassiveRewardIdempotent(t *testing.T) {
	f := newFixture(t, 3)

	amount, ok := f.service.PassiveReward("m1", "u1")
	require.True(t, ok)
	assert.Equal(t, int64(4), amount)

	_, ok = f.service.PassiveReward("m1", "u1")
	assert.False(t, ok, "same message is rewarded once")
	assert.Equal(t, int64(4), f.ledger.GetBalance("u1"))

	_, ok = f.service.PassiveReward("m2", "u1")
	assert.True(t, ok)
	assert.Equal(t, int64(8), f.ledger.GetBalance("u1"))
}

func TestPassiveRewardRange(t *testing.T) {
	f := newFixture(t)
	f.service.rng = common.NewRandom(42)
	for n := 0; n < 200; n++ {
		amount, ok := f.service.PassiveReward(time.Duration(n).String(), "u1")
		require.True(t, ok)
		assert.GreaterOrEqual(t, amount, int64(1))
		assert.LessOrEqual(t, amount, int64(5))
	}
}

func TestSweepForgetsOldMessages(t *testing.T) {
	f := newFixture(t)
	f.service.PassiveReward("old", "u1")
	f.clock.Advance(11 * time.Minute)
	f.service.PassiveReward("new", "u1")

	assert.Equal(t, 1, f.service.Sweep())
	assert.Equal(t, 0, f.service.Sweep())
}

func TestDailyCooldownBoundary(t *testing.T) {
	f := newFixture(t, 70)

	res, err := f.service.Daily("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), res.Amount)
	assert.Equal(t, int64(120), res.Balance)

	f.clock.Advance(23*time.Hour + 59*time.Minute)
	_, err = f.service.Daily("u1")
	var cde *common.CooldownError
	require.ErrorAs(t, err, &cde)
	assert.Equal(t, time.Minute, cde.Remaining)
	assert.Equal(t, int64(120), f.ledger.GetBalance("u1"))

	f.clock.Advance(time.Minute)
	_, err = f.service.Daily("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(240), f.ledger.GetBalance("u1"))
}

func TestWorkPicksJob(t *testing.T) {
	f := newFixture(t, 2, 10)

	res, err := f.service.Work("u1")
	require.NoError(t, err)
	assert.Equal(t, Jobs[2], res.Flavor)
	assert.Equal(t, int64(30), res.Amount)

	_, err = f.service.Work("u1")
	assert.ErrorIs(t, err, common.ErrCooldownActive)
}

func TestCrimeSuccess(t *testing.T) {
	f := newFixture(t, 0, 100, 2)

	res, err := f.service.Crime("u1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(150), res.Amount)
	assert.Equal(t, CrimeSuccess[2], res.Flavor)
	assert.Equal(t, int64(150), f.ledger.GetBalance("u1"))
}

func TestCrimeLossClampedToBalance(t *testing.T) {
	f := newFixture(t, 1, 100, 0)
	f.ledger.AdjustBalance("u1", 30)

	res, err := f.service.Crime("u1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int64(120), res.RolledLoss)
	assert.Equal(t, int64(30), res.Amount)
	assert.Equal(t, int64(0), res.Balance)

	st := f.ledger.Stats("u1")
	assert.Equal(t, int64(30), st.TotalSpent)
}

func TestCrimeOnCooldownChangesNothing(t *testing.T) {
	f := newFixture(t, 1, 0, 0)
	f.ledger.AdjustBalance("u1", 100)
	_, err := f.service.Crime("u1")
	require.NoError(t, err)
	balance := f.ledger.GetBalance("u1")

	f.clock.Advance(time.Hour)
	_, err = f.service.Crime("u1")
	assert.ErrorIs(t, err, common.ErrCooldownActive)
	assert.Equal(t, balance, f.ledger.GetBalance("u1"))
}

func TestHandleDailyAndCooldowns(t *testing.T) {
	f := newFixture(t, 70)
	h := NewHandler(f.service)
	rec := &replytest.Recorder{}

	h.HandleDaily(rec, replytest.CommandInteraction("u1", "daily", nil))
	assert.Contains(t, rec.LastText(), "120 tokens")

	h.HandleDaily(rec, replytest.CommandInteraction("u1", "daily", nil))
	assert.True(t, rec.LastEphemeral())
	assert.Contains(t, rec.LastText(), "24h 0m")

	h.HandleCooldowns(rec, replytest.CommandInteraction("u1", "cooldowns", nil))
	text := rec.LastText()
	assert.Contains(t, text, "/daily** in 24h 0m")
	assert.Contains(t, text, "/work** ready")
}
