package economy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply/replytest"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

var (
	t0       = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	giftKind = cooldown.Kind{Name: "gift", Duration: 3 * time.Second, Scale: cooldown.Seconds}
)

type fixture struct {
	store   *storage.Store
	ledger  *Ledger
	service *Service
	clock   *commontest.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := commontest.NewClock(t0)
	store := storage.New(storage.NewMemoryBackend(), storage.WithClock(clock.Now))
	require.NoError(t, store.Load(context.Background()))

	ledger := NewLedger(store)
	svc := NewService(store, ledger, cooldown.NewTracker(store), giftKind,
		DailyCap{Name: CapGift, Limit: 3000, Loc: time.UTC})
	return &fixture{store: store, ledger: ledger, service: svc, clock: clock}
}

func TestBalanceConservation(t *testing.T) {
	f := newFixture(t)
	deltas := []int64{42, -10, 7, 0, -30, 100, -1}

	var sum, earned, spent int64
	for _, d := range deltas {
		f.ledger.AdjustBalance("u1", d)
		sum += d
		if d > 0 {
			earned += d
		} else {
			spent += -d
		}
	}

	st := f.ledger.Stats("u1")
	assert.Equal(t, sum, st.Balance)
	assert.Equal(t, earned, st.TotalEarned)
	assert.Equal(t, spent, st.TotalSpent)
}

func TestGetBalanceDoesNotCreateAccount(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, int64(0), f.ledger.GetBalance("ghost"))
	assert.Empty(t, f.ledger.Leaderboard(0))
	assert.False(t, f.store.Dirty())
}

func TestZeroDeltaDoesNotMarkDirty(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("u1", 0)
	assert.False(t, f.store.Dirty())
}

func TestDebitTx(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("u1", 20)

	err := f.store.Update(func(tx *storage.Tx) error {
		_, err := f.ledger.DebitTx(tx, "u1", 25)
		return err
	})
	var ife *common.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(5), ife.Shortfall())
	assert.Equal(t, int64(20), f.ledger.GetBalance("u1"))

	require.NoError(t, f.store.Update(func(tx *storage.Tx) error {
		_, err := f.ledger.DebitTx(tx, "u1", 20)
		return err
	}))
	assert.Equal(t, int64(0), f.ledger.GetBalance("u1"))
}

func TestRecordPurchaseKeepsBalance(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("u1", 5)
	p := f.ledger.RecordPurchase("u1", "Hat", 3, 2)

	assert.Equal(t, int64(6), p.TotalCost)
	assert.Equal(t, t0, p.PurchasedAt)
	st := f.ledger.Stats("u1")
	assert.Equal(t, int64(5), st.Balance)
	require.Len(t, st.Purchases, 1)
}

func TestGiftRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 100)

	res, err := f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(60), res.SenderBalance)
	assert.Equal(t, int64(40), res.ReceiverBalance)
	assert.Equal(t, int64(2960), res.CapRemaining)

	x, y := f.ledger.Stats("x"), f.ledger.Stats("y")
	assert.Equal(t, int64(40), x.TotalSpent)
	assert.Equal(t, int64(40), y.TotalEarned)
}

func TestGiftValidation(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 10)

	tests := []struct {
		name string
		req  GiftRequest
		want error
	}{
		{"self", GiftRequest{FromID: "x", ToID: "x", Amount: 1}, common.ErrSelfTarget},
		{"bot", GiftRequest{FromID: "x", ToID: "b", ToIsBot: true, Amount: 1}, common.ErrBotTarget},
		{"zero", GiftRequest{FromID: "x", ToID: "y", Amount: 0}, common.ErrInvalidAmount},
		{"negative", GiftRequest{FromID: "x", ToID: "y", Amount: -5}, common.ErrInvalidAmount},
		{"insufficient", GiftRequest{FromID: "x", ToID: "y", Amount: 11}, common.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Gift(tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(10), f.ledger.GetBalance("x"))
			assert.Equal(t, int64(0), f.ledger.GetBalance("y"))
		})
	}
}

func TestGiftDailyCap(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 10_000)

	_, err := f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 2500})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Second)
	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 600})
	var dce *common.DailyCapError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, int64(500), dce.Remaining())
	assert.Equal(t, int64(7500), f.ledger.GetBalance("x"), "rejected in full")
	assert.Equal(t, int64(2500), f.ledger.GetBalance("y"))

	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 500})
	require.NoError(t, err)

	// после местной полуночи лимит снова полный
	f.clock.Set(time.Date(2024, 5, 2, 0, 0, 1, 0, time.UTC))
	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 3000})
	require.NoError(t, err)
}

func TestGiftCooldown(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 100)

	_, err := f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 1})
	require.NoError(t, err)

	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 1})
	assert.ErrorIs(t, err, common.ErrCooldownActive)

	f.clock.Advance(3 * time.Second)
	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 1})
	assert.NoError(t, err)
}

func TestFailedGiftDoesNotConsumeCooldown(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 5})
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	f.ledger.AdjustBalance("x", 5)
	_, err = f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 5})
	assert.NoError(t, err)
}

func TestDailyReset(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 100)
	_, err := f.service.Gift(GiftRequest{FromID: "x", ToID: "y", Amount: 10})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	assert.Equal(t, 1, f.service.DailyReset())
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("a", 10)
	f.ledger.AdjustBalance("b", 30)
	f.ledger.AdjustBalance("c", 10)

	top := f.ledger.Leaderboard(2)
	require.Len(t, top, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, UserID: "b", Balance: 30}, top[0])
	assert.Equal(t, LeaderboardEntry{Rank: 2, UserID: "a", Balance: 10}, top[1])
}

func TestHandleGift(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 50)
	h := NewHandler(f.service)
	rec := &replytest.Recorder{}

	h.HandleGift(rec, replytest.CommandInteraction("x", "gift", nil,
		replytest.UserOption("user", "y"), replytest.IntOption("amount", 20)))
	assert.Contains(t, rec.LastText(), "20 tokens")
	assert.False(t, rec.LastEphemeral())
	assert.Equal(t, int64(20), f.ledger.GetBalance("y"))

	h.HandleGift(rec, replytest.CommandInteraction("x", "gift", nil,
		replytest.UserOption("user", "x"), replytest.IntOption("amount", 1)))
	assert.True(t, rec.LastEphemeral())
	assert.Contains(t, rec.LastText(), "yourself")
}

func TestHandleBalance(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("x", 1234)
	h := NewHandler(f.service)
	rec := &replytest.Recorder{}

	h.HandleBalance(rec, replytest.CommandInteraction("x", "balance", nil))
	assert.Contains(t, rec.LastText(), "1,234 tokens")
}
