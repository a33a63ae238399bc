package giveaway

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply/replytest"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ledger  *economy.Ledger
	service *Service
	clock   *commontest.Clock
	rng     *commontest.Random
	// запланированные закрытия по порядку Start
	timers []func()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := commontest.NewClock(t0)
	store := storage.New(storage.NewMemoryBackend(), storage.WithClock(clock.Now))
	require.NoError(t, store.Load(context.Background()))

	f := &fixture{clock: clock, rng: &commontest.Random{}}
	f.ledger = economy.NewLedger(store)
	f.service = NewService(store, f.ledger,
		economy.DailyCap{Name: economy.CapGiveaway, Limit: 50_000, Loc: time.UTC},
		Settings{
			Window:        20 * time.Second,
			Winners:       config.Range{Min: 1, Max: 12},
			PriorityRoles: map[string]int{"vip": 2, "booster": 1},
		}, f.rng)
	f.service.afterFunc = func(_ time.Duration, fn func()) *time.Timer {
		f.timers = append(f.timers, fn)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return f
}

func TestWeight(t *testing.T) {
	priority := map[string]int{"vip": 2, "booster": 1, "muted": -3}
	assert.Equal(t, 1, Weight(nil, priority))
	assert.Equal(t, 4, Weight([]string{"vip", "booster", "vip", "other"}, priority))
	assert.Equal(t, 1, Weight([]string{"muted"}, priority))
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 60_000)

	tests := []struct {
		name    string
		amount  int64
		winners int
		want    error
	}{
		{"zero amount", 0, 1, common.ErrInvalidAmount},
		{"no winners", 100, 0, common.ErrInvalidWinners},
		{"too many winners", 100, 13, common.ErrInvalidWinners},
		{"more winners than tokens", 3, 5, common.ErrInvalidWinners},
		{"insufficient", 70_000, 1, common.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Start("h", "c", tt.amount, tt.winners)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(60_000), f.ledger.GetBalance("h"))
		})
	}
}

func TestStartDebitsAndConsumesCap(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 60_000)

	g, err := f.service.Start("h", "c", 50_000, 3)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(20*time.Second), g.ClosesAt)
	assert.Equal(t, "2024-05-01", g.CapDate)
	assert.Equal(t, int64(10_000), f.ledger.GetBalance("h"))
	require.Len(t, f.timers, 1)

	_, err = f.service.Start("h", "c", 1, 1)
	var dce *common.DailyCapError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, int64(0), dce.Remaining())
	assert.Equal(t, int64(10_000), f.ledger.GetBalance("h"))
}

func TestEnter(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 100)
	g, err := f.service.Start("h", "c", 100, 1)
	require.NoError(t, err)

	_, err = f.service.Enter(g.ID, "h", nil)
	assert.ErrorIs(t, err, common.ErrHostCannotEnter)

	w, err := f.service.Enter(g.ID, "u1", []string{"vip", "booster"})
	require.NoError(t, err)
	assert.Equal(t, 4, w)

	_, err = f.service.Enter(g.ID, "u1", nil)
	assert.ErrorIs(t, err, common.ErrAlreadyEntered)

	_, err = f.service.Enter("missing", "u2", nil)
	assert.ErrorIs(t, err, common.ErrGiveawayNotFound)

	f.clock.Advance(20 * time.Second)
	_, err = f.service.Enter(g.ID, "u2", nil)
	assert.ErrorIs(t, err, common.ErrGiveawayClosed)
}

func TestCloseSplitsAmount(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 101)
	g, err := f.service.Start("h", "c", 101, 2)
	require.NoError(t, err)

	_, err = f.service.Enter(g.ID, "a", nil)
	require.NoError(t, err)
	_, err = f.service.Enter(g.ID, "b", []string{"vip", "booster"})
	require.NoError(t, err)

	// билеты: a → [0], b → [1, 4]
	f.rng.Ints = []int64{0, 3}
	f.timers[0]()

	res := <-f.service.Results()
	assert.Equal(t, []string{"a", "b"}, res.WinnerIDs)
	assert.Equal(t, int64(50), res.Share)
	assert.Equal(t, 2, res.Entrants)
	assert.Equal(t, int64(50), f.ledger.GetBalance("a"))
	assert.Equal(t, int64(50), f.ledger.GetBalance("b"))
	assert.Equal(t, int64(0), f.ledger.GetBalance("h"))

	_, ok := f.service.Close(g.ID)
	assert.False(t, ok, "close is idempotent")
	assert.Equal(t, 0, f.service.Open())
}

func TestCloseDeduplicatesWinners(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 90)
	g, err := f.service.Start("h", "c", 90, 3)
	require.NoError(t, err)
	_, err = f.service.Enter(g.ID, "a", nil)
	require.NoError(t, err)
	_, err = f.service.Enter(g.ID, "b", nil)
	require.NoError(t, err)

	f.rng.Ints = []int64{0, 0, 0}
	res, ok := f.service.Close(g.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, res.WinnerIDs)
	assert.Equal(t, int64(30), res.Share)
	assert.Equal(t, int64(30), f.ledger.GetBalance("a"))
	assert.Equal(t, int64(0), f.ledger.GetBalance("b"))
}

func TestZeroEntriesRefundsAndRollsBackCap(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 50_000)
	g, err := f.service.Start("h", "c", 50_000, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.ledger.GetBalance("h"))

	res, ok := f.service.Close(g.ID)
	require.True(t, ok)
	assert.True(t, res.Refunded)
	assert.Empty(t, res.WinnerIDs)
	assert.Equal(t, int64(50_000), f.ledger.GetBalance("h"))

	// лимит возвращён целиком
	_, err = f.service.Start("h", "c", 50_000, 1)
	assert.NoError(t, err)
}

func TestSweepAndCloseAll(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 100)
	g1, err := f.service.Start("h", "c", 10, 1)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	_, err = f.service.Start("h", "c", 10, 1)
	require.NoError(t, err)
	assert.Empty(t, f.service.Sweep())

	f.clock.Advance(10 * time.Second)
	swept := f.service.Sweep()
	require.Len(t, swept, 1)
	assert.Equal(t, g1.ID, swept[0].Giveaway.ID)

	all := f.service.CloseAll()
	require.Len(t, all, 1)
	assert.Equal(t, 0, f.service.Open())
	assert.Equal(t, int64(100), f.ledger.GetBalance("h"), "both refunded")

	// запоздалый таймер ничего не делает
	f.timers[0]()
	assert.Equal(t, int64(100), f.ledger.GetBalance("h"))
}

func TestDrawWinnersWeighting(t *testing.T) {
	entries := []Entry{
		{UserID: "a", Weight: 1},
		{UserID: "b", Weight: 2},
		{UserID: "c", Weight: 3},
		{UserID: "d", Weight: 4},
	}
	rng := common.NewRandom(7)
	const rounds = 40_000

	wins := map[string]int{}
	for n := 0; n < rounds; n++ {
		w := DrawWinners(rng, entries, 1)
		require.Len(t, w, 1)
		wins[w[0]]++
	}
	for _, e := range entries {
		got := float64(wins[e.UserID]) / rounds
		want := float64(e.Weight) / 10
		assert.LessOrEqual(t, math.Abs(got-want), 0.02, "user %s: got %.3f want %.3f", e.UserID, got, want)
	}
}

func TestDrawWinnersEmpty(t *testing.T) {
	assert.Nil(t, DrawWinners(common.NewRandom(1), nil, 3))
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	f.ledger.AdjustBalance("h", 500)
	h := NewHandler(f.service)
	rec := &replytest.Recorder{}

	h.HandleGiveaway(rec, replytest.CommandInteraction("h", "giveaway", nil,
		replytest.IntOption("amount", 300), replytest.IntOption("winners", 2)))
	require.Contains(t, rec.LastText(), "300 tokens")
	row := rec.Last().Data.Components[0].(discordgo.ActionsRow)
	enter := row.Components[0].(discordgo.Button)

	h.HandleButton(rec, replytest.ComponentInteraction("u1", enter.CustomID, []string{"vip"}))
	assert.True(t, rec.LastEphemeral())
	assert.Contains(t, rec.LastText(), "**3** entries")

	h.HandleButton(rec, replytest.ComponentInteraction("h", enter.CustomID, nil))
	assert.Contains(t, rec.LastText(), "own giveaway")

	res := f.service.CloseAll()
	require.Len(t, res, 1)
	embed := ResultEmbed(res[0])
	assert.Contains(t, embed.Description, "<@u1>")
	assert.Contains(t, embed.Description, "150 tokens")
}

type fakeSender struct {
	channels chan string
}

func (s *fakeSender) ChannelMessageSendEmbed(channelID string, _ *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.channels <- channelID
	return &discordgo.Message{}, nil
}

func TestAnnounce(t *testing.T) {
	results := make(chan Result, 1)
	sender := &fakeSender{channels: make(chan string, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Announce(ctx, sender, results)
		close(done)
	}()

	results <- Result{Giveaway: Giveaway{ID: "g", ChannelID: "chan-1", Amount: 10}, Refunded: true}
	select {
	case ch := <-sender.channels:
		assert.Equal(t, "chan-1", ch)
	case <-time.After(time.Second):
		t.Fatal("result not announced")
	}

	cancel()
	<-done
}
