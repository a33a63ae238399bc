package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ROLE_ID", "admin")
	cfg, err := config.Process()
	require.NoError(t, err)
	return cfg
}

func TestShutdownSettlesGiveawaysAndFlushes(t *testing.T) {
	cfg := testConfig(t)
	backend := storage.NewMemoryBackend()
	store := storage.New(backend)
	require.NoError(t, store.Load(context.Background()))

	svc := NewServices(store, cfg, &commontest.Random{Ints: []int64{0}})
	svc.Ledger.AdjustBalance("host", 100)

	g, err := svc.Giveaways.Start("host", "channel", 60, 1)
	require.NoError(t, err)
	_, err = svc.Giveaways.Enter(g.ID, "winner", nil)
	require.NoError(t, err)

	a := &App{Store: store, Giveaways: svc.Giveaways}
	require.NoError(t, a.Shutdown(context.Background()))

	assert.Equal(t, 0, svc.Giveaways.Open())
	assert.Equal(t, int64(40), svc.Ledger.GetBalance("host"))
	assert.Equal(t, int64(60), svc.Ledger.GetBalance("winner"))

	body, ok := backend.Get(storage.DocAccounts)
	require.True(t, ok)
	var accounts map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &accounts))
	assert.Contains(t, accounts, "winner")
}

func TestSchedulerWiring(t *testing.T) {
	cfg := testConfig(t)
	store := storage.New(storage.NewMemoryBackend())
	require.NoError(t, store.Load(context.Background()))

	svc := NewServices(store, cfg, &commontest.Random{})
	s := NewScheduler(cfg, store, svc)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestOpenFileBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	backend, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileBackend{}, backend)
	require.NoError(t, backend.Close())
}
