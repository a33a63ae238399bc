package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeDecode(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{in: "1-5", want: Range{Min: 1, Max: 5}},
		{in: " 20 - 100 ", want: Range{Min: 20, Max: 100}},
		{in: "7", want: Range{Min: 7, Max: 7}},
		{in: "5-1", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var r Range
			err := r.Decode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestProcessDefaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ROLE_ID", "42")

	cfg, err := Process()
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.StorageDriver)
	assert.Equal(t, Range{Min: 1, Max: 5}, cfg.PassiveRewardRange)
	assert.Equal(t, 24*time.Hour, cfg.CooldownDaily)
	assert.Equal(t, 3*time.Second, cfg.CooldownBuy)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval)
	assert.Equal(t, int64(3000), cfg.GiftDailyCap)
	assert.Equal(t, int64(50000), cfg.GiveawayDailyCap)
	assert.Equal(t, Range{Min: 1, Max: 12}, cfg.GiveawayWinnersRange)
	assert.InDelta(t, 0.5, cfg.CoinflipWinProbability, 1e-9)
	assert.Empty(t, cfg.PriorityRoles)
}

func TestProcessPriorityRoles(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ROLE_ID", "42")
	t.Setenv("PRIORITY_ROLES", "111:2,222:3")

	cfg, err := Process()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"111": 2, "222": 3}, cfg.PriorityRoles)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StorageDriver:          StorageFile,
			DataDir:                "data",
			AppTimezone:            "UTC",
			BotMaxInflight:         1,
			FlushInterval:          time.Second,
			SweepInterval:          time.Second,
			GiveawayWinnersRange:   Range{Min: 1, Max: 12},
			CoinflipWinProbability: 0.5,
			GiftDailyCap:           1,
			GiveawayDailyCap:       1,
			GiveawayWindow:         time.Second,
			DuelOfferTTL:           time.Second,
			RateLimitRequests:      1,
			RateLimitWindow:        time.Second,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.StorageDriver = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without password", func(t *testing.T) {
		cfg := base()
		cfg.StorageDriver = StoragePostgres
		cfg.DBMaxConns = 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("probability out of range", func(t *testing.T) {
		cfg := base()
		cfg.CoinflipWinProbability = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := base()
		cfg.AppTimezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})
}
