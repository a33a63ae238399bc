package bot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/discord-economy-bot/internal/bot/filters"
	"serotonyl.ru/discord-economy-bot/internal/bot/reply/replytest"
	"serotonyl.ru/discord-economy-bot/internal/common/commontest"
	"serotonyl.ru/discord-economy-bot/internal/config"
	"serotonyl.ru/discord-economy-bot/internal/features/admin"
	"serotonyl.ru/discord-economy-bot/internal/features/casino"
	"serotonyl.ru/discord-economy-bot/internal/features/cooldown"
	"serotonyl.ru/discord-economy-bot/internal/features/economy"
	"serotonyl.ru/discord-economy-bot/internal/features/giveaway"
	"serotonyl.ru/discord-economy-bot/internal/features/rewards"
	"serotonyl.ru/discord-economy-bot/internal/features/shop"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

const (
	testGuild     = "guild"
	testAdminRole = "admin-role"
)

func testConfig() *config.Config {
	return &config.Config{
		DiscordGuildID:         testGuild,
		AdminRoleID:            testAdminRole,
		BotMaxInflight:         4,
		RateLimitRequests:      2,
		RateLimitWindow:        time.Minute,
		PassiveRewardRange:     config.Range{Min: 1, Max: 5},
		DailyRewardRange:       config.Range{Min: 50, Max: 200},
		WorkRewardRange:        config.Range{Min: 20, Max: 100},
		CrimeWinRange:          config.Range{Min: 50, Max: 300},
		CrimeLossRange:         config.Range{Min: 20, Max: 150},
		CooldownDaily:          24 * time.Hour,
		CooldownWork:           3 * time.Hour,
		CooldownCrime:          time.Hour,
		CooldownGift:           3 * time.Second,
		CooldownBuy:            3 * time.Second,
		CooldownCoinflip:       5 * time.Second,
		CooldownDuel:           10 * time.Second,
		CoinflipWinProbability: 0.5,
		DuelOfferTTL:           time.Minute,
		GiftDailyCap:           3000,
		GiveawayDailyCap:       50000,
		GiveawayWindow:         20 * time.Second,
		GiveawayWinnersRange:   config.Range{Min: 1, Max: 12},
	}
}

type fixture struct {
	bot    *Bot
	ledger *economy.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	clock := commontest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := storage.New(storage.NewMemoryBackend(), storage.WithClock(clock.Now))
	require.NoError(t, store.Load(context.Background()))

	rng := &commontest.Random{Ints: []int64{2}, Floats: []float64{0.1}}
	ledger := economy.NewLedger(store)
	tracker := cooldown.NewTracker(store)
	kinds := cooldown.KindsFromConfig(cfg)

	economyService := economy.NewService(store, ledger, tracker, kinds.Gift,
		economy.DailyCap{Name: economy.CapGift, Limit: cfg.GiftDailyCap, Loc: time.UTC})
	rewardService := rewards.NewService(store, ledger, tracker, kinds, rewards.SettingsFromConfig(cfg), rng)
	casinoService := casino.NewService(store, ledger, tracker, kinds, casino.SettingsFromConfig(cfg), rng)
	giveawayService := giveaway.NewService(store, ledger,
		economy.DailyCap{Name: economy.CapGiveaway, Limit: cfg.GiveawayDailyCap, Loc: time.UTC},
		giveaway.SettingsFromConfig(cfg), rng)
	shopService := shop.NewService(store, ledger, tracker, kinds.Buy)
	adminService := admin.NewService(store, ledger, "")

	b := New(nil, cfg, Handlers{
		Economy:  economy.NewHandler(economyService),
		Rewards:  rewards.NewHandler(rewardService),
		Casino:   casino.NewHandler(casinoService),
		Giveaway: giveaway.NewHandler(giveawayService),
		Shop:     shop.NewHandler(shopService, time.UTC),
		Admin:    admin.NewHandler(adminService),
	}, rewardService, giveawayService, filters.NewGuildFilter(cfg.DiscordGuildID, cfg.AdminRoleID))
	t.Cleanup(b.Stop)

	return &fixture{bot: b, ledger: ledger}
}

func TestEveryCommandIsRouted(t *testing.T) {
	f := newFixture(t)

	seen := make(map[string]bool)
	for _, cmd := range Commands() {
		assert.False(t, seen[cmd.Name], "дубликат команды %s", cmd.Name)
		seen[cmd.Name] = true
		assert.Contains(t, f.bot.commands, cmd.Name)
		assert.NotEmpty(t, cmd.Description, cmd.Name)
	}
	for name := range f.bot.commands {
		assert.True(t, seen[name], "обработчик без команды: %s", name)
	}
	for name := range adminCommands {
		assert.True(t, seen[name], name)
	}
}

func TestAdminCommandsRequireRole(t *testing.T) {
	f := newFixture(t)
	rec := &replytest.Recorder{}

	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		replytest.UserOption("user", "u2"), replytest.IntOption("amount", 50),
	}

	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "addtokens", nil, opts...))
	assert.Contains(t, rec.LastText(), "You don't have permission")
	assert.Zero(t, f.ledger.GetBalance("u2"))

	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "addtokens", []string{testAdminRole}, opts...))
	assert.Contains(t, rec.LastText(), "Added 50 tokens")
	assert.Equal(t, int64(50), f.ledger.GetBalance("u2"))
}

func TestRateLimitPerCommand(t *testing.T) {
	f := newFixture(t)
	rec := &replytest.Recorder{}

	for n := 0; n < 2; n++ {
		f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "balance", nil))
		assert.Contains(t, rec.LastText(), "balance")
	}
	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "balance", nil))
	assert.Contains(t, rec.LastText(), "Slow down!")
	assert.True(t, rec.LastEphemeral())

	// другая команда и другой пользователь не ограничены
	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "leaderboard", nil))
	assert.NotContains(t, rec.LastText(), "Slow down!")
	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u2", "balance", nil))
	assert.NotContains(t, rec.LastText(), "Slow down!")
}

func TestUnknownCommandAndForeignGuild(t *testing.T) {
	f := newFixture(t)
	rec := &replytest.Recorder{}

	f.bot.HandleInteraction(rec, replytest.CommandInteraction("u1", "nope", nil))
	assert.Contains(t, rec.LastText(), "Unknown command.")

	foreign := replytest.CommandInteraction("u1", "balance", nil)
	foreign.GuildID = "other"
	before := len(rec.Responses)
	f.bot.HandleInteraction(rec, foreign)
	assert.Len(t, rec.Responses, before)
}

func TestButtonRouting(t *testing.T) {
	f := newFixture(t)
	rec := &replytest.Recorder{}

	f.bot.HandleInteraction(rec, replytest.ComponentInteraction("u1", casino.ButtonID(casino.ActionAccept, "missing"), nil))
	assert.Contains(t, rec.LastText(), "This duel is no longer available.")

	f.bot.HandleInteraction(rec, replytest.ComponentInteraction("u1", giveaway.ButtonID("missing"), nil))
	assert.Contains(t, rec.LastText(), "This giveaway is no longer available.")

	before := len(rec.Responses)
	f.bot.HandleInteraction(rec, replytest.ComponentInteraction("u1", "something:else", nil))
	assert.Len(t, rec.Responses, before)
}

func TestPassiveRewardOnMessage(t *testing.T) {
	f := newFixture(t)

	msg := func(id, guildID string, author *discordgo.User) *discordgo.MessageCreate {
		return &discordgo.MessageCreate{Message: &discordgo.Message{
			ID: id, GuildID: guildID, ChannelID: "channel", Author: author, Content: "hello",
		}}
	}

	f.bot.HandleMessage(msg("m1", testGuild, &discordgo.User{ID: "u1"}))
	assert.Equal(t, int64(3), f.ledger.GetBalance("u1"))

	// повтор того же сообщения не начисляет
	f.bot.HandleMessage(msg("m1", testGuild, &discordgo.User{ID: "u1"}))
	assert.Equal(t, int64(3), f.ledger.GetBalance("u1"))

	f.bot.HandleMessage(msg("m2", testGuild, &discordgo.User{ID: "bot", Bot: true}))
	f.bot.HandleMessage(msg("m3", "", &discordgo.User{ID: "dm"}))
	f.bot.HandleMessage(msg("m4", "other", &discordgo.User{ID: "foreign"}))
	assert.Zero(t, f.ledger.GetBalance("bot"))
	assert.Zero(t, f.ledger.GetBalance("dm"))
	assert.Zero(t, f.ledger.GetBalance("foreign"))
}

func TestEventsIgnoredAfterStop(t *testing.T) {
	f := newFixture(t)

	msg := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", GuildID: testGuild, ChannelID: "channel", Author: &discordgo.User{ID: "u1"}, Content: "hello",
	}}

	f.bot.onMessage(nil, msg)
	assert.Equal(t, int64(3), f.ledger.GetBalance("u1"))

	f.bot.Stop()
	// второй Stop не блокируется и не паникует
	f.bot.Stop()

	msg.ID = "m2"
	f.bot.onMessage(nil, msg)
	f.bot.onInteraction(nil, replytest.CommandInteraction("u1", "daily", nil))
	assert.Equal(t, int64(3), f.ledger.GetBalance("u1"))
	assert.False(t, f.bot.begin())
}
