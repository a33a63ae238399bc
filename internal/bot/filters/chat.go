// Package filters решает, какие события Discord бот обрабатывает.
package filters

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// GuildFilter пропускает события только из настроенной гильдии.
// Пустой guildID — любая гильдия. Личные сообщения не обрабатываются.
type GuildFilter struct {
	guildID     string
	adminRoleID string
}

func NewGuildFilter(guildID, adminRoleID string) *GuildFilter {
	return &GuildFilter{guildID: guildID, adminRoleID: adminRoleID}
}

func (f *GuildFilter) allowGuild(guildID string) bool {
	if guildID == "" {
		return false
	}
	return f.guildID == "" || guildID == f.guildID
}

// AllowMessage — сообщение участника гильдии, не бота.
func (f *GuildFilter) AllowMessage(m *discordgo.MessageCreate) bool {
	if m == nil || m.Message == nil || m.Author == nil {
		return false
	}
	if m.Author.Bot {
		return false
	}
	return f.allowGuild(m.GuildID)
}

// AllowInteraction — взаимодействие из гильдии от участника.
func (f *GuildFilter) AllowInteraction(i *discordgo.InteractionCreate) bool {
	if i == nil || i.Interaction == nil {
		return false
	}
	if i.Member == nil || i.Member.User == nil {
		log.WithField("component", "GuildFilter").Debug("deny: interaction outside a guild")
		return false
	}
	if !f.allowGuild(i.GuildID) {
		log.WithFields(log.Fields{
			"component": "GuildFilter",
			"guild_id":  i.GuildID,
			"user_id":   i.Member.User.ID,
		}).Info("deny: foreign guild")
		return false
	}
	return true
}

// IsAdmin — у автора взаимодействия есть роль администратора.
func (f *GuildFilter) IsAdmin(i *discordgo.InteractionCreate) bool {
	if f.adminRoleID == "" || i.Member == nil {
		return false
	}
	for _, role := range i.Member.Roles {
		if role == f.adminRoleID {
			return true
		}
	}
	return false
}
