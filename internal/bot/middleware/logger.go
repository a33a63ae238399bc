// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// InteractionFields — поля лога для взаимодействия:
// user_id, guild_id, тип и имя команды или custom_id кнопки.
func InteractionFields(i *discordgo.InteractionCreate) log.Fields {
	fields := log.Fields{
		"interaction_id": i.ID,
		"guild_id":       i.GuildID,
		"channel_id":     i.ChannelID,
	}
	if i.Member != nil && i.Member.User != nil {
		fields["user_id"] = i.Member.User.ID
		fields["username"] = i.Member.User.Username
	} else if i.User != nil {
		fields["user_id"] = i.User.ID
		fields["username"] = i.User.Username
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		fields["command"] = i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		fields["custom_id"] = i.MessageComponentData().CustomID
	}
	return fields
}

// LogInteraction логирует входящее взаимодействие.
func LogInteraction(i *discordgo.InteractionCreate) {
	log.WithFields(InteractionFields(i)).Debug("Входящее взаимодействие")
}

// LogMessage логирует входящее сообщение.
// Записывает: user_id, channel_id, username, текст (первые 50 символов).
func LogMessage(m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}

	text := []rune(m.Content)
	if len(text) > 50 {
		text = append(text[:50], []rune("...")...)
	}

	log.WithFields(log.Fields{
		"user_id":    m.Author.ID,
		"channel_id": m.ChannelID,
		"username":   m.Author.Username,
		"text":       string(text),
	}).Trace("Входящее сообщение")
}
