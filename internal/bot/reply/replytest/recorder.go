// Package replytest — записывающий Responder для тестов обработчиков.
package replytest

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Recorder запоминает все ответы на взаимодействия.
type Recorder struct {
	mu        sync.Mutex
	Responses []*discordgo.InteractionResponse
}

func (r *Recorder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses = append(r.Responses, resp)
	return nil
}

// Last возвращает последний ответ или nil.
func (r *Recorder) Last() *discordgo.InteractionResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Responses) == 0 {
		return nil
	}
	return r.Responses[len(r.Responses)-1]
}

// LastText склеивает текст последнего ответа: content, заголовки,
// описания и поля эмбедов.
func (r *Recorder) LastText() string {
	resp := r.Last()
	if resp == nil || resp.Data == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(resp.Data.Content)
	for _, e := range resp.Data.Embeds {
		sb.WriteString("\n" + e.Title + "\n" + e.Description)
		for _, f := range e.Fields {
			sb.WriteString("\n" + f.Name + ": " + f.Value)
		}
	}
	return sb.String()
}

// LastEphemeral сообщает, был ли последний ответ эфемерным.
func (r *Recorder) LastEphemeral() bool {
	resp := r.Last()
	return resp != nil && resp.Data != nil && resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

// CommandInteraction собирает slash-команду от пользователя userID.
func CommandInteraction(userID, name string, roles []string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "interaction-" + name,
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild",
		Member:  &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user" + userID}, Roles: roles},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}}
}

// ComponentInteraction собирает нажатие кнопки customID.
func ComponentInteraction(userID, customID string, roles []string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "component-" + customID,
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "guild",
		ChannelID: "channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user" + userID}, Roles: roles},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}}
}

// IntOption — целочисленная опция команды.
func IntOption(name string, v int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v),
	}
}

// StringOption — строковая опция команды.
func StringOption(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v,
	}
}

// UserOption — опция-пользователь (значение — id).
func UserOption(name, userID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: userID,
	}
}

// SubCommand оборачивает опции в подкоманду.
func SubCommand(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts,
	}
}
