package reply

import (
	"github.com/bwmarrin/discordgo"
)

// Options — опции slash-команды по имени.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

// CommandOptions разворачивает опции команды. Для подкоманд возвращает
// имя подкоманды и её опции.
func CommandOptions(i *discordgo.InteractionCreate) (sub string, opts Options) {
	data := i.ApplicationCommandData()
	list := data.Options
	if len(list) == 1 && (list[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
		list[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		sub = list[0].Name
		list = list[0].Options
	}
	opts = make(Options, len(list))
	for _, o := range list {
		opts[o.Name] = o
	}
	return sub, opts
}

// Int возвращает целочисленную опцию.
func (o Options) Int(name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	return opt.IntValue(), true
}

// String возвращает строковую опцию.
func (o Options) String(name string) (string, bool) {
	opt, ok := o[name]
	if !ok {
		return "", false
	}
	return opt.StringValue(), true
}

// ResolvedUser достаёт пользователя из resolved-данных взаимодействия
// без обращения к API.
func ResolvedUser(i *discordgo.InteractionCreate, o Options, name string) (*discordgo.User, bool) {
	opt, ok := o[name]
	if !ok {
		return nil, false
	}
	id, _ := opt.Value.(string)
	data := i.ApplicationCommandData()
	if data.Resolved != nil {
		if u, ok := data.Resolved.Users[id]; ok {
			return u, true
		}
	}
	return &discordgo.User{ID: id}, id != ""
}

// Actor — пользователь, вызвавший взаимодействие (в гильдии или в личке).
func Actor(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// ActorRoles — роли автора в гильдии (пусто в личке).
func ActorRoles(i *discordgo.InteractionCreate) []string {
	if i.Member == nil {
		return nil
	}
	return i.Member.Roles
}

// HasRole проверяет, есть ли у автора роль.
func HasRole(i *discordgo.InteractionCreate, roleID string) bool {
	for _, r := range ActorRoles(i) {
		if r == roleID {
			return true
		}
	}
	return false
}
