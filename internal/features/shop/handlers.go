// Package shop — handlers.go обрабатывает команды магазина:
// /shop, /buy, /inventory и /adminshop add|update|delete|list.
package shop

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"serotonyl.ru/discord-economy-bot/internal/bot/reply"
	"serotonyl.ru/discord-economy-bot/internal/common"
	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service *Service
	loc     *time.Location
}

// NewHandler создаёт обработчик магазина. loc — часовой пояс дат в истории.
func NewHandler(service *Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

// HandleShop — /shop: список товаров с номерами.
func (h *Handler) HandleShop(s reply.Responder, i *discordgo.InteractionCreate) {
	items := h.service.ListItems()
	if len(items) == 0 {
		reply.Ephemeral(s, i, "🛒 The shop is empty.")
		return
	}
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title:       "🛒 Shop",
		Color:       reply.ColorBlue,
		Description: formatItems(items),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Use /buy <name or number> [quantity]"},
	})
}

// HandleBuy — /buy item [quantity].
func (h *Handler) HandleBuy(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	ref, _ := opts.String("item")
	quantity, ok := opts.Int("quantity")
	if !ok {
		quantity = 1
	}

	res, err := h.service.Purchase(reply.Actor(i).ID, ref, quantity)
	if err != nil {
		reply.Error(s, i, err)
		return
	}
	reply.Embed(s, i, &discordgo.MessageEmbed{
		Title: "🛍️ Purchase complete",
		Color: reply.ColorGreen,
		Description: fmt.Sprintf("You bought **%d × %s** for **%s**.",
			res.Purchase.Quantity, res.Item.Name, common.FormatTokens(res.Purchase.TotalCost)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Balance", Value: common.FormatTokens(res.Balance), Inline: true},
		},
	})
}

// HandleInventory — /inventory [user]: последние покупки.
func (h *Handler) HandleInventory(s reply.Responder, i *discordgo.InteractionCreate) {
	_, opts := reply.CommandOptions(i)
	user := reply.Actor(i)
	if u, ok := reply.ResolvedUser(i, opts, "user"); ok {
		user = u
	}

	history := h.service.History(user.ID)
	if len(history) == 0 {
		reply.Ephemeral(s, i, "🎒 No purchases yet.")
		return
	}

	const shown = 15
	start := max(0, len(history)-shown)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<@%s>\n\n", user.ID))
	for _, p := range history[start:] {
		sb.WriteString(fmt.Sprintf("**%d × %s** — %s · %s\n",
			p.Quantity, p.ItemName, common.FormatTokens(p.TotalCost), common.FormatDateTime(p.PurchasedAt, h.loc)))
	}
	if start > 0 {
		sb.WriteString(fmt.Sprintf("…and %d earlier purchases", start))
	}
	reply.EphemeralEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🎒 Inventory",
		Color:       reply.ColorBlue,
		Description: sb.String(),
	})
}

// HandleAdminShop — /adminshop add|update|delete|list.
// Права администратора проверяет маршрутизатор бота.
func (h *Handler) HandleAdminShop(s reply.Responder, i *discordgo.InteractionCreate) {
	sub, opts := reply.CommandOptions(i)
	switch sub {
	case "add":
		name, _ := opts.String("name")
		price, _ := opts.Int("price")
		desc, _ := opts.String("description")
		item, err := h.service.AddItem(ItemInput{Name: name, Price: price, Description: desc})
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Ephemeral(s, i, fmt.Sprintf("✅ Added **%s** for %s.", item.Name, common.FormatTokens(item.Price)))

	case "update":
		position, _ := opts.Int("position")
		var patch ItemPatch
		if v, ok := opts.String("name"); ok {
			patch.Name = &v
		}
		if v, ok := opts.Int("price"); ok {
			patch.Price = &v
		}
		if v, ok := opts.String("description"); ok {
			patch.Description = &v
		}
		item, err := h.service.UpdateItem(int(position), patch)
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Ephemeral(s, i, fmt.Sprintf("✅ Item #%d is now **%s** for %s.", position, item.Name, common.FormatTokens(item.Price)))

	case "delete":
		position, _ := opts.Int("position")
		item, err := h.service.DeleteItem(int(position))
		if err != nil {
			reply.Error(s, i, err)
			return
		}
		reply.Ephemeral(s, i, fmt.Sprintf("🗑️ Removed **%s**.", item.Name))

	case "list":
		items := h.service.ListItems()
		if len(items) == 0 {
			reply.Ephemeral(s, i, "🛒 The shop is empty.")
			return
		}
		reply.EphemeralEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "🛒 Shop (admin)",
			Color:       reply.ColorGrey,
			Description: formatItems(items),
		})

	default:
		reply.Ephemeral(s, i, "❌ Unknown subcommand.")
	}
}

func formatItems(items []storage.ShopItem) string {
	var sb strings.Builder
	for n, it := range items {
		sb.WriteString(fmt.Sprintf("**%d. %s** — %s\n", n+1, it.Name, common.FormatTokens(it.Price)))
		if it.Description != "" {
			sb.WriteString("   " + it.Description + "\n")
		}
	}
	return sb.String()
}
