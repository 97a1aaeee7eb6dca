package discord

import (
	"fmt"
	"strings"
	"time"

	"minimal-price/internal/domain"
)

// embedColor is the sidebar color of every catalog post
const embedColor = 0x3498db

// BuildEmbed renders a category and its products as a Discord embed
func BuildEmbed(categoryName string, products []domain.Product, currency string, now time.Time) Embed {
	var desc strings.Builder

	desc.WriteString("**Market Analysis**\n")
	fmt.Fprintf(&desc, "▎ Total positions: %d\n", len(products))
	desc.WriteString("────────────────────────\n\n")

	if len(products) == 0 {
		desc.WriteString("No items.")
	} else {
		for _, p := range products {
			fmt.Fprintf(&desc, "🔷 **%s**\n", p.Name)
			desc.WriteString("```yaml\n")
			fmt.Fprintf(&desc, "Price: %g %s\n", p.Price, currency)
			desc.WriteString("```\n")
		}
	}

	return Embed{
		Title:       "📦 " + categoryName,
		Color:       embedColor,
		Description: desc.String(),
		Footer: Footer{
			Text: "Updated " + now.Format("02.01.2006 15:04"),
		},
	}
}
