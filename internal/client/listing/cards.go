// internal/client/listing/cards.go
package listing

import (
	"fmt"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/csvexport"
	"github.com/dalemusser/communityhub/internal/domain/record"
	"github.com/dalemusser/communityhub/internal/domain/resource"
)

// TitleWidth is the longest card title shown before truncation.
const TitleWidth = 40

// Card is one rendered list row.
type Card struct {
	ID       string
	Title    string
	Subtitle string
	Selected bool
}

// Controls describes the pager.
type Controls struct {
	PrevEnabled bool
	NextEnabled bool
	Label       string
}

// Truncate shortens s to n runes and appends "..." when it is longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// CardFor renders a record of kind.
func CardFor(kind resource.Kind, r record.Record) Card {
	title := strings.TrimSpace(r.String(kind.TitleKey))
	if title == "" {
		title = "(untitled)"
	}
	return Card{
		ID:       r.ID(),
		Title:    Truncate(title, TitleWidth),
		Subtitle: subtitle(r.String(kind.DateKey)),
	}
}

func subtitle(raw string) string {
	if raw == "" {
		return ""
	}
	if t, ok := csvexport.ParseTime(raw); ok {
		return t.UTC().Format("2006-01-02")
	}
	return raw
}

// Cards renders the current page with selection marks.
func (c *Controller) Cards() []Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Card, 0, len(c.items))
	for _, r := range c.items {
		card := CardFor(c.kind, r)
		card.Selected = c.sel.Has(card.ID)
		out = append(out, card)
	}
	return out
}

// Controls returns the pager state for the current page.
func (c *Controller) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.total
	if total < 1 {
		total = 1
	}
	return Controls{
		PrevEnabled: c.page > 1,
		NextEnabled: c.page < c.total,
		Label:       fmt.Sprintf("Page %d of %d", c.page, total),
	}
}
