// Package catalog holds the restaurant menu.  The catalog is built once at
// startup and never changes afterwards, so every method is a pure lookup and
// safe for concurrent use without locking.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// Catalog is an immutable, ordered set of menu items.
type Catalog struct {
	items []model.MenuItem
	byID  map[int]int
}

// New validates items and builds a Catalog that preserves declaration order.
// Item IDs must be positive and unique; option IDs must be positive and
// unique within their parent item; names must be non-empty and prices
// non-negative.
func New(items []model.MenuItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]model.MenuItem, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, it := range items {
		if it.ID <= 0 {
			return nil, fmt.Errorf("catalog: item %q has non-positive id %d", it.Name, it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item id %d", it.ID)
		}
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("catalog: item %d has an empty name", it.ID)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: item %d has a negative price", it.ID)
		}
		seen := make(map[int]struct{}, len(it.Options))
		opts := make([]model.MenuOption, 0, len(it.Options))
		for _, o := range it.Options {
			if o.ID <= 0 {
				return nil, fmt.Errorf("catalog: item %d option %q has non-positive id %d", it.ID, o.Name, o.ID)
			}
			if _, dup := seen[o.ID]; dup {
				return nil, fmt.Errorf("catalog: item %d has duplicate option id %d", it.ID, o.ID)
			}
			if strings.TrimSpace(o.Name) == "" {
				return nil, fmt.Errorf("catalog: item %d option %d has an empty name", it.ID, o.ID)
			}
			if o.Price.IsNegative() {
				return nil, fmt.Errorf("catalog: item %d option %d has a negative price", it.ID, o.ID)
			}
			seen[o.ID] = struct{}{}
			opts = append(opts, o)
		}
		if len(opts) == 0 {
			opts = nil
		}
		it.Options = opts
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Default returns the restaurant's standard menu.
func Default() *Catalog {
	c, err := New([]model.MenuItem{
		{
			ID:    1,
			Name:  "Pizza",
			Price: decimal.NewFromInt(10),
			Options: []model.MenuOption{
				{ID: 1, Name: "Small", Price: decimal.NewFromInt(10)},
				{ID: 2, Name: "Large", Price: decimal.NewFromInt(15)},
			},
		},
		{ID: 2, Name: "Burger", Price: decimal.NewFromInt(8)},
		{ID: 3, Name: "Salad", Price: decimal.NewFromInt(6)},
		{ID: 4, Name: "Pasta", Price: decimal.NewFromInt(12)},
		{ID: 5, Name: "Soda", Price: decimal.NewFromInt(3)},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Items returns a copy of the catalog items in declaration order.
func (c *Catalog) Items() []model.MenuItem {
	out := make([]model.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// LookupItem returns the item with the given id.
func (c *Catalog) LookupItem(itemID int) (model.MenuItem, bool) {
	idx, ok := c.byID[itemID]
	if !ok {
		return model.MenuItem{}, false
	}
	return c.items[idx], true
}

// LookupOption returns option optionID of item itemID.
func (c *Catalog) LookupOption(itemID, optionID int) (model.MenuOption, bool) {
	it, ok := c.LookupItem(itemID)
	if !ok {
		return model.MenuOption{}, false
	}
	for _, o := range it.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return model.MenuOption{}, false
}

// FormattedMenu renders every item as "id: name ($price)", one per line,
// with the item's options indented on the lines below it.
func (c *Catalog) FormattedMenu() string {
	var b strings.Builder
	for i, it := range c.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatEntry(it.ID, it.Name, it.Price))
		for _, o := range it.Options {
			b.WriteString("\n  ")
			b.WriteString(formatEntry(o.ID, o.Name, o.Price))
		}
	}
	return b.String()
}

// FormattedSubMenu renders the options of itemID, one per line.  It returns
// false when the item does not exist or has no options.
func (c *Catalog) FormattedSubMenu(itemID int) (string, bool) {
	it, ok := c.LookupItem(itemID)
	if !ok || !it.HasOptions() {
		return "", false
	}
	lines := make([]string, 0, len(it.Options))
	for _, o := range it.Options {
		lines = append(lines, formatEntry(o.ID, o.Name, o.Price))
	}
	return strings.Join(lines, "\n"), true
}

func formatEntry(id int, name string, price decimal.Decimal) string {
	return fmt.Sprintf("%d: %s (%s)", id, name, FormatPrice(price))
}

// FormatPrice renders a price with a dollar sign.  Whole amounts are shown
// without decimals ("$10"), fractional ones with two ("$2.50").
func FormatPrice(p decimal.Decimal) string {
	if p.IsInteger() {
		return "$" + p.String()
	}
	return "$" + p.StringFixed(2)
}
