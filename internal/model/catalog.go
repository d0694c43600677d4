package model

import "github.com/shopspring/decimal"

// MenuItem represents one orderable entry of the restaurant catalog.  An
// item with options is never ordered at its own price; the customer has to
// pick one of the options, whose price is used instead.
//
// Fields:
//  ID      positive identifier, unique across the catalog.
//  Name    display name shown in menus and order lines.
//  Price   base price; only used when the item has no options.
//  Options ordered sub-options (nil when the item is ordered directly).
type MenuItem struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Options []MenuOption    `json:"options,omitempty"`
}

// HasOptions reports whether the item must be ordered through a sub-option.
func (i MenuItem) HasOptions() bool { return len(i.Options) > 0 }

// MenuOption is a variant of a MenuItem (e.g. a pizza size).  Option IDs
// are unique only within their parent item, so an option is identified for
// ordering purposes by the (item ID, option ID) pair.
type MenuOption struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
