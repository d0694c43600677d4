package chat

import "github.com/iliyamo/restaurant-chatbot/internal/catalog"

// State is the closed set of conversation positions.  The concrete types
// are MainMenu, ItemSelection and SubMenu; SubMenu carries the item whose
// options are being offered, so a selected item can only exist while the
// conversation is in the sub-menu.
type State interface {
	Name() string
	// prompt renders the menu the client should see while in this state.
	prompt(c *catalog.Catalog) string
	isState()
}

// MainMenu is the initial state and the state every top-level action
// returns to.
type MainMenu struct{}

// ItemSelection lists the catalog items.
type ItemSelection struct{}

// SubMenu lists the options of ItemID.
type SubMenu struct{ ItemID int }

func (MainMenu) Name() string      { return "MAIN_MENU" }
func (ItemSelection) Name() string { return "ITEM_SELECTION" }
func (SubMenu) Name() string       { return "SUB_MENU" }

func (MainMenu) isState()      {}
func (ItemSelection) isState() {}
func (SubMenu) isState()       {}

func (MainMenu) prompt(*catalog.Catalog) string { return WelcomeText }

func (ItemSelection) prompt(c *catalog.Catalog) string { return itemMenuText(c) }

// prompt falls back to the welcome text when the selected item no longer
// resolves to an item with options; the sub-menu handler resets to
// MainMenu in that case.
func (s SubMenu) prompt(c *catalog.Catalog) string {
	if text, ok := subMenuText(c, s.ItemID); ok {
		return text
	}
	return WelcomeText
}
