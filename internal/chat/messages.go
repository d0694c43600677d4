package chat

import (
	"fmt"
	"strings"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// WelcomeText is the main menu prompt.
const WelcomeText = `Welcome to the Restaurant ChatBot!
Select 1 to Place an order
Select 99 to checkout order
Select 98 to see order history
Select 97 to see current order
Select 0 to cancel order`

const (
	msgOrderPlaced     = "Order placed successfully!"
	msgNoOrderToPlace  = "No order to place."
	msgNoOrdersFound   = "No orders found."
	msgNoCurrentOrder  = "No current order."
	msgNoOrderToCancel = "No order to cancel."
	msgOrderCancelled  = "Order cancelled."

	msgThrottled       = "Please wait a moment before sending another message."
	msgInternalFailure = "Sorry, something went wrong. Please try again."
	msgInvalidDeviceID = "Invalid or missing deviceId in message."
	msgSessionNotFound = "Session not found. Please reconnect."
	msgServerBusy      = "Too many active sessions. Please try again later."
	msgConnectFailed   = "Could not start your session. Please try again later."
)

func itemMenuText(c *catalog.Catalog) string {
	return "Please select an item from the menu:\n" + c.FormattedMenu()
}

func subMenuText(c *catalog.Catalog, itemID int) (string, bool) {
	it, ok := c.LookupItem(itemID)
	if !ok {
		return "", false
	}
	options, ok := c.FormattedSubMenu(itemID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Select an option for %s:\n%s", it.Name, options), true
}

func notANumberText(input string) string {
	return fmt.Sprintf("Invalid input: \"%s\" is not a number.", input)
}

func notValidText(input, what string) string {
	return fmt.Sprintf("\"%s\" is not a valid %s.", input, what)
}

func addedText(name string) string {
	return fmt.Sprintf("Added %s to your order.", name)
}

// optionLineName is the resolved order line name of an item option.
func optionLineName(item model.MenuItem, opt model.MenuOption) string {
	return fmt.Sprintf("%s (%s)", item.Name, opt.Name)
}

// withPrompt appends the current menu after an error so the client never
// loses context.
func withPrompt(text, prompt string) string {
	return text + "\n\n" + prompt
}

func formatLine(l model.OrderLine) string {
	return fmt.Sprintf("%dx %s (%s)", l.Quantity, l.Name, catalog.FormatPrice(l.Price))
}

func currentOrderText(lines []model.OrderLine) string {
	var b strings.Builder
	b.WriteString("Current order:")
	for _, l := range lines {
		b.WriteByte('\n')
		b.WriteString(formatLine(l))
	}
	b.WriteString("\nTotal: ")
	b.WriteString(catalog.FormatPrice(model.OrderTotal(lines)))
	return b.String()
}

func historyText(orders []model.PlacedOrder) string {
	rows := make([]string, 0, len(orders))
	for _, o := range orders {
		items := make([]string, 0, len(o.Lines))
		for _, l := range o.Lines {
			items = append(items, formatLine(l))
		}
		rows = append(rows, fmt.Sprintf("Order #%d: %s", o.ID, strings.Join(items, ", ")))
	}
	return strings.Join(rows, "\n")
}
