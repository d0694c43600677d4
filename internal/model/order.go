package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPlaced is the only status a placed order can have.  Placed
// orders are append-only snapshots and are never cancelled or edited.
const OrderStatusPlaced = "PLACED"

// OrderLine is one entry of an order.  Lines that share the same ItemID
// and resolved Name are merged by incrementing Quantity.
//
// Fields:
//  ItemID   catalog item identifier (the parent item for options).
//  Name     resolved display name, e.g. "Pizza (Small)".
//  Price    unit price at the time the line was added.
//  Quantity positive count of units.
type OrderLine struct {
	ItemID   int             `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns Price multiplied by Quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotal sums the subtotals of all lines.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// MergeLine adds one unit of (itemID, name) to lines.  When a line with the
// same item and name already exists its quantity is incremented, otherwise a
// new line with quantity 1 is appended.  The input slice is not modified.
func MergeLine(lines []OrderLine, itemID int, name string, price decimal.Decimal) []OrderLine {
	out := make([]OrderLine, len(lines), len(lines)+1)
	copy(out, lines)
	for i := range out {
		if out[i].ItemID == itemID && out[i].Name == name {
			out[i].Quantity++
			return out
		}
	}
	return append(out, OrderLine{ItemID: itemID, Name: name, Price: price, Quantity: 1})
}

// PlacedOrder is an immutable snapshot of a device's current order taken at
// checkout.  ID is assigned sequentially by the store.
type PlacedOrder struct {
	ID        uint64      `json:"id"`
	DeviceID  string      `json:"deviceId"`
	Lines     []OrderLine `json:"items"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Total returns the sum of the order's line subtotals.
func (o PlacedOrder) Total() decimal.Decimal { return OrderTotal(o.Lines) }
