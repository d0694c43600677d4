// Package repository defines the order store implementations and the error
// values they share.  These sentinel values allow higher layers such as the
// chat engine and the HTTP handlers to tell expected branches apart from
// real failures.  ErrEmptyOrder is a normal outcome of checking out an empty
// order, while ErrSessionNotFound means the device has no persisted session
// row (it was never created or was purged by housekeeping).
package repository

import (
	"errors"
	"strings"
)

// ErrEmptyOrder is returned by PlaceOrder when the device's current order
// has no lines.  Callers should answer with a friendly message rather than
// treating it as a failure.
var ErrEmptyOrder = errors.New("empty order")

// ErrSessionNotFound is returned when an operation needs the device's
// persisted session row and none exists.
var ErrSessionNotFound = errors.New("session not found")

// HistoryLimit bounds ListPlacedOrders.  Only the most recent placed orders
// are returned, newest first.
const HistoryLimit = 5

// isDuplicateKey reports whether err is a primary/unique key violation for
// either MySQL ("Duplicate entry") or SQLite ("UNIQUE constraint failed").
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
