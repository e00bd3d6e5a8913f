package store

import (
	"strings"

	"github.com/google/uuid"
)

// Record identifiers keep the historical TX/RM prefixes but derive the token
// from a random UUID rather than a timestamp, so rapid successive appends
// cannot collide.

// NewTransactionID returns a fresh ledger record ID.
func NewTransactionID() string {
	return "TX" + token()
}

// NewReminderID returns a fresh reminder record ID.
func NewReminderID() string {
	return "RM" + token()
}

func token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
