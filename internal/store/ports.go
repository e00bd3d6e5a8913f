// Package store defines the ports every storage backend implements and the
// pinned tabular schemas shared by the spreadsheet-shaped backends.
package store

import (
	"context"

	"khata/internal/core"
)

// Ports for outbound storage adapters. The service layer only ever talks to
// these; concrete backends live in the memory, google and sqlite subpackages.
type (
	TransactionStore interface {
		// AppendTransaction assigns a fresh ID and CreatedAt, inserts the
		// record at the end of the ledger, and returns the ID.
		AppendTransaction(ctx context.Context, tx core.Transaction) (string, error)

		// DeleteTransaction removes the record with the given ID.
		// Returns core.ErrNotFound when no such record exists.
		DeleteTransaction(ctx context.Context, id string) error

		// ListTransactions returns all records in stored (append) order.
		// An empty ledger yields an empty slice, not an error.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	ReminderStore interface {
		AppendReminder(ctx context.Context, r core.Reminder) (string, error)
		DeleteReminder(ctx context.Context, id string) error
		ListReminders(ctx context.Context) ([]core.Reminder, error)
	}

	SettingsStore interface {
		// GetSetting returns the stored value for key, or def when absent.
		GetSetting(ctx context.Context, key, def string) (string, error)

		// UpsertSetting replaces the value if the key exists, else appends
		// a new row. Idempotent under repeated identical calls.
		UpsertSetting(ctx context.Context, key, value string) error
	}
)

// Backend bundles the three stores a deployment needs.
type Backend interface {
	TransactionStore
	ReminderStore
	SettingsStore

	// Setup creates the backing tables and seeds default settings. It is a
	// one-time operation; afterwards a missing table is a deployment error
	// surfaced as core.ErrStoreMissing.
	Setup(ctx context.Context) error
}
