// Package sqlite implements the storage backend on a local SQLite database.
// It keeps the same ports as the tabular backends but leans on SQL for
// ordering and upserts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"khata/internal/core"
	"khata/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ store.Backend = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Setup seeds the default settings. Table creation is handled by the
// migrations that already ran at open time, so this only fills in missing
// seed rows.
func (r *Repository) Setup(ctx context.Context) error {
	for _, seed := range [][2]string{
		{store.KeyBudget, store.DefaultBudget},
		{store.KeyPIN, store.DefaultPIN},
	} {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
			seed[0], seed[1])
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", seed[0], err)
		}
	}
	return nil
}

// AppendTransaction implements store.TransactionStore.
func (r *Repository) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	tx.ID = store.NewTransactionID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, tx_date, amount_cents, note, tag, tx_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Date.String(), tx.Amount.Cents, tx.Note, tx.Tag, string(tx.Type),
		tx.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID, "tag", tx.Tag, "amount_cents", tx.Amount.Cents, "type", tx.Type)
	return tx.ID, nil
}

// DeleteTransaction implements store.TransactionStore.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

// ListTransactions implements store.TransactionStore. Rows come back in
// insertion order (rowid), matching the tabular backends' append order.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tx_date, amount_cents, note, tag, tx_type, created_at
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx                 core.Transaction
			dateStr, createdAt string
			typ                string
		)
		if err := rows.Scan(&tx.ID, &dateStr, &tx.Amount.Cents, &tx.Note, &tx.Tag, &typ, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has malformed date %q", tx.ID, dateStr)
		}
		tx.Date = date
		tx.Type = core.TxType(typ)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			tx.CreatedAt = t
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// AppendReminder implements store.ReminderStore.
func (r *Repository) AppendReminder(ctx context.Context, rem core.Reminder) (string, error) {
	rem.ID = store.NewReminderID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, name, amount_cents, day, frequency, tag, tx_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.Name, rem.Amount.Cents, rem.Day, rem.Frequency, rem.Tag, string(rem.Type))
	if err != nil {
		return "", fmt.Errorf("insert reminder: %w", err)
	}
	return rem.ID, nil
}

// DeleteReminder implements store.ReminderStore.
func (r *Repository) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

// ListReminders implements store.ReminderStore.
func (r *Repository) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, day, frequency, tag, tx_type
		 FROM reminders ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	out := []core.Reminder{}
	for rows.Next() {
		var (
			rem core.Reminder
			typ string
		)
		if err := rows.Scan(&rem.ID, &rem.Name, &rem.Amount.Cents, &rem.Day, &rem.Frequency, &rem.Tag, &typ); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.Type = core.TxType(typ)
		out = append(out, rem)
	}
	return out, rows.Err()
}

// GetSetting implements store.SettingsStore.
func (r *Repository) GetSetting(ctx context.Context, key, def string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// UpsertSetting implements store.SettingsStore.
func (r *Repository) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
