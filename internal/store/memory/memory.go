// Package memory implements the storage backend on in-process tabular
// tables. It is the default backend and the fake the service tests run on.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"khata/internal/core"
	"khata/internal/store"
)

// table is an ordered collection of rows. The first row is the header; data
// rows follow in append order.
type table struct {
	rows [][]string
}

func (t *table) appendRow(row []string) {
	t.rows = append(t.rows, append([]string(nil), row...))
}

// deleteRow removes the data row at the given zero-based index (the header
// is row 0 and cannot be deleted).
func (t *table) deleteRow(idx int) {
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
}

func (t *table) setCell(rowIdx, colIdx int, value string) {
	for len(t.rows[rowIdx]) <= colIdx {
		t.rows[rowIdx] = append(t.rows[rowIdx], "")
	}
	t.rows[rowIdx][colIdx] = value
}

// Store keeps the three ledger tables in memory behind one mutex. The wider
// system assumes a single writer; the lock only keeps the fake safe when
// tests exercise it concurrently.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

var _ store.Backend = (*Store)(nil)

// New returns an empty store. Call Setup before use, as with any backend.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// Setup creates the three tables with pinned headers and seeds the default
// settings. Safe to call repeatedly; existing tables are left untouched.
func (s *Store) Setup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	create := func(name string, header []string) {
		if _, ok := s.tables[name]; ok {
			return
		}
		t := &table{}
		t.appendRow(header)
		s.tables[name] = t
	}
	create(store.TransactionsTable, store.TransactionsHeader)
	create(store.RemindersTable, store.RemindersHeader)
	create(store.SettingsTable, store.SettingsHeader)

	s.upsertLocked(store.KeyBudget, store.DefaultBudget, false)
	s.upsertLocked(store.KeyPIN, store.DefaultPIN, false)
	return nil
}

func (s *Store) getTable(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrStoreMissing, name)
	}
	return t, nil
}

// AppendTransaction implements store.TransactionStore.
func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.TransactionsTable)
	if err != nil {
		return "", err
	}
	tx.ID = store.NewTransactionID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	t.appendRow(store.EncodeTransaction(tx))
	return tx.ID, nil
}

// DeleteTransaction implements store.TransactionStore.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.TransactionsTable)
	if err != nil {
		return err
	}
	return deleteByID(t, id)
}

// ListTransactions implements store.TransactionStore.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.TransactionsTable)
	if err != nil {
		return nil, err
	}
	out := []core.Transaction{}
	for _, row := range dataRows(t) {
		if tx, ok := store.DecodeTransaction(row); ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AppendReminder implements store.ReminderStore.
func (s *Store) AppendReminder(_ context.Context, r core.Reminder) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.RemindersTable)
	if err != nil {
		return "", err
	}
	r.ID = store.NewReminderID()
	t.appendRow(store.EncodeReminder(r))
	return r.ID, nil
}

// DeleteReminder implements store.ReminderStore.
func (s *Store) DeleteReminder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.RemindersTable)
	if err != nil {
		return err
	}
	return deleteByID(t, id)
}

// ListReminders implements store.ReminderStore.
func (s *Store) ListReminders(_ context.Context) ([]core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.RemindersTable)
	if err != nil {
		return nil, err
	}
	out := []core.Reminder{}
	for _, row := range dataRows(t) {
		if r, ok := store.DecodeReminder(row); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetSetting implements store.SettingsStore.
func (s *Store) GetSetting(_ context.Context, key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTable(store.SettingsTable)
	if err != nil {
		return "", err
	}
	for _, row := range dataRows(t) {
		if len(row) >= 2 && row[0] == key {
			return row[1], nil
		}
	}
	return def, nil
}

// UpsertSetting implements store.SettingsStore.
func (s *Store) UpsertSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(key, value, true)
}

// upsertLocked replaces the value when the key exists, else appends a new
// row. With overwrite false an existing key is left alone (seeding).
func (s *Store) upsertLocked(key, value string, overwrite bool) error {
	t, err := s.getTable(store.SettingsTable)
	if err != nil {
		return err
	}
	for i := 1; i < len(t.rows); i++ {
		if len(t.rows[i]) >= 1 && t.rows[i][0] == key {
			if overwrite {
				t.setCell(i, 1, value)
			}
			return nil
		}
	}
	t.appendRow([]string{key, value})
	return nil
}

func deleteByID(t *table, id string) error {
	for i := 1; i < len(t.rows); i++ {
		if len(t.rows[i]) >= 1 && t.rows[i][0] == id {
			t.deleteRow(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

func dataRows(t *table) [][]string {
	if len(t.rows) <= 1 {
		return nil
	}
	return t.rows[1:]
}
