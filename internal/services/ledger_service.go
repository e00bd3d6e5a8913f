// Package services holds the orchestration layer between the caller surface
// and the storage backends.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/store"
)

// EventPublisher is the outbound port for ledger mutation events.
// *amqp.Client satisfies it; a nil publisher disables eventing.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind, id string) error
}

// LedgerService ties the validation layer, the aggregation engine and the
// stores together. All operations are synchronous and run to completion;
// event publication is the only best-effort side channel.
type LedgerService struct {
	backend store.Backend
	events  EventPublisher
	now     func() time.Time
}

// NewLedgerService creates a service over the given backend. events may be
// nil when no broker is configured.
func NewLedgerService(backend store.Backend, events EventPublisher) *LedgerService {
	return &LedgerService{
		backend: backend,
		events:  events,
		now:     time.Now,
	}
}

// GetSummary computes the summary for the requested period. A zero month or
// year defaults to the current one. The optional search string narrows the
// scanned transactions by tag/note substring before aggregation, so totals
// and history stay consistent with each other.
func (s *LedgerService) GetSummary(ctx context.Context, search string, month time.Month, year int) (core.Summary, error) {
	now := s.now()
	if month == 0 {
		month = now.Month()
	}
	if year == 0 {
		year = now.Year()
	}

	txs, err := s.backend.ListTransactions(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	txs = core.FilterTransactions(txs, search)

	budget, err := s.budget(ctx)
	if err != nil {
		return core.Summary{}, err
	}

	return core.ComputeSummary(txs, budget, month, year, now), nil
}

// AddTransaction validates a candidate and appends it to the ledger.
func (s *LedgerService) AddTransaction(ctx context.Context, in core.TransactionInput) (string, error) {
	tx, err := core.ValidateTransaction(in)
	if err != nil {
		return "", err
	}
	tx.CreatedAt = s.now()

	id, err := s.backend.AppendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("append transaction: %w", err)
	}
	s.publish(ctx, amqp.EventTransactionCreated, id)
	return id, nil
}

// DeleteTransaction removes a ledger record by ID.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.backend.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventTransactionDeleted, id)
	return nil
}

// Reminders lists all stored reminders.
func (s *LedgerService) Reminders(ctx context.Context) ([]core.Reminder, error) {
	return s.backend.ListReminders(ctx)
}

// AddReminder validates a candidate and stores it.
func (s *LedgerService) AddReminder(ctx context.Context, in core.ReminderInput) (string, error) {
	r, err := core.ValidateReminder(in)
	if err != nil {
		return "", err
	}
	id, err := s.backend.AppendReminder(ctx, r)
	if err != nil {
		return "", fmt.Errorf("append reminder: %w", err)
	}
	s.publish(ctx, amqp.EventReminderCreated, id)
	return id, nil
}

// DeleteReminder removes a reminder by ID.
func (s *LedgerService) DeleteReminder(ctx context.Context, id string) error {
	if err := s.backend.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventReminderDeleted, id)
	return nil
}

// PayReminder materializes a stored reminder into a ledger entry dated
// today. The reminder itself is never touched: the system performs no
// recurrence scheduling, so it stays available for the next cycle. Exactly
// one ledger record is appended on success.
func (s *LedgerService) PayReminder(ctx context.Context, reminderID string) (string, error) {
	reminders, err := s.backend.ListReminders(ctx)
	if err != nil {
		return "", fmt.Errorf("list reminders: %w", err)
	}
	var reminder *core.Reminder
	for i := range reminders {
		if reminders[i].ID == reminderID {
			reminder = &reminders[i]
			break
		}
	}
	if reminder == nil {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, reminderID)
	}

	candidate := core.TransactionInput{
		Date:   core.DateOf(s.now()).String(),
		Amount: reminder.Amount.Decimal(),
		Type:   string(reminder.Type),
		Tag:    reminder.Tag,
		Note:   fmt.Sprintf("Paid: %s (Reminder)", reminder.Name),
	}
	tx, err := core.ValidateTransaction(candidate)
	if err != nil {
		// Surface the payment failure but keep the validation kind
		// reachable for callers that branch on it.
		return "", fmt.Errorf("%w: %w", core.ErrPaymentFailed, err)
	}
	tx.CreatedAt = s.now()

	id, err := s.backend.AppendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("append payment: %w", err)
	}
	s.publish(ctx, amqp.EventReminderPaid, reminderID)

	slog.InfoContext(ctx, "Reminder paid",
		"reminder_id", reminderID, "transaction_id", id,
		"name", reminder.Name, "amount_cents", reminder.Amount.Cents)
	return id, nil
}

// GetSetting reads a settings value, falling back to def when absent.
func (s *LedgerService) GetSetting(ctx context.Context, key, def string) (string, error) {
	return s.backend.GetSetting(ctx, key, def)
}

// SetSetting upserts an arbitrary settings key.
func (s *LedgerService) SetSetting(ctx context.Context, key, value string) error {
	return s.backend.UpsertSetting(ctx, key, value)
}

// SetBudget validates and stores the monthly budget. The value is persisted
// in canonical decimal form.
func (s *LedgerService) SetBudget(ctx context.Context, amount string) error {
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return err
	}
	return s.backend.UpsertSetting(ctx, store.KeyBudget, core.Money{Cents: cents}.Decimal())
}

// SetPIN validates and stores the access PIN.
func (s *LedgerService) SetPIN(ctx context.Context, pin string) error {
	if err := core.ValidatePIN(pin); err != nil {
		return err
	}
	return s.backend.UpsertSetting(ctx, store.KeyPIN, pin)
}

// VerifyPIN compares the candidate against the stored PIN. The comparison
// is plain string equality.
func (s *LedgerService) VerifyPIN(ctx context.Context, pin string) (bool, error) {
	stored, err := s.backend.GetSetting(ctx, store.KeyPIN, store.DefaultPIN)
	if err != nil {
		return false, err
	}
	return pin == stored, nil
}

// budget reads the Budget setting as Money, tolerating a malformed stored
// value by falling back to the default.
func (s *LedgerService) budget(ctx context.Context) (core.Money, error) {
	raw, err := s.backend.GetSetting(ctx, store.KeyBudget, store.DefaultBudget)
	if err != nil {
		return core.Money{}, fmt.Errorf("get budget: %w", err)
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored budget is malformed, using default", "value", raw)
		cents, _ = core.ParseDecimalToCents(store.DefaultBudget)
	}
	return core.Money{Cents: cents}, nil
}

// publish sends a ledger event when a broker is configured. Failures are
// logged and never fail the request: the store write already happened.
func (s *LedgerService) publish(ctx context.Context, kind, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "id", id, "error", err)
	}
}
