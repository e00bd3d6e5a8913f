package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/store"
	"khata/internal/store/memory"
)

type capturedEvent struct {
	kind string
	id   string
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (p *fakePublisher) PublishLedgerEvent(_ context.Context, kind, id string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{kind: kind, id: id})
	return nil
}

func newTestService(t *testing.T) (*LedgerService, *fakePublisher) {
	t.Helper()
	backend := memory.New()
	if err := backend.Setup(context.Background()); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	pub := &fakePublisher{}
	svc := NewLedgerService(backend, pub)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc, pub
}

func TestAddTransactionAndSummary(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddTransaction(ctx, core.TransactionInput{
		Date: "2025-03-01", Amount: "5000", Type: "Credit", Tag: "Salary",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if id == "" {
		t.Fatal("AddTransaction() returned empty ID")
	}
	if _, err := svc.AddTransaction(ctx, core.TransactionInput{
		Date: "2025-03-05", Amount: "1200.50", Type: "Debit", Tag: "Food", Note: "groceries",
	}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	sum, err := svc.GetSummary(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if sum.Month != time.March || sum.Year != 2025 {
		t.Errorf("period = %v %d, want March 2025", sum.Month, sum.Year)
	}
	if sum.Income.Cents != 500000 {
		t.Errorf("Income = %d, want 500000", sum.Income.Cents)
	}
	if sum.Expense.Cents != 120050 {
		t.Errorf("Expense = %d, want 120050", sum.Expense.Cents)
	}
	if sum.Balance.Cents != 379950 {
		t.Errorf("Balance = %d, want 379950", sum.Balance.Cents)
	}
	if sum.Budget.Cents != 2000000 {
		t.Errorf("Budget = %d, want 2000000 (seeded default)", sum.Budget.Cents)
	}
	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	if pub.events[0].kind != amqp.EventTransactionCreated {
		t.Errorf("event kind = %q, want %q", pub.events[0].kind, amqp.EventTransactionCreated)
	}
}

func TestGetSummarySearchFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustAdd := func(in core.TransactionInput) {
		t.Helper()
		if _, err := svc.AddTransaction(ctx, in); err != nil {
			t.Fatalf("AddTransaction(%v) error = %v", in, err)
		}
	}
	mustAdd(core.TransactionInput{Date: "2025-03-01", Amount: "100", Type: "Debit", Tag: "Food"})
	mustAdd(core.TransactionInput{Date: "2025-03-02", Amount: "50", Type: "Debit", Tag: "Transport"})

	sum, err := svc.GetSummary(ctx, "food", time.March, 2025)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if sum.Expense.Cents != 10000 {
		t.Errorf("filtered Expense = %d, want 10000", sum.Expense.Cents)
	}
	if len(sum.History) != 1 {
		t.Errorf("filtered History length = %d, want 1", len(sum.History))
	}
}

func TestAddTransactionValidationError(t *testing.T) {
	svc, pub := newTestService(t)

	_, err := svc.AddTransaction(context.Background(), core.TransactionInput{
		Date: "2025-03-01", Amount: "-5", Type: "Debit", Tag: "Food",
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("AddTransaction() error = %v, want ErrInvalidAmount", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events after rejected input, want 0", len(pub.events))
	}
}

func TestDeleteTransaction(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddTransaction(ctx, core.TransactionInput{
		Date: "2025-03-01", Amount: "10", Type: "Debit", Tag: "Food",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	last := pub.events[len(pub.events)-1]
	if last.kind != amqp.EventTransactionDeleted {
		t.Errorf("last event kind = %q, want %q", last.kind, amqp.EventTransactionDeleted)
	}
}

func TestPayReminder(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	rid, err := svc.AddReminder(ctx, core.ReminderInput{
		Name: "Rent", Amount: "1500", Day: "1", Frequency: "Monthly", Type: "Debit",
	})
	if err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}

	txID, err := svc.PayReminder(ctx, rid)
	if err != nil {
		t.Fatalf("PayReminder() error = %v", err)
	}
	if txID == "" {
		t.Fatal("PayReminder() returned empty transaction ID")
	}

	sum, err := svc.GetSummary(ctx, "", time.March, 2025)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if len(sum.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(sum.History))
	}
	got := sum.History[0]
	if got.Note != "Paid: Rent (Reminder)" {
		t.Errorf("Note = %q, want %q", got.Note, "Paid: Rent (Reminder)")
	}
	if got.Tag != core.DefaultReminderTag {
		t.Errorf("Tag = %q, want %q", got.Tag, core.DefaultReminderTag)
	}
	if got.Date.String() != "2025-03-10" {
		t.Errorf("Date = %q, want payment day", got.Date)
	}
	if got.Amount.Cents != 150000 {
		t.Errorf("Amount = %d, want 150000", got.Amount.Cents)
	}

	// The reminder must survive the payment.
	reminders, err := svc.Reminders(ctx)
	if err != nil {
		t.Fatalf("Reminders() error = %v", err)
	}
	if len(reminders) != 1 || reminders[0].ID != rid {
		t.Errorf("reminders after pay = %v, want original intact", reminders)
	}

	last := pub.events[len(pub.events)-1]
	if last.kind != amqp.EventReminderPaid || last.id != rid {
		t.Errorf("last event = %+v, want %s for %s", last, amqp.EventReminderPaid, rid)
	}
}

func TestPayReminderNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PayReminder(context.Background(), "RMmissing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("PayReminder() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteReminder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rid, err := svc.AddReminder(ctx, core.ReminderInput{
		Name: "Gym", Amount: "40", Day: "5", Frequency: "Monthly", Type: "Debit", Tag: "Health",
	})
	if err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	if err := svc.DeleteReminder(ctx, rid); err != nil {
		t.Fatalf("DeleteReminder() error = %v", err)
	}
	if err := svc.DeleteReminder(ctx, rid); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSetBudget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SetBudget(ctx, "2500.75"); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	got, err := svc.GetSetting(ctx, store.KeyBudget, "")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "2500.75" {
		t.Errorf("stored budget = %q, want %q", got, "2500.75")
	}

	if err := svc.SetBudget(ctx, "-10"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("SetBudget(-10) error = %v, want ErrInvalidAmount", err)
	}

	sum, err := svc.GetSummary(ctx, "", time.March, 2025)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if sum.Budget.Cents != 250075 {
		t.Errorf("summary Budget = %d, want 250075", sum.Budget.Cents)
	}
}

func TestPINLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.VerifyPIN(ctx, store.DefaultPIN)
	if err != nil {
		t.Fatalf("VerifyPIN() error = %v", err)
	}
	if !ok {
		t.Error("VerifyPIN(default) = false, want true")
	}

	if err := svc.SetPIN(ctx, "9876"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}
	if ok, _ := svc.VerifyPIN(ctx, "1234"); ok {
		t.Error("VerifyPIN(old) = true after rotation, want false")
	}
	if ok, _ := svc.VerifyPIN(ctx, "9876"); !ok {
		t.Error("VerifyPIN(new) = false, want true")
	}

	for _, bad := range []string{"12", "12345", "12a4", ""} {
		if err := svc.SetPIN(ctx, bad); !errors.Is(err, core.ErrInvalidPIN) {
			t.Errorf("SetPIN(%q) error = %v, want ErrInvalidPIN", bad, err)
		}
	}
}

func TestPublishFailureIsNonFatal(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	id, err := svc.AddTransaction(context.Background(), core.TransactionInput{
		Date: "2025-03-01", Amount: "10", Type: "Debit", Tag: "Food",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v, want nil despite publish failure", err)
	}
	if id == "" {
		t.Fatal("AddTransaction() returned empty ID")
	}
}
