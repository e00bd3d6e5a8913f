package core

import (
	"testing"
	"time"
)

func tx(id string, date Date, cents int64, typ TxType, tag string) Transaction {
	return Transaction{ID: id, Date: date, Amount: Money{Cents: cents}, Type: typ, Tag: tag}
}

func TestComputeSummaryTotals(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	ledger := []Transaction{
		tx("TX1", NewDate(2025, time.March, 1), 500000, Credit, "Salary"),
		tx("TX2", NewDate(2025, time.March, 5), 120000, Debit, "Food"),
		tx("TX3", NewDate(2025, time.February, 5), 99900, Debit, "Food"), // out of scope
	}

	s := ComputeSummary(ledger, Money{Cents: 2000000}, time.March, 2025, now)

	if s.Income.Cents != 500000 {
		t.Errorf("income = %d, want 500000", s.Income.Cents)
	}
	if s.Expense.Cents != 120000 {
		t.Errorf("expense = %d, want 120000", s.Expense.Cents)
	}
	if s.Investment.Cents != 0 {
		t.Errorf("investment = %d, want 0", s.Investment.Cents)
	}
	if s.Balance.Cents != 380000 {
		t.Errorf("balance = %d, want 380000", s.Balance.Cents)
	}
	if len(s.TagTotals) != 1 || s.TagTotals[0].Tag != "Food" || s.TagTotals[0].Amount.Cents != 120000 {
		t.Errorf("tag totals = %+v", s.TagTotals)
	}
	if s.Budget.Cents != 2000000 {
		t.Errorf("budget = %d, want 2000000", s.Budget.Cents)
	}
}

func TestComputeSummaryHistoryReverseOrder(t *testing.T) {
	now := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	ledger := []Transaction{
		tx("TX1", NewDate(2025, time.March, 1), 100, Credit, "a"),
		tx("TX2", NewDate(2025, time.March, 2), 100, Debit, "b"),
		tx("TX3", NewDate(2025, time.March, 3), 100, Debit, "c"),
	}
	s := ComputeSummary(ledger, Money{}, time.March, 2025, now)

	want := []string{"TX3", "TX2", "TX1"}
	if len(s.History) != len(want) {
		t.Fatalf("history length = %d, want %d", len(s.History), len(want))
	}
	for i, id := range want {
		if s.History[i].ID != id {
			t.Errorf("history[%d] = %s, want %s", i, s.History[i].ID, id)
		}
	}
}

func TestComputeSummaryInvestmentReducesBalance(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	ledger := []Transaction{
		tx("TX1", NewDate(2025, time.June, 1), 100000, Credit, "Salary"),
		tx("TX2", NewDate(2025, time.June, 1), 30000, Investment, "Stocks"),
	}
	s := ComputeSummary(ledger, Money{}, time.June, 2025, now)

	if s.Investment.Cents != 30000 {
		t.Errorf("investment = %d, want 30000", s.Investment.Cents)
	}
	if s.Balance.Cents != 70000 {
		t.Errorf("balance = %d, want 70000", s.Balance.Cents)
	}
	// Investments never enter the expense tag buckets.
	if len(s.TagTotals) != 0 {
		t.Errorf("tag totals = %+v, want empty", s.TagTotals)
	}
}

func TestComputeSummaryUnknownTypeKeptInHistoryOnly(t *testing.T) {
	now := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	ledger := []Transaction{
		tx("TX1", NewDate(2025, time.May, 1), 100, Credit, "a"),
		// Legacy row with a type outside the closed set.
		tx("TX2", NewDate(2025, time.May, 2), 9999, TxType("Transfer"), "a"),
	}
	s := ComputeSummary(ledger, Money{}, time.May, 2025, now)

	if s.Balance.Cents != 100 || s.Income.Cents != 100 {
		t.Errorf("totals include unknown type: balance=%d income=%d", s.Balance.Cents, s.Income.Cents)
	}
	if len(s.History) != 2 {
		t.Errorf("history length = %d, want 2", len(s.History))
	}
}

func TestComputeSummaryDaysLeft(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		month time.Month
		year  int
		want  int
	}{
		{"current month day 10 of 31", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), time.March, 2025, 21},
		{"last day of month", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), time.March, 2025, 0},
		{"other month", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), time.February, 2025, 0},
		{"same month other year", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), time.March, 2024, 0},
		{"leap february", time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), time.February, 2024, 19},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ComputeSummary(nil, Money{}, tc.month, tc.year, tc.now)
			if s.DaysLeft != tc.want {
				t.Fatalf("daysLeft = %d, want %d", s.DaysLeft, tc.want)
			}
		})
	}
}

func TestComputeSummaryIsPure(t *testing.T) {
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	ledger := []Transaction{
		tx("TX1", NewDate(2025, time.March, 1), 500, Credit, "a"),
		tx("TX2", NewDate(2025, time.March, 2), 300, Debit, "b"),
	}
	a := ComputeSummary(ledger, Money{Cents: 1}, time.March, 2025, now)
	b := ComputeSummary(ledger, Money{Cents: 1}, time.March, 2025, now)

	if a.Balance != b.Balance || a.Income != b.Income || a.Expense != b.Expense ||
		a.DaysLeft != b.DaysLeft || len(a.History) != len(b.History) {
		t.Fatalf("repeated computation differs: %+v vs %+v", a, b)
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestFilterTransactions(t *testing.T) {
	ledger := []Transaction{
		{ID: "TX1", Tag: "Food", Note: "lunch at cafe"},
		{ID: "TX2", Tag: "Rent", Note: ""},
		{ID: "TX3", Tag: "Subscriptions", Note: "Paid: Netflix (Reminder)"},
	}

	if got := FilterTransactions(ledger, ""); len(got) != 3 {
		t.Errorf("empty search: %d matches, want 3", len(got))
	}
	if got := FilterTransactions(ledger, "netflix"); len(got) != 1 || got[0].ID != "TX3" {
		t.Errorf("note search failed: %+v", got)
	}
	if got := FilterTransactions(ledger, "FOOD"); len(got) != 1 || got[0].ID != "TX1" {
		t.Errorf("tag search failed: %+v", got)
	}
	if got := FilterTransactions(ledger, "absent"); len(got) != 0 {
		t.Errorf("no-match search: %+v", got)
	}
}
