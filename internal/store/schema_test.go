package store

import (
	"errors"
	"testing"
	"time"

	"khata/internal/core"
)

func TestValidateHeader(t *testing.T) {
	if err := ValidateHeader(TransactionsTable, TransactionsHeader, TransactionsHeader); err != nil {
		t.Fatalf("exact header rejected: %v", err)
	}
	// Case and surrounding whitespace are tolerated.
	if err := ValidateHeader(SettingsTable, []string{" key ", "VALUE"}, SettingsHeader); err != nil {
		t.Fatalf("case-insensitive header rejected: %v", err)
	}

	// The legacy column order variant must be rejected, not inferred.
	legacy := []string{"ID", "Date", "Amount", "Type", "Tag", "Note"}
	err := ValidateHeader(TransactionsTable, legacy, TransactionsHeader)
	if !errors.Is(err, core.ErrStoreMissing) {
		t.Fatalf("legacy order: got %v, want ErrStoreMissing", err)
	}

	if err := ValidateHeader(SettingsTable, []string{"Key"}, SettingsHeader); !errors.Is(err, core.ErrStoreMissing) {
		t.Fatalf("short header: got %v, want ErrStoreMissing", err)
	}
}

func TestTransactionRowCodec(t *testing.T) {
	tx := core.Transaction{
		ID:     "TXabc",
		Date:   core.NewDate(2025, time.March, 5),
		Amount: core.Money{Cents: 120050},
		Type:   core.Debit,
		Tag:    "Food",
		Note:   "lunch",
	}
	row := EncodeTransaction(tx)
	want := []string{"TXabc", "2025-03-05", "1200.50", "lunch", "Food", "Debit"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}

	got, ok := DecodeTransaction(row)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.ID != tx.ID || got.Amount != tx.Amount || got.Tag != tx.Tag ||
		got.Note != tx.Note || got.Type != tx.Type || got.Date.String() != tx.Date.String() {
		t.Errorf("decode mismatch: %+v", got)
	}
}

func TestDecodeTransactionSkipsBlankAndBrokenRows(t *testing.T) {
	cases := [][]string{
		{"", "2025-01-01", "5", "", "t", "Debit"}, // no ID
		{"TX1", "bad-date", "5", "", "t", "Debit"},
		{"TX1", "2025-01-01", "zero", "", "t", "Debit"},
		{"TX1", "2025-01-01"}, // short row
	}
	for i, row := range cases {
		if _, ok := DecodeTransaction(row); ok {
			t.Errorf("case %d: expected skip for %v", i, row)
		}
	}
}

func TestReminderRowCodec(t *testing.T) {
	r := core.Reminder{
		ID: "RMxyz", Name: "Rent", Amount: core.Money{Cents: 1500000},
		Day: 1, Frequency: "monthly", Tag: "Bills", Type: core.Debit,
	}
	row := EncodeReminder(r)
	got, ok := DecodeReminder(row)
	if !ok {
		t.Fatal("decode failed")
	}
	if got != r {
		t.Errorf("round trip mismatch: %+v != %+v", got, r)
	}
}

func TestIDPrefixes(t *testing.T) {
	a, b := NewTransactionID(), NewTransactionID()
	if a == b {
		t.Error("transaction IDs collided")
	}
	if a[:2] != "TX" || NewReminderID()[:2] != "RM" {
		t.Error("wrong ID prefix")
	}
}
