package store

import (
	"fmt"
	"strconv"
	"strings"

	"khata/internal/core"
)

// Table names and pinned column orders. Column order is a compatibility
// contract: tabular backends validate the header row against these at open
// time instead of inferring positions.
const (
	TransactionsTable = "Transactions"
	RemindersTable    = "Reminders"
	SettingsTable     = "Settings"
)

var (
	TransactionsHeader = []string{"ID", "Date", "Amount", "Note", "Tag", "Type"}
	RemindersHeader    = []string{"ID", "Name", "Amount", "Day", "Frequency", "Tag", "Type"}
	SettingsHeader     = []string{"Key", "Value"}
)

// Reserved settings keys and their seed values.
const (
	KeyBudget     = "Budget"
	KeyPIN        = "PIN"
	DefaultBudget = "20000"
	DefaultPIN    = "1234"
)

// ValidateHeader checks a table's first row against the pinned schema.
func ValidateHeader(table string, got, want []string) error {
	if len(got) < len(want) {
		return fmt.Errorf("%w: table %s has %d header columns, want %d",
			core.ErrStoreMissing, table, len(got), len(want))
	}
	for i, col := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), col) {
			return fmt.Errorf("%w: table %s column %d is %q, want %q",
				core.ErrStoreMissing, table, i, got[i], col)
		}
	}
	return nil
}

// EncodeTransaction renders a transaction as a row in pinned column order.
// CreatedAt is not part of the tabular layout.
func EncodeTransaction(tx core.Transaction) []string {
	return []string{tx.ID, tx.Date.String(), tx.Amount.Decimal(), tx.Note, tx.Tag, string(tx.Type)}
}

// DecodeTransaction parses a stored row. Decoding is deliberately lenient:
// rows written by older clients may carry a type outside the closed set, and
// they must still surface in listings (the aggregation engine skips them for
// totals). A row without an ID is treated as blank and skipped by callers.
func DecodeTransaction(row []string) (core.Transaction, bool) {
	if len(row) < len(TransactionsHeader) || strings.TrimSpace(row[0]) == "" {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(row[1])
	if err != nil {
		return core.Transaction{}, false
	}
	cents, err := core.ParseDecimalToCents(row[2])
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:     strings.TrimSpace(row[0]),
		Date:   date,
		Amount: core.Money{Cents: cents},
		Note:   strings.TrimSpace(row[3]),
		Tag:    strings.TrimSpace(row[4]),
		Type:   core.TxType(strings.TrimSpace(row[5])),
	}, true
}

// EncodeReminder renders a reminder as a row in pinned column order.
func EncodeReminder(r core.Reminder) []string {
	return []string{r.ID, r.Name, r.Amount.Decimal(), strconv.Itoa(r.Day), r.Frequency, r.Tag, string(r.Type)}
}

// DecodeReminder parses a stored reminder row.
func DecodeReminder(row []string) (core.Reminder, bool) {
	if len(row) < len(RemindersHeader) || strings.TrimSpace(row[0]) == "" {
		return core.Reminder{}, false
	}
	cents, err := core.ParseDecimalToCents(row[2])
	if err != nil {
		return core.Reminder{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return core.Reminder{}, false
	}
	return core.Reminder{
		ID:        strings.TrimSpace(row[0]),
		Name:      strings.TrimSpace(row[1]),
		Amount:    core.Money{Cents: cents},
		Day:       day,
		Frequency: strings.TrimSpace(row[4]),
		Tag:       strings.TrimSpace(row[5]),
		Type:      core.TxType(strings.TrimSpace(row[6])),
	}, true
}
