package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Credit     TxType = "Credit"
	Debit      TxType = "Debit"
	Investment TxType = "Investment"
)

// DefaultReminderTag is applied when a reminder candidate carries no tag.
const DefaultReminderTag = "Bills"

// DateFormat is the canonical wire format for transaction dates.
const DateFormat = "2006-01-02"

type (
	// TxType is the closed set of cash-flow directions a transaction can have.
	TxType string

	// Date is a calendar date with no time-of-day semantics.
	Date struct {
		time.Time
	}

	// Transaction is a single ledger entry. Once stored it is immutable;
	// the only lifecycle operation after append is deletion by ID.
	Transaction struct {
		ID        string
		Date      Date
		Amount    Money
		Type      TxType
		Tag       string
		Note      string
		CreatedAt time.Time
	}

	// Reminder is a template for a recurring payment. It is never mutated:
	// paying it appends a transaction and leaves the reminder in place.
	Reminder struct {
		ID        string
		Name      string
		Amount    Money
		Day       int
		Frequency string
		Tag       string
		Type      TxType
	}

	// TransactionInput is an unvalidated transaction candidate as submitted
	// by a caller. All fields are raw strings and may be missing or malformed.
	TransactionInput struct {
		Date   string
		Amount string
		Type   string
		Tag    string
		Note   string
	}

	// ReminderInput is an unvalidated reminder candidate.
	ReminderInput struct {
		Name      string
		Amount    string
		Day       string
		Frequency string
		Tag       string
		Type      string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrMissingDate      = errors.New("missing or invalid date")
	ErrMissingTag       = errors.New("missing tag")
	ErrMissingName      = errors.New("missing name")
	ErrInvalidDay       = errors.New("invalid day")
	ErrMissingFrequency = errors.New("missing frequency")
	ErrNotFound         = errors.New("record not found")
	ErrStoreMissing     = errors.New("store table missing: run khata-setup to create and seed the tables")
	ErrPaymentFailed    = errors.New("reminder payment failed")
	ErrInvalidPIN       = errors.New("invalid pin")
)

// ParseTxType parses a transaction type, rejecting anything outside the
// closed Credit/Debit/Investment set.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.TrimSpace(s)) {
	case Credit:
		return Credit, nil
	case Debit:
		return Debit, nil
	case Investment:
		return Investment, nil
	default:
		return "", ErrInvalidType
	}
}

// ParseReminderType parses a reminder type. A reminder can never represent
// income, so Credit is rejected.
func ParseReminderType(s string) (TxType, error) {
	t, err := ParseTxType(s)
	if err != nil {
		return "", err
	}
	if t == Credit {
		return "", ErrInvalidType
	}
	return t, nil
}

// NewDate creates a Date at midnight UTC for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrMissingDate
	}
	return Date{Time: t}, nil
}

// String formats the date in the canonical wire format.
func (d Date) String() string {
	return d.Format(DateFormat)
}

// ValidateTransaction checks a transaction candidate and returns the
// normalized record ready for storage: amount coerced to cents, tag and note
// trimmed, date parsed. It has no side effects; ID and CreatedAt are assigned
// later by the store.
func ValidateTransaction(in TransactionInput) (Transaction, error) {
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Transaction{}, err
	}

	typ, err := ParseTxType(in.Type)
	if err != nil {
		return Transaction{}, err
	}

	if strings.TrimSpace(in.Date) == "" {
		return Transaction{}, ErrMissingDate
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Transaction{}, err
	}

	tag := strings.TrimSpace(in.Tag)
	if tag == "" {
		return Transaction{}, ErrMissingTag
	}

	return Transaction{
		Date:   date,
		Amount: Money{Cents: cents},
		Type:   typ,
		Tag:    tag,
		Note:   strings.TrimSpace(in.Note),
	}, nil
}

// ValidateReminder checks a reminder candidate and returns the normalized
// record. A missing tag is not an error: it defaults to DefaultReminderTag.
func ValidateReminder(in ReminderInput) (Reminder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Reminder{}, ErrMissingName
	}

	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Reminder{}, err
	}

	day, err := strconv.Atoi(strings.TrimSpace(in.Day))
	if err != nil || day < 1 || day > 31 {
		return Reminder{}, ErrInvalidDay
	}

	freq := strings.TrimSpace(in.Frequency)
	if freq == "" {
		return Reminder{}, ErrMissingFrequency
	}

	typ, err := ParseReminderType(in.Type)
	if err != nil {
		return Reminder{}, err
	}

	tag := strings.TrimSpace(in.Tag)
	if tag == "" {
		tag = DefaultReminderTag
	}

	return Reminder{
		Name:      name,
		Amount:    Money{Cents: cents},
		Day:       day,
		Frequency: freq,
		Tag:       tag,
		Type:      typ,
	}, nil
}

// ValidatePIN checks that s is exactly four ASCII digits.
func ValidatePIN(s string) error {
	if len(s) != 4 {
		return ErrInvalidPIN
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}
