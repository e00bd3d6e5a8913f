package core

import (
	"strings"
	"time"
)

type (
	// TagTotal is the summed Debit amount for one expense tag.
	TagTotal struct {
		Tag    string
		Amount Money
	}

	// Summary is the derived view of the ledger for one calendar month.
	// It has no identity and is never persisted: every request recomputes
	// it from the ledger and settings.
	Summary struct {
		Month time.Month
		Year  int

		Balance    Money
		Income     Money
		Expense    Money
		Investment Money

		// TagTotals holds per-tag Debit totals in first-seen order.
		TagTotals []TagTotal

		// History holds the in-scope transactions, most recently appended
		// first. Each matched record is prepended during the scan, so the
		// stored append order comes out reversed. Ordering is part of the
		// contract, not an accident of iteration.
		History []Transaction

		Budget   Money
		DaysLeft int
	}
)

// ComputeSummary derives the monthly summary for (month, year) from the full
// ledger. It is a pure function of its inputs: same ledger, budget, target
// and clock always produce the same summary.
//
// A transaction is in scope iff its date's calendar month and year equal the
// target. Credits add to income and balance; Debits add to expense, subtract
// from balance and fill the tag buckets; Investments add to the investment
// total and subtract from balance. Rows whose stored type is outside the
// known set are kept in history but skipped for all totals, so malformed
// legacy rows never corrupt balances.
func ComputeSummary(txs []Transaction, budget Money, month time.Month, year int, now time.Time) Summary {
	s := Summary{Month: month, Year: year, Budget: budget}

	tagIndex := map[string]int{}
	for _, tx := range txs {
		if tx.Date.Month() != month || tx.Date.Year() != year {
			continue
		}
		s.History = append([]Transaction{tx}, s.History...)

		switch tx.Type {
		case Credit:
			s.Income.Cents += tx.Amount.Cents
			s.Balance.Cents += tx.Amount.Cents
		case Debit:
			s.Expense.Cents += tx.Amount.Cents
			s.Balance.Cents -= tx.Amount.Cents
			i, ok := tagIndex[tx.Tag]
			if !ok {
				i = len(s.TagTotals)
				tagIndex[tx.Tag] = i
				s.TagTotals = append(s.TagTotals, TagTotal{Tag: tx.Tag})
			}
			s.TagTotals[i].Amount.Cents += tx.Amount.Cents
		case Investment:
			s.Investment.Cents += tx.Amount.Cents
			s.Balance.Cents -= tx.Amount.Cents
		}
	}

	if month == now.Month() && year == now.Year() {
		if left := DaysInMonth(year, month) - now.Day(); left > 0 {
			s.DaysLeft = left
		}
	}

	return s
}

// DaysInMonth returns the day count of the given month, respecting variable
// month lengths and leap years. Day zero of the next month is the last day
// of this one.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FilterTransactions returns the transactions whose tag or note contains the
// search string, case-insensitively. An empty search matches everything.
func FilterTransactions(txs []Transaction, search string) []Transaction {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return txs
	}
	var out []Transaction
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.Tag), search) ||
			strings.Contains(strings.ToLower(tx.Note), search) {
			out = append(out, tx)
		}
	}
	return out
}
