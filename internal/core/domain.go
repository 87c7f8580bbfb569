package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FilterAll       Filter = "ALL"
	FilterThisMonth Filter = "THIS_MONTH"
	FilterLast7Days Filter = "LAST_7_DAYS"
)

type (
	// Filter selects a predefined date range for dashboard queries.
	Filter string

	// TimeRange bounds a query on the transaction date. Start is inclusive,
	// End is exclusive, a nil side is unbounded.
	TimeRange struct {
		Start *time.Time
		End   *time.Time
	}

	// Transaction is the sole persistent entity. AmountUSD is computed once
	// at insert time and never recomputed, so reports stay stable when rates
	// move later. ReceiptURI is opaque; empty means no receipt.
	Transaction struct {
		ID             int64
		Category       string
		AmountOriginal Money
		CurrencyCode   string
		AmountUSD      Money
		IsIncome       bool
		Date           time.Time
		ReceiptURI     string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidDate     = errors.New("invalid date")

	// ErrStorage marks local persistence failures.
	ErrStorage = errors.New("storage failure")
	// ErrNetwork marks rate fetch transport or decode failures.
	ErrNetwork = errors.New("rate service unavailable")
)

// RateNotFoundError reports a currency code absent from a rate snapshot.
type RateNotFoundError struct {
	Code string
}

func (e RateNotFoundError) Error() string {
	return fmt.Sprintf("rate not found for %s", e.Code)
}

func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToUpper(strings.TrimSpace(s))) {
	case FilterAll:
		return FilterAll, nil
	case FilterThisMonth:
		return FilterThisMonth, nil
	case FilterLast7Days:
		return FilterLast7Days, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// RangeAt maps the filter to its date range relative to now.
// THIS_MONTH starts at local midnight on the first of the current month,
// LAST_7_DAYS starts exactly 7*24h before now. Both are open-ended.
func (f Filter) RangeAt(now time.Time) TimeRange {
	switch f {
	case FilterThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return TimeRange{Start: &start}
	case FilterLast7Days:
		start := now.Add(-7 * 24 * time.Hour)
		return TimeRange{Start: &start}
	default:
		return TimeRange{}
	}
}

// Contains reports whether t falls inside the range (start inclusive,
// end exclusive).
func (r TimeRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && !t.Before(*r.End) {
		return false
	}
	return true
}

func (tx Transaction) Validate() error {
	if err := tx.AmountOriginal.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.CurrencyCode) != 3 {
		return ErrInvalidCurrency
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// TypeLabel names the transaction side for reports.
func (tx Transaction) TypeLabel() string {
	if tx.IsIncome {
		return "Income"
	}
	return "Expense"
}
