package rates

import (
	"context"
	"fmt"
	"strings"

	"expenselite/internal/core"

	"github.com/shopspring/decimal"
)

// Source yields a fresh rate snapshot.
type Source interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Converter normalizes amounts to USD at insert time.
type Converter struct {
	source Source
}

func NewConverter(source Source) *Converter {
	return &Converter{source: source}
}

// ToUSD converts amount from the given currency using the supplied
// snapshot, fetching one when snapshot is nil. USD passes through without a
// lookup. A code absent from the snapshot fails with
// core.RateNotFoundError; since rates are units-per-USD, the conversion is
// a division.
func (c *Converter) ToUSD(ctx context.Context, amount core.Money, currencyCode string, snapshot map[string]decimal.Decimal) (core.Money, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "USD" {
		return amount, nil
	}

	rates := snapshot
	if rates == nil {
		var err error
		rates, err = c.source.FetchRates(ctx)
		if err != nil {
			return core.Money{}, fmt.Errorf("fetch snapshot: %w", err)
		}
	}

	rate, ok := rates[code]
	if !ok || !rate.IsPositive() {
		return core.Money{}, core.RateNotFoundError{Code: code}
	}

	usd, err := amount.ConvertToUSD(rate)
	if err != nil {
		return core.Money{}, fmt.Errorf("convert %s: %w", code, err)
	}
	return usd, nil
}
