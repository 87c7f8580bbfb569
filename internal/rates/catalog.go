package rates

import (
	"context"
	"log/slog"
	"sort"

	applog "expenselite/internal/log"
)

// DefaultCurrencies is the hardcoded fallback offered when the rate
// service is unreachable. Injected into the catalog rather than read as a
// hidden global so tests can swap it.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "AED", "SAR", "EGP"}

// Catalog lists the currencies available for new transactions.
type Catalog struct {
	source   Source
	fallback []string
}

func NewCatalog(source Source, fallback []string) *Catalog {
	if len(fallback) == 0 {
		fallback = DefaultCurrencies
	}
	return &Catalog{source: source, fallback: fallback}
}

// Currencies returns the snapshot's currency codes sorted with USD pinned
// first. A fetch failure falls back to the default set instead of blocking
// the caller; an empty snapshot does the same.
func (c *Catalog) Currencies(ctx context.Context) []string {
	snapshot, err := c.source.FetchRates(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Currency list falling back to defaults",
			applog.FieldComponent, applog.ComponentRates,
			applog.FieldError, err)
		return append([]string(nil), c.fallback...)
	}
	if len(snapshot) == 0 {
		return append([]string(nil), c.fallback...)
	}

	codes := make([]string, 0, len(snapshot))
	for code := range snapshot {
		if code != "USD" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return append([]string{"USD"}, codes...)
}
