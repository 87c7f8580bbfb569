// Package dashboard keeps the consolidated view of the transaction store:
// the current page of transactions plus income/expense totals under one
// date-range filter.
//
// All state transitions are whole-state replacements guarded by a mutex,
// and every reload carries a generation number. A reload only commits its
// result if no newer reload started in the meantime, so the most recently
// triggered reload always wins and a stale in-flight result can never
// clobber fresher data.
package dashboard

import (
	"context"
	"sync"
	"time"

	"expenselite/internal/core"
	"expenselite/internal/export"

	"golang.org/x/sync/errgroup"
)

// PageSize is the fixed number of rows per dashboard page.
const PageSize = 10

// Store is the slice of the transaction store the dashboard needs.
type Store interface {
	ListPaged(ctx context.Context, rng core.TimeRange, limit, offset int) ([]core.Transaction, error)
	SumIncomeUSD(ctx context.Context, rng core.TimeRange) (core.Money, error)
	SumExpenseUSD(ctx context.Context, rng core.TimeRange) (core.Money, error)
	Delete(ctx context.Context, id int64) error
}

// ViewState is the consolidated dashboard snapshot handed to callers.
type ViewState struct {
	Filter          core.Filter
	Page            int
	Transactions    []core.Transaction
	TotalIncomeUSD  core.Money
	TotalExpenseUSD core.Money
	CanLoadMore     bool
	IsLoading       bool
	ErrorMessage    string
}

type Aggregator struct {
	store    Store
	now      func() time.Time
	pageSize int

	mu    sync.Mutex
	gen   uint64
	state ViewState
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		store:    store,
		now:      time.Now,
		pageSize: PageSize,
		state:    ViewState{Filter: core.FilterAll},
	}
}

// State returns a snapshot copy of the current view.
func (a *Aggregator) State() ViewState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.state
	st.Transactions = append([]core.Transaction(nil), a.state.Transactions...)
	return st
}

// Refresh reloads page 0 under the current filter, replacing the list.
func (a *Aggregator) Refresh(ctx context.Context) error {
	return a.reload(ctx, 0, true)
}

// SetFilter switches the date-range filter, resets the page cursor to 0
// and reloads unconditionally, whatever page was showing before.
func (a *Aggregator) SetFilter(ctx context.Context, f core.Filter) error {
	a.mu.Lock()
	a.state.Filter = f
	a.mu.Unlock()
	return a.reload(ctx, 0, true)
}

// LoadMore advances the page cursor and appends the next page. It is a
// no-op once a page has come back short: fewer than pageSize rows means
// end-of-data.
func (a *Aggregator) LoadMore(ctx context.Context) error {
	a.mu.Lock()
	if !a.state.CanLoadMore {
		a.mu.Unlock()
		return nil
	}
	next := a.state.Page + 1
	a.mu.Unlock()
	return a.reload(ctx, next, false)
}

// Delete removes the transaction and reloads from page 0, re-deriving the
// totals from the store so they cannot drift from its contents.
func (a *Aggregator) Delete(ctx context.Context, id int64) error {
	if err := a.store.Delete(ctx, id); err != nil {
		a.mu.Lock()
		a.state.ErrorMessage = err.Error()
		a.mu.Unlock()
		return err
	}
	return a.reload(ctx, 0, true)
}

// ExportCSV drains every page under the current filter and renders the
// full list as CSV. Unbounded in the number of matching rows.
func (a *Aggregator) ExportCSV(ctx context.Context) (string, error) {
	txs, err := a.drainAll(ctx)
	if err != nil {
		return "", err
	}
	return export.CSV(txs)
}

// ExportPDF drains every page under the current filter and renders the
// full list as a PDF document.
func (a *Aggregator) ExportPDF(ctx context.Context) ([]byte, error) {
	txs, err := a.drainAll(ctx)
	if err != nil {
		return nil, err
	}
	return export.PDF(txs)
}

func (a *Aggregator) reload(ctx context.Context, page int, replace bool) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.state.IsLoading = true
	a.state.ErrorMessage = ""
	rng := a.state.Filter.RangeAt(a.now())
	limit := a.pageSize
	offset := page * a.pageSize
	a.mu.Unlock()

	var (
		txs             []core.Transaction
		income, expense core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = a.store.ListPaged(gctx, rng, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = a.store.SumIncomeUSD(gctx, rng)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = a.store.SumExpenseUSD(gctx, rng)
		return err
	})

	if err := g.Wait(); err != nil {
		a.mu.Lock()
		if gen == a.gen {
			// Prior list and totals stay untouched on failure.
			a.state.IsLoading = false
			a.state.ErrorMessage = err.Error()
		}
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// Superseded by a newer reload; drop this result.
		return nil
	}
	a.state.IsLoading = false
	a.state.Page = page
	if replace {
		a.state.Transactions = txs
	} else {
		a.state.Transactions = append(a.state.Transactions, txs...)
	}
	a.state.TotalIncomeUSD = income
	a.state.TotalExpenseUSD = expense
	a.state.CanLoadMore = len(txs) == limit
	return nil
}

func (a *Aggregator) drainAll(ctx context.Context) ([]core.Transaction, error) {
	a.mu.Lock()
	rng := a.state.Filter.RangeAt(a.now())
	limit := a.pageSize
	a.mu.Unlock()

	var all []core.Transaction
	for offset := 0; ; offset += limit {
		page, err := a.store.ListPaged(ctx, rng, limit, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < limit {
			return all, nil
		}
	}
}
