// Package http exposes the tracker over a JSON API. The handlers do no
// business logic of their own: they parse, call into the dashboard,
// converter and store, and render the outcome.
package http

import (
	"context"
	"net/http"
	"time"

	"expenselite/internal/core"
	"expenselite/internal/dashboard"
	"expenselite/internal/middleware/ratelimit"
	"expenselite/internal/middleware/trace"

	"github.com/shopspring/decimal"
)

// Dashboard is the aggregator surface the handlers drive.
type Dashboard interface {
	State() dashboard.ViewState
	Refresh(ctx context.Context) error
	SetFilter(ctx context.Context, f core.Filter) error
	LoadMore(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
	ExportCSV(ctx context.Context) (string, error)
	ExportPDF(ctx context.Context) ([]byte, error)
}

// TransactionInserter is the write side of the store.
type TransactionInserter interface {
	Insert(ctx context.Context, tx core.Transaction) (int64, error)
}

// Converter normalizes amounts to USD.
type Converter interface {
	ToUSD(ctx context.Context, amount core.Money, currencyCode string, snapshot map[string]decimal.Decimal) (core.Money, error)
}

// CurrencyLister yields the selectable currency codes.
type CurrencyLister interface {
	Currencies(ctx context.Context) []string
}

type Server struct {
	http.Server

	dash       Dashboard
	store      TransactionInserter
	converter  Converter
	currencies CurrencyLister

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	started time.Time
}

func NewServer(addr string, dash Dashboard, store TransactionInserter, converter Converter, currencies CurrencyLister, requestsPerMinute int) *Server {
	s := &Server{
		dash:       dash,
		store:      store,
		converter:  converter,
		currencies: currencies,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: requestsPerMinute}),
		tracer:     trace.NewMiddleware(clientIP),
		started:    time.Now(),
	}

	s.Addr = addr
	s.Handler = s.limiter.Middleware(clientIP)(s.tracer.Middleware(s.routes()))
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/dashboard/filter", s.handleSetFilter)
	mux.HandleFunc("POST /api/dashboard/more", s.handleLoadMore)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export/pdf", s.handleExportPDF)

	return mux
}

// Close stops the limiter's cleanup goroutine alongside the listener.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

// Shutdown drains in-flight requests and stops the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
