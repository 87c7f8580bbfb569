package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expenselite/internal/core"
	"expenselite/internal/dashboard"

	"github.com/shopspring/decimal"
)

type fakeDash struct {
	state      dashboard.ViewState
	refreshed  int
	deleted    []int64
	filterSet  []core.Filter
	loadMores  int
	csv        string
	pdf        []byte
	deleteErr  error
	refreshErr error
}

func (f *fakeDash) State() dashboard.ViewState { return f.state }
func (f *fakeDash) Refresh(context.Context) error {
	f.refreshed++
	return f.refreshErr
}
func (f *fakeDash) SetFilter(_ context.Context, filter core.Filter) error {
	f.filterSet = append(f.filterSet, filter)
	return nil
}
func (f *fakeDash) LoadMore(context.Context) error {
	f.loadMores++
	return nil
}
func (f *fakeDash) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeDash) ExportCSV(context.Context) (string, error) { return f.csv, nil }
func (f *fakeDash) ExportPDF(context.Context) ([]byte, error) { return f.pdf, nil }

type fakeInserter struct {
	inserted []core.Transaction
	err      error
}

func (f *fakeInserter) Insert(_ context.Context, tx core.Transaction) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, tx)
	return int64(len(f.inserted)), nil
}

type fakeConverter struct {
	rates map[string]decimal.Decimal
	calls int
}

func (f *fakeConverter) ToUSD(_ context.Context, amount core.Money, code string, _ map[string]decimal.Decimal) (core.Money, error) {
	f.calls++
	code = strings.ToUpper(code)
	if code == "USD" {
		return amount, nil
	}
	rate, ok := f.rates[code]
	if !ok {
		return core.Money{}, core.RateNotFoundError{Code: code}
	}
	return amount.ConvertToUSD(rate)
}

type fakeCurrencies struct{ list []string }

func (f *fakeCurrencies) Currencies(context.Context) []string { return f.list }

func newTestServer(t *testing.T, dash *fakeDash, store *fakeInserter) *httptest.Server {
	t.Helper()
	conv := &fakeConverter{rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.5")}}
	cur := &fakeCurrencies{list: []string{"USD", "EUR"}}
	s := NewServer(":0", dash, store, conv, cur, 10000)
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(func() {
		srv.Close()
		s.limiter.Stop()
	})
	return srv
}

func TestCreateTransaction(t *testing.T) {
	dash := &fakeDash{}
	store := &fakeInserter{}
	srv := newTestServer(t, dash, store)

	body := `{"category":"Lunch","amount":"12.50","currencyCode":"eur","isIncome":false,"dateEpochMillis":1750000000000}`
	resp, err := http.Post(srv.URL+"/api/transactions", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	tx := store.inserted[0]
	if tx.CurrencyCode != "EUR" {
		t.Fatalf("currency must be stored uppercase, got %q", tx.CurrencyCode)
	}
	if tx.AmountOriginal.Cents != 1250 || tx.AmountUSD.Cents != 2500 {
		t.Fatalf("unexpected amounts: %+v", tx)
	}
	if dash.refreshed != 1 {
		t.Fatalf("insert must trigger a dashboard reload")
	}

	var created map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created["id"] != 1 {
		t.Fatalf("expected id 1, got %d", created["id"])
	}
}

func TestCreateTransactionInvalidAmount(t *testing.T) {
	dash := &fakeDash{}
	store := &fakeInserter{}
	srv := newTestServer(t, dash, store)

	for _, amount := range []string{"0", "-5", "abc", ""} {
		body := `{"category":"X","amount":"` + amount + `","currencyCode":"USD"}`
		resp, err := http.Post(srv.URL+"/api/transactions", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("amount %q: expected 400, got %d", amount, resp.StatusCode)
		}
	}
	if len(store.inserted) != 0 {
		t.Fatalf("invalid amounts must not reach the store")
	}
}

func TestCreateTransactionUnknownCurrency(t *testing.T) {
	dash := &fakeDash{}
	store := &fakeInserter{}
	srv := newTestServer(t, dash, store)

	body := `{"category":"X","amount":"10","currencyCode":"XXX"}`
	resp, err := http.Post(srv.URL+"/api/transactions", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("missing rate must abort the insert")
	}
}

func TestCreateTransactionValidatesBeforeConversion(t *testing.T) {
	dash := &fakeDash{}
	store := &fakeInserter{}
	conv := &fakeConverter{rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.5")}}
	s := NewServer(":0", dash, store, conv, &fakeCurrencies{list: []string{"USD"}}, 10000)
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(func() {
		srv.Close()
		s.limiter.Stop()
	})

	body := `{"category":"X","amount":"10","currencyCode":"EURO"}`
	resp, err := http.Post(srv.URL+"/api/transactions", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed currency code, got %d", resp.StatusCode)
	}
	if conv.calls != 0 {
		t.Fatalf("field validation must run before the converter, got %d calls", conv.calls)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("invalid request must not reach the store")
	}
}

func TestDeleteTransaction(t *testing.T) {
	dash := &fakeDash{}
	srv := newTestServer(t, dash, &fakeInserter{})

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/transactions/42", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if len(dash.deleted) != 1 || dash.deleted[0] != 42 {
		t.Fatalf("expected delete of id 42, got %v", dash.deleted)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/transactions/nope", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad id, got %d", resp.StatusCode)
	}
}

func TestSetFilter(t *testing.T) {
	dash := &fakeDash{state: dashboard.ViewState{Filter: core.FilterThisMonth}}
	srv := newTestServer(t, dash, &fakeInserter{})

	resp, err := http.Post(srv.URL+"/api/dashboard/filter", "application/json",
		bytes.NewBufferString(`{"filter":"THIS_MONTH"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(dash.filterSet) != 1 || dash.filterSet[0] != core.FilterThisMonth {
		t.Fatalf("expected filter set to THIS_MONTH, got %v", dash.filterSet)
	}

	resp, err = http.Post(srv.URL+"/api/dashboard/filter", "application/json",
		bytes.NewBufferString(`{"filter":"NEXT_YEAR"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", resp.StatusCode)
	}
}

func TestDashboardResponseShape(t *testing.T) {
	dash := &fakeDash{state: dashboard.ViewState{
		Filter: core.FilterAll,
		Transactions: []core.Transaction{{
			ID:             7,
			Category:       "Rent",
			AmountOriginal: core.Money{Cents: 100000},
			CurrencyCode:   "USD",
			AmountUSD:      core.Money{Cents: 100000},
			Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
		TotalIncomeUSD:  core.Money{Cents: 250000},
		TotalExpenseUSD: core.Money{Cents: 100000},
	}}
	srv := newTestServer(t, dash, &fakeInserter{})

	resp, err := http.Get(srv.URL + "/api/dashboard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body dashboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalIncomeUsd != "2500.00" || body.TotalExpenseUsd != "1000.00" || body.Balance != "1500.00" {
		t.Fatalf("unexpected totals: %+v", body)
	}
	if len(body.Transactions) != 1 || body.Transactions[0].AmountOriginal != "1000.00" {
		t.Fatalf("unexpected transactions: %+v", body.Transactions)
	}
}

func TestExportEndpoints(t *testing.T) {
	dash := &fakeDash{csv: "Date,Category\n", pdf: []byte("%PDF-1.4 fake")}
	srv := newTestServer(t, dash, &fakeInserter{})

	resp, err := http.Get(srv.URL + "/api/export/csv")
	if err != nil {
		t.Fatalf("get csv: %v", err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected csv content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}

	resp, err = http.Get(srv.URL + "/api/export/pdf")
	if err != nil {
		t.Fatalf("get pdf: %v", err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected pdf content type %q", ct)
	}
}

func TestCurrenciesEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeDash{}, &fakeInserter{})

	resp, err := http.Get(srv.URL + "/api/currencies")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["currencies"]) != 2 || body["currencies"][0] != "USD" {
		t.Fatalf("unexpected currencies %v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeDash{}, &fakeInserter{})

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
