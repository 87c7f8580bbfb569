package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expenselite/internal/core"
	"expenselite/internal/dashboard"
	applog "expenselite/internal/log"
	"expenselite/internal/middleware/trace"
)

type transactionResponse struct {
	ID              int64  `json:"id"`
	Category        string `json:"category"`
	AmountOriginal  string `json:"amountOriginal"`
	CurrencyCode    string `json:"currencyCode"`
	AmountUsd       string `json:"amountUsd"`
	IsIncome        bool   `json:"isIncome"`
	DateEpochMillis int64  `json:"dateEpochMillis"`
	ReceiptUri      string `json:"receiptUri,omitempty"`
}

type dashboardResponse struct {
	Filter          string                `json:"filter"`
	Page            int                   `json:"page"`
	Transactions    []transactionResponse `json:"transactions"`
	TotalIncomeUsd  string                `json:"totalIncomeUsd"`
	TotalExpenseUsd string                `json:"totalExpenseUsd"`
	Balance         string                `json:"balance"`
	CanLoadMore     bool                  `json:"canLoadMore"`
	IsLoading       bool                  `json:"isLoading"`
	ErrorMessage    string                `json:"errorMessage,omitempty"`
}

type createTransactionRequest struct {
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	CurrencyCode    string `json:"currencyCode"`
	IsIncome        bool   `json:"isIncome"`
	DateEpochMillis int64  `json:"dateEpochMillis"`
	ReceiptUri      string `json:"receiptUri"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDashboardResponse(s.dash.State()))
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filter, err := core.ParseFilter(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.dash.SetFilter(r.Context(), filter); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(s.dash.State()))
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.LoadMore(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(s.dash.State()))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}
	code := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if code == "" {
		code = "USD"
	}
	date := time.Now()
	if req.DateEpochMillis > 0 {
		date = time.UnixMilli(req.DateEpochMillis)
	}

	amount := core.Money{Cents: cents}
	tx := core.Transaction{
		Category:       category,
		AmountOriginal: amount,
		CurrencyCode:   code,
		IsIncome:       req.IsIncome,
		Date:           date,
		ReceiptURI:     strings.TrimSpace(req.ReceiptUri),
	}
	// Field validation runs before the converter so a malformed request
	// never costs a rate fetch.
	if err := tx.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	usd, err := s.converter.ToUSD(ctx, amount, code, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tx.AmountUSD = usd

	id, err := s.store.Insert(ctx, tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The insert is durable at this point; a failed reload only delays the
	// dashboard, so it is logged rather than surfaced.
	if err := s.dash.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Dashboard reload after insert failed",
			applog.FieldRequestID, trace.GetRequestID(ctx),
			applog.FieldTransactionID, id,
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldError, err)
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.dash.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"currencies": s.currencies.Currencies(r.Context()),
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	csvText, err := s.dash.ExportCSV(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	w.Write([]byte(csvText))
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := s.dash.ExportPDF(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", exportFilename("pdf"))
	w.Write(pdfBytes)
}

func exportFilename(ext string) string {
	return fmt.Sprintf(`attachment; filename="transactions-%s.%s"`, time.Now().Format("20060102"), ext)
}

func toDashboardResponse(st dashboard.ViewState) dashboardResponse {
	txs := make([]transactionResponse, len(st.Transactions))
	for i, tx := range st.Transactions {
		txs[i] = transactionResponse{
			ID:              tx.ID,
			Category:        tx.Category,
			AmountOriginal:  tx.AmountOriginal.Format(),
			CurrencyCode:    tx.CurrencyCode,
			AmountUsd:       tx.AmountUSD.Format(),
			IsIncome:        tx.IsIncome,
			DateEpochMillis: tx.Date.UnixMilli(),
			ReceiptUri:      tx.ReceiptURI,
		}
	}
	totals := core.Totals{IncomeUSD: st.TotalIncomeUSD, ExpenseUSD: st.TotalExpenseUSD}
	return dashboardResponse{
		Filter:          string(st.Filter),
		Page:            st.Page,
		Transactions:    txs,
		TotalIncomeUsd:  st.TotalIncomeUSD.Format(),
		TotalExpenseUsd: st.TotalExpenseUSD.Format(),
		Balance:         totals.Balance().Format(),
		CanLoadMore:     st.CanLoadMore,
		IsLoading:       st.IsLoading,
		ErrorMessage:    st.ErrorMessage,
	}
}
