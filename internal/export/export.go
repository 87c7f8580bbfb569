// Package export renders transaction lists into shareable reports.
//
// Both renderers are pure transforms over their input slice: rows appear in
// input order, nothing is re-sorted, and no I/O happens here. The caller
// owns persisting or sharing the resulting bytes. Column order and header
// text are identical across CSV and PDF so the two formats can be checked
// against each other.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"expenselite/internal/core"

	"github.com/jung-kurt/gofpdf"
)

const (
	csvDateFormat = "2006-01-02 15:04"
	pdfDateFormat = "2006-01-02"

	noReceipt = "No receipt"
)

var header = []string{"Date", "Category", "Type", "Amount", "Currency", "USD Amount", "Receipt"}

// CSV renders one header row plus one row per transaction, amounts with
// exactly two decimals.
func CSV(txs []core.Transaction) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.Date.Format(csvDateFormat),
			tx.Category,
			tx.TypeLabel(),
			tx.AmountOriginal.Format(),
			tx.CurrencyCode,
			tx.AmountUSD.Format(),
			receiptOr(tx.ReceiptURI),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// PDF renders a titled document with an income/expenses/balance summary
// followed by the same 7-column table as the CSV, dates without the time
// component.
func PDF(txs []core.Transaction) ([]byte, error) {
	totals := core.Summarize(txs)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Expense Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, "Summary:", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Total Income: $"+totals.IncomeUSD.Format(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Total Expenses: $"+totals.ExpenseUSD.Format(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Balance: $"+totals.Balance().Format(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{24, 38, 18, 20, 18, 24, 48}

	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range txs {
		cells := []string{
			tx.Date.Format(pdfDateFormat),
			tx.Category,
			tx.TypeLabel(),
			tx.AmountOriginal.Format(),
			tx.CurrencyCode,
			tx.AmountUSD.Format(),
			receiptOr(tx.ReceiptURI),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func receiptOr(uri string) string {
	if uri == "" {
		return noReceipt
	}
	return uri
}
