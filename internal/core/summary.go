package core

// Totals aggregates the USD side of a set of transactions.
type Totals struct {
	IncomeUSD  Money
	ExpenseUSD Money
}

// Balance is income minus expenses.
func (t Totals) Balance() Money {
	return t.IncomeUSD.Sub(t.ExpenseUSD)
}

// Summarize folds a transaction list into income/expense totals.
// Export reports use this; dashboard totals come from the store instead.
func Summarize(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.IsIncome {
			t.IncomeUSD = t.IncomeUSD.Add(tx.AmountUSD)
		} else {
			t.ExpenseUSD = t.ExpenseUSD.Add(tx.AmountUSD)
		}
	}
	return t
}
