// Package storage persists transactions in a local SQLite database.
//
// The date column is epoch milliseconds and is the sole ordering and
// filtering key. Range filtering is half-open: start inclusive, end
// exclusive, either side optional. The paged list and both aggregate sums
// apply the exact same predicate so a dashboard built from the three calls
// is internally consistent.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenselite/internal/core"
	applog "expenselite/internal/log"

	_ "modernc.org/sqlite"
)

const selectColumns = `id, category, amount_original_cents, currency_code, amount_usd_cents, is_income, date_epoch_ms, receipt_uri`

const rangePredicate = `(?1 IS NULL OR date_epoch_ms >= ?1) AND (?2 IS NULL OR date_epoch_ms < ?2)`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert writes the transaction and returns the assigned id. Amount
// validation is the caller's responsibility; the store only persists.
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (category, amount_original_cents, currency_code, amount_usd_cents, is_income, date_epoch_ms, receipt_uri)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Category,
		tx.AmountOriginal.Cents,
		tx.CurrencyCode,
		tx.AmountUSD.Cents,
		tx.IsIncome,
		tx.Date.UnixMilli(),
		nullableString(tx.ReceiptURI),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w: %v", core.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w: %v", core.ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		applog.FieldTransactionID, id,
		applog.FieldCategory, tx.Category,
		applog.FieldAmountCents, tx.AmountUSD.Cents,
		applog.FieldComponent, applog.ComponentStorage,
		"is_income", tx.IsIncome)

	return id, nil
}

// Delete removes the row with the given id. Deleting a missing id is a
// no-op, not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w: %v", id, core.ErrStorage, err)
	}
	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldComponent, applog.ComponentStorage)
	return nil
}

// ListPaged returns at most limit transactions inside the range, newest
// first, skipping offset matching rows. Each call re-executes the filtered
// scan; there is no cursor state.
func (r *SQLiteRepository) ListPaged(ctx context.Context, rng core.TimeRange, limit, offset int) ([]core.Transaction, error) {
	start, end := rangeArgs(rng)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions
		 WHERE `+rangePredicate+`
		 ORDER BY date_epoch_ms DESC, id DESC
		 LIMIT ?3 OFFSET ?4`,
		start, end, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w: %v", core.ErrStorage, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w: %v", core.ErrStorage, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w: %v", core.ErrStorage, err)
	}
	return out, nil
}

// SumIncomeUSD totals amount_usd_cents over income rows in the range.
// Empty sets sum to zero.
func (r *SQLiteRepository) SumIncomeUSD(ctx context.Context, rng core.TimeRange) (core.Money, error) {
	return r.sumUSD(ctx, rng, true)
}

// SumExpenseUSD totals amount_usd_cents over expense rows in the range.
func (r *SQLiteRepository) SumExpenseUSD(ctx context.Context, rng core.TimeRange) (core.Money, error) {
	return r.sumUSD(ctx, rng, false)
}

func (r *SQLiteRepository) sumUSD(ctx context.Context, rng core.TimeRange, income bool) (core.Money, error) {
	start, end := rangeArgs(rng)
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_usd_cents), 0) FROM transactions
		 WHERE `+rangePredicate+` AND is_income = ?3`,
		start, end, income,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w: %v", core.ErrStorage, err)
	}
	return core.Money{Cents: cents}, nil
}

func rangeArgs(rng core.TimeRange) (start, end any) {
	if rng.Start != nil {
		start = rng.Start.UnixMilli()
	}
	if rng.End != nil {
		end = rng.End.UnixMilli()
	}
	return start, end
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		tx       core.Transaction
		origCent int64
		usdCent  int64
		epochMS  int64
		receipt  sql.NullString
	)
	err := rows.Scan(&tx.ID, &tx.Category, &origCent, &tx.CurrencyCode, &usdCent, &tx.IsIncome, &epochMS, &receipt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.AmountOriginal = core.Money{Cents: origCent}
	tx.AmountUSD = core.Money{Cents: usdCent}
	tx.Date = time.UnixMilli(epochMS)
	if receipt.Valid {
		tx.ReceiptURI = receipt.String
	}
	return tx, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
