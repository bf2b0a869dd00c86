package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes that reject a single product instead of the batch.
const (
	pgUniqueViolation   = "23505"
	pgCheckViolation    = "23514"
	pgNotNullViolation  = "23502"
	pgNumericOutOfRange = "22003"
)

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	id                  BIGSERIAL PRIMARY KEY,
	product_id          TEXT UNIQUE,
	name                TEXT NOT NULL,
	quantity            BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	price               NUMERIC(14,2) NOT NULL CHECK (price >= 0),
	min_selling_price   NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (min_selling_price >= 0),
	stock               BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	low_stock_threshold BIGINT NOT NULL DEFAULT 5 CHECK (low_stock_threshold >= 0),
	barcode             TEXT UNIQUE,
	manufacturer        TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const insertProduct = `
INSERT INTO products (
	name, quantity, price, min_selling_price, stock,
	low_stock_threshold, barcode, manufacturer, product_id, image_url
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

// SQLStore writes submitted products to PostgreSQL.
//
// A batch runs in one transaction. Each product is inserted under its own
// savepoint, so a constraint violation rejects that product and the rest of
// the batch still commits. Any other database error aborts the whole batch.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the products table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("inventory: create products table: %w", err)
	}
	return nil
}

// SubmitBatch inserts items and reports per-item results.
func (s *SQLStore) SubmitBatch(ctx context.Context, items []core.BatchItem) (core.BatchResponse, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BatchResponse{}, fmt.Errorf("inventory: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var resp core.BatchResponse
	for _, item := range items {
		if reason := checkProduct(item.Product); reason != "" {
			resp.Rejected = append(resp.Rejected, core.Rejection{Index: item.Index, Reason: reason})
			continue
		}

		reason, err := insertOne(ctx, tx, item.Product)
		if err != nil {
			return core.BatchResponse{}, fmt.Errorf("inventory: insert record %d: %w", item.Index, err)
		}
		if reason != "" {
			resp.Rejected = append(resp.Rejected, core.Rejection{Index: item.Index, Reason: reason})
			continue
		}
		resp.Accepted = append(resp.Accepted, item.Index)
	}

	if err := tx.Commit(); err != nil {
		return core.BatchResponse{}, fmt.Errorf("inventory: commit: %w", err)
	}

	slog.Debug("inventory batch written",
		"accepted", len(resp.Accepted),
		"rejected", len(resp.Rejected),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// insertOne inserts p under a savepoint. A non-empty reason means the row
// was rejected and rolled back; an error means the transaction is unusable.
func insertOne(ctx context.Context, tx *sql.Tx, p core.Product) (string, error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT product_insert"); err != nil {
		return "", err
	}

	_, err := tx.ExecContext(ctx, insertProduct,
		p.Name,
		p.Quantity,
		p.Price,
		p.MinSellingPrice,
		p.Stock,
		p.LowStockThreshold,
		nullIfEmpty(p.Barcode),
		p.Manufacturer,
		nullIfEmpty(p.ProductID),
		p.ImageURL,
	)
	if err == nil {
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT product_insert"); err != nil {
			return "", err
		}
		return "", nil
	}

	reason, ok := rejectionReason(err)
	if !ok {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT product_insert"); err != nil {
		return "", err
	}
	return reason, nil
}

// priceScale is the number of decimal places the price columns store.
const priceScale = 2

// checkProduct applies the business rules the table cannot express.
// Prices with more places than the columns hold are rejected rather than
// rounded by the database.
func checkProduct(p core.Product) string {
	if !fitsScale(p.Price) {
		return fmt.Sprintf("price %s has more than %d decimal places", p.Price, priceScale)
	}
	if !fitsScale(p.MinSellingPrice) {
		return fmt.Sprintf("minimum selling price %s has more than %d decimal places", p.MinSellingPrice, priceScale)
	}
	if p.MinSellingPrice.GreaterThan(p.Price) {
		return fmt.Sprintf("minimum selling price %s is above price %s", p.MinSellingPrice, p.Price)
	}
	return ""
}

// rejectionReason classifies err as a per-row rejection.
func rejectionReason(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.Detail != "" {
			return "duplicate product: " + pgErr.Detail, true
		}
		return "duplicate product", true
	case pgCheckViolation:
		return fmt.Sprintf("constraint %s violated", pgErr.ConstraintName), true
	case pgNotNullViolation:
		return fmt.Sprintf("missing value for %s", pgErr.ColumnName), true
	case pgNumericOutOfRange:
		return "numeric value out of range", true
	default:
		return "", false
	}
}

func fitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(priceScale))
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
