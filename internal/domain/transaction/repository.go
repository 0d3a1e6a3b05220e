package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the read/override surface over stored transactions.
// Batch upserts happen through the sync store so they commit atomically with
// the connection watermark.
type Repository interface {
	GetByID(ctx context.Context, accountID, id string) (*Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)

	// OverrideCategory sets a user-chosen category on a transaction and marks
	// it so subsequent syncs leave it alone.
	OverrideCategory(ctx context.Context, accountID, id, category string) (*Transaction, error)

	// SumExpensesByCategory totals expense magnitudes per category over a date
	// range. Used by budget analysis.
	SumExpensesByCategory(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error)
}
