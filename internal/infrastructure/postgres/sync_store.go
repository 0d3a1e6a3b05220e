package postgres

import (
	"context"
	"fmt"
	"time"

	"budgie/internal/domain/transaction"
)

// upsertTransactionQuery re-observes a transaction by (account_id, id). A
// user-overridden category survives: the sync only replaces categories it or
// the provider assigned.
const upsertTransactionQuery = `
	INSERT INTO transactions (id, account_id, user_id, transaction_date, description, merchant,
		amount, currency, type, category, category_source, raw_data)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (account_id, id) DO UPDATE SET
		transaction_date = EXCLUDED.transaction_date,
		description = EXCLUDED.description,
		merchant = EXCLUDED.merchant,
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		type = EXCLUDED.type,
		category = CASE WHEN transactions.category_source = 'user'
			THEN transactions.category ELSE EXCLUDED.category END,
		category_source = CASE WHEN transactions.category_source = 'user'
			THEN transactions.category_source ELSE EXCLUDED.category_source END,
		raw_data = EXCLUDED.raw_data,
		updated_at = NOW()
`

// SyncStore commits one account sync as a single database transaction: all
// upserts plus the connection watermark advance, or nothing. A crash mid-batch
// leaves last_sync untouched, so the next run re-fetches the same window and
// the upserts absorb the repeats.
type SyncStore struct {
	db *DB
}

func NewSyncStore(db *DB) *SyncStore {
	return &SyncStore{db: db}
}

func (s *SyncStore) ApplyBatch(ctx context.Context, connectionID string, upserts []transaction.UpsertParams, syncedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sync batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTransactionQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction upsert: %w", err)
	}
	defer stmt.Close()

	for _, up := range upserts {
		_, err := stmt.ExecContext(
			ctx,
			up.ID, up.AccountID, up.UserID, up.Date, up.Description, up.Merchant,
			up.Amount, up.Currency, up.Type, up.Category, up.CategorySource, up.RawData,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert transaction %s: %w", up.ID, err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE bank_connections SET last_sync = $2, updated_at = NOW() WHERE id = $1`,
		connectionID, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to advance sync watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync batch: %w", err)
	}

	return nil
}
