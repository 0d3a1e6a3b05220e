package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgie/internal/domain/transaction"
)

const transactionColumns = `id, account_id, user_id, transaction_date, description, merchant,
	amount, currency, type, category, category_source, raw_data, created_at, updated_at`

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, accountID, id string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND id = $2
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{filter.UserID}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}

	query += " ORDER BY transaction_date DESC, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

func (r *TransactionRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// OverrideCategory marks the category as user-set so sync upserts stop
// touching it.
func (r *TransactionRepository) OverrideCategory(ctx context.Context, accountID, id, category string) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET category = $3, category_source = 'user', updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING ` + transactionColumns + `
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID, id, category))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to override category: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) SumExpensesByCategory(ctx context.Context, userID int64, from, to time.Time) (map[string]decimal.Decimal, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND transaction_date >= $2 AND transaction_date <= $3
		GROUP BY category
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var total decimal.Decimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan expense sum: %w", err)
		}
		sums[category] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense sums: %w", err)
	}

	return sums, nil
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var rawData []byte

	err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.UserID, &tx.Date, &tx.Description, &tx.Merchant,
		&tx.Amount, &tx.Currency, &tx.Type, &tx.Category, &tx.CategorySource,
		&rawData, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.RawData = rawData
	return &tx, nil
}
