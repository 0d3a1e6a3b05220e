package postgres

import (
	"context"
	"fmt"

	"budgie/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Set(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
	query := `
		INSERT INTO budgets (user_id, category, amount, period)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, category) DO UPDATE SET
			amount = EXCLUDED.amount,
			period = EXCLUDED.period,
			updated_at = NOW()
		RETURNING user_id, category, amount, period, created_at, updated_at
	`

	var out budget.Budget
	err := r.db.QueryRowContext(ctx, query, b.UserID, b.Category, b.Amount, b.Period).Scan(
		&out.UserID, &out.Category, &out.Amount, &out.Period, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	return &out, nil
}

func (r *BudgetRepository) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	query := `
		SELECT user_id, category, amount, period, created_at, updated_at
		FROM budgets
		WHERE user_id = $1
		ORDER BY category
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget
	for rows.Next() {
		var b budget.Budget
		if err := rows.Scan(&b.UserID, &b.Category, &b.Amount, &b.Period, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}

	return budgets, nil
}

func (r *BudgetRepository) Delete(ctx context.Context, userID int64, category string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = $1 AND category = $2`, userID, category); err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}
