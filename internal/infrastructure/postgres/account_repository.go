package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"budgie/internal/domain/account"
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	query := `
		INSERT INTO bank_accounts (id, connection_id, user_id, name, account_type, currency, balance, available_balance, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			account_type = EXCLUDED.account_type,
			currency = EXCLUDED.currency,
			balance = EXCLUDED.balance,
			available_balance = EXCLUDED.available_balance,
			last_updated = NOW()
		RETURNING id, connection_id, user_id, name, account_type, currency, balance, available_balance, last_updated
	`

	var a account.Account
	err := r.db.QueryRowContext(
		ctx, query,
		params.ID, params.ConnectionID, params.UserID, params.Name, params.AccountType,
		params.Currency, params.Balance, params.AvailableBalance,
	).Scan(
		&a.ID, &a.ConnectionID, &a.UserID, &a.Name, &a.AccountType,
		&a.Currency, &a.Balance, &a.AvailableBalance, &a.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return &a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, connection_id, user_id, name, account_type, currency, balance, available_balance, last_updated
		FROM bank_accounts
		WHERE id = $1
	`

	var a account.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ConnectionID, &a.UserID, &a.Name, &a.AccountType,
		&a.Currency, &a.Balance, &a.AvailableBalance, &a.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &a, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `
		SELECT id, connection_id, user_id, name, account_type, currency, balance, available_balance, last_updated
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY name, id
	`
	return r.list(ctx, query, userID)
}

func (r *AccountRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	query := `
		SELECT id, connection_id, user_id, name, account_type, currency, balance, available_balance, last_updated
		FROM bank_accounts
		WHERE connection_id = $1
		ORDER BY name, id
	`
	return r.list(ctx, query, connectionID)
}

func (r *AccountRepository) list(ctx context.Context, query string, arg any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var a account.Account
		err := rows.Scan(
			&a.ID, &a.ConnectionID, &a.UserID, &a.Name, &a.AccountType,
			&a.Currency, &a.Balance, &a.AvailableBalance, &a.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
