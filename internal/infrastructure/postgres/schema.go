package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Statements run in order because
// of foreign keys.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bank_connections (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_expiry TIMESTAMPTZ,
		last_sync TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_bank_connections_user_id ON bank_connections(user_id)`,

	`CREATE TABLE IF NOT EXISTS bank_accounts (
		id TEXT PRIMARY KEY,
		connection_id TEXT NOT NULL REFERENCES bank_connections(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT '',
		balance NUMERIC(19,4) NOT NULL DEFAULT 0,
		available_balance NUMERIC(19,4) NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_bank_accounts_connection_id ON bank_accounts(connection_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_accounts_user_id ON bank_accounts(user_id)`,

	// Identity is (account_id, id): provider ids are only unique within one
	// account, and derived ids hash the account in anyway.
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT NOT NULL,
		account_id TEXT NOT NULL REFERENCES bank_accounts(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		transaction_date TIMESTAMPTZ NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		merchant TEXT NOT NULL DEFAULT '',
		amount NUMERIC(19,4) NOT NULL CHECK (amount >= 0),
		currency TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'uncategorized',
		category_source TEXT NOT NULL DEFAULT 'heuristic',
		raw_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (account_id, id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, transaction_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_category ON transactions(user_id, category)`,

	`CREATE TABLE IF NOT EXISTS budgets (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		amount NUMERIC(19,4) NOT NULL CHECK (amount > 0),
		period TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, category)
	)`,
}

// Migrate creates any missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
