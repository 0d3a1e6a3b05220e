package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgie/internal/domain/connection"
)

type ConnectionRepository struct {
	db *DB
}

func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *connection.Connection) error {
	query := `
		INSERT INTO bank_connections (id, user_id, provider, access_token, refresh_token, token_expiry, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx, query,
		conn.ID, conn.UserID, conn.Provider, conn.AccessToken, conn.RefreshToken,
		conn.TokenExpiry, conn.Status,
	).Scan(&conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expiry, last_sync, status, created_at, updated_at
		FROM bank_connections
		WHERE id = $1
	`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return conn, nil
}

func (r *ConnectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expiry, last_sync, status, created_at, updated_at
		FROM bank_connections
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*connection.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}

	return conns, nil
}

func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error {
	query := `
		UPDATE bank_connections
		SET access_token = $2, refresh_token = $3, token_expiry = $4, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiry); err != nil {
		return fmt.Errorf("failed to update connection tokens: %w", err)
	}
	return nil
}

func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id string, status connection.Status) error {
	query := `
		UPDATE bank_connections
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bank_connections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*connection.Connection, error) {
	var conn connection.Connection
	var tokenExpiry, lastSync sql.NullTime

	err := row.Scan(
		&conn.ID, &conn.UserID, &conn.Provider, &conn.AccessToken, &conn.RefreshToken,
		&tokenExpiry, &lastSync, &conn.Status, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tokenExpiry.Valid {
		conn.TokenExpiry = &tokenExpiry.Time
	}
	if lastSync.Valid {
		conn.LastSync = &lastSync.Time
	}

	return &conn, nil
}
