package connection

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, conn *Connection) error
	GetByID(ctx context.Context, id string) (*Connection, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Connection, error)

	// UpdateTokens stores freshly encrypted tokens and the new expiry.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error

	UpdateStatus(ctx context.Context, id string, status Status) error

	// Delete removes the connection; accounts and transactions cascade.
	Delete(ctx context.Context, id string) error
}
