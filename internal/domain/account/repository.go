package account

import "context"

// Repository persists account snapshots. Accounts are never deleted
// independently; they go away with their connection.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)
	ListByConnectionID(ctx context.Context, connectionID string) ([]*Account, error)
}
