package budget

import "context"

// Repository persists budget limits keyed by (user, category).
type Repository interface {
	Set(ctx context.Context, b *Budget) (*Budget, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Budget, error)
	Delete(ctx context.Context, userID int64, category string) error
}
