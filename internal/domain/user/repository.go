package user

import "context"

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ListActive returns users eligible for scheduled syncs.
	ListActive(ctx context.Context) ([]*User, error)
}
