package truelayer

import (
	"context"
	"time"
)

// API defines the provider operations the rest of the system depends on.
// Every call is stateless; the caller supplies the access token.
type API interface {
	AuthCodeURL(redirectURI, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	Accounts(ctx context.Context, accessToken string) ([]Account, error)
	Balance(ctx context.Context, accessToken, accountID string) (*Balance, error)
	Transactions(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]Transaction, error)
}
