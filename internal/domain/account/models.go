package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account surfaced by a connection. Balance is the
// provider's last-known snapshot, never recomputed from transactions.
type Account struct {
	ID               string          `json:"id"` // provider-assigned, unique within connection
	ConnectionID     string          `json:"connectionId"`
	UserID           int64           `json:"userId"`
	Name             string          `json:"name"`
	AccountType      string          `json:"accountType"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// UpsertParams creates or refreshes an account snapshot, keyed by
// (ConnectionID, ID).
type UpsertParams struct {
	ID               string
	ConnectionID     string
	UserID           int64
	Name             string
	AccountType      string
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
}
