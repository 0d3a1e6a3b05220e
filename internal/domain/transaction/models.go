package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies the direction of a transaction.
type Type string

const (
	TypeExpense  Type = "expense"
	TypeIncome   Type = "income"
	TypeTransfer Type = "transfer"
)

// CategorySource records who assigned the current category. A category set by
// the user is never overwritten by sync.
type CategorySource string

const (
	SourceProvider  CategorySource = "provider"
	SourceHeuristic CategorySource = "heuristic"
	SourceUser      CategorySource = "user"
)

// ErrValidation marks malformed caller-supplied data. It is surfaced to the
// caller and never persisted.
var ErrValidation = errors.New("validation error")

// Transaction is a single ledger entry as observed from the provider.
// Amount is always a non-negative magnitude; direction lives in Type.
type Transaction struct {
	ID             string          `json:"id"`        // provider-assigned, or deterministically derived
	AccountID      string          `json:"accountId"` // (AccountID, ID) is the dedup key
	UserID         int64           `json:"userId"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Merchant       string          `json:"merchant"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Type           Type            `json:"type"`
	Category       string          `json:"category"`
	CategorySource CategorySource  `json:"categorySource"`
	RawData        []byte          `json:"-"` // opaque provider payload for audit/debug
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// UpsertParams carries one transaction into the store, keyed by
// (AccountID, ID). Re-observing the same key updates mutable fields.
type UpsertParams struct {
	ID             string
	AccountID      string
	UserID         int64
	Date           time.Time
	Description    string
	Merchant       string
	Amount         decimal.Decimal
	Currency       string
	Type           Type
	Category       string
	CategorySource CategorySource
	RawData        []byte
}

// ListFilter narrows a transaction listing. AccountID empty means all of the
// user's accounts; nil dates mean unbounded.
type ListFilter struct {
	UserID    int64
	AccountID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
