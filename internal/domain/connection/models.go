package connection

import "time"

// ProviderTrueLayer is the only provider currently wired.
const ProviderTrueLayer = "truelayer"

// Status tracks whether a connection's grant is believed usable. Validity is
// still checked lazily at use time; revoked only records a refresh that the
// provider rejected, so the UI can prompt reconnection without probing.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Connection is one OAuth grant to one provider for one user. Token fields
// hold ciphertext produced by the credential vault; plaintext tokens never
// touch the store.
type Connection struct {
	ID           string     `json:"id"` // opaque, "<provider>-<uuid>"
	UserID       int64      `json:"userId"`
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"-"` // encrypted
	RefreshToken string     `json:"-"` // encrypted
	TokenExpiry  *time.Time `json:"tokenExpiry"`
	LastSync     *time.Time `json:"lastSync"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
