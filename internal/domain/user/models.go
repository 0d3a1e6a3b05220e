package user

import "time"

// User is the identity anchor. Created at registration, never auto-deleted.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateParams struct {
	Email        string
	PasswordHash string
}
