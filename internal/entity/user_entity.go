package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthToken is the server-side record of an issued access token. The raw
// token never touches the database, only its hash.
type AuthToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

func (t *AuthToken) IsActive(now time.Time) bool {
	return t != nil && !t.Revoked && now.Before(t.ExpiresAt)
}
