package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type SessionResponse struct {
	Id             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	MessageCount   int64     `json:"message_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type CleanupSessionsRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"omitempty,min=1"`
}

type CleanupSessionsResponse struct {
	PurgedSessions int `json:"purged_sessions"`
}
