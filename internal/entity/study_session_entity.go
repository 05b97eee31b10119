package entity

import (
	"time"

	"github.com/google/uuid"
)

type StudySession struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Title          string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// StudySessionSummary is a session plus the aggregates shown in listings.
type StudySessionSummary struct {
	StudySession
	MessageCount int64
}
