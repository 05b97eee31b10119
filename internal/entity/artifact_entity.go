package entity

import (
	"time"

	"github.com/google/uuid"
)

type ArtifactType string

const (
	ArtifactTypeNotes ArtifactType = "notes"
	ArtifactTypeMCQs  ArtifactType = "mcqs"
)

func (t ArtifactType) Valid() bool {
	return t == ArtifactTypeNotes || t == ArtifactTypeMCQs
}

// GeneratedArtifact stores study material produced for a session. At most
// one artifact exists per (user, session, type); regeneration overwrites.
type GeneratedArtifact struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	SessionId   uuid.UUID
	ContentType ArtifactType
	Content     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
