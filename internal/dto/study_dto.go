package dto

import (
	"time"

	"github.com/google/uuid"
)

type ArtifactResponse struct {
	SessionId   uuid.UUID `json:"session_id"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	// Warnings carries advisory structure checks (e.g. MCQ shape); content
	// is returned regardless.
	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
