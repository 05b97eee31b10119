package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByScope filters rows belonging to one (user, session) pair. Every
// conversation query carries it so users can never read across sessions
// or across accounts.
type ByScope struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

func (s ByScope) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ? AND session_id = ?", s.UserID, s.SessionID)
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByContentType struct {
	ContentType string
}

func (s ByContentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_type = ?", s.ContentType)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// LastAccessedBefore selects sessions idle since the cutoff, used by the
// retention sweep.
type LastAccessedBefore struct {
	Cutoff time.Time
}

func (s LastAccessedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_accessed_at < ?", s.Cutoff)
}
