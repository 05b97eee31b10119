package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIndexed DocumentStatus = "indexed"
	DocumentStatusFailed  DocumentStatus = "failed"
)

type StoredDocument struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	SessionId uuid.UUID
	FileName  string
	FilePath  string
	FileSize  int64
	FileType  string
	Status    DocumentStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// DocumentChunk is the authoritative text of one retrieval chunk. The
// vector index is derived from these rows and can be rebuilt from them.
type DocumentChunk struct {
	Id         int64
	UserId     uuid.UUID
	SessionId  uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	CreatedAt  time.Time
}
