package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoredDocument struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_stored_documents_scope"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_stored_documents_scope"`
	FileName  string    `gorm:"type:varchar(255);not null"`
	FilePath  string    `gorm:"type:text;not null"`
	FileSize  int64     `gorm:"not null"`
	FileType  string    `gorm:"type:varchar(20);not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (StoredDocument) TableName() string {
	return "stored_documents"
}

// DocumentChunk is the canonical chunk text. Vector indexes are derived
// from these rows, so a full reindex never needs the original file.
type DocumentChunk struct {
	Id         int64     `gorm:"primaryKey;autoIncrement"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index:idx_document_chunks_scope"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;index:idx_document_chunks_scope"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkIndex int       `gorm:"not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
