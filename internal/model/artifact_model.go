package model

import (
	"time"

	"github.com/google/uuid"
)

type GeneratedArtifact struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_generated_artifacts_scope_type"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_generated_artifacts_scope_type"`
	ContentType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_generated_artifacts_scope_type"`
	Content     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (GeneratedArtifact) TableName() string {
	return "generated_artifacts"
}
