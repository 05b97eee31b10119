package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudySession struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title          string    `gorm:"type:text;not null"`
	LastAccessedAt time.Time `gorm:"not null;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}
