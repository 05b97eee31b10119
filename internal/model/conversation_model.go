package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationMessage rows are append-only; the serial primary key is the
// ordering authority for conversation history.
type ConversationMessage struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_messages_scope"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_messages_scope"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

type ConversationSnapshot struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_snapshots_scope"`
	SessionId        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_snapshots_scope"`
	ChatState        datatypes.JSON `gorm:"type:jsonb"`
	VectorstoreReady bool           `gorm:"default:false"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (ConversationSnapshot) TableName() string {
	return "conversation_snapshots"
}
