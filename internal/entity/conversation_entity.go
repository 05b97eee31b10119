package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-tutor-be/pkg/chat"
)

// ConversationMessage is one turn in the append-only conversation log.
// The serial Id preserves exact insertion order even when timestamps collide.
type ConversationMessage struct {
	Id        int64
	UserId    uuid.UUID
	SessionId uuid.UUID
	Role      chat.Role
	Content   string
	CreatedAt time.Time
}

// ConversationSnapshot holds the serialized pipeline state for one
// (user, session) pair. ChatState is the wire-format JSON produced by
// chat.Serialize; a nil ChatState means no snapshot has been written yet.
type ConversationSnapshot struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	SessionId        uuid.UUID
	ChatState        []byte
	VectorstoreReady bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
