package dto

import (
	"time"

	"github.com/google/uuid"
)

type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

type AskResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
}

type HistoryMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionId uuid.UUID                `json:"session_id"`
	Messages  []HistoryMessageResponse `json:"messages"`
}
