package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	// Indexing reports the async pipeline state right after upload,
	// always "queued"; clients learn completion over the websocket.
	Indexing string `json:"indexing"`
}

// IndexDocumentsMessage is the job payload queued for the background
// indexer after an upload batch. The indexer rebuilds the whole scope, so
// the triggering document ids matter only for failure reporting.
type IndexDocumentsMessage struct {
	UserId      uuid.UUID   `json:"user_id"`
	SessionId   uuid.UUID   `json:"session_id"`
	DocumentIds []uuid.UUID `json:"document_ids"`
}
