package mapper

import (
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"

	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.StoredDocument) *entity.StoredDocument {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.StoredDocument{
		Id:        d.Id,
		UserId:    d.UserId,
		SessionId: d.SessionId,
		FileName:  d.FileName,
		FilePath:  d.FilePath,
		FileSize:  d.FileSize,
		FileType:  d.FileType,
		Status:    entity.DocumentStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.StoredDocument) *model.StoredDocument {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.StoredDocument{
		Id:        d.Id,
		UserId:    d.UserId,
		SessionId: d.SessionId,
		FileName:  d.FileName,
		FilePath:  d.FilePath,
		FileSize:  d.FileSize,
		FileType:  d.FileType,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(models []*model.StoredDocument) []*entity.StoredDocument {
	entities := make([]*entity.StoredDocument, len(models))
	for i, d := range models {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

// Chunk Mappers

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	return &entity.DocumentChunk{
		Id:         c.Id,
		UserId:     c.UserId,
		SessionId:  c.SessionId,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	return &model.DocumentChunk{
		Id:         c.Id,
		UserId:     c.UserId,
		SessionId:  c.SessionId,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunksToEntities(models []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(models))
	for i, c := range models {
		entities[i] = m.ChunkToEntity(c)
	}
	return entities
}
