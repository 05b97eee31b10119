package mapper

import (
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
)

type ArtifactMapper struct{}

func NewArtifactMapper() *ArtifactMapper {
	return &ArtifactMapper{}
}

func (m *ArtifactMapper) ToEntity(a *model.GeneratedArtifact) *entity.GeneratedArtifact {
	if a == nil {
		return nil
	}

	return &entity.GeneratedArtifact{
		Id:          a.Id,
		UserId:      a.UserId,
		SessionId:   a.SessionId,
		ContentType: entity.ArtifactType(a.ContentType),
		Content:     a.Content,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (m *ArtifactMapper) ToModel(a *entity.GeneratedArtifact) *model.GeneratedArtifact {
	if a == nil {
		return nil
	}

	return &model.GeneratedArtifact{
		Id:          a.Id,
		UserId:      a.UserId,
		SessionId:   a.SessionId,
		ContentType: string(a.ContentType),
		Content:     a.Content,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
