package mapper

import (
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/chat"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

// Message Mappers

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) *entity.ConversationMessage {
	if msg == nil {
		return nil
	}

	return &entity.ConversationMessage{
		Id:        msg.Id,
		UserId:    msg.UserId,
		SessionId: msg.SessionId,
		Role:      chat.Role(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.ConversationMessage) *model.ConversationMessage {
	if msg == nil {
		return nil
	}

	return &model.ConversationMessage{
		Id:        msg.Id,
		UserId:    msg.UserId,
		SessionId: msg.SessionId,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessagesToEntities(models []*model.ConversationMessage) []*entity.ConversationMessage {
	entities := make([]*entity.ConversationMessage, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

// Snapshot Mappers

func (m *ConversationMapper) SnapshotToEntity(s *model.ConversationSnapshot) *entity.ConversationSnapshot {
	if s == nil {
		return nil
	}

	return &entity.ConversationSnapshot{
		Id:               s.Id,
		UserId:           s.UserId,
		SessionId:        s.SessionId,
		ChatState:        []byte(s.ChatState),
		VectorstoreReady: s.VectorstoreReady,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (m *ConversationMapper) SnapshotToModel(s *entity.ConversationSnapshot) *model.ConversationSnapshot {
	if s == nil {
		return nil
	}

	return &model.ConversationSnapshot{
		Id:               s.Id,
		UserId:           s.UserId,
		SessionId:        s.SessionId,
		ChatState:        datatypes.JSON(s.ChatState),
		VectorstoreReady: s.VectorstoreReady,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
