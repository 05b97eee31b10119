package service

import (
	"context"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	GetStatistics(ctx context.Context, userId uuid.UUID) (*dto.StatisticsResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserService(uowFactory unitofwork.RepositoryFactory) IUserService {
	return &userService{uowFactory: uowFactory}
}

func (s *userService) GetStatistics(ctx context.Context, userId uuid.UUID) (*dto.StatisticsResponse, error) {
	if userId == uuid.Nil {
		return &dto.StatisticsResponse{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	owned := specification.UserOwnedBy{UserID: userId}

	sessions, err := uow.StudySessionRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	messages, err := uow.ConversationMessageRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	documents, err := uow.StoredDocumentRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	artifacts, err := uow.GeneratedArtifactRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	storageBytes, err := uow.StoredDocumentRepository().SumFileSize(ctx, owned)
	if err != nil {
		return nil, err
	}

	return &dto.StatisticsResponse{
		TotalSessions:  sessions,
		TotalMessages:  messages,
		TotalDocuments: documents,
		TotalArtifacts: artifacts,
		StorageBytes:   storageBytes,
	}, nil
}
