package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/chat"
	"ai-tutor-be/pkg/events"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrMissingUser guards every write: a session can never exist without an
// owning user, and no operation may fall back to an unscoped record.
var ErrMissingUser = errors.New("operation requires a user identity")

// AppState is a restored conversation snapshot. State is nil when no usable
// chat state was stored (absent or undeserializable).
type AppState struct {
	VectorstoreReady bool
	State            *chat.State
}

type ISessionService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, title string) (*entity.StudySession, error)
	ResolveOrCreateSession(ctx context.Context, userId uuid.UUID) (*entity.StudySession, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*entity.StudySessionSummary, error)
	RenameSession(ctx context.Context, userId, sessionId uuid.UUID, title string) error
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	EnsureOwned(ctx context.Context, userId, sessionId uuid.UUID) (*entity.StudySession, error)
	VerifyOwned(ctx context.Context, userId, sessionId uuid.UUID) error

	SaveMessage(ctx context.Context, userId, sessionId uuid.UUID, role chat.Role, content string) error
	GetConversationHistory(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error)
	ClearConversation(ctx context.Context, userId, sessionId uuid.UUID) error
	ResetConversation(ctx context.Context, userId, sessionId uuid.UUID) error

	SaveAppState(ctx context.Context, userId, sessionId uuid.UUID, vectorstoreReady bool, state *chat.State) error
	GetAppState(ctx context.Context, userId, sessionId uuid.UUID) (*AppState, bool, error)

	CleanupOldSessions(ctx context.Context, olderThanDays int) (int, error)
	CleanupOldSessionsForUser(ctx context.Context, userId uuid.UUID, olderThanDays int) (int, error)
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	cache          *memory.SessionCache
	index          vectorstore.Index
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	uploadDir      string
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.SessionCache,
	index vectorstore.Index,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	uploadDir string,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		cache:          cache,
		index:          index,
		eventPublisher: eventPublisher,
		logger:         log,
		uploadDir:      uploadDir,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, userId uuid.UUID, title string) (*entity.StudySession, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}
	if title == "" {
		title = constant.DefaultSessionTitle
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := &entity.StudySession{
		Id:             uuid.New(),
		UserId:         userId,
		Title:          title,
		LastAccessedAt: time.Now(),
	}
	if err := uow.StudySessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	s.cache.MarkValid(userId, session.Id)
	return session, nil
}

// ResolveOrCreateSession returns the most recently accessed session for the
// user, creating one when none exists. Calling it twice without an
// intervening create or delete returns the same session.
func (s *sessionService) ResolveOrCreateSession(ctx context.Context, userId uuid.UUID) (*entity.StudySession, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.StudySessionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_accessed_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if session != nil {
		s.cache.MarkValid(userId, session.Id)
		return session, nil
	}
	return s.CreateSession(ctx, userId, constant.DefaultSessionTitle)
}

func (s *sessionService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*entity.StudySessionSummary, error) {
	if userId == uuid.Nil {
		return []*entity.StudySessionSummary{}, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.StudySessionRepository().FindAllWithMessageCount(ctx, userId)
}

// RenameSession silently no-ops when the session is not owned by userId, so
// error shapes never reveal other users' session ids.
func (s *sessionService) RenameSession(ctx context.Context, userId, sessionId uuid.UUID, title string) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.StudySessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil || session == nil {
		return err
	}

	session.Title = title
	return uow.StudySessionRepository().Update(ctx, session)
}

// EnsureOwned loads the session after verifying the (user, session) pair,
// always from the database. Callers that only need the ownership answer and
// not the row should use VerifyOwned. Unknown or foreign sessions read as 404.
func (s *sessionService) EnsureOwned(ctx context.Context, userId, sessionId uuid.UUID) (*entity.StudySession, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.StudySessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewHttpError(fiber.StatusNotFound, "Session not found")
	}
	s.cache.MarkValid(userId, sessionId)
	return session, nil
}

// VerifyOwned is the hot-path ownership check: a recent positive answer is
// served from the in-process cache without touching the database. Session
// deletion invalidates the entry; the cache TTL bounds staleness for rows
// changed outside this process.
func (s *sessionService) VerifyOwned(ctx context.Context, userId, sessionId uuid.UUID) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}
	if s.cache.IsValid(userId, sessionId) {
		return nil
	}
	_, err := s.EnsureOwned(ctx, userId, sessionId)
	return err
}

// DeleteSession removes the session row and everything keyed by the
// (session, user) pair in one database transaction, then drops the vector
// collection and stored upload files after commit.
func (s *sessionService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.StudySessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		// Not owned or already gone. Same outcome either way.
		return nil
	}

	if err := s.deleteCascade(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	s.afterDelete(ctx, userId, sessionId)
	return nil
}

// deleteCascade runs the all-or-nothing part: every table keyed by the
// scope plus the session row itself, in one transaction.
func (s *sessionService) deleteCascade(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationMessageRepository().DeleteByScope(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := uow.ConversationSnapshotRepository().DeleteByScope(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByScope(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := uow.StoredDocumentRepository().DeleteByScopeUnscoped(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := uow.GeneratedArtifactRepository().DeleteByScope(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := uow.StudySessionRepository().DeleteUnscoped(ctx, sessionId); err != nil {
		return err
	}

	return uow.Commit()
}

// afterDelete is best-effort cleanup of resources outside the database.
func (s *sessionService) afterDelete(ctx context.Context, userId, sessionId uuid.UUID) {
	s.cache.Invalidate(userId, sessionId)

	if s.index != nil {
		scope := vectorstore.Scope{UserId: userId, SessionId: sessionId}
		if err := s.index.Drop(ctx, scope); err != nil {
			s.logger.Warn("Session", "Failed to drop vector collection", map[string]interface{}{
				"session_id": sessionId, "error": err.Error(),
			})
		}
	}

	if s.uploadDir != "" {
		dir := filepath.Join(s.uploadDir, userId.String(), sessionId.String())
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Session", "Failed to remove upload directory", map[string]interface{}{
				"dir": dir, "error": err.Error(),
			})
		}
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.BaseEvent{
			Type: events.SessionDeleted,
			Data: map[string]interface{}{
				"user_id":    userId.String(),
				"session_id": sessionId.String(),
			},
			OccurredAt: time.Now(),
		})
	}
}

func (s *sessionService) SaveMessage(ctx context.Context, userId, sessionId uuid.UUID, role chat.Role, content string) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}
	if !role.Valid() {
		return errors.New("unknown message role")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg := &entity.ConversationMessage{
		UserId:    userId,
		SessionId: sessionId,
		Role:      role,
		Content:   content,
	}
	if err := uow.ConversationMessageRepository().Create(ctx, msg); err != nil {
		return err
	}
	return uow.StudySessionRepository().Touch(ctx, sessionId)
}

func (s *sessionService) GetConversationHistory(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error) {
	if userId == uuid.Nil {
		return []*entity.ConversationMessage{}, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().FindRecent(ctx, userId, sessionId, limit)
}

// ClearConversation deletes message rows only; the session, its snapshot,
// its documents, and its artifacts stay.
func (s *sessionService) ClearConversation(ctx context.Context, userId, sessionId uuid.UUID) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().DeleteByScope(ctx, userId, sessionId)
}

// ResetConversation is the user-facing "clear chat": wipe the log and write
// a fresh snapshot seeded with the tutor prompt, preserving the index-ready
// flag so retrieval keeps working.
func (s *sessionService) ResetConversation(ctx context.Context, userId, sessionId uuid.UUID) error {
	if err := s.ClearConversation(ctx, userId, sessionId); err != nil {
		return err
	}

	current, _, err := s.GetAppState(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	ready := false
	if current != nil {
		ready = current.VectorstoreReady
	}

	return s.SaveAppState(ctx, userId, sessionId, ready, chat.NewState(constant.TutorSystemPrompt))
}

// SaveAppState upserts the single snapshot row. A state that will not
// serialize degrades to a null snapshot rather than failing the save.
func (s *sessionService) SaveAppState(ctx context.Context, userId, sessionId uuid.UUID, vectorstoreReady bool, state *chat.State) error {
	if userId == uuid.Nil {
		return ErrMissingUser
	}

	var chatState []byte
	if state != nil {
		data, err := chat.Serialize(state)
		if err != nil {
			s.logger.Error("Session", "Failed to serialize chat state, saving null snapshot", map[string]interface{}{
				"session_id": sessionId, "error": err.Error(),
			})
		} else {
			chatState = data
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	snapshot := &entity.ConversationSnapshot{
		Id:               uuid.New(),
		UserId:           userId,
		SessionId:        sessionId,
		ChatState:        chatState,
		VectorstoreReady: vectorstoreReady,
	}
	return uow.ConversationSnapshotRepository().Upsert(ctx, snapshot)
}

// GetAppState loads the last saved snapshot. Corrupt chat state reads as a
// snapshot with nil State; a missing row reads as ok=false.
func (s *sessionService) GetAppState(ctx context.Context, userId, sessionId uuid.UUID) (*AppState, bool, error) {
	if userId == uuid.Nil {
		return nil, false, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	snapshot, err := uow.ConversationSnapshotRepository().FindOne(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
	)
	if err != nil {
		return nil, false, err
	}
	if snapshot == nil {
		return nil, false, nil
	}

	out := &AppState{VectorstoreReady: snapshot.VectorstoreReady}
	if len(snapshot.ChatState) > 0 {
		state, err := chat.Deserialize(snapshot.ChatState)
		if err != nil {
			s.logger.Warn("Session", "Stored chat state unreadable, treating as fresh conversation", map[string]interface{}{
				"session_id": sessionId, "error": err.Error(),
			})
		} else {
			out.State = state
		}
	}
	return out, true, nil
}

func (s *sessionService) CleanupOldSessions(ctx context.Context, olderThanDays int) (int, error) {
	return s.cleanup(ctx, uuid.Nil, olderThanDays)
}

func (s *sessionService) CleanupOldSessionsForUser(ctx context.Context, userId uuid.UUID, olderThanDays int) (int, error) {
	if userId == uuid.Nil {
		return 0, ErrMissingUser
	}
	return s.cleanup(ctx, userId, olderThanDays)
}

// cleanup purges sessions idle past the cutoff with the same full cascade
// an explicit delete gets. Irreversible.
func (s *sessionService) cleanup(ctx context.Context, userId uuid.UUID, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		olderThanDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	specs := []specification.Specification{specification.LastAccessedBefore{Cutoff: cutoff}}
	if userId != uuid.Nil {
		specs = append(specs, specification.UserOwnedBy{UserID: userId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stale, err := uow.StudySessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, session := range stale {
		cascadeUow := s.uowFactory.NewUnitOfWork(ctx)
		if err := s.deleteCascade(ctx, cascadeUow, session.UserId, session.Id); err != nil {
			s.logger.Error("Session", "Cleanup failed for session", map[string]interface{}{
				"session_id": session.Id, "error": err.Error(),
			})
			continue
		}
		s.afterDelete(ctx, session.UserId, session.Id)
		purged++
	}

	if purged > 0 {
		s.logger.Info("Session", "Purged old sessions", map[string]interface{}{
			"count": purged, "older_than_days": olderThanDays,
		})
	}
	return purged, nil
}
