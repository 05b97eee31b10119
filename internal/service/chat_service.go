package service

import (
	"context"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/pkg/chat"
	"ai-tutor-be/pkg/pipeline"
	"ai-tutor-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	Ask(ctx context.Context, userId, sessionId uuid.UUID, question string) (*dto.AskResponse, error)
	// AskStream delivers the answer incrementally: onToken runs once per
	// fragment, in order, before the next fragment is produced. Returning an
	// error from it abandons the stream; nothing of the assistant turn is
	// persisted in that case.
	AskStream(ctx context.Context, userId, sessionId uuid.UUID, question string, onToken func(string) error) (*dto.AskResponse, error)
	GetHistory(ctx context.Context, userId, sessionId uuid.UUID, limit int) (*dto.HistoryResponse, error)
}

type chatService struct {
	sessions     ISessionService
	orchestrator *pipeline.Orchestrator
	logger       logger.ILogger
}

func NewChatService(sessions ISessionService, orchestrator *pipeline.Orchestrator, log logger.ILogger) IChatService {
	return &chatService{
		sessions:     sessions,
		orchestrator: orchestrator,
		logger:       log,
	}
}

// loadState restores the working conversation state for one cycle: the
// snapshot when it is readable, else a rebuild from the durable message log,
// else a fresh state seeded with the tutor prompt. The snapshot is never
// authoritative across requests; it is re-read here every cycle.
func (s *chatService) loadState(ctx context.Context, userId, sessionId uuid.UUID) (*chat.State, bool, error) {
	appState, ok, err := s.sessions.GetAppState(ctx, userId, sessionId)
	if err != nil {
		return nil, false, err
	}

	ready := false
	if ok {
		ready = appState.VectorstoreReady
		if appState.State != nil && len(appState.State.Messages) > 0 {
			return appState.State, ready, nil
		}
	}

	history, err := s.sessions.GetConversationHistory(ctx, userId, sessionId, 0)
	if err != nil {
		return nil, false, err
	}

	state := chat.NewState(constant.TutorSystemPrompt)
	for _, m := range history {
		state.Append(m.Role, m.Content)
	}
	return state, ready, nil
}

// beginCycle persists the human turn and handles auto-titling. The human
// turn is written before generation on purpose: a generation failure leaves
// it in the transcript.
func (s *chatService) beginCycle(ctx context.Context, userId, sessionId uuid.UUID, question string, transcriptLen int) {
	if err := s.sessions.SaveMessage(ctx, userId, sessionId, chat.RoleHuman, question); err != nil {
		s.logger.Error("Chat", "Failed to persist question", map[string]interface{}{
			"session_id": sessionId, "error": err.Error(),
		})
	}

	// First question of a default-named session becomes its title.
	if transcriptLen <= 1 {
		s.autoTitle(ctx, userId, sessionId, question)
	}
}

func (s *chatService) autoTitle(ctx context.Context, userId, sessionId uuid.UUID, question string) {
	session, err := s.sessions.EnsureOwned(ctx, userId, sessionId)
	if err != nil || session == nil || session.Title != constant.DefaultSessionTitle {
		return
	}

	title := question
	if runes := []rune(title); len(runes) > constant.AutoTitleMaxRunes {
		title = string(runes[:constant.AutoTitleMaxRunes])
	}
	if err := s.sessions.RenameSession(ctx, userId, sessionId, title); err != nil {
		s.logger.Warn("Chat", "Auto-title failed", map[string]interface{}{
			"session_id": sessionId, "error": err.Error(),
		})
	}
}

// endCycle persists the assistant turn and the updated snapshot.
func (s *chatService) endCycle(ctx context.Context, userId, sessionId uuid.UUID, ready bool, state *chat.State) {
	if err := s.sessions.SaveMessage(ctx, userId, sessionId, chat.RoleAssistant, state.Response); err != nil {
		s.logger.Error("Chat", "Failed to persist answer", map[string]interface{}{
			"session_id": sessionId, "error": err.Error(),
		})
	}
	if err := s.sessions.SaveAppState(ctx, userId, sessionId, ready, state); err != nil {
		s.logger.Error("Chat", "Failed to persist conversation snapshot", map[string]interface{}{
			"session_id": sessionId, "error": err.Error(),
		})
	}
}

func (s *chatService) Ask(ctx context.Context, userId, sessionId uuid.UUID, question string) (*dto.AskResponse, error) {
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	state, ready, err := s.loadState(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	s.beginCycle(ctx, userId, sessionId, question, len(state.Messages))

	scope := vectorstore.Scope{UserId: userId, SessionId: sessionId}
	answer, err := s.orchestrator.Ask(ctx, scope, state, question)
	if err != nil {
		// The human turn stays; only the snapshot reflects it.
		if saveErr := s.sessions.SaveAppState(ctx, userId, sessionId, ready, state); saveErr != nil {
			s.logger.Error("Chat", "Failed to persist snapshot after generation failure", map[string]interface{}{
				"session_id": sessionId, "error": saveErr.Error(),
			})
		}
		return nil, serverutils.WrapHttpError(fiber.StatusBadGateway,
			"The tutor could not generate an answer, please try again", err)
	}

	s.endCycle(ctx, userId, sessionId, ready, state)

	return &dto.AskResponse{
		SessionId: sessionId,
		Question:  question,
		Response:  answer,
	}, nil
}

func (s *chatService) AskStream(ctx context.Context, userId, sessionId uuid.UUID, question string, onToken func(string) error) (*dto.AskResponse, error) {
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	state, ready, err := s.loadState(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	s.beginCycle(ctx, userId, sessionId, question, len(state.Messages))

	scope := vectorstore.Scope{UserId: userId, SessionId: sessionId}
	answer, err := s.orchestrator.AskStream(ctx, scope, state, question, onToken)
	if err != nil {
		if saveErr := s.sessions.SaveAppState(ctx, userId, sessionId, ready, state); saveErr != nil {
			s.logger.Error("Chat", "Failed to persist snapshot after stream failure", map[string]interface{}{
				"session_id": sessionId, "error": saveErr.Error(),
			})
		}
		return nil, serverutils.WrapHttpError(fiber.StatusBadGateway,
			"The tutor could not generate an answer, please try again", err)
	}

	// Persistence happens only after the last fragment was delivered.
	s.endCycle(ctx, userId, sessionId, ready, state)

	return &dto.AskResponse{
		SessionId: sessionId,
		Question:  question,
		Response:  answer,
	}, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId, sessionId uuid.UUID, limit int) (*dto.HistoryResponse, error) {
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := s.sessions.GetConversationHistory(ctx, userId, sessionId, limit)
	if err != nil {
		return nil, err
	}

	out := &dto.HistoryResponse{
		SessionId: sessionId,
		Messages:  make([]dto.HistoryMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		out.Messages = append(out.Messages, dto.HistoryMessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
