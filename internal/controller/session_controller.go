package controller

import (
	"strconv"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	chatService    service.IChatService
	auth           *serverutils.AuthMiddleware
}

func NewSessionController(
	sessionService service.ISessionService,
	chatService service.IChatService,
	auth *serverutils.AuthMiddleware,
) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		chatService:    chatService,
		auth:           auth,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(c.auth.Handler())
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("current", c.Current)
	h.Patch(":id", c.Rename)
	h.Delete(":id", c.Delete)
	h.Get(":id/messages", c.History)
	h.Delete(":id/messages", c.Reset)
	h.Post("cleanup", c.Cleanup)
}

func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.NewHttpError(fiber.StatusBadRequest, "Invalid session id")
	}
	return id, nil
}

func toSessionResponse(s *entity.StudySessionSummary) dto.SessionResponse {
	return dto.SessionResponse{
		Id:             s.Id,
		Title:          s.Title,
		MessageCount:   s.MessageCount,
		LastAccessedAt: s.LastAccessedAt,
		CreatedAt:      s.CreatedAt,
	}
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	sessions, err := c.sessionService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", out)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	session, err := c.sessionService.CreateSession(ctx.Context(), userId, req.Title)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, "Session created",
		toSessionResponse(&entity.StudySessionSummary{StudySession: *session}))
}

// Current resolves the most recently used session, creating one for brand
// new accounts. The client never has to know whether a session exists.
func (c *sessionController) Current(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	session, err := c.sessionService.ResolveOrCreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success",
		toSessionResponse(&entity.StudySessionSummary{StudySession: *session}))
}

func (c *sessionController) Rename(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	if err := c.sessionService.RenameSession(ctx.Context(), userId, sessionId, req.Title); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Session renamed", nil)
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.sessionService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Session deleted", nil)
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "0"))
	res, err := c.chatService.GetHistory(ctx.Context(), userId, sessionId, limit)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}

// Reset wipes the transcript and reseeds the snapshot; documents and study
// material survive.
func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.sessionService.VerifyOwned(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	if err := c.sessionService.ResetConversation(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Conversation cleared", nil)
}

func (c *sessionController) Cleanup(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CleanupSessionsRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	purged, err := c.sessionService.CleanupOldSessionsForUser(ctx.Context(), userId, req.OlderThanDays)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Cleanup finished",
		dto.CleanupSessionsResponse{PurgedSessions: purged})
}
