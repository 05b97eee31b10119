package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	auth        *serverutils.AuthMiddleware
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, auth *serverutils.AuthMiddleware, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		auth:        auth,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth.Handler())
	h.Post(":sessionId/ask", c.Ask)
	h.Post(":sessionId/ask/stream", c.AskStream)
}

func chatScope(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, serverutils.NewHttpError(fiber.StatusBadRequest, "Invalid session id")
	}
	return userId, sessionId, nil
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	var req dto.AskRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.chatService.Ask(ctx.Context(), userId, sessionId, req.Question)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}

// AskStream answers over SSE: one "token" frame per generated fragment, a
// final "done" frame with the full response, or an "error" frame. Ownership
// and body validation failures still use the JSON envelope since nothing has
// been streamed yet.
func (c *chatController) AskStream(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	var req dto.AskRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fasthttp stream writer runs after this handler returns, so the
	// request context is gone by then. Generation gets its own context.
	question := req.Question
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamCtx := context.Background()

		writeFrame := func(payload interface{}) error {
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			return w.Flush()
		}

		res, err := c.chatService.AskStream(streamCtx, userId, sessionId, question, func(fragment string) error {
			return writeFrame(fiber.Map{"type": "token", "content": fragment})
		})
		if err != nil {
			c.logger.Warn("Chat", "Stream ended with error", map[string]interface{}{
				"session_id": sessionId, "error": err.Error(),
			})
			_ = writeFrame(fiber.Map{"type": "error", "message": "Answer generation failed"})
			return
		}

		_ = writeFrame(fiber.Map{
			"type":       "done",
			"response":   res.Response,
			"session_id": res.SessionId.String(),
		})
	}))

	return nil
}
