package handler

import (
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	internalWS "ai-tutor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WsHandler upgrades authenticated connections and hands them to the hub.
type WsHandler struct {
	hub    *internalWS.Hub
	auth   *serverutils.AuthMiddleware
	logger logger.ILogger
}

func NewWsHandler(hub *internalWS.Hub, auth *serverutils.AuthMiddleware, log logger.ILogger) *WsHandler {
	return &WsHandler{
		hub:    hub,
		auth:   auth,
		logger: log,
	}
}

// ServeWs authenticates the upgrade request. Browsers cannot set headers on
// websocket handshakes, so the token rides the query string; header auth
// still works for tooling.
func (h *WsHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return serverutils.NewHttpError(fiber.StatusUnauthorized, "Missing token")
	}

	userId, err := h.auth.ResolveToken(c.Context(), tokenStr)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.serveConn(conn, userId)
	})(c)
}

func (h *WsHandler) serveConn(conn *websocket.Conn, userId uuid.UUID) {
	h.logger.Info("Hub", "Websocket connected", map[string]interface{}{"user_id": userId})
	internalWS.ServeWs(h.hub, conn, userId)
}
