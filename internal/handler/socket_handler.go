package handler

import (
	"context"

	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	internalWS "github.com/filezingme/BibiChat-sub000/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localsIdentity = "ws_identity"

type SocketHandler struct {
	hub    *internalWS.Hub
	ctx    context.Context
	logger logger.ILogger
}

// NewSocketHandler serves socket sessions until ctx is cancelled by shutdown.
func NewSocketHandler(ctx context.Context, hub *internalWS.Hub, log logger.ILogger) *SocketHandler {
	return &SocketHandler{hub: hub, ctx: ctx, logger: log}
}

// credential reads the token from the "auth" query field, falling back to a bearer header
// for non-browser tooling.
func credential(c *fiber.Ctx) string {
	if token := c.Query("auth"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// Handshake authenticates before the upgrade, so a refused connection never reaches the hub.
func (h *SocketHandler) Handshake(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	identity, err := h.hub.Authenticate(credential(c))
	if err != nil {
		if appErr, ok := apperror.As(err); ok {
			return appErr
		}
		return apperror.Auth("invalid credential token")
	}

	c.Locals(localsIdentity, identity)
	return c.Next()
}

// Serve registers the connection and blocks until it closes.
func (h *SocketHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		identity, ok := conn.Locals(localsIdentity).(serverutils.Identity)
		if !ok {
			conn.Close()
			return
		}

		client := h.hub.Register(identity)
		h.logger.Info("SocketHandler", "Starting WebSocket session", map[string]interface{}{
			"conn_id": client.ID,
			"user_id": identity.UserID,
		})
		h.hub.Serve(h.ctx, client, conn)
		h.logger.Info("SocketHandler", "WebSocket session ended", map[string]interface{}{
			"conn_id": client.ID,
			"user_id": identity.UserID,
		})
	})
}

func (h *SocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.Handshake, h.Serve())
}
