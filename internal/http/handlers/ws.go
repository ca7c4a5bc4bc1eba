package handlers

import (
	"net/http"

	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Events upgrades to a WebSocket streaming the caller's todo events. Browsers
// cannot set custom headers on the handshake, so the token may also come as ?token=.
func (h *Handler) Events(c *gin.Context) {
	raw := c.GetHeader(middleware.TokenHeader)
	if raw == "" {
		raw = c.Query("token")
	}

	user, reason, err := middleware.Authenticate(c.Request.Context(), h.Tokens, h.Users, raw)
	if err != nil {
		if reason == "" {
			writeError(c, err)
			return
		}
		middleware.Reject(c, reason, err)
		return
	}

	allowedOrigin := h.AllowedOrigin
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithContext(c.Request.Context()).Warn("ws upgrade error", "error", err)
		return
	}

	client := ws.NewClient(user.ID, conn, h.Hub)
	go client.Run()
}
