package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/service"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Auth   *service.AuthService
	Tasks  *service.TaskService
	Tokens *service.TokenService
	Users  service.UserStore
	Hub    *ws.Hub

	AllowedOrigin string
}

// NewHandler wires the services. allowedOrigin restricts both CORS and the
// events handshake; empty allows any origin.
func NewHandler(auth *service.AuthService, tasks *service.TaskService, tokens *service.TokenService, users service.UserStore, hub *ws.Hub, allowedOrigin string) *Handler {
	return &Handler{
		Auth:          auth,
		Tasks:         tasks,
		Tokens:        tokens,
		Users:         users,
		Hub:           hub,
		AllowedOrigin: allowedOrigin,
	}
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// writeError maps unclassified failures to 500 and logs them; domain errors the
// handler did not expect fall back to their generic status.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		message(c, http.StatusBadRequest, "Bad request")
	case errors.Is(err, domain.ErrConflict):
		message(c, http.StatusConflict, "Conflict")
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		message(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		message(c, http.StatusNotFound, "Not found")
	default:
		logger.WithContext(c.Request.Context()).Error("request failed", "error", err)
		message(c, http.StatusInternalServerError, "Internal server error")
	}
}

// currentUser returns the user set by the auth middleware
func currentUser(c *gin.Context) (*domain.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		message(c, http.StatusUnauthorized, "Unauthorized")
	}
	return u, ok
}

// validationMessage turns "task content is required: validation failed" into
// "Task content is required".
func validationMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrValidation.Error())
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return "Bad request"
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
