package handlers

import (
	"errors"
	"net/http"
	"strings"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		message(c, http.StatusBadRequest, "Username and password are required!")
		return
	}

	ctx := service.WithRequestMeta(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	_, err := h.Auth.Register(ctx, req.Username, req.Password)
	switch {
	case err == nil:
		message(c, http.StatusCreated, "User registered successfully!")
	case errors.Is(err, domain.ErrConflict):
		message(c, http.StatusConflict, "Username already exists!")
	case errors.Is(err, domain.ErrValidation):
		message(c, http.StatusBadRequest, validationMessage(err))
	default:
		writeError(c, err)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.Header("WWW-Authenticate", `Basic realm="Login required!"`)
		message(c, http.StatusUnauthorized, "Could not verify")
		return
	}

	ctx := service.WithRequestMeta(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	token, err := h.Auth.Login(ctx, req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrValidation):
		message(c, http.StatusUnauthorized, "Invalid username or password")
	default:
		writeError(c, err)
	}
}
