package handlers

import (
	"net/http"
	"strconv"

	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

// DeleteMe removes the account and all of its todos.
func (h *Handler) DeleteMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := service.WithRequestMeta(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	if err := h.Auth.DeleteAccount(ctx, user); err != nil {
		writeError(c, err)
		return
	}

	h.Tasks.ForgetOwner(ctx, user.ID)
	if h.Hub != nil {
		h.Hub.DisconnectUser(user.ID)
	}
	message(c, http.StatusOK, "Account deleted successfully!")
}

// Activity lists the caller's recent auth events. ?limit= caps the count.
func (h *Handler) Activity(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			message(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.Auth.Activity(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
