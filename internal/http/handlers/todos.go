package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"todo_webapp/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateTodoRequest struct {
	Task string `json:"task"`
}

type UpdateTodoRequest struct {
	Completed *bool `json:"completed"`
}

const (
	msgTodoNotFoundEdit   = "Todo not found or you do not have permission to edit it"
	msgTodoNotFoundDelete = "Todo not found or you do not have permission to delete it"
)

func (h *Handler) ListTodos(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	todos, err := h.Tasks.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if todos == nil {
		todos = []*domain.Task{}
	}
	c.JSON(http.StatusOK, todos)
}

func (h *Handler) CreateTodo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.Tasks.Create(c.Request.Context(), user.ID, req.Task)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			message(c, http.StatusBadRequest, validationMessage(err))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *Handler) UpdateTodo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := todoID(c)
	if !ok {
		message(c, http.StatusNotFound, msgTodoNotFoundEdit)
		return
	}

	var req UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.Tasks.SetCompleted(c.Request.Context(), user.ID, id, req.Completed)
	if errors.Is(err, domain.ErrNotFound) {
		message(c, http.StatusNotFound, msgTodoNotFoundEdit)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *Handler) DeleteTodo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := todoID(c)
	if !ok {
		message(c, http.StatusNotFound, msgTodoNotFoundDelete)
		return
	}

	err := h.Tasks.Delete(c.Request.Context(), user.ID, id)
	if errors.Is(err, domain.ErrNotFound) {
		message(c, http.StatusNotFound, msgTodoNotFoundDelete)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	message(c, http.StatusOK, "Todo deleted successfully!")
}

// todoID parses the :id path parameter. Anything but a positive integer matches no todo.
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
