package ws

import "todo_webapp/internal/domain"

type Envelope struct {
	Type  string            `json:"type"`
	Event *domain.TaskEvent `json:"event,omitempty"`
	Error *ErrorPayload     `json:"error,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
