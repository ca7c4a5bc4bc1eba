package service

import (
	"context"

	"todo_webapp/internal/domain"
)

// UserStore is the credential store. Implementations return domain.ErrNotFound
// for unknown users and domain.ErrConflict for a taken username.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// TaskStore persists todos. Every operation is scoped by ownerID; a task that
// belongs to another owner must be reported as domain.ErrNotFound.
type TaskStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error)
	Get(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	SetCompleted(ctx context.Context, id, ownerID int64, completed bool) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// TaskCache holds per-owner task lists. Misses and failures are not errors.
// Get reports the generation it looked under; Set must drop the list when an
// Invalidate has happened since that generation was read.
type TaskCache interface {
	Get(ctx context.Context, ownerID int64) (tasks []*domain.Task, gen int64, ok bool)
	Set(ctx context.Context, ownerID, gen int64, tasks []*domain.Task)
	Invalidate(ctx context.Context, ownerID int64)
}

// EventPublisher delivers task events to the owner's live subscribers.
type EventPublisher interface {
	Publish(userID int64, ev domain.TaskEvent)
}
