package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

// TaskService applies owner-scoped todo operations, keeps the owner's cached
// list coherent and notifies the owner's live subscribers.
type TaskService struct {
	store  TaskStore
	cache  TaskCache
	events EventPublisher
}

func NewTaskService(store TaskStore, cache TaskCache, events EventPublisher) *TaskService {
	if cache == nil {
		cache = noopCache{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &TaskService{store: store, cache: cache, events: events}
}

func (s *TaskService) List(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	tasks, gen, ok := s.cache.Get(ctx, ownerID)
	if ok {
		return tasks, nil
	}

	tasks, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ownerID, gen, tasks)
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, text string) (*domain.Task, error) {
	if text == "" {
		return nil, fmt.Errorf("task content is required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(text) > domain.MaxTaskLength {
		return nil, fmt.Errorf("task longer than %d characters: %w", domain.MaxTaskLength, domain.ErrValidation)
	}

	task := &domain.Task{Task: text, UserID: ownerID}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, ownerID)
	s.events.Publish(ownerID, domain.TaskEvent{Type: domain.TaskEventCreated, Todo: task, ID: task.ID})
	logger.WithContext(ctx).Debug("todo created", "todo_id", task.ID)
	return task, nil
}

// SetCompleted updates the completion flag. A nil completed leaves the task as is.
func (s *TaskService) SetCompleted(ctx context.Context, ownerID, id int64, completed *bool) (*domain.Task, error) {
	if completed == nil {
		return s.store.Get(ctx, id, ownerID)
	}

	task, err := s.store.SetCompleted(ctx, id, ownerID, *completed)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, ownerID)
	s.events.Publish(ownerID, domain.TaskEvent{Type: domain.TaskEventUpdated, Todo: task, ID: task.ID})
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.store.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, ownerID)
	s.events.Publish(ownerID, domain.TaskEvent{Type: domain.TaskEventDeleted, ID: id})
	return nil
}

// ForgetOwner drops cached state for an owner whose account is gone.
func (s *TaskService) ForgetOwner(ctx context.Context, ownerID int64) {
	s.cache.Invalidate(ctx, ownerID)
}

type noopCache struct{}

func (noopCache) Get(context.Context, int64) ([]*domain.Task, int64, bool) { return nil, -1, false }
func (noopCache) Set(context.Context, int64, int64, []*domain.Task)       {}
func (noopCache) Invalidate(context.Context, int64)                       {}

type noopPublisher struct{}

func (noopPublisher) Publish(int64, domain.TaskEvent) {}
