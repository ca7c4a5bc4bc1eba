// Package memstore is an in-memory implementation of the user, todo and audit
// stores. It backs DEV_MODE and the package tests. All state lives behind one
// mutex, so a user delete and its todo cascade are a single atomic step.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"todo_webapp/internal/domain"
)

type DB struct {
	mu       sync.RWMutex
	users    map[int64]domain.User
	byName   map[string]int64
	tasks    map[int64]domain.Task
	audit    []domain.AuditLog
	userSeq  int64
	taskSeq  int64
	auditSeq int64
}

func New() *DB {
	return &DB{
		users:  make(map[int64]domain.User),
		byName: make(map[string]int64),
		tasks:  make(map[int64]domain.Task),
	}
}

type UserRepository struct{ db *DB }

func NewUserRepository(db *DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.byName[u.Username]; taken {
		return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
	}
	r.db.userSeq++
	u.ID = r.db.userSeq
	u.CreatedAt = time.Now().UTC()
	r.db.users[u.ID] = *u
	r.db.byName[u.Username] = u.ID
	return nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.byName[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := r.db.users[id]
	return &u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.db.users, id)
	delete(r.db.byName, u.Username)
	for tid, t := range r.db.tasks {
		if t.UserID == id {
			delete(r.db.tasks, tid)
		}
	}
	return nil
}

type TaskRepository struct{ db *DB }

func NewTaskRepository(db *DB) *TaskRepository { return &TaskRepository{db: db} }

func (r *TaskRepository) ListByOwner(_ context.Context, ownerID int64) ([]*domain.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]*domain.Task, 0)
	for _, t := range r.db.tasks {
		if t.UserID == ownerID {
			t := t
			res = append(res, &t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *TaskRepository) Get(_ context.Context, id, ownerID int64) (*domain.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *TaskRepository) Create(_ context.Context, t *domain.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[t.UserID]; !ok {
		return fmt.Errorf("create todo: owner %d: %w", t.UserID, domain.ErrNotFound)
	}
	r.db.taskSeq++
	t.ID = r.db.taskSeq
	r.db.tasks[t.ID] = *t
	return nil
}

func (r *TaskRepository) SetCompleted(_ context.Context, id, ownerID int64, completed bool) (*domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	t.Completed = completed
	r.db.tasks[id] = t
	return &t, nil
}

func (r *TaskRepository) Delete(_ context.Context, id, ownerID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

type AuditRepository struct{ db *DB }

func NewAuditRepository(db *DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Create(_ context.Context, log *domain.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.auditSeq++
	log.ID = r.db.auditSeq
	log.CreatedAt = time.Now().UTC()
	r.db.audit = append(r.db.audit, *log)
	return nil
}

// GetByUserID returns audit logs for a user, newest first
func (r *AuditRepository) GetByUserID(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var res []*domain.AuditLog
	for i := len(r.db.audit) - 1; i >= 0 && len(res) < limit; i-- {
		if r.db.audit[i].UserID == userID {
			l := r.db.audit[i]
			res = append(res, &l)
		}
	}
	return res, nil
}
