package repository

import (
	"context"
	"errors"
	"fmt"

	"todo_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository stores todos. Every statement is constrained by user_id, so a
// task owned by someone else behaves exactly like a missing one.
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, task, completed, user_id FROM todos WHERE user_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Task, &t.Completed, &t.UserID); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) Get(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, task, completed, user_id FROM todos WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	return scanTask(row)
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO todos (task, completed, user_id) VALUES ($1, $2, $3) RETURNING id`,
		t.Task, t.Completed, t.UserID,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *TaskRepository) SetCompleted(ctx context.Context, id, ownerID int64, completed bool) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE todos SET completed = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING id, task, completed, user_id`,
		completed, id, ownerID,
	)
	return scanTask(row)
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Task, &t.Completed, &t.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return &t, nil
}
