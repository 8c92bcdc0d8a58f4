package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

// CreateTask inserts a new task and returns it with its assigned id.
// A task created directly in "completed" status gets CompletedAt stamped.
func (s *Store) CreateTask(ctx context.Context, params crm.TaskCreate) (*crm.Task, error) {
	ts := now()
	task := &crm.Task{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      params.Status,
		ContactID:   params.ContactID,
		DueDate:     params.DueDate,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if task.Status == crm.TaskCompleted {
		completed := ts
		task.IsCompleted = true
		task.CompletedAt = &completed
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, priority, status, contact_id, due_date, is_completed, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, string(task.Priority), string(task.Status),
		task.ContactID, formatNullTime(task.DueDate), task.IsCompleted,
		formatNullTime(task.CompletedAt), formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	if task.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read task id: %w", err)
	}
	s.log.Debug("task created", zap.Int64("id", task.ID), zap.String("priority", string(task.Priority)))
	return task, nil
}

// GetTask returns the task with the given id or crm.ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id int64) (*crm.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx,
		`SELECT id, title, description, priority, status, contact_id, due_date, is_completed, completed_at, created_at, updated_at
		 FROM tasks WHERE id = ?`, id))
}

// ListTasks returns tasks in insertion order, bounded by the page.
func (s *Store) ListTasks(ctx context.Context, offset, limit int) ([]crm.Task, error) {
	offset, limit = normalizePage(offset, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, priority, status, contact_id, due_date, is_completed, completed_at, created_at, updated_at
		 FROM tasks ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]crm.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies the provided fields and refreshes updated_at.
// The first transition into "completed" sets is_completed and stamps
// completed_at; repeating the transition leaves the stamp unchanged,
// and neither field is ever reset automatically.
func (s *Store) UpdateTask(ctx context.Context, id int64, params crm.TaskUpdate) (*crm.Task, error) {
	var updated *crm.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx,
			`SELECT id, title, description, priority, status, contact_id, due_date, is_completed, completed_at, created_at, updated_at
			 FROM tasks WHERE id = ?`, id))
		if err != nil {
			return err
		}
		applyString(&t.Title, params.Title)
		applyString(&t.Description, params.Description)
		if params.Priority != nil {
			t.Priority = *params.Priority
		}
		if params.Status != nil {
			t.Status = *params.Status
			if t.Status == crm.TaskCompleted && !t.IsCompleted {
				completed := now()
				t.IsCompleted = true
				t.CompletedAt = &completed
			}
		}
		if params.ContactID != nil {
			t.ContactID = *params.ContactID
		}
		if params.DueDate != nil {
			t.DueDate = params.DueDate
		}
		t.UpdatedAt = now()

		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET title=?, description=?, priority=?, status=?, contact_id=?, due_date=?, is_completed=?, completed_at=?, updated_at=?
			 WHERE id = ?`,
			t.Title, t.Description, string(t.Priority), string(t.Status), t.ContactID,
			formatNullTime(t.DueDate), t.IsCompleted, formatNullTime(t.CompletedAt),
			formatTime(t.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the task. The bool reports whether a row existed.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	return s.deleteRow(ctx, "tasks", id)
}

func scanTask(row rowScanner) (*crm.Task, error) {
	var t crm.Task
	var priority, status, created, updated string
	var due, completed sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &status,
		&t.ContactID, &due, &t.IsCompleted, &completed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	t.Priority = crm.TaskPriority(priority)
	t.Status = crm.TaskStatus(status)
	if t.DueDate, err = parseNullTime(due); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = parseNullTime(completed); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}
