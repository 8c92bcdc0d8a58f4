package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

// CreatePipeline inserts a new pipeline and returns it with its assigned id.
func (s *Store) CreatePipeline(ctx context.Context, params crm.PipelineCreate) (*crm.Pipeline, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pipelines (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		params.Name, params.Description, formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to insert pipeline: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline id: %w", err)
	}
	s.log.Debug("pipeline created", zap.Int64("id", id))
	return &crm.Pipeline{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// GetPipeline returns the pipeline with the given id or crm.ErrNotFound.
func (s *Store) GetPipeline(ctx context.Context, id int64) (*crm.Pipeline, error) {
	return scanPipeline(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM pipelines WHERE id = ?`, id))
}

// ListPipelines returns pipelines in insertion order, bounded by the page.
func (s *Store) ListPipelines(ctx context.Context, offset, limit int) ([]crm.Pipeline, error) {
	offset, limit = normalizePage(offset, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM pipelines ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := make([]crm.Pipeline, 0)
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, *p)
	}
	return pipelines, rows.Err()
}

// UpdatePipeline applies the provided fields and refreshes updated_at.
func (s *Store) UpdatePipeline(ctx context.Context, id int64, params crm.PipelineUpdate) (*crm.Pipeline, error) {
	var updated *crm.Pipeline
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPipeline(tx.QueryRowContext(ctx,
			`SELECT id, name, description, created_at, updated_at FROM pipelines WHERE id = ?`, id))
		if err != nil {
			return err
		}
		applyString(&p.Name, params.Name)
		applyString(&p.Description, params.Description)
		p.UpdatedAt = now()

		_, err = tx.ExecContext(ctx,
			`UPDATE pipelines SET name=?, description=?, updated_at=? WHERE id = ?`,
			p.Name, p.Description, formatTime(p.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update pipeline: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePipeline removes the pipeline. The bool reports whether a row existed.
func (s *Store) DeletePipeline(ctx context.Context, id int64) (bool, error) {
	return s.deleteRow(ctx, "pipelines", id)
}

func scanPipeline(row rowScanner) (*crm.Pipeline, error) {
	var p crm.Pipeline
	var created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pipeline: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
