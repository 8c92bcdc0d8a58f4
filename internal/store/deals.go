package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

// CreateDeal inserts a new deal and returns it with its assigned id.
// A deal created directly in a terminal status gets ClosedAt stamped.
func (s *Store) CreateDeal(ctx context.Context, params crm.DealCreate) (*crm.Deal, error) {
	ts := now()
	deal := &crm.Deal{
		Title:       params.Title,
		Description: params.Description,
		Value:       params.Value,
		Status:      params.Status,
		PipelineID:  params.PipelineID,
		ContactID:   params.ContactID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if deal.Status.Terminal() {
		closed := ts
		deal.ClosedAt = &closed
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (title, description, value, status, pipeline_id, contact_id, closed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.Title, deal.Description, deal.Value, string(deal.Status),
		deal.PipelineID, deal.ContactID, formatNullTime(deal.ClosedAt),
		formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to insert deal: %w", err)
	}
	if deal.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read deal id: %w", err)
	}
	s.log.Debug("deal created", zap.Int64("id", deal.ID), zap.String("status", string(deal.Status)))
	return deal, nil
}

// GetDeal returns the deal with the given id or crm.ErrNotFound.
func (s *Store) GetDeal(ctx context.Context, id int64) (*crm.Deal, error) {
	return scanDeal(s.db.QueryRowContext(ctx,
		`SELECT id, title, description, value, status, pipeline_id, contact_id, closed_at, created_at, updated_at
		 FROM deals WHERE id = ?`, id))
}

// ListDeals returns deals in insertion order, bounded by the page.
func (s *Store) ListDeals(ctx context.Context, offset, limit int) ([]crm.Deal, error) {
	offset, limit = normalizePage(offset, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, value, status, pipeline_id, contact_id, closed_at, created_at, updated_at
		 FROM deals ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]crm.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

// UpdateDeal applies the provided fields and refreshes updated_at.
// The first transition into a terminal status stamps ClosedAt; it is
// never reset afterwards.
func (s *Store) UpdateDeal(ctx context.Context, id int64, params crm.DealUpdate) (*crm.Deal, error) {
	var updated *crm.Deal
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		d, err := scanDeal(tx.QueryRowContext(ctx,
			`SELECT id, title, description, value, status, pipeline_id, contact_id, closed_at, created_at, updated_at
			 FROM deals WHERE id = ?`, id))
		if err != nil {
			return err
		}
		applyString(&d.Title, params.Title)
		applyString(&d.Description, params.Description)
		if params.Value != nil {
			d.Value = *params.Value
		}
		if params.Status != nil {
			d.Status = *params.Status
			if d.Status.Terminal() && d.ClosedAt == nil {
				closed := now()
				d.ClosedAt = &closed
			}
		}
		if params.PipelineID != nil {
			d.PipelineID = *params.PipelineID
		}
		if params.ContactID != nil {
			d.ContactID = *params.ContactID
		}
		d.UpdatedAt = now()

		_, err = tx.ExecContext(ctx,
			`UPDATE deals SET title=?, description=?, value=?, status=?, pipeline_id=?, contact_id=?, closed_at=?, updated_at=?
			 WHERE id = ?`,
			d.Title, d.Description, d.Value, string(d.Status), d.PipelineID, d.ContactID,
			formatNullTime(d.ClosedAt), formatTime(d.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update deal: %w", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDeal removes the deal. The bool reports whether a row existed.
func (s *Store) DeleteDeal(ctx context.Context, id int64) (bool, error) {
	return s.deleteRow(ctx, "deals", id)
}

func scanDeal(row rowScanner) (*crm.Deal, error) {
	var d crm.Deal
	var status, created, updated string
	var closed sql.NullString
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Value, &status,
		&d.PipelineID, &d.ContactID, &closed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deal: %w", err)
	}
	d.Status = crm.DealStatus(status)
	if d.ClosedAt, err = parseNullTime(closed); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &d, nil
}
