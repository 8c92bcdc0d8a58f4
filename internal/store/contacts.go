package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

// CreateContact inserts a new contact and returns it with its assigned id.
func (s *Store) CreateContact(ctx context.Context, params crm.ContactCreate) (*crm.Contact, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone, company, position, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.FirstName, params.LastName, params.Email,
		params.Phone, params.Company, params.Position, params.Notes,
		formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read contact id: %w", err)
	}
	s.log.Debug("contact created", zap.Int64("id", id))
	return &crm.Contact{
		ID:        id,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Company:   params.Company,
		Position:  params.Position,
		Notes:     params.Notes,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// GetContact returns the contact with the given id or crm.ErrNotFound.
func (s *Store) GetContact(ctx context.Context, id int64) (*crm.Contact, error) {
	return scanContact(s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, phone, company, position, notes, created_at, updated_at
		 FROM contacts WHERE id = ?`, id))
}

// ListContacts returns contacts in insertion order, bounded by the page.
func (s *Store) ListContacts(ctx context.Context, offset, limit int) ([]crm.Contact, error) {
	offset, limit = normalizePage(offset, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, email, phone, company, position, notes, created_at, updated_at
		 FROM contacts ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]crm.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// UpdateContact applies the provided fields to an existing contact and
// refreshes updated_at. Returns crm.ErrNotFound for absent ids.
func (s *Store) UpdateContact(ctx context.Context, id int64, params crm.ContactUpdate) (*crm.Contact, error) {
	var updated *crm.Contact
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := scanContact(tx.QueryRowContext(ctx,
			`SELECT id, first_name, last_name, email, phone, company, position, notes, created_at, updated_at
			 FROM contacts WHERE id = ?`, id))
		if err != nil {
			return err
		}
		applyString(&c.FirstName, params.FirstName)
		applyString(&c.LastName, params.LastName)
		applyString(&c.Email, params.Email)
		applyString(&c.Phone, params.Phone)
		applyString(&c.Company, params.Company)
		applyString(&c.Position, params.Position)
		applyString(&c.Notes, params.Notes)
		c.UpdatedAt = now()

		_, err = tx.ExecContext(ctx,
			`UPDATE contacts SET first_name=?, last_name=?, email=?, phone=?, company=?, position=?, notes=?, updated_at=?
			 WHERE id = ?`,
			c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Position, c.Notes,
			formatTime(c.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContact removes the contact. The bool reports whether a row existed.
func (s *Store) DeleteContact(ctx context.Context, id int64) (bool, error) {
	return s.deleteRow(ctx, "contacts", id)
}

func (s *Store) deleteRow(ctx context.Context, table string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*crm.Contact, error) {
	var c crm.Contact
	var created, updated string
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Company, &c.Position, &c.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
