package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

// ContactRepository handles database operations for the contact directory.
type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, name, phone, email, source)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.Name, contact.Phone, nullString(contact.Email), string(contact.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `
		SELECT id, name, phone, COALESCE(email, '') AS email, source, created_at, updated_at
		FROM contacts
		WHERE id = ?
	`

	var contact domain.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepository) GetByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	query := `
		SELECT id, name, phone, COALESCE(email, '') AS email, source, created_at, updated_at
		FROM contacts
		WHERE phone = ?
	`

	var contact domain.Contact
	if err := r.db.GetContext(ctx, &contact, query, phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, name, phone, COALESCE(email, '') AS email, source, created_at, updated_at
		FROM contacts
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build contacts query: %w", err)
	}

	var contacts []domain.Contact
	if err := r.db.SelectContext(ctx, &contacts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	return contacts, nil
}

func (r *ContactRepository) GetAll(ctx context.Context, page, pageSize int) ([]domain.Contact, int64, error) {
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM contacts"); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `
		SELECT id, name, phone, COALESCE(email, '') AS email, source, created_at, updated_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	var contacts []domain.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to get contacts: %w", err)
	}

	return contacts, totalCount, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET name = ?, phone = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		contact.Name, contact.Phone, nullString(contact.Email), contact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrContactNotFound
	}

	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrContactNotFound
	}

	return nil
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM contacts"); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	return count, nil
}
