package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

// FlowRepository handles database operations for conversational flows. Steps
// are stored as a single JSON document since a flow is always read and
// validated as a whole.
type FlowRepository struct {
	db *sqlx.DB
}

func NewFlowRepository(db *sqlx.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

type flowRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	IsActive    bool           `db:"is_active"`
	Steps       []byte         `db:"steps"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row *flowRow) toDomain() (*domain.Flow, error) {
	f := &domain.Flow{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if err := json.Unmarshal(row.Steps, &f.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow steps: %w", err)
	}

	return f, nil
}

func (r *FlowRepository) Save(ctx context.Context, f *domain.Flow) error {
	steps := f.Steps
	if steps == nil {
		steps = []domain.Step{}
	}

	stepsData, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to marshal flow steps: %w", err)
	}

	query := `
		INSERT INTO flows (id, name, description, is_active, steps)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			description = VALUES(description),
			is_active = VALUES(is_active),
			steps = VALUES(steps)
	`

	_, err = r.db.ExecContext(ctx, query,
		f.ID, f.Name, nullString(f.Description), f.IsActive, stepsData,
	)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}

	return nil
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*domain.Flow, error) {
	query := `
		SELECT id, name, description, is_active, steps, created_at, updated_at
		FROM flows
		WHERE id = ?
	`

	var row flowRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	return row.toDomain()
}

func (r *FlowRepository) GetAll(ctx context.Context) ([]domain.Flow, error) {
	query := `
		SELECT id, name, description, is_active, steps, created_at, updated_at
		FROM flows
		ORDER BY created_at DESC
	`

	var rows []flowRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get flows: %w", err)
	}

	flows := make([]domain.Flow, 0, len(rows))
	for i := range rows {
		f, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		flows = append(flows, *f)
	}

	return flows, nil
}

// GetActive returns the flow currently answering inbound conversations, or
// nil when none is active.
func (r *FlowRepository) GetActive(ctx context.Context) (*domain.Flow, error) {
	query := `
		SELECT id, name, description, is_active, steps, created_at, updated_at
		FROM flows
		WHERE is_active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var row flowRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active flow: %w", err)
	}

	return row.toDomain()
}

// DeactivateAll clears the active flag on every flow. Called before
// activating a new flow so only one answers at a time.
func (r *FlowRepository) DeactivateAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE flows SET is_active = FALSE WHERE is_active = TRUE"); err != nil {
		return fmt.Errorf("failed to deactivate flows: %w", err)
	}

	return nil
}

func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM flows WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrFlowNotFound
	}

	return nil
}
