package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

// SettingsRepository persists the single bot settings document.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, falling back to defaults when none have
// been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var data []byte
	if err := r.db.GetContext(ctx, &data, "SELECT data FROM settings WHERE id = 1"); err != nil {
		if err == sql.ErrNoRows {
			return domain.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO settings (id, data)
		VALUES (1, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data)
	`

	if _, err := r.db.ExecContext(ctx, query, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
