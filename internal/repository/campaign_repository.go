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

// CampaignRepository handles database operations for campaigns. Recipients and
// results live in JSON columns; progress counters are flattened into integer
// columns so list queries never have to parse JSON.
type CampaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

type campaignRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Message         string         `db:"message"`
	MediaPath       sql.NullString `db:"media_path"`
	MediaName       sql.NullString `db:"media_name"`
	Recipients      []byte         `db:"recipients"`
	Status          string         `db:"status"`
	ScheduledFor    *time.Time     `db:"scheduled_for"`
	StartedAt       *time.Time     `db:"started_at"`
	CompletedAt     *time.Time     `db:"completed_at"`
	ProgressTotal   int            `db:"progress_total"`
	ProgressSent    int            `db:"progress_sent"`
	ProgressFailed  int            `db:"progress_failed"`
	ProgressPending int            `db:"progress_pending"`
	Results         []byte         `db:"results"`
	Error           sql.NullString `db:"error"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

const campaignColumns = `
	id, name, message, media_path, media_name, recipients, status,
	scheduled_for, started_at, completed_at,
	progress_total, progress_sent, progress_failed, progress_pending,
	results, error, created_at, updated_at
`

func (row *campaignRow) toDomain() (*domain.Campaign, error) {
	c := &domain.Campaign{
		ID:           row.ID,
		Name:         row.Name,
		Message:      row.Message,
		MediaPath:    row.MediaPath.String,
		MediaName:    row.MediaName.String,
		Status:       domain.CampaignStatus(row.Status),
		ScheduledFor: row.ScheduledFor,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		Progress: domain.Progress{
			Total:   row.ProgressTotal,
			Sent:    row.ProgressSent,
			Failed:  row.ProgressFailed,
			Pending: row.ProgressPending,
		},
		Error:     row.Error.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if err := json.Unmarshal(row.Recipients, &c.Recipients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
	}
	if err := json.Unmarshal(row.Results, &c.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}

	return c, nil
}

// Save writes the full campaign state in a single statement. Checkpoints during
// a run go through here, so insert and update share one atomic upsert.
func (r *CampaignRepository) Save(ctx context.Context, c *domain.Campaign) error {
	recipients, err := json.Marshal(c.Recipients)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	results := c.Results
	if results == nil {
		results = []domain.RecipientResult{}
	}

	resultsData, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `
		INSERT INTO campaigns (
			id, name, message, media_path, media_name, recipients, status,
			scheduled_for, started_at, completed_at,
			progress_total, progress_sent, progress_failed, progress_pending,
			results, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			message = VALUES(message),
			media_path = VALUES(media_path),
			media_name = VALUES(media_name),
			recipients = VALUES(recipients),
			status = VALUES(status),
			scheduled_for = VALUES(scheduled_for),
			started_at = VALUES(started_at),
			completed_at = VALUES(completed_at),
			progress_total = VALUES(progress_total),
			progress_sent = VALUES(progress_sent),
			progress_failed = VALUES(progress_failed),
			progress_pending = VALUES(progress_pending),
			results = VALUES(results),
			error = VALUES(error)
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Message,
		nullString(c.MediaPath), nullString(c.MediaName),
		recipients, string(c.Status),
		c.ScheduledFor, c.StartedAt, c.CompletedAt,
		c.Progress.Total, c.Progress.Sent, c.Progress.Failed, c.Progress.Pending,
		resultsData, nullString(c.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := "SELECT " + campaignColumns + " FROM campaigns WHERE id = ?"

	var row campaignRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return row.toDomain()
}

func (r *CampaignRepository) GetAll(
	ctx context.Context,
	status *domain.CampaignStatus,
	page, pageSize int,
) ([]domain.Campaign, int64, error) {
	offset := (page - 1) * pageSize
	var totalCount int64
	var rows []campaignRow

	if status != nil {
		countQuery := "SELECT COUNT(*) FROM campaigns WHERE status = ?"
		if err := r.db.GetContext(ctx, &totalCount, countQuery, string(*status)); err != nil {
			return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
		}

		query := "SELECT " + campaignColumns + `
			FROM campaigns
			WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &rows, query, string(*status), pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get campaigns: %w", err)
		}
	} else {
		countQuery := "SELECT COUNT(*) FROM campaigns"
		if err := r.db.GetContext(ctx, &totalCount, countQuery); err != nil {
			return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
		}

		query := "SELECT " + campaignColumns + `
			FROM campaigns
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &rows, query, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get campaigns: %w", err)
		}
	}

	campaigns := make([]domain.Campaign, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}

	return campaigns, totalCount, nil
}

// GetScheduled returns every campaign still waiting on its timer. Used to
// rebuild timers after a restart.
func (r *CampaignRepository) GetScheduled(ctx context.Context) ([]domain.Campaign, error) {
	query := "SELECT " + campaignColumns + `
		FROM campaigns
		WHERE status = 'scheduled'
		ORDER BY scheduled_for ASC
	`

	var rows []campaignRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get scheduled campaigns: %w", err)
	}

	campaigns := make([]domain.Campaign, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}

	return campaigns, nil
}

// GetStats returns per-status campaign counts for the dashboard.
func (r *CampaignRepository) GetStats(ctx context.Context) (map[domain.CampaignStatus]int64, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM campaigns
		GROUP BY status
	`

	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	stats := make(map[domain.CampaignStatus]int64, len(rows))
	for _, row := range rows {
		stats[domain.CampaignStatus(row.Status)] = row.Count
	}

	return stats, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
