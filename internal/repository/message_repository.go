package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

// MessageRepository handles database operations for the message log.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	id, address, COALESCE(name, '') AS name, body, direction, status,
	transport_id, error, sent_at, created_at, updated_at
`

func (r *MessageRepository) Create(ctx context.Context, msg *domain.MessageRecord) error {
	query := `
		INSERT INTO messages (id, address, name, body, direction, status, transport_id, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.Address, nullString(msg.Name), msg.Body,
		string(msg.Direction), string(msg.Status),
		msg.TransportID, msg.Error, msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message record: %w", err)
	}

	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*domain.MessageRecord, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id = ?"

	var msg domain.MessageRecord
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message record: %w", err)
	}

	return &msg, nil
}

func (r *MessageRepository) GetAll(
	ctx context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.MessageRecord, int64, error) {
	offset := (page - 1) * pageSize
	var totalCount int64
	var messages []domain.MessageRecord

	if status != nil {
		countQuery := "SELECT COUNT(*) FROM messages WHERE status = ?"
		if err := r.db.GetContext(ctx, &totalCount, countQuery, string(*status)); err != nil {
			return nil, 0, fmt.Errorf("failed to count message records: %w", err)
		}

		query := "SELECT " + messageColumns + `
			FROM messages
			WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &messages, query, string(*status), pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get message records: %w", err)
		}
	} else {
		countQuery := "SELECT COUNT(*) FROM messages"
		if err := r.db.GetContext(ctx, &totalCount, countQuery); err != nil {
			return nil, 0, fmt.Errorf("failed to count message records: %w", err)
		}

		query := "SELECT " + messageColumns + `
			FROM messages
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &messages, query, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get message records: %w", err)
		}
	}

	return messages, totalCount, nil
}

// GetByAddress returns the conversation history with one address, newest
// first.
func (r *MessageRepository) GetByAddress(ctx context.Context, address string, limit int) ([]domain.MessageRecord, error) {
	query := "SELECT " + messageColumns + `
		FROM messages
		WHERE address = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	var messages []domain.MessageRecord
	if err := r.db.SelectContext(ctx, &messages, query, address, limit); err != nil {
		return nil, fmt.Errorf("failed to get messages by address: %w", err)
	}

	return messages, nil
}

// GetStats returns per-status counts split by direction for the dashboard.
func (r *MessageRepository) GetStats(ctx context.Context) (sent, failed, received int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)     AS sent,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)   AS failed,
			COALESCE(SUM(CASE WHEN status = 'received' THEN 1 ELSE 0 END), 0) AS received
		FROM messages
	`

	var stats struct {
		Sent     int64 `db:"sent"`
		Failed   int64 `db:"failed"`
		Received int64 `db:"received"`
	}

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get message stats: %w", err)
	}

	return stats.Sent, stats.Failed, stats.Received, nil
}
