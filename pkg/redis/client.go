package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	campaignProgressKeyPrefix = "campaign_progress:"
	campaignProgressTTL       = 24 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// CacheProgress stores the latest progress snapshot for a campaign so status
// polls do not have to hit MySQL between checkpoints.
func (c *Client) CacheProgress(ctx context.Context, campaignID string, snapshot domain.ProgressSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal progress snapshot: %w", err)
	}

	key := campaignProgressKeyPrefix + campaignID

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(campaignProgressTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache campaign progress: %w", err)
	}

	logger.Debugf("Cached progress for campaign %s: %d/%d", campaignID, snapshot.Progress.Sent+snapshot.Progress.Failed, snapshot.Progress.Total)

	return nil
}

func (c *Client) GetProgress(ctx context.Context, campaignID string) (*domain.ProgressSnapshot, error) {
	key := campaignProgressKeyPrefix + campaignID

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached progress: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached progress: %w", err)
	}

	var snapshot domain.ProgressSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress snapshot: %w", err)
	}

	return &snapshot, nil
}

func (c *Client) DeleteProgress(ctx context.Context, campaignID string) error {
	key := campaignProgressKeyPrefix + campaignID

	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
