package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// Client talks to the WhatsApp HTTP gateway that fronts the actual
// WhatsApp Web session.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

type GatewayStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
}

type sendRequest struct {
	To      string        `json:"to"`
	Caption string        `json:"caption,omitempty"`
	Body    string        `json:"body,omitempty"`
	Media   *mediaPayload `json:"media,omitempty"`
}

type mediaPayload struct {
	MimeType string `json:"mimetype"`
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

type sendResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type registeredResponse struct {
	Registered bool `json:"registered"`
}

func NewClient(cfg environments.GatewayConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("x-api-key", cfg.APIKey)

	return &Client{
		httpClient: client,
		baseURL:    cfg.BaseURL,
	}
}

// Status reports the gateway's session state.
func (c *Client) Status(ctx context.Context) (*GatewayStatus, error) {
	var status GatewayStatus

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/status")
	if err != nil {
		return nil, fmt.Errorf("failed to query gateway status: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return &status, nil
}

// IsRegistered checks whether an address has an active WhatsApp account.
// Returns ErrTransportUnavailable when the gateway session is down.
func (c *Client) IsRegistered(ctx context.Context, address string) (bool, error) {
	var result registeredResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("address", address).
		Get("/numbers/{address}")
	if err != nil {
		return false, fmt.Errorf("failed to check number registration: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result.Registered, nil
	case http.StatusServiceUnavailable:
		return false, domain.ErrTransportUnavailable
	default:
		return false, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}
}

// Send delivers one message to an address. A nil media sends plain text.
// The gateway acknowledges accepted messages with 202.
func (c *Client) Send(ctx context.Context, address string, media *domain.Media, caption string) (*domain.SendReceipt, error) {
	payload := sendRequest{To: address}

	if media != nil {
		payload.Caption = caption
		payload.Media = &mediaPayload{
			MimeType: media.MimeType,
			Filename: media.Filename,
			Data:     base64.StdEncoding.EncodeToString(media.Data),
		}
	} else {
		payload.Body = caption
	}

	var sendResp sendResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&sendResp).
		Post("/messages")

	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	logger.Debugf("Gateway send to %s completed in %v (status: %d)", address, duration, resp.StatusCode())

	switch resp.StatusCode() {
	case http.StatusAccepted:
		return &domain.SendReceipt{ID: sendResp.ID, Timestamp: sendResp.Timestamp}, nil
	case http.StatusServiceUnavailable:
		return nil, domain.ErrTransportUnavailable
	default:
		return nil, fmt.Errorf("unexpected status code: %d (expected 202), body: %s", resp.StatusCode(), resp.String())
	}
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}
