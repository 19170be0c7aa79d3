package domain

import "time"

type CampaignStatus string

const (
	CampaignCreated   CampaignStatus = "created"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignRunning   CampaignStatus = "running"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether the status is final; a terminal campaign is never
// executed again.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignFailed || s == CampaignCancelled
}

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// RecipientSnapshot is a contact frozen at campaign-creation time. Later edits
// to the contact directory do not affect an in-flight or historical campaign.
type RecipientSnapshot struct {
	ContactID string `json:"contactId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// Progress tracks per-recipient accounting. Total == Sent + Failed + Pending
// holds after every processed recipient.
type Progress struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// RecipientResult is one entry of a campaign's result log.
type RecipientResult struct {
	ContactID string         `json:"contactId"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Status    DeliveryStatus `json:"status"`
	MessageID string         `json:"messageId,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Campaign struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Message      string              `json:"message"`
	MediaPath    string              `json:"mediaPath,omitempty"`
	MediaName    string              `json:"mediaName,omitempty"`
	Recipients   []RecipientSnapshot `json:"recipients"`
	Status       CampaignStatus      `json:"status"`
	ScheduledFor *time.Time          `json:"scheduledFor,omitempty"`
	StartedAt    *time.Time          `json:"startedAt,omitempty"`
	CompletedAt  *time.Time          `json:"completedAt,omitempty"`
	Progress     Progress            `json:"progress"`
	Results      []RecipientResult   `json:"results"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// ProgressSnapshot is the cached view of a running campaign served to status
// polls without a database round trip.
type ProgressSnapshot struct {
	Status   CampaignStatus `json:"status"`
	Progress Progress       `json:"progress"`
	CachedAt time.Time      `json:"cachedAt"`
}

// ResultFor returns the logged result for a contact, or nil if the recipient
// has not been processed yet.
func (c *Campaign) ResultFor(contactID string) *RecipientResult {
	for i := range c.Results {
		if c.Results[i].ContactID == contactID {
			return &c.Results[i]
		}
	}
	return nil
}
