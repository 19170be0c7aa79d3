package domain

import "time"

type MessageStatus string

const (
	StatusPending  MessageStatus = "pending"
	StatusSent     MessageStatus = "sent"
	StatusFailed   MessageStatus = "failed"
	StatusReceived MessageStatus = "received"
)

type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// MessageRecord is one entry of the message log: individual outbound sends,
// auto-replies, and inbound messages delivered by the transport.
type MessageRecord struct {
	ID          string           `db:"id" json:"id"`
	Address     string           `db:"address" json:"address"`
	Name        string           `db:"name" json:"name,omitempty"`
	Body        string           `db:"body" json:"body"`
	Direction   MessageDirection `db:"direction" json:"direction"`
	Status      MessageStatus    `db:"status" json:"status"`
	TransportID *string          `db:"transport_id" json:"transportId,omitempty"`
	Error       *string          `db:"error" json:"error,omitempty"`
	SentAt      *time.Time       `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// SendReceipt is the transport's acknowledgment of a delivered message.
type SendReceipt struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}
