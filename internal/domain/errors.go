package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrFlowNotFound     = errors.New("flow not found")
	ErrStepNotFound     = errors.New("step not found")
	ErrOptionNotFound   = errors.New("option not found")

	ErrFileNotFound    = errors.New("media file not found")
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrTransportUnavailable means the underlying messaging connection is not
	// ready. Callers treat it as a recipient-level failure, never as a reason
	// to abort a whole campaign.
	ErrTransportUnavailable = errors.New("transport unavailable")
)

// InvalidStateError rejects an operation on a campaign whose status does not
// allow it. The operation performs no side effect.
type InvalidStateError struct {
	CampaignID string
	Status     CampaignStatus
	Operation  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("campaign %s cannot be %s in status %q", e.CampaignID, e.Operation, e.Status)
}

// IsInvalidState reports whether err is a state-violation rejection.
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

// DeliveryExhaustedError means every attempt of the send-fallback ladder
// failed; Last carries the final underlying transport error.
type DeliveryExhaustedError struct {
	Last error
}

func (e *DeliveryExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("all delivery attempts failed: %v", e.Last)
	}
	return "all delivery attempts failed"
}

func (e *DeliveryExhaustedError) Unwrap() error { return e.Last }

// MediaTooLargeError rejects attachments above the transport's size ceiling.
type MediaTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *MediaTooLargeError) Error() string {
	return fmt.Sprintf("media file too large: %d bytes (limit %d)", e.Size, e.Limit)
}
