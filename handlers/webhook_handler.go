package handlers

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/pkg/response"
	"github.com/jdcera4/pruebaBot/pkg/whatsapp"
)

// WebhookHandler receives session events pushed by the WhatsApp gateway and
// fans them out through the events hub.
type WebhookHandler struct {
	events *whatsapp.Events
}

func NewWebhookHandler(events *whatsapp.Events) *WebhookHandler {
	return &WebhookHandler{events: events}
}

type GatewayEventRequest struct {
	Event   string `json:"event" validate:"required"`
	Reason  string `json:"reason"`
	Message *struct {
		FromAddress string    `json:"fromAddress"`
		FromName    string    `json:"fromName"`
		Body        string    `json:"body"`
		IsSelf      bool      `json:"isSelf"`
		ReceivedAt  time.Time `json:"receivedAt"`
	} `json:"message"`
}

// HandleEvent godoc
// @Summary Receive a gateway session event
// @Description Entry point for the gateway's webhook: inbound messages, session ready and disconnects
// @Tags webhooks
// @Accept json
// @Produce json
// @Param x-api-key header string true "Webhook API key"
// @Param event body GatewayEventRequest true "Gateway event"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /webhooks/whatsapp [post]
func (h *WebhookHandler) HandleEvent(c echo.Context) error {
	var req GatewayEventRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	switch req.Event {
	case "message":
		if req.Message == nil {
			return response.BadRequest(c, fmt.Errorf("message event without a message body"))
		}

		msg := whatsapp.InboundMessage{
			FromAddress: req.Message.FromAddress,
			FromName:    req.Message.FromName,
			Body:        req.Message.Body,
			IsSelf:      req.Message.IsSelf,
			ReceivedAt:  req.Message.ReceivedAt,
		}
		if msg.ReceivedAt.IsZero() {
			msg.ReceivedAt = time.Now()
		}

		h.events.PublishInbound(msg)

	case "ready":
		h.events.PublishReady()

	case "disconnected":
		h.events.PublishDisconnected(req.Reason)

	default:
		return response.BadRequest(c, fmt.Errorf("unknown event %q", req.Event))
	}

	return response.Ok(c, map[string]any{"received": req.Event})
}
