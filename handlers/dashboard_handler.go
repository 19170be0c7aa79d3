package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
)

type contactCounter interface {
	Count(ctx context.Context) (int64, error)
}

// DashboardHandler aggregates the counters the admin UI shows on its landing
// page.
type DashboardHandler struct {
	campaigns *service.CampaignService
	messages  *service.MessageService
	contacts  contactCounter
}

func NewDashboardHandler(
	campaignService *service.CampaignService,
	messageService *service.MessageService,
	contacts contactCounter,
) *DashboardHandler {
	return &DashboardHandler{
		campaigns: campaignService,
		messages:  messageService,
		contacts:  contacts,
	}
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Campaign counts by status, message counts by status and the contact total
// @Tags dashboard
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/dashboard/stats [get]
func (h *DashboardHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	campaignStats, err := h.campaigns.GetStats(ctx)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	sent, failed, received, err := h.messages.GetStats(ctx)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	contactCount, err := h.contacts.Count(ctx)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	var campaignTotal int64
	byStatus := make(map[string]int64, len(campaignStats))
	for status, count := range campaignStats {
		byStatus[string(status)] = count
		campaignTotal += count
	}

	return response.Ok(c, map[string]any{
		"campaigns": map[string]any{
			"total":    campaignTotal,
			"byStatus": byStatus,
			"running":  campaignStats[domain.CampaignRunning],
		},
		"messages": map[string]any{
			"sent":     sent,
			"failed":   failed,
			"received": received,
		},
		"contacts": map[string]any{
			"total": contactCount,
		},
	})
}
