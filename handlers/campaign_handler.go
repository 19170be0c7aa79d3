package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/scheduler"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
)

type CampaignHandler struct {
	service   *service.CampaignService
	scheduler *scheduler.Scheduler
	uploadDir string
}

func NewCampaignHandler(
	campaignService *service.CampaignService,
	sched *scheduler.Scheduler,
	uploadDir string,
) *CampaignHandler {
	return &CampaignHandler{
		service:   campaignService,
		scheduler: sched,
		uploadDir: uploadDir,
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description Creates a campaign from a multipart form, optionally with a media attachment and a schedule time
// @Tags campaigns
// @Accept multipart/form-data
// @Produce json
// @Param x-api-key header string true "API key"
// @Param name formData string true "Campaign name"
// @Param message formData string true "Message template; {name} is replaced per recipient"
// @Param contactIds formData string true "JSON array of contact ids"
// @Param scheduledFor formData string false "RFC3339 time to run the campaign"
// @Param media formData file false "Attachment"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	name := c.FormValue("name")
	message := c.FormValue("message")
	if name == "" || message == "" {
		return response.BadRequest(c, fmt.Errorf("name and message are required"))
	}

	var contactIDs []string
	if raw := c.FormValue("contactIds"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &contactIDs); err != nil {
			return response.BadRequest(c, fmt.Errorf("contactIds must be a JSON array of strings"))
		}
	}
	if len(contactIDs) == 0 {
		return response.BadRequest(c, fmt.Errorf("at least one contact id is required"))
	}

	var scheduledFor *time.Time
	if raw := c.FormValue("scheduledFor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, fmt.Errorf("scheduledFor must be RFC3339"))
		}
		if parsed.Before(time.Now()) {
			return response.BadRequest(c, fmt.Errorf("scheduledFor must be in the future"))
		}
		scheduledFor = &parsed
	}

	input := service.CreateCampaignInput{
		Name:         name,
		Message:      message,
		ContactIDs:   contactIDs,
		ScheduledFor: scheduledFor,
	}

	if file, err := c.FormFile("media"); err == nil {
		src, err := file.Open()
		if err != nil {
			return response.InternalServerError(c, err)
		}

		path, err := saveUploadedFile(h.uploadDir, file.Filename, src)
		src.Close()
		if err != nil {
			return response.InternalServerError(c, err)
		}

		input.MediaPath = path
		input.MediaName = file.Filename
	}

	campaign, err := h.service.CreateCampaign(c.Request().Context(), input)
	if err != nil {
		return response.BadRequest(c, err)
	}

	if campaign.ScheduledFor != nil {
		if err := h.scheduler.Schedule(c.Request().Context(), campaign.ID, *campaign.ScheduledFor); err != nil {
			return response.InternalServerError(c, err)
		}
	}

	return response.Created(c, "Campaign created successfully", campaign)
}

// GetAllCampaigns godoc
// @Summary List campaigns
// @Description Retrieves a paginated list of campaigns with optional status filter
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) GetAllCampaigns(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.CampaignStatus
	if statusStr := c.QueryParam("status"); statusStr != "" {
		parsed := domain.CampaignStatus(statusStr)
		status = &parsed
	}

	campaigns, totalCount, err := h.service.GetAllCampaigns(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, campaigns, page, pageSize, totalCount)
}

// GetCampaign godoc
// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c echo.Context) error {
	campaign, err := h.service.GetCampaign(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if campaign == nil {
		return response.NotFound(c, "Campaign not found")
	}

	return response.Ok(c, campaign)
}

// ExecuteCampaign godoc
// @Summary Execute or resume a campaign
// @Description Starts the send loop. The loop runs in the background; progress can be polled
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Campaign ID"
// @Success 202 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/execute [post]
func (h *CampaignHandler) ExecuteCampaign(c echo.Context) error {
	id := c.Param("id")

	if err := h.service.Execute(c.Request().Context(), id); err != nil {
		switch {
		case err == domain.ErrCampaignNotFound:
			return response.NotFound(c, "Campaign not found")
		case domain.IsInvalidState(err):
			return response.Conflict(c, err)
		default:
			return response.InternalServerError(c, err)
		}
	}

	return response.Accepted(c, "Campaign execution started", map[string]any{"id": id})
}

// CancelSchedule godoc
// @Summary Cancel a scheduled campaign
// @Description Disarms the timer and marks the campaign cancelled. Only works before the timer fires
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/schedule [delete]
func (h *CampaignHandler) CancelSchedule(c echo.Context) error {
	id := c.Param("id")

	if err := h.service.CancelSchedule(c.Request().Context(), id); err != nil {
		switch {
		case err == domain.ErrCampaignNotFound:
			return response.NotFound(c, "Campaign not found")
		case domain.IsInvalidState(err):
			return response.Conflict(c, err)
		default:
			return response.InternalServerError(c, err)
		}
	}

	h.scheduler.Cancel(id)

	return response.OkWithMessage(c, "Schedule cancelled", map[string]any{"id": id})
}

// GetScheduled godoc
// @Summary List scheduled campaigns
// @Description Returns campaigns waiting on a timer, with the ids currently armed in memory
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/scheduled [get]
func (h *CampaignHandler) GetScheduled(c echo.Context) error {
	campaigns, err := h.service.GetScheduledCampaigns(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"campaigns": campaigns,
		"armed":     h.scheduler.Scheduled(),
	})
}

// GetProgress godoc
// @Summary Get campaign progress
// @Description Returns the latest progress snapshot, served from cache while the campaign runs
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/progress [get]
func (h *CampaignHandler) GetProgress(c echo.Context) error {
	snapshot, err := h.service.GetProgress(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == domain.ErrCampaignNotFound {
			return response.NotFound(c, "Campaign not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, snapshot)
}

// GetReport godoc
// @Summary Download a campaign delivery report
// @Description Streams the per-recipient results as CSV
// @Tags campaigns
// @Produce text/csv
// @Param x-api-key header string true "API key"
// @Param id path string true "Campaign ID"
// @Success 200 {string} string "CSV report"
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/report [get]
func (h *CampaignHandler) GetReport(c echo.Context) error {
	campaign, err := h.service.GetCampaign(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if campaign == nil {
		return response.NotFound(c, "Campaign not found")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="campaign_%s_report.csv"`, campaign.ID))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"contactId", "name", "phone", "status", "messageId", "error", "timestamp"}); err != nil {
		return err
	}

	for _, result := range campaign.Results {
		row := []string{
			result.ContactID,
			result.Name,
			result.Phone,
			string(result.Status),
			result.MessageID,
			result.Error,
			result.Timestamp.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	// Page
	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	// Page size
	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}

func saveUploadedFile(uploadDir, originalName string, src io.Reader) (string, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(originalName))
	path := filepath.Join(uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return path, nil
}
