package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
	"github.com/jdcera4/pruebaBot/pkg/validator"
)

type MessageHandler struct {
	service   *service.MessageService
	uploadDir string
}

func NewMessageHandler(messageService *service.MessageService, uploadDir string) *MessageHandler {
	return &MessageHandler{service: messageService, uploadDir: uploadDir}
}

type SendMessageRequest struct {
	Phone   string `json:"phone" form:"phone" validate:"required,phone"`
	Message string `json:"message" form:"message" validate:"required,max=4096"`
}

// SendMessage godoc
// @Summary Send an individual message
// @Description Sends one message immediately, outside any campaign. Accepts JSON, or multipart when attaching media
// @Tags messages
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param x-api-key header string true "API key"
// @Param message body SendMessageRequest true "Message to send"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/send [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	var mediaPath, mediaName string
	if file, err := c.FormFile("media"); err == nil {
		src, err := file.Open()
		if err != nil {
			return response.InternalServerError(c, err)
		}

		mediaPath, err = saveUploadedFile(h.uploadDir, file.Filename, src)
		src.Close()
		if err != nil {
			return response.InternalServerError(c, err)
		}
		mediaName = file.Filename
	}

	record, err := h.service.SendMessage(c.Request().Context(), req.Phone, req.Message, mediaPath, mediaName)
	if err != nil {
		if errors.Is(err, domain.ErrTransportUnavailable) {
			return response.ServiceUnavailable(c, "WhatsApp is not connected")
		}
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Message sent successfully", record)
}

// GetAllMessages godoc
// @Summary Get the message log
// @Description Retrieves a paginated list of logged messages with optional status filter
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (pending, sent, failed, received)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetAllMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.MessageStatus
	if statusStr := c.QueryParam("status"); statusStr != "" {
		parsed := domain.MessageStatus(statusStr)
		status = &parsed
	}

	messages, totalCount, err := h.service.GetAllMessages(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetConversation godoc
// @Summary Get the conversation with one number
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Param phone path string true "Phone number"
// @Param limit query int false "Maximum messages to return (default: 50)"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/conversation/{phone} [get]
func (h *MessageHandler) GetConversation(c echo.Context) error {
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > 500 {
			return response.BadRequest(c, fmt.Errorf("limit must be between 1 and 500"))
		}
		limit = parsed
	}

	messages, err := h.service.GetConversation(c.Request().Context(), c.Param("phone"), limit)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, messages)
}

// GetStats godoc
// @Summary Get message statistics
// @Description Returns count of logged messages by status
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/stats [get]
func (h *MessageHandler) GetStats(c echo.Context) error {
	sent, failed, received, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"sent":     sent,
		"failed":   failed,
		"received": received,
		"total":    sent + failed + received,
	})
}
