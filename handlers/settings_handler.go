package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
)

type SettingsHandler struct {
	service *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: settingsService}
}

// GetSettings godoc
// @Summary Get bot settings
// @Tags settings
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.service.Get(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, settings)
}

// UpdateSettings godoc
// @Summary Update bot settings
// @Description Replaces the settings document. Working hours, timezone and delay are validated
// @Tags settings
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param settings body domain.Settings true "New settings"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/settings [put]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var settings domain.Settings
	if err := c.Bind(&settings); err != nil {
		return response.BadRequest(c, err)
	}

	updated, err := h.service.Update(c.Request().Context(), &settings)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Settings updated successfully", updated)
}
