package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
	"github.com/jdcera4/pruebaBot/pkg/validator"
)

type FlowHandler struct {
	service *service.FlowService
}

func NewFlowHandler(flowService *service.FlowService) *FlowHandler {
	return &FlowHandler{service: flowService}
}

type SaveFlowRequest struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description" validate:"max=1000"`
	Steps       []domain.Step `json:"steps" validate:"required,min=1"`
}

type ResolveStepRequest struct {
	FlowID   string `json:"flowId" validate:"required"`
	StepID   string `json:"stepId" validate:"required"`
	OptionID string `json:"optionId" validate:"required"`
}

// CreateFlow godoc
// @Summary Create a conversational flow
// @Description Creates a dialogue tree. Every nextStepId must reference an existing step
// @Tags flows
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param flow body SaveFlowRequest true "Flow definition"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows [post]
func (h *FlowHandler) CreateFlow(c echo.Context) error {
	var req SaveFlowRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	flow, err := h.service.CreateFlow(c.Request().Context(), req.Name, req.Description, req.Steps)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.Created(c, "Flow created successfully", flow)
}

// UpdateFlow godoc
// @Summary Update a flow
// @Tags flows
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Flow ID"
// @Param flow body SaveFlowRequest true "Flow definition"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/{id} [put]
func (h *FlowHandler) UpdateFlow(c echo.Context) error {
	var req SaveFlowRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	flow, err := h.service.UpdateFlow(c.Request().Context(), c.Param("id"), req.Name, req.Description, req.Steps)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			return response.NotFound(c, "Flow not found")
		}
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Flow updated successfully", flow)
}

// GetAllFlows godoc
// @Summary List flows
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows [get]
func (h *FlowHandler) GetAllFlows(c echo.Context) error {
	flows, err := h.service.GetAllFlows(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, flows)
}

// GetActiveFlow godoc
// @Summary Get the active flow
// @Description Returns the flow currently serving as the live conversation script, if any
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/active [get]
func (h *FlowHandler) GetActiveFlow(c echo.Context) error {
	flow, err := h.service.GetActiveFlow(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if flow == nil {
		return response.NotFound(c, "No active flow")
	}

	return response.Ok(c, flow)
}

// GetFlow godoc
// @Summary Get a flow
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Flow ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/{id} [get]
func (h *FlowHandler) GetFlow(c echo.Context) error {
	flow, err := h.service.GetFlow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if flow == nil {
		return response.NotFound(c, "Flow not found")
	}

	return response.Ok(c, flow)
}

// ActivateFlow godoc
// @Summary Activate a flow
// @Description Makes this flow the live conversation script. Any other active flow is deactivated
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Flow ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/{id}/activate [post]
func (h *FlowHandler) ActivateFlow(c echo.Context) error {
	flow, err := h.service.Activate(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			return response.NotFound(c, "Flow not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Flow activated", flow)
}

// DeleteFlow godoc
// @Summary Delete a flow
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Flow ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/{id} [delete]
func (h *FlowHandler) DeleteFlow(c echo.Context) error {
	if err := h.service.DeleteFlow(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			return response.NotFound(c, "Flow not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Flow deleted successfully", nil)
}

// DeleteStep godoc
// @Summary Delete a step from a flow
// @Description Removes a step. Rejected while another step's option still points at it
// @Tags flows
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Flow ID"
// @Param stepId path string true "Step ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/flows/{id}/steps/{stepId} [delete]
func (h *FlowHandler) DeleteStep(c echo.Context) error {
	flow, err := h.service.DeleteStep(c.Request().Context(), c.Param("id"), c.Param("stepId"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFlowNotFound):
			return response.NotFound(c, "Flow not found")
		case errors.Is(err, domain.ErrStepNotFound):
			return response.NotFound(c, "Step not found")
		default:
			return response.BadRequest(c, err)
		}
	}

	return response.OkWithMessage(c, "Step deleted", flow)
}

// ResolveStep godoc
// @Summary Resolve one conversation turn
// @Description Evaluates a user's option choice and returns the response message plus the next step, if any
// @Tags flows
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param turn body ResolveStepRequest true "Flow, step and chosen option"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/conversation/next [post]
func (h *FlowHandler) ResolveStep(c echo.Context) error {
	var req ResolveStepRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	resolution, err := h.service.Resolve(c.Request().Context(), req.FlowID, req.StepID, req.OptionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFlowNotFound):
			return response.NotFound(c, "Flow not found")
		case errors.Is(err, domain.ErrStepNotFound):
			return response.NotFound(c, "Step not found")
		case errors.Is(err, domain.ErrOptionNotFound):
			return response.NotFound(c, "Option not found")
		default:
			return response.InternalServerError(c, err)
		}
	}

	return response.Ok(c, resolution)
}
