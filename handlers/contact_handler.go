package handlers

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/response"
	"github.com/jdcera4/pruebaBot/pkg/validator"
)

type ContactHandler struct {
	service *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{service: contactService}
}

type CreateContactRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

type UpdateContactRequest struct {
	Name  string `json:"name" validate:"omitempty,max=255"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateContact godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param contact body CreateContactRequest true "Contact to create"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c echo.Context) error {
	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	contact, err := h.service.CreateContact(c.Request().Context(), req.Name, req.Phone, req.Email)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.Created(c, "Contact created successfully", contact)
}

// GetAllContacts godoc
// @Summary List contacts
// @Tags contacts
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts [get]
func (h *ContactHandler) GetAllContacts(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	contacts, totalCount, err := h.service.GetAllContacts(c.Request().Context(), page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, contacts, page, pageSize, totalCount)
}

// GetContact godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Contact ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c echo.Context) error {
	contact, err := h.service.GetContact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if contact == nil {
		return response.NotFound(c, "Contact not found")
	}

	return response.Ok(c, contact)
}

// UpdateContact godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Contact ID"
// @Param contact body UpdateContactRequest true "Fields to update"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	var req UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	contact, err := h.service.UpdateContact(c.Request().Context(), c.Param("id"), req.Name, req.Phone, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrContactNotFound) {
			return response.NotFound(c, "Contact not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Contact updated successfully", contact)
}

// DeleteContact godoc
// @Summary Delete a contact
// @Tags contacts
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Contact ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c echo.Context) error {
	if err := h.service.DeleteContact(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrContactNotFound) {
			return response.NotFound(c, "Contact not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Contact deleted successfully", nil)
}

// ImportContacts godoc
// @Summary Import contacts from Excel
// @Description Reads contacts from the first sheet of an uploaded xlsx workbook. Duplicate phones are skipped
// @Tags contacts
// @Accept multipart/form-data
// @Produce json
// @Param x-api-key header string true "API key"
// @Param file formData file true "xlsx workbook with name and phone columns"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contacts/import [post]
func (h *ContactHandler) ImportContacts(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("file field is required"))
	}

	src, err := file.Open()
	if err != nil {
		return response.InternalServerError(c, err)
	}
	defer src.Close()

	result, err := h.service.ImportFromExcel(c.Request().Context(), src)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Import finished", result)
}
