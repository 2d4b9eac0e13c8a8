package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"yariga/internal/auth"
	apperrors "yariga/internal/errors"
	"yariga/internal/service"
)

// PropertyHandler handles property listing endpoints.
type PropertyHandler struct {
	svc service.PropertyService
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(svc service.PropertyService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

// CreatePropertyRequest represents a new listing. Email may be omitted when
// the request carries a session token.
type CreatePropertyRequest struct {
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	PropertyType string          `json:"propertyType" validate:"required"`
	Location     string          `json:"location" validate:"required"`
	Price        decimal.Decimal `json:"price" swaggertype:"number"`
	Photo        string          `json:"photo" validate:"required"`
	Email        string          `json:"email" validate:"omitempty,email"`
}

// UpdatePropertyRequest represents a partial update.
type UpdatePropertyRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	PropertyType *string          `json:"propertyType"`
	Location     *string          `json:"location"`
	Price        *decimal.Decimal `json:"price" swaggertype:"number"`
	Photo        *string          `json:"photo"`
}

// ListProperties godoc
// @Summary List properties
// @Tags properties
// @Produce json
// @Param _start query int false "Window start offset"
// @Param _end query int false "Window end offset (exclusive)"
// @Param _sort query string false "Sort field"
// @Param _order query string false "asc or desc"
// @Param title_like query string false "Case-insensitive title substring"
// @Param propertyType query string false "Exact property type"
// @Success 200 {array} model.Property
// @Header 200 {integer} x-total-count "Number of matching properties"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /properties [get]
func (h *PropertyHandler) ListProperties(c echo.Context) error {
	start, end, err := parseWindow(c)
	if err != nil {
		return fail(c, err)
	}

	properties, total, err := h.svc.List(c.Request().Context(), service.ListQuery{
		Start:        start,
		End:          end,
		Sort:         c.QueryParam("_sort"),
		Order:        c.QueryParam("_order"),
		TitleLike:    c.QueryParam("title_like"),
		PropertyType: c.QueryParam("propertyType"),
	})
	if err != nil {
		return fail(c, err)
	}

	setTotalCount(c, total)
	return c.JSON(http.StatusOK, properties)
}

// GetProperty godoc
// @Summary Get property details
// @Tags properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} model.Property
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /properties/{id} [get]
func (h *PropertyHandler) GetProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperrors.ErrPropertyNotFound)
	}

	property, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// CreateProperty godoc
// @Summary Create a property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePropertyRequest true "Property data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /properties [post]
func (h *PropertyHandler) CreateProperty(c echo.Context) error {
	var req CreatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}

	email := req.Email
	if email == "" {
		if claims, ok := auth.SessionFromContext(c.Request().Context()); ok {
			email = claims.Email
		}
	}

	_, err := h.svc.Create(c.Request().Context(), service.CreatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Location:     req.Location,
		Price:        req.Price,
		Photo:        req.Photo,
		Email:        email,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Property created successfully"})
}

// UpdateProperty godoc
// @Summary Update a property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param request body UpdatePropertyRequest true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /properties/{id} [patch]
func (h *PropertyHandler) UpdateProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperrors.ErrPropertyNotFound)
	}

	var req UpdatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}

	_, err = h.svc.Update(c.Request().Context(), id, service.UpdatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Location:     req.Location,
		Price:        req.Price,
		Photo:        req.Photo,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Property updated successfully"})
}

// DeleteProperty godoc
// @Summary Delete a property
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /properties/{id} [delete]
func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperrors.ErrPropertyNotFound)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Property deleted successfully"})
}
