package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "yariga/internal/errors"
	"yariga/internal/model"
	"yariga/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// LoginRequest is the profile decoded from the identity provider credential.
type LoginRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

// LoginResponse is the stored user plus a session token.
type LoginResponse struct {
	*model.User
	Token string `json:"token"`
}

// MarshalJSON flattens the user fields next to the token.
func (r LoginResponse) MarshalJSON() ([]byte, error) {
	return marshalWithToken(r.User, r.Token)
}

// CreateUser godoc
// @Summary Sign in a user, creating it on first sign-in
// @Tags users
// @Accept json
// @Produce json
// @Param user body LoginRequest true "User profile"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err)
	}

	user, token, err := h.svc.Login(c.Request().Context(), service.Profile{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, LoginResponse{User: user, Token: token})
}

// GetUser godoc
// @Summary Get user by id with its properties
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperrors.ErrUserNotFound)
	}
	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param _start query int false "Window start offset"
// @Param _end query int false "Window end offset (exclusive)"
// @Success 200 {array} model.User
// @Header 200 {integer} x-total-count "Number of users"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	start, end, err := parseWindow(c)
	if err != nil {
		return fail(c, err)
	}
	users, total, err := h.svc.List(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, err)
	}
	setTotalCount(c, total)
	return c.JSON(http.StatusOK, users)
}

func marshalWithToken(user *model.User, token string) ([]byte, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields["token"], err = json.Marshal(token); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
