package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "yariga/internal/errors"
	"yariga/internal/service"
)

// HeaderTotalCount carries the number of records matching a list query.
const HeaderTotalCount = "x-total-count"

// MessageResponse is the body returned by mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// fail converts a service error to an echo HTTP error carrying an ErrorResponse.
func fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Message: err.Error(),
		Code:    "INVALID_INPUT",
	})
}

// setTotalCount writes the x-total-count header and exposes it to browsers.
func setTotalCount(c echo.Context, total int64) {
	h := c.Response().Header()
	h.Set(HeaderTotalCount, strconv.FormatInt(total, 10))
	h.Set(echo.HeaderAccessControlExposeHeaders, HeaderTotalCount)
}

// parseWindow reads _start and _end. _end defaults to _start plus one page.
func parseWindow(c echo.Context) (int, int, error) {
	start, err := queryInt(c, "_start", 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := queryInt(c, "_end", start+service.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperrors.ErrInvalidQuery, name)
	}
	return v, nil
}
