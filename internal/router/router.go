package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"yariga/internal/auth"
	"yariga/internal/config"
	apperrors "yariga/internal/errors"
	"yariga/internal/handler"
	"yariga/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Property *handler.PropertyHandler
	User     *handler.UserHandler
	Health   *handler.HealthHandler
}

// Register wires routes and middleware. m may be nil to disable metrics.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	m *metrics.Metrics,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders: []string{handler.HeaderTotalCount},
	}))
	e.Use(requestLogger())
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(auth.OptionalSession(jwtService))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", h.Health.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")

	var mutating []echo.MiddlewareFunc
	if cfg.RequireAuth {
		mutating = append(mutating, auth.RequireSession(jwtService))
	}

	// Property routes
	api.GET("/properties", h.Property.ListProperties)
	api.GET("/properties/:id", h.Property.GetProperty)
	api.POST("/properties", h.Property.CreateProperty, mutating...)
	api.PATCH("/properties/:id", h.Property.UpdateProperty, mutating...)
	api.DELETE("/properties/:id", h.Property.DeleteProperty, mutating...)

	// User routes
	api.POST("/users", h.User.CreateUser, loginRateLimiter(cfg.RateLimit))
	api.GET("/users", h.User.ListUsers)
	api.GET("/users/:id", h.User.GetUser)
}

// loginRateLimiter throttles sign-ins per client IP. A non-positive limit
// disables it.
func loginRateLimiter(rps float64) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(rps)),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Message: "too many sign-in attempts",
				Code:    "RATE_LIMITED",
			})
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
