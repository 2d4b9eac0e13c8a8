package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the caller's session claims.
func WithSession(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, sessionKey{}, claims)
}

// SessionFromContext returns the session claims stored by WithSession.
func SessionFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(sessionKey{}).(*Claims)
	return claims, ok && claims != nil
}

// OptionalSession attaches the claims of a valid bearer token to the request
// context. Requests without a token, or with an invalid one, pass through
// anonymously.
func OptionalSession(jwtService *JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if ok {
				if claims, err := jwtService.ValidateToken(raw); err == nil {
					req := c.Request()
					c.SetRequest(req.WithContext(WithSession(req.Context(), claims)))
				}
			}
			return next(c)
		}
	}
}

// RequireSession rejects requests without a valid bearer token and attaches
// the claims of accepted ones to the request context.
func RequireSession(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.SigningKey(),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			if claims, ok := token.Claims.(*Claims); ok {
				req := c.Request()
				c.SetRequest(req.WithContext(WithSession(req.Context(), claims)))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
				"message": "missing or invalid session token",
				"code":    "UNAUTHORIZED",
			})
		},
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
