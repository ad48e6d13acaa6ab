package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/speech-insights/errors"
	"github.com/johnquangdev/speech-insights/pkg/jwt"
)

const (
	// ClaimsContextKey holds the *jwt.Claims of the authenticated client
	ClaimsContextKey = "claims"
	// ClientIDContextKey holds the authenticated client id
	ClientIDContextKey = "client_id"
)

// EchoAuth returns an Echo middleware that validates a bearer service token.
// A nil manager disables authentication. Failures are returned as AppErrors
// for the server's error handler to render.
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if manager == nil {
			return next
		}
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return apperrors.ErrUnauthenticated()
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apperrors.ErrTokenExpired()
				}
				return apperrors.ErrInvalidToken()
			}

			c.Set(ClaimsContextKey, claims)
			c.Set(ClientIDContextKey, claims.ClientID)

			return next(c)
		}
	}
}

// RequireScope rejects clients whose token lacks scope
func RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
			if ok && !claims.HasScope(scope) {
				return apperrors.ErrInsufficientScope(scope)
			}
			return next(c)
		}
	}
}

func extractToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
