package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fadedpez/vaultspin/internal/logging"
	"github.com/fadedpez/vaultspin/pkg/auth"
)

const (
	headerRequestID    = "X-Request-Id"
	headerSessionToken = "X-Session-Token"

	ctxRequestID = "request_id"
	ctxSession   = "session"
)

// RequestIDMiddleware ensures every request carries a unique X-Request-Id
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set(ctxRequestID, id)
			return next(c)
		}
	}
}

// LoggingMiddleware logs each request with latency and status
func LoggingMiddleware(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("[HTTP] %s %s -> %d (%dms) request_id=%v",
				c.Request().Method,
				c.Request().URL.Path,
				c.Response().Status,
				time.Since(start).Milliseconds(),
				c.Get(ctxRequestID),
			)
			return err
		}
	}
}

// AuthMiddleware resolves the session token and stores the session on the
// request context. Tokens come from the Authorization bearer header or, for
// browser clients, the X-Session-Token header.
func AuthMiddleware(svc auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				token = c.Request().Header.Get(headerSessionToken)
			}

			session, err := svc.Authenticate(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			}

			c.Set(ctxSession, session)
			return next(c)
		}
	}
}

// sessionFrom retrieves the session the auth middleware stored
func sessionFrom(c echo.Context) (*auth.Session, bool) {
	session, ok := c.Get(ctxSession).(*auth.Session)
	return session, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
