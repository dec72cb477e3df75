package httpapi

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// bearerAuth admits requests carrying "Authorization: Bearer <secret>".
func bearerAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				return Unauthorized(c, "INVALID_TOKEN", "Invalid token format, must be Bearer token")
			}
			if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return Unauthorized(c, "INVALID_TOKEN", "Invalid token")
			}
			return next(c)
		}
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := logrus.Fields{
				"method":     req.Method,
				"path":       c.Path(),
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
			}
			entry := logger.WithFields(fields)
			if err != nil {
				entry.WithError(err).Warn("Request failed")
			} else {
				entry.Debug("Request handled")
			}
			return nil
		}
	}
}
