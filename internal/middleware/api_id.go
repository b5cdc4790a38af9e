package middleware

import (
	"github.com/labstack/echo/v4"
)

// APIIDHeader identifies the answering API instance
const APIIDHeader = "X-Mquery-API-ID"

// APIIDMiddleware adds the X-Mquery-API-ID header to all responses
// This allows CLI clients to verify they're talking to the correct API instance
func APIIDMiddleware(instanceID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(APIIDHeader, instanceID)
			return next(c)
		}
	}
}
