package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionHeader carries the server version on API responses
const VersionHeader = "X-Mquery-API-Version"

// VersionMiddleware adds the X-Mquery-API-Version header to all responses
func VersionMiddleware(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(VersionHeader, version)
			return next(c)
		}
	}
}
