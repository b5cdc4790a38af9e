package archlist

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers archlist routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("", handler.GetArchList)
	g.POST("/compose", handler.LookupCompose)
}
