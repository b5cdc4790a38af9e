package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	archlistapi "github.com/mquery-dev/api/internal/api/archlist"
	"github.com/mquery-dev/api/internal/api/common"
	"github.com/mquery-dev/api/internal/middleware"
	"github.com/mquery-dev/api/pkg/logging"
)

// VersionInfo contains build version information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator installed on echo
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate validates the struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Server represents the API server
type Server struct {
	echo        *echo.Echo
	instanceID  string
	port        string
	versionInfo *VersionInfo
}

// New creates a new API server instance and registers its routes
func New(
	e *echo.Echo,
	service archlistapi.Querier,
	instanceID string, // API instance ID for verification
	port string,
	versionInfo *VersionInfo, // Version information for /version endpoint
) *Server {
	srv := &Server{
		echo:        e,
		instanceID:  instanceID,
		port:        port,
		versionInfo: versionInfo,
	}

	archlistHandler := archlistapi.NewHandler(service)

	api := e.Group("/api/v1")
	api.Use(middleware.VersionMiddleware(srv.versionInfo.Version))

	archlistapi.RegisterRoutes(api.Group("/archlist"), archlistHandler)
	api.GET("/version", srv.handleVersion)

	// Health check (for load balancers/probes)
	// Supports ?info=true to return the API instance ID
	e.GET("/health", srv.handleHealth)

	return srv
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	if c.QueryParam("info") == "true" {
		return c.JSON(http.StatusOK, common.HealthInfo{APIID: s.instanceID})
	}
	return c.NoContent(http.StatusOK)
}

// handleVersion returns version information for client compatibility checks
func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, s.versionInfo)
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	port := ":" + s.port
	logging.Logger.Info("Starting server", zap.String("port", port))
	if err := s.echo.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
