package archlist

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mquery-dev/api/internal/api/common"
	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/compose"
	"github.com/mquery-dev/api/pkg/logging"
	"github.com/mquery-dev/api/pkg/response"
)

// Querier answers a single image platform query
type Querier interface {
	Query(ctx context.Context, req archlist.Request) (*archlist.CacheEntry, error)
}

// Handler handles image platform lookups
type Handler struct {
	service Querier
}

// NewHandler creates a new archlist handler
func NewHandler(service Querier) *Handler {
	return &Handler{service: service}
}

// GetArchList handles GET /archlist?image=<ref>
func (h *Handler) GetArchList(c echo.Context) error {
	var req archlist.Request
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	entry, err := h.service.Query(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, req.Image, err)
	}
	return response.OK(c, entry)
}

// composeLookupConcurrency bounds the image lookups of one compose request
const composeLookupConcurrency = 4

// LookupCompose handles POST /archlist/compose.
// Service images are looked up concurrently, so the request deadline bounds
// the slowest lookup rather than their sum. Results keep service name order;
// a failed lookup is reported on its own result and does not fail the request.
func (h *Handler) LookupCompose(c echo.Context) error {
	var req common.ComposeLookupRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	validation := compose.ValidateCompose(ctx, req.Compose)
	if !validation.Valid {
		logging.Logger.Warn("Rejected compose lookup", zap.Strings("errors", validation.Errors))
		return response.BadRequest(c, validation.Errors[0])
	}

	images := validation.Images
	logging.Logger.Info("Compose lookup request",
		zap.Int("images", len(images.Images)),
		zap.Strings("skipped", images.Skipped),
		zap.Int("warnings", len(validation.Warnings)))

	results := make([]common.ServiceLookupResult, len(images.Images))
	var g errgroup.Group
	g.SetLimit(composeLookupConcurrency)
	for i, si := range images.Images {
		g.Go(func() error {
			results[i] = h.lookupService(ctx, si)
			return nil
		})
	}
	_ = g.Wait()

	return response.OK(c, common.ComposeLookupResponse{
		Results:  results,
		Skipped:  images.Skipped,
		Warnings: validation.Warnings,
	})
}

func (h *Handler) writeError(c echo.Context, image string, err error) error {
	if errors.Is(err, archlist.ErrValidation) {
		return response.BadRequest(c, err.Error())
	}

	var inspectErr *archlist.InspectionError
	if errors.As(err, &inspectErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return response.GatewayTimeout(c, err.Error())
		}
		return response.BadGateway(c, err.Error())
	}

	logging.Logger.Error("Image lookup failed",
		zap.String("image", image),
		zap.Error(err))
	return response.InternalServerError(c, err.Error())
}

func (h *Handler) lookupService(ctx context.Context, si compose.ServiceImage) common.ServiceLookupResult {
	result := common.ServiceLookupResult{Service: si.Service, Image: si.Image}

	entry, err := h.service.Query(ctx, archlist.Request{Image: si.Image})
	if err != nil {
		logging.Logger.Warn("Compose service lookup failed",
			zap.String("service", si.Service),
			zap.String("image", si.Image),
			zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Payload = entry
	return result
}
