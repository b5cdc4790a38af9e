package archlist

import (
	"context"
	"errors"
	"time"

	"github.com/mquery-dev/api/pkg/logging"
	"github.com/mquery-dev/api/pkg/store"
	"go.uber.org/zap"
)

// Request is one image platform query
type Request struct {
	Image string `json:"image" query:"image"`
}

// Service answers image platform queries from the cache, refreshing through the inspector
type Service struct {
	reader     *Reader
	summarizer *Summarizer
	inspector  Inspector
}

// NewService wires the cache reader, summarizer and inspector together
func NewService(reader *Reader, summarizer *Summarizer, inspector Inspector) *Service {
	return &Service{
		reader:     reader,
		summarizer: summarizer,
		inspector:  inspector,
	}
}

// NewStoreService builds a service whose reader and summarizer share s
func NewStoreService(s store.Store, inspector Inspector, ttl time.Duration) *Service {
	if s == nil {
		return NewService(nil, nil, inspector)
	}
	return NewService(NewReader(s, WithTTL(ttl)), NewSummarizer(s), inspector)
}

// Query returns the platform summary for req.Image.
// Fresh cached entries are returned unchanged. Missing or stale entries are
// refreshed through the inspector; an inspection failure is returned as an
// *InspectionError even when stale data exists.
func (s *Service) Query(ctx context.Context, req Request) (*CacheEntry, error) {
	if req.Image == "" {
		return nil, ErrImageRequired
	}
	if s.reader == nil || s.summarizer == nil || s.inspector == nil {
		logging.Logger.Error("Document store parameters not set")
		return nil, ErrStoreNotConfigured
	}

	logging.Logger.Debug("Image lookup", zap.String("image", req.Image))

	result := s.reader.Lookup(ctx, req.Image)
	logging.LogCacheDecision(req.Image, result.State.String())
	if result.State == StateFresh {
		return result.Entry, nil
	}

	raw, err := s.inspector.Inspect(ctx, req.Image)
	if err != nil {
		logging.Logger.Warn("Error from manifest inspection",
			zap.String("image", req.Image),
			zap.Error(err))
		return nil, &InspectionError{Image: req.Image, Err: err}
	}
	if len(raw) == 0 {
		return nil, &InspectionError{Image: req.Image, Err: errors.New("no manifest data returned")}
	}

	return s.summarizer.Summarize(ctx, req.Image, raw, result.Entry), nil
}
