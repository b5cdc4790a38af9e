package archlist

import (
	"context"
	"errors"
	"time"

	"github.com/mquery-dev/api/pkg/logging"
	"github.com/mquery-dev/api/pkg/store"
	"go.uber.org/zap"
)

// BuildSummary reduces raw manifest data to a cache entry.
//
// Entries are scanned in order. A manifest-list marker switches the scan to
// list mode and carries no platform itself. Every other entry overwrites
// RepoTags and Tag, then either appends to ArchList (list mode) or replaces
// Platform (single mode). Entries missing their platform fields produce
// empty components rather than an error.
func BuildSummary(key string, raw RawManifestData, rev string, now time.Time) *CacheEntry {
	entry := &CacheEntry{
		ID:        key,
		Rev:       rev,
		CacheTime: now.UnixMilli(),
	}

	archList := []string{}
	manifestList := false
	for _, m := range raw {
		if IsManifestListMediaType(m.MediaType) {
			entry.ManifestList = true
			manifestList = true
			continue
		}

		entry.RepoTags = m.RepoTags
		entry.Tag = m.Tag

		if manifestList {
			archList = append(archList, FormatListPlatform(m.Platform))
		} else {
			entry.ManifestList = false
			entry.Platform = m.Architecture + "/" + m.Os
		}
	}

	if manifestList {
		entry.ArchList = archList
	}
	return entry
}

// FormatListPlatform renders a manifest list platform as "arch/os",
// annotated with the variant for arm and arm64
func FormatListPlatform(p *ManifestPlatform) string {
	if p == nil {
		return "/"
	}
	s := p.Architecture + "/" + p.OS
	if (p.Architecture == "arm" || p.Architecture == "arm64") && p.Variant != "" {
		s += " (variant: " + p.Variant + ")"
	}
	return s
}

// Summarizer builds entries from inspection output and writes them back to the store
type Summarizer struct {
	store store.Store
	now   func() time.Time
}

// NewSummarizer creates a summarizer persisting to s
func NewSummarizer(s store.Store) *Summarizer {
	return &Summarizer{
		store: s,
		now:   time.Now,
	}
}

// WithClock returns a copy of the summarizer using now as its time source
func (s *Summarizer) WithClock(now func() time.Time) *Summarizer {
	return &Summarizer{
		store: s.store,
		now:   now,
	}
}

// Summarize builds the entry for key, carrying prior's revision when present,
// and persists it. A failed write is logged only; the returned entry is the
// same either way.
func (s *Summarizer) Summarize(ctx context.Context, key string, raw RawManifestData, prior *CacheEntry) *CacheEntry {
	var rev string
	if prior != nil {
		rev = prior.Rev
	}
	entry := BuildSummary(key, raw, rev, s.now())

	s.persist(ctx, entry)
	return entry
}

func (s *Summarizer) persist(ctx context.Context, entry *CacheEntry) {
	doc, err := encodeEntry(entry)
	if err != nil {
		logging.Logger.Error("Failed to encode image data", zap.String("image", entry.ID), zap.Error(err))
		return
	}

	newRev, err := s.store.Insert(ctx, doc)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			logging.Logger.Warn("Image data changed concurrently, dropping write",
				zap.String("image", entry.ID),
				zap.String("rev", entry.Rev))
			return
		}
		logging.Logger.Error("Error on image data insert",
			zap.String("image", entry.ID),
			zap.Error(err))
		return
	}

	logging.Logger.Info("Cached image data",
		zap.String("image", entry.ID),
		zap.String("rev", newRev))
}
