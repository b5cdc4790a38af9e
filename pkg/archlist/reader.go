package archlist

import (
	"context"
	"errors"
	"time"

	"github.com/mquery-dev/api/pkg/logging"
	"github.com/mquery-dev/api/pkg/store"
	"go.uber.org/zap"
)

// DefaultTTL is the freshness window of a cached entry (3,600,000 ms)
const DefaultTTL = time.Hour

// CacheState is the outcome of a cache lookup
type CacheState int

const (
	StateMissing CacheState = iota
	StateStale
	StateFresh
)

func (s CacheState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "missing"
	}
}

// CacheResult is what Lookup found for a key.
// Entry is set for Fresh and Stale. Err keeps a read failure other than
// not-found, which is still reported as Missing. A stored document that
// cannot be decoded is Missing with an Entry holding only its ID and Rev,
// so the refresh can still overwrite it.
type CacheResult struct {
	State CacheState
	Entry *CacheEntry
	Err   error
}

// Reader reads cached entries and applies the freshness policy
type Reader struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithTTL overrides the freshness window
func WithTTL(ttl time.Duration) ReaderOption {
	return func(r *Reader) {
		r.ttl = ttl
	}
}

// WithReaderClock overrides the time source
func WithReaderClock(now func() time.Time) ReaderOption {
	return func(r *Reader) {
		r.now = now
	}
}

// NewReader creates a cache reader over s
func NewReader(s store.Store, opts ...ReaderOption) *Reader {
	r := &Reader{
		store: s,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup reads key from the store and classifies it as fresh, stale or missing
func (r *Reader) Lookup(ctx context.Context, key string) CacheResult {
	doc, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Logger.Warn("Cache read failed, treating as miss",
				zap.String("image", key),
				zap.Error(err))
			return CacheResult{State: StateMissing, Err: err}
		}
		logging.Logger.Debug("Cache miss", zap.String("image", key))
		return CacheResult{State: StateMissing}
	}

	entry, err := decodeEntry(doc)
	if err != nil {
		logging.Logger.Warn("Cached document unreadable, treating as miss",
			zap.String("image", key),
			zap.Error(err))
		return CacheResult{
			State: StateMissing,
			Entry: &CacheEntry{ID: doc.ID, Rev: doc.Rev},
			Err:   err,
		}
	}

	if r.isFresh(entry) {
		return CacheResult{State: StateFresh, Entry: entry}
	}

	logging.Logger.Debug("Expiring cached data",
		zap.String("image", key),
		zap.Int64("cachetime", entry.CacheTime))
	return CacheResult{State: StateStale, Entry: entry}
}

func (r *Reader) isFresh(entry *CacheEntry) bool {
	age := r.now().UnixMilli() - entry.CacheTime
	return age <= r.ttl.Milliseconds()
}
