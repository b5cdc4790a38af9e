package archlist

import (
	"encoding/json"
	"fmt"

	"github.com/mquery-dev/api/pkg/store"
)

// encodeEntry converts an entry to a store document; the revision travels outside the body
func encodeEntry(entry *CacheEntry) (*store.Document, error) {
	body := *entry
	body.Rev = ""
	data, err := json.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry %s: %w", entry.ID, err)
	}
	return &store.Document{
		ID:   entry.ID,
		Rev:  entry.Rev,
		Body: data,
	}, nil
}

// decodeEntry converts a store document back to an entry
func decodeEntry(doc *store.Document) (*CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal(doc.Body, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", doc.ID, err)
	}
	entry.ID = doc.ID
	entry.Rev = doc.Rev
	return &entry, nil
}
