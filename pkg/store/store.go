// Package store holds the document stores used as the image metadata cache.
//
// Every backend follows the same revision contract: a document inserted
// without a revision must not exist yet, and a document inserted with a
// revision must carry the revision currently stored. Anything else is a
// conflict. Successful inserts return the new revision token.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document update conflict")
)

// Document is a single keyed JSON document
type Document struct {
	ID   string `json:"_id"`
	Rev  string `json:"_rev,omitempty"`
	Body []byte `json:"body"`
}

// Store defines point reads and revision-checked writes by key
type Store interface {
	Get(ctx context.Context, id string) (*Document, error)
	Insert(ctx context.Context, doc *Document) (string, error)
}

// Closer is implemented by stores holding connections or background workers
type Closer interface {
	Close() error
}

// Close releases the store if it holds resources
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
