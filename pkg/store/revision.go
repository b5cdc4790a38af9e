package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// nextRevision returns the revision following prev, in "<generation>-<token>" form
func nextRevision(prev string) string {
	return fmt.Sprintf("%d-%s", revisionGeneration(prev)+1, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// revisionGeneration extracts the generation counter of a revision, 0 if absent or malformed
func revisionGeneration(rev string) int {
	idx := strings.Index(rev, "-")
	if idx <= 0 {
		return 0
	}
	gen, err := strconv.Atoi(rev[:idx])
	if err != nil {
		return 0
	}
	return gen
}

// checkRevision applies the insert contract against the revision currently stored.
// exists reports whether a document is stored under the key.
func checkRevision(exists bool, current, incoming string) error {
	if !exists {
		if incoming != "" {
			return ErrConflict
		}
		return nil
	}
	if incoming == "" || incoming != current {
		return ErrConflict
	}
	return nil
}
