package archlist

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every request validation error
var ErrValidation = errors.New("validation failed")

var (
	ErrImageRequired      = &validationError{msg: "Please provide an image name to query."}
	ErrStoreNotConfigured = &validationError{msg: "Document store parameters not set."}
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// InspectionError is returned when the manifest inspector fails.
// Stale cached data is never served in its place.
type InspectionError struct {
	Image string
	Err   error
}

func (e *InspectionError) Error() string {
	return fmt.Sprintf("failed to inspect %s: %v", e.Image, e.Err)
}

func (e *InspectionError) Unwrap() error { return e.Err }
