package strip

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned for a category outside NoWiki and General.
var ErrUnknownCategory = errors.New("unknown strip category")

// InvalidMarkerError is returned by Add when the marker was not minted with
// Marker. It signals a programming error in the caller.
type InvalidMarkerError struct {
	Marker string
}

// Error implements the error interface.
func (e *InvalidMarkerError) Error() string {
	return fmt.Sprintf("invalid marker: %q", e.Marker)
}

// InvalidTagError is returned by Merge when the tag generator yields a tag
// that cannot be part of an identifier. Nothing is merged in that case.
type InvalidTagError struct {
	Tag string
}

// Error implements the error interface.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid merge tag: %q", e.Tag)
}

// ProducerError wraps a failure of a deferred value. It aborts the whole
// top-level unstrip call.
type ProducerError struct {
	Category Category
	ID       string
	Err      error
}

// Error implements the error interface.
func (e *ProducerError) Error() string {
	return fmt.Sprintf("unstrip %s marker %q: %v", e.Category, e.ID, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

// IsInvalidMarker returns true if err is an InvalidMarkerError.
// Uses errors.As to handle wrapped errors.
func IsInvalidMarker(err error) bool {
	var me *InvalidMarkerError
	return errors.As(err, &me)
}

// IsProducerError returns true if err is a ProducerError.
// Uses errors.As to handle wrapped errors.
func IsProducerError(err error) bool {
	var pe *ProducerError
	return errors.As(err, &pe)
}
