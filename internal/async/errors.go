package async

import (
	"errors"
	"fmt"
)

// ReentrantCaptureError is returned by Install when the loop already has a
// capture installed.
type ReentrantCaptureError struct {
	// Captured is the number of promises the active capture has recorded.
	Captured int
}

// Error implements the error interface.
func (e *ReentrantCaptureError) Error() string {
	return fmt.Sprintf("async capture already installed (active capture holds %d promises)", e.Captured)
}

// IsReentrantCaptureError returns true if err is a ReentrantCaptureError.
// Uses errors.As to handle wrapped errors.
func IsReentrantCaptureError(err error) bool {
	var re *ReentrantCaptureError
	return errors.As(err, &re)
}
