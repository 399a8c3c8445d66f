package runner

import (
	"errors"
	"fmt"

	"github.com/senpro-it/wassup/models"
)

// Error is a failed pipeline invocation. Diagnostic is what the user should
// see: compiler output, the child's stderr, or the raw stdout that did not
// decode.
type Error struct {
	Reason     models.FailureReason
	Diagnostic string
	Report     models.RunReport
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason, or ReasonNone for other errors.
func ReasonOf(err error) models.FailureReason {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.Reason
	}
	return models.ReasonNone
}
