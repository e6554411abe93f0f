package render

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferOverflow is returned when a backend writes more than the
	// configured output cap to stdout or stderr.
	ErrBufferOverflow = errors.New("backend output exceeds buffer cap")
	// ErrBackendUnavailable means the backend could not be started at all
	// (missing executable or script), as opposed to failing on this request.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMissingOutput      = errors.New("backend reported success but produced no output file")
	ErrUnsupportedChart   = errors.New("chart type not supported by backend")
)

// BackendInvocationError reports a failed backend run together with the
// backend's diagnostic text.
type BackendInvocationError struct {
	Backend    string
	Diagnostic string
	Err        error
}

func (e *BackendInvocationError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s backend failed: %s", e.Backend, e.Diagnostic)
	}
	return fmt.Sprintf("%s backend failed: %v", e.Backend, e.Err)
}

func (e *BackendInvocationError) Unwrap() error {
	return e.Err
}

func invocationError(backend string, err error, diagnostic string) *BackendInvocationError {
	return &BackendInvocationError{Backend: backend, Diagnostic: diagnostic, Err: err}
}
