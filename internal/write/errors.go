package write

import (
	"errors"
	"fmt"
)

// ErrExternalUnavailable means the Things app could not be reached at all,
// for example because it is not running. User-actionable; never retried
// across calls.
var ErrExternalUnavailable = errors.New("Things 3 is not reachable (is the app running?)")

// ErrAuthTokenMissing means a URL-scheme update was requested but no auth
// token is configured. This is a configuration error, not a transient
// channel failure, and is surfaced before any dispatch is attempted.
var ErrAuthTokenMissing = errors.New("no Things auth token configured (set THINGS_AUTH_TOKEN; Things → Settings → General → Enable Things URLs → Manage)")

// AdmissionLimit is the number of items Things admits per bulk import call
// within its rolling 10-second window.
const AdmissionLimit = 250

// AdmissionError reports a bulk payload that exceeds the admission limit.
// The payload is rejected whole: no silent truncation, no automatic
// chunking, no retry.
type AdmissionError struct {
	Limit     int
	Attempted int
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("bulk import of %d items exceeds the limit of %d per 10 seconds", e.Attempted, e.Limit)
}

// DualFailureError reports that both channels failed for one intent. Both
// causes are preserved; the call is failed with no partial-success claim.
type DualFailureError struct {
	Primary  error
	Fallback error
}

func (e *DualFailureError) Error() string {
	return fmt.Sprintf("both write channels failed: applescript: %v; url scheme: %v", e.Primary, e.Fallback)
}

func (e *DualFailureError) Unwrap() []error { return []error{e.Primary, e.Fallback} }
