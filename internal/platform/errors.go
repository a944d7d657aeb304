package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialExpired means the API returned 401. Retrying cannot
	// help until an operator rotates the store credentials.
	ErrCredentialExpired = errors.New("platform credentials expired or invalid")

	// ErrCredentialsMissing means the store has no usable credentials
	// configured at all.
	ErrCredentialsMissing = errors.New("platform credentials missing")
)

// APIError is a non-2xx response that is not an auth failure.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform api error: status=%d body=%s", e.Status, e.Body)
}

// Transient reports whether the failure is worth retrying.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}
