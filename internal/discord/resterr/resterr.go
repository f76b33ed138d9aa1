package resterr

import (
	"errors"
	"net/http"

	"github.com/disgoorg/disgo/rest"
)

// statusOf extracts the HTTP status code from a Discord REST error.
// Returns 0 for anything that is not a *rest.Error, including transport
// failures, which must never be treated as a definitive API answer.
func statusOf(err error) int {
	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}

	return 0
}

// IsNotFound reports whether the error is a definitive "does not exist"
// answer from Discord. Only this class of failure may be negatively
// cached.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsForbidden reports whether the error is a permission denial.
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsBadRequest reports whether Discord rejected the request payload.
func IsBadRequest(err error) bool {
	return statusOf(err) == http.StatusBadRequest
}

// IsIgnorable reports whether the error may be swallowed in best-effort
// paths such as autoreactions and fallback deletes.
func IsIgnorable(err error) bool {
	switch statusOf(err) {
	case http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest:
		return true
	default:
		return false
	}
}
