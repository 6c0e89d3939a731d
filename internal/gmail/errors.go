package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotFound indicates the requested thread or message no longer exists.
	ErrNotFound = errors.New("gmail: resource not found")

	// ErrRateLimited indicates the API rejected the call for quota reasons.
	ErrRateLimited = errors.New("gmail: rate limit exceeded")
)

// IsNotFound reports whether err is a missing-resource error, either our
// sentinel or a googleapi 404. Threads listed on one page can vanish before
// their get call; callers skip those rather than failing the run.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// IsRateLimited reports whether err is a quota rejection (HTTP 429).
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}
