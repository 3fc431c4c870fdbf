package embedding

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"ragcheck/internal/domain"
)

// markTransient wraps err with domain.ErrTransient when it belongs to
// the retryable class: rate limits, timeouts, 5xx responses.
func markTransient(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && retryableStatus(gerr.Code) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	if domain.IsTransient(err) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	return err
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
