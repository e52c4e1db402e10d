package woocommerce

import (
	"errors"
	"fmt"
)

// ErrTransient marks transport-level failures (connection refused, reset,
// timeout). The request may succeed if issued again.
var ErrTransient = errors.New("woocommerce: transient network failure")

// APIError is returned when WooCommerce answers with an unexpected status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string // WooCommerce error code, e.g. product_invalid_sku
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("woocommerce: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("woocommerce: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsRetryable reports whether a failed call is worth issuing again later.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
