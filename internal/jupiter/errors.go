package jupiter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSwapInput marks requests rejected before any network call:
// missing mints, identical mints, or a non-positive amount.
var ErrInvalidSwapInput = errors.New("invalid swap input")

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// QuoteFetchError wraps failures from the quote endpoint so callers can
// distinguish them from swap-build failures.
type QuoteFetchError struct {
	Err error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("failed to fetch quote: %v", e.Err)
}

func (e *QuoteFetchError) Unwrap() error {
	return e.Err
}

// TransactionBuildError wraps failures from the swap endpoint.
type TransactionBuildError struct {
	Err error
}

func (e *TransactionBuildError) Error() string {
	return fmt.Sprintf("failed to build swap transaction: %v", e.Err)
}

func (e *TransactionBuildError) Unwrap() error {
	return e.Err
}
