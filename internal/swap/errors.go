package swap

import (
	"errors"
	"fmt"
)

// ErrPrecondition marks an Execute call rejected before any work:
// unset tokens, a non-positive amount, or a missing quote.
var ErrPrecondition = errors.New("swap preconditions not met")

// ErrUserRejected is returned when the signer declines the
// transaction. It is a terminal outcome, not a transport failure, and
// is never retried.
var ErrUserRejected = errors.New("user rejected transaction")

// ConfirmationError means the transaction was sent but never reached
// the requested commitment within the confirmation window. The
// signature is kept so the caller can keep watching it out of band.
type ConfirmationError struct {
	Signature string
	Err       error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed: %v", e.Signature, e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}
