package payment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrCaptureMismatch means a completed PayPal order was not a payment
	// for the booking it was presented with.
	ErrCaptureMismatch = errors.New("paypal order does not match booking")
)

// GatewayError is returned when a call to a payment gateway fails for
// transport, auth or gateway-side reasons. The payment may be retried.
type GatewayError struct {
	Gateway    string
	Op         string
	StatusCode int
	Name       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d %s: %v", e.Gateway, e.Op, e.StatusCode, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Gateway, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
