package provider

import (
	"context"
	"errors"
	"net"
)

// WrapTransportError resolves a transport-level failure from the HTTP client
// into the taxonomy, flagging deadline expiries so a hanging provider is
// distinguishable from a refused connection.
func WrapTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}
