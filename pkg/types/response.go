// Package types holds the JSON envelopes shared by every marketplace endpoint.
package types

const (
	// RequestIDHeader carries the per-request correlation id shoppers can
	// quote to support.
	RequestIDHeader = "X-Request-Id"
	// SessionHeader identifies the shopper whose cart, checkout and orders a
	// request operates on.
	SessionHeader = "X-Session-Id"
)

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. RequestID echoes the
// correlation id so a shopper-facing error can be traced in the logs.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
