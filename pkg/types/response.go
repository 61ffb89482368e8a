// Package types holds the wire envelopes shared by every cart endpoint.
// Success payloads nest under "data"; failures serialize the typed code the
// storefront switches on, with UNAUTHORIZED doubling as the login-redirect
// signal.
package types

// SuccessEnvelope wraps a successful response payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the error body of a failed request. Details carries
// machine-readable context, such as the stock limit that rejected an add.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for transport.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
