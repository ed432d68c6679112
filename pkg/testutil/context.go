package testutil

import (
	"net/http"
	"time"

	id "loancore/pkg/domain"
	"loancore/pkg/requestcontext"
)

// WithCustomerID adds an authenticated customer ID to the request context,
// simulating what the auth middleware does. Invalid IDs are silently ignored.
func WithCustomerID(req *http.Request, customerID string) *http.Request {
	parsed, err := id.ParseCustomerID(customerID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCustomerID(req.Context(), parsed))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithTime pins the request-scoped clock, so handlers and services observe a
// deterministic time.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
