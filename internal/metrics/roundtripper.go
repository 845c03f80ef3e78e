package metrics

import (
	"net/http"
	"time"
)

// RoundTripper records request duration and count of every outgoing request.
func RoundTripper(c *Collectors, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if c == nil {
		return next
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.ObserveRequest(req.Method, status, time.Since(start))
		return resp, err //nolint:wrapcheck // delegating to the underlying transport
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
