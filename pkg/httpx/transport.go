// Package httpx holds the outbound RoundTripper chain shared by every
// request a login makes: browser-like default headers, per-host throttling
// and request logging.
package httpx

import "net/http"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a RoundTripper with extra behaviour.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps base with mws. The first middleware is the outermost, so it
// sees the request first and the response last.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}
