package omada

import (
	"context"
	"net/http"
	"strconv"
)

// ClientInterceptor defines the interface for interceptors.
// An interceptor can modify HTTP requests and responses.
type ClientInterceptor interface {
	InterceptRequest(req *http.Request) error
	InterceptResponse(resp *http.Response) error
}

type withoutSessionKey struct{}

// withoutSession marks a request context so the session interceptor leaves the request untouched.
// Only login and logout use it.
func withoutSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, withoutSessionKey{}, true)
}

func sessionSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(withoutSessionKey{}).(bool)
	return skip
}

// SessionInterceptor attaches the session token and a cache-busting timestamp to every request.
// The token goes into the `token` query parameter and the Csrf-Token header; the timestamp into `_`.
type SessionInterceptor struct {
	session *Session
	stamps  *timestamper
}

// InterceptRequest adds token and timestamp query parameters unless the request opted out.
func (s *SessionInterceptor) InterceptRequest(req *http.Request) error {
	if sessionSkipped(req.Context()) {
		return nil
	}
	q := req.URL.Query()
	if token := s.session.Token(); token != "" {
		q.Set(tokenParam, token)
		req.Header.Set(CsrfHeader, token)
	}
	q.Set(timestampParam, strconv.FormatInt(s.stamps.Next(), 10))
	req.URL.RawQuery = q.Encode()
	return nil
}

// InterceptResponse does not modify the HTTP response and always returns nil.
func (s *SessionInterceptor) InterceptResponse(_ *http.Response) error {
	return nil
}

// DefaultHeadersInterceptor sets default HTTP headers for requests.
type DefaultHeadersInterceptor struct {
	headers map[string]string
}

// InterceptRequest sets the configured headers on the request.
func (d *DefaultHeadersInterceptor) InterceptRequest(req *http.Request) error {
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}
	return nil
}

// InterceptResponse does not modify the HTTP response and always returns nil.
func (d *DefaultHeadersInterceptor) InterceptResponse(_ *http.Response) error {
	return nil
}
