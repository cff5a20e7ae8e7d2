package omada

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
)

// marshalRequest marshals the request body to an io.Reader. Returns nil if reqBody is nil.
func marshalRequest(reqBody interface{}) (io.Reader, error) {
	if reqBody == nil {
		return nil, nil //nolint: nilnil
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(reqBytes), nil
}

// buildRequestURL concatenates base URL, API prefix and endpoint.
func (c *Client) buildRequestURL(endpoint string) (*url.URL, error) {
	return url.Parse(c.baseURL.String() + apiPath + endpoint)
}

// redactedURL is the request URL as it is safe to log: the token value is masked.
func redactedURL(u *url.URL) string {
	clean := *u
	q := clean.Query()
	if q.Has(tokenParam) {
		q.Set(tokenParam, "REDACTED")
		clean.RawQuery = q.Encode()
	}
	return clean.String()
}

// executeRequest runs the interceptors, performs the request and reads the whole response body.
// A failure to reach the controller or to read its answer is an *errors.TransportError.
func (c *Client) executeRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, []byte, error) {
	reqURL, err := c.buildRequestURL(endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create request URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create request: %s %s %w", method, endpoint, err)
	}
	if body != nil {
		req.Header.Set(ContentTypeHeader, "application/json; charset=utf-8")
	}

	c.Trace("Executing request interceptors")
	for _, interceptor := range c.interceptors {
		if err := interceptor.InterceptRequest(req); err != nil {
			return nil, nil, err
		}
	}
	c.Debugf("Executing request: %s %s", method, redactedURL(req.URL))

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error repeats the full URL, token included; keep only the underlying cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, nil, &omerrors.TransportError{Method: method, URL: stripQuery(req.URL), Cause: err}
	}
	defer resp.Body.Close()

	c.Trace("Executing response interceptors")
	for _, interceptor := range c.interceptors {
		if err := interceptor.InterceptResponse(resp); err != nil {
			return nil, nil, err
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &omerrors.TransportError{Method: method, URL: stripQuery(req.URL), Cause: err}
	}
	c.Tracef("Response status: %d", resp.StatusCode)
	return resp, respBody, nil
}

// doEnvelope performs a request whose answer is a JSON envelope and returns the envelope's `result`.
// Non-2xx responses go through the error handler; a non-zero errorCode is an *errors.ServerLogicError.
func (c *Client) doEnvelope(ctx context.Context, method, endpoint string, reqBody interface{}) (json.RawMessage, error) {
	c.Tracef("Performing request: %s %s", method, endpoint)

	body, err := marshalRequest(reqBody)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal request: %w", err)
	}

	resp, respBody, err := c.executeRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	c.Trace("Checking for errors in response")
	if err := c.errorHandler.HandleError(resp, respBody); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("unable to decode body: %s %s %w", method, endpoint, err)
	}
	if err := env.error(method, stripQuery(resp.Request.URL)); err != nil {
		return nil, err
	}

	if !sessionSkipped(ctx) {
		c.Debugf("Response result for %s %s: %s", method, endpoint, env.Result)
	}
	return env.Result, nil
}

// doRaw performs a request without a body and returns only the HTTP status code.
func (c *Client) doRaw(ctx context.Context, method, endpoint string) (int, error) {
	c.Tracef("Performing raw request: %s %s", method, endpoint)

	resp, _, err := c.executeRequest(ctx, method, endpoint, nil)
	if err != nil {
		return 0, err
	}
	c.Debugf("Response for %s %s: %d", method, endpoint, resp.StatusCode)
	return resp.StatusCode, nil
}

// decodeResult unmarshals an envelope result into out and checks out's required fields.
func (c *Client) decodeResult(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unable to decode result: %w", err)
	}
	return c.validateResult(out)
}

// validateResult validates a decoded struct, or each struct element of a decoded slice.
func (c *Client) validateResult(out interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(out))
	switch v.Kind() {
	case reflect.Struct:
		return c.validator.Validate(v.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := c.validator.Validate(elem.Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
