package omada

import (
	"encoding/json"
	"net/http"
	"net/url"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
)

// envelope is the wrapper every controller response comes in.
type envelope struct {
	ErrorCode int             `json:"errorCode"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

func (e *envelope) error(method, requestURL string) error {
	if e.ErrorCode != 0 {
		return &omerrors.ServerLogicError{
			Code:    e.ErrorCode,
			Message: e.Msg,
			Method:  method,
			URL:     requestURL,
		}
	}
	return nil
}

// ResponseErrorHandler turns a non-successful HTTP response into an error.
// body is the fully read response body.
type ResponseErrorHandler interface {
	HandleError(resp *http.Response, body []byte) error
}

type DefaultResponseErrorHandler struct{}

// HandleError returns an *errors.HTTPError for any status outside 2xx, filling in the
// envelope's errorCode and msg when the body carries one.
func (d *DefaultResponseErrorHandler) HandleError(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	httpErr := &omerrors.HTTPError{
		StatusCode: resp.StatusCode,
	}
	if resp.Request != nil {
		httpErr.Method = resp.Request.Method
		httpErr.URL = stripQuery(resp.Request.URL)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		httpErr.ErrorCode = env.ErrorCode
		httpErr.Message = env.Msg
	}
	return httpErr
}

// stripQuery drops the query string so tokens never end up in error messages.
func stripQuery(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}
