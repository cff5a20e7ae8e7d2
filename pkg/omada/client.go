package omada

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
	"github.com/filippocastelli/go-omada/pkg/validation"
)

/*
ClientConfig holds configuration parameters for creating an Omada client.

Fields:

	URL:           Base URL of the controller, e.g. https://omadacontroller.local:8043. Must not include `/api/v2`.
	Site:          Site key used when an operation is called with an empty site key. Default: "Default".
	VerifySSL:     When false, disables TLS certificate verification for the whole session.
	Timeout:       The maximum duration to wait for responses; default is no timeout.
	UserAgent:     The User-Agent header string for outgoing HTTP requests.
	Logger:        Client logger. Default: logrus at info level on stderr.
	Now:           Clock used for login times and the `_` timestamp. Default: time.Now.
	HTTPClient:    Optional pre-built HTTP client; VerifySSL and Timeout are ignored when set.
	Interceptors:  Extra ClientInterceptor implementations, run after the built-in ones.
	ErrorHandler:  A custom handler for processing non-2xx responses.
*/
type ClientConfig struct {
	URL          string `validate:"required,http_url"`
	Site         string `validate:"omitempty,site_key"`
	VerifySSL    bool
	Timeout      time.Duration
	UserAgent    string
	Logger       Logger               `validate:"-"`
	Now          func() time.Time     `validate:"-"`
	HTTPClient   *http.Client         `validate:"-"`
	Interceptors []ClientInterceptor  `validate:"-"`
	ErrorHandler ResponseErrorHandler `validate:"-"`
}

// Client talks to one Omada controller on behalf of one session.
// It is not safe for concurrent use.
type Client struct {
	Logger
	baseURL      *url.URL
	site         string
	http         *http.Client
	session      *Session
	now          func() time.Time
	interceptors []ClientInterceptor
	errorHandler ResponseErrorHandler
	validator    *validation.Validator
}

func parseBaseURL(base string) (*url.URL, error) {
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(baseURL.Path, apiPath) {
		return nil, fmt.Errorf("expected a base URL without the `%s`, got: %q", apiPath, base)
	}
	return baseURL, nil
}

// NewClient validates config and builds a logged-out client. Call Login before any other operation.
func NewClient(config *ClientConfig) (*Client, error) {
	v, err := validation.Default()
	if err != nil {
		return nil, fmt.Errorf("failed creating validator: %w", err)
	}
	if err = v.Validate(config); err != nil {
		return nil, fmt.Errorf("failed validating client configuration: %w", err)
	}

	log := config.Logger
	if log == nil {
		log = NewDefaultLogger(InfoLevel, nil)
	}
	log.Debugf("Connecting to Omada controller at %s", config.URL)

	baseURL, err := parseBaseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing base URL: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		if !config.VerifySSL {
			log.Debug("TLS certificate verification disabled")
		}
		httpClient = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !config.VerifySSL}, //nolint:gosec
			},
		}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed creating cookiejar: %w", err)
		}
		httpClient.Jar = jar
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}
	site := config.Site
	if site == "" {
		site = DefaultSite
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	var errorHandler ResponseErrorHandler = &DefaultResponseErrorHandler{}
	if config.ErrorHandler != nil {
		log.Debug("Using custom response error handler")
		errorHandler = config.ErrorHandler
	}

	session := &Session{}
	interceptors := []ClientInterceptor{
		&DefaultHeadersInterceptor{headers: map[string]string{
			UserAgentHeader: userAgent,
			AcceptHeader:    "application/json",
		}},
		&SessionInterceptor{session: session, stamps: newTimestamper(now)},
	}
	interceptors = append(interceptors, config.Interceptors...)

	return &Client{
		Logger:       log,
		baseURL:      baseURL,
		site:         site,
		http:         httpClient,
		session:      session,
		now:          now,
		interceptors: interceptors,
		errorHandler: errorHandler,
		validator:    v,
	}, nil
}

// BaseURL returns the controller base URL without the API prefix.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Site returns the default site key.
func (c *Client) Site() string {
	return c.site
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	return *c.session
}

func (c *Client) siteOrDefault(siteKey string) string {
	if siteKey == "" {
		return c.site
	}
	return siteKey
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the `result` of a successful login.
type LoginResult struct {
	Token    string `json:"token" validate:"required"`
	RoleType int    `json:"roleType,omitempty"`
}

// Login authenticates with username and password and stores the issued token in the session.
// Any failure, including a response without `result.token`, is an *errors.AuthError.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.Trace("Logging in with user/pass credentials")

	raw, err := c.doEnvelope(withoutSession(ctx), http.MethodPost, loginPath, &loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", omerrors.NewAuthError("login request failed", err)
	}

	var result LoginResult
	if err := c.decodeResult(raw, &result); err != nil {
		return "", omerrors.NewAuthError("unexpected login response", err)
	}

	c.session.set(result.Token, c.now())
	c.Debugf("Logged in to %s", c.BaseURL())
	return result.Token, nil
}

// Logout ends the session. It never fails: a non-200 status or a transport error is logged as a warning.
// The local session is cleared either way.
func (c *Client) Logout(ctx context.Context) {
	status, err := c.doRaw(withoutSession(ctx), http.MethodPost, logoutPath)
	c.session.clear()
	if err != nil {
		c.Warnf("logout failed: %s", err)
		return
	}
	if status == http.StatusOK {
		c.Info("logged out")
		return
	}
	c.Warnf("logout failed with status code %d", status)
}

// IsLoggedIn reports whether the controller answers the login status check with HTTP 200.
// Every other outcome, including an unreachable controller, is false.
func (c *Client) IsLoggedIn(ctx context.Context) bool {
	status, err := c.doRaw(ctx, http.MethodGet, loginStatusPath)
	if err != nil {
		c.Debugf("login status check failed: %s", err)
		return false
	}
	return status == http.StatusOK
}
