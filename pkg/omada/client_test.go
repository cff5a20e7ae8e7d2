package omada

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
	"github.com/filippocastelli/go-omada/pkg/validation"
	"github.com/filippocastelli/go-omada/testutils"
)

func newTestClient(t *testing.T, fake *testutils.FakeController, modify ...func(*ClientConfig)) *Client {
	t.Helper()
	cfg := &ClientConfig{
		URL:       fake.URL(),
		VerifySSL: true,
		Timeout:   5 * time.Second,
		Logger:    NewDefaultLogger(DisabledLevel, nil),
	}
	for _, m := range modify {
		m(cfg)
	}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func loggedInClient(t *testing.T, fake *testutils.FakeController, modify ...func(*ClientConfig)) *Client {
	t.Helper()
	c := newTestClient(t, fake, modify...)
	if _, err := c.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return c
}

func TestNewClient_Config(t *testing.T) {
	tests := []struct {
		name      string
		config    ClientConfig
		wantErr   bool
		wantValid bool
		wantSite  string
	}{
		{
			name:     "defaults site",
			config:   ClientConfig{URL: "https://omadacontroller.local:8043"},
			wantSite: DefaultSite,
		},
		{
			name:     "custom site",
			config:   ClientConfig{URL: "https://omadacontroller.local:8043/", Site: "Branch"},
			wantSite: "Branch",
		},
		{
			name:      "missing url",
			config:    ClientConfig{},
			wantErr:   true,
			wantValid: true,
		},
		{
			name:      "not an http url",
			config:    ClientConfig{URL: "omadacontroller.local"},
			wantErr:   true,
			wantValid: true,
		},
		{
			name:      "site with slash",
			config:    ClientConfig{URL: "https://omadacontroller.local", Site: "a/b"},
			wantErr:   true,
			wantValid: true,
		},
		{
			name:    "api prefix in url",
			config:  ClientConfig{URL: "https://omadacontroller.local:8043/api/v2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			cfg.Logger = NewDefaultLogger(DisabledLevel, nil)
			c, err := NewClient(&cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				var verr *validation.ValidationError
				if got := errors.As(err, &verr); got != tt.wantValid {
					t.Errorf("Expected ValidationError=%v, got %v (%v)", tt.wantValid, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c.Site() != tt.wantSite {
				t.Errorf("Expected site %q, got %q", tt.wantSite, c.Site())
			}
			if strings.HasSuffix(c.BaseURL(), "/") {
				t.Errorf("Expected base URL without trailing slash, got %q", c.BaseURL())
			}
			if c.Session().Active() {
				t.Error("New client should not hold a session")
			}
		})
	}
}

func TestLogin_StoresAndAttachesToken(t *testing.T) {
	fake := testutils.NewFakeController(t)
	fake.SetToken("tok-abc-123")
	clock := testutils.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	c := newTestClient(t, fake, func(cfg *ClientConfig) { cfg.Now = clock.Now })

	token, err := c.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-abc-123" {
		t.Errorf("Expected token tok-abc-123, got %q", token)
	}
	if got := c.Session().Token(); got != token {
		t.Errorf("Session token = %q, want %q", got, token)
	}
	if !c.Session().LoggedInAt().Equal(clock.Now()) {
		t.Errorf("Expected login time %v, got %v", clock.Now(), c.Session().LoggedInAt())
	}

	login := fake.CallsTo(http.MethodPost, "/login")
	if len(login) != 1 {
		t.Fatalf("Expected 1 login call, got %d", len(login))
	}
	if login[0].Query.Has("token") || login[0].Query.Has("_") {
		t.Errorf("Login must not carry session parameters, got query %v", login[0].Query)
	}
	if login[0].Body["username"] != "admin" || login[0].Body["password"] != "secret" {
		t.Errorf("Unexpected login body %v", login[0].Body)
	}

	if _, err := c.ListSites(context.Background()); err != nil {
		t.Fatalf("ListSites failed: %v", err)
	}
	sites := fake.CallsTo(http.MethodGet, "/sites")
	if len(sites) != 1 {
		t.Fatalf("Expected 1 sites call, got %d", len(sites))
	}
	if got := sites[0].Query.Get("token"); got != token {
		t.Errorf("Expected token query %q, got %q", token, got)
	}
	if got := sites[0].Header.Get(CsrfHeader); got != token {
		t.Errorf("Expected %s header %q, got %q", CsrfHeader, token, got)
	}
	if got := sites[0].Header.Get(UserAgentHeader); got != defaultUserAgent {
		t.Errorf("Expected user agent %q, got %q", defaultUserAgent, got)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*testutils.FakeController)
		password string
	}{
		{
			name:     "missing token in result",
			setup:    func(f *testutils.FakeController) { f.SetLoginResult(map[string]any{"roleType": 0}) },
			password: "secret",
		},
		{
			name:     "rejected credentials",
			setup:    func(f *testutils.FakeController) {},
			password: "",
		},
		{
			name:     "controller unreachable",
			setup:    func(f *testutils.FakeController) { f.Close() },
			password: "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutils.NewFakeController(t)
			c := newTestClient(t, fake)
			tt.setup(fake)

			token, err := c.Login(context.Background(), "admin", tt.password)
			if err == nil {
				t.Fatal("Expected login error, got nil")
			}
			var authErr *omerrors.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("Expected AuthError, got %T: %v", err, err)
			}
			if omerrors.GetErrorType(err) != omerrors.ErrorTypeAuth {
				t.Errorf("Expected AUTH error type, got %s", omerrors.GetErrorType(err))
			}
			if token != "" {
				t.Errorf("Expected empty token, got %q", token)
			}
			if c.Session().Active() {
				t.Error("Failed login must not leave a session")
			}
		})
	}
}

func TestIsLoggedIn(t *testing.T) {
	tests := []struct {
		name   string
		login  bool
		status int
		closed bool
		want   bool
	}{
		{name: "logged in", login: true, status: http.StatusOK, want: true},
		{name: "status 500", login: true, status: http.StatusInternalServerError, want: false},
		{name: "status 403", login: true, status: http.StatusForbidden, want: false},
		{name: "no token", login: false, status: http.StatusOK, want: false},
		{name: "unreachable", login: true, status: http.StatusOK, closed: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutils.NewFakeController(t)
			fake.SetLoginStatusCode(tt.status)
			c := newTestClient(t, fake)
			if tt.login {
				if _, err := c.Login(context.Background(), "admin", "secret"); err != nil {
					t.Fatalf("Login failed: %v", err)
				}
			}
			if tt.closed {
				fake.Close()
			}
			if got := c.IsLoggedIn(context.Background()); got != tt.want {
				t.Errorf("IsLoggedIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		fake := testutils.NewFakeController(t)
		fake.SetLogoutStatusCode(status)
		var buf bytes.Buffer
		c := loggedInClient(t, fake, func(cfg *ClientConfig) { cfg.Logger = NewDefaultLogger(InfoLevel, &buf) })

		c.Logout(context.Background())

		if c.Session().Active() {
			t.Errorf("status %d: session should be cleared after logout", status)
		}
		calls := fake.CallsTo(http.MethodPost, "/logout")
		if len(calls) != 1 {
			t.Fatalf("status %d: expected 1 logout call, got %d", status, len(calls))
		}
		if calls[0].Query.Has("token") {
			t.Errorf("status %d: logout must not carry the token", status)
		}
		out := buf.String()
		if status == http.StatusOK && !strings.Contains(out, "logged out") {
			t.Errorf("Expected 'logged out' in log, got %q", out)
		}
		if status != http.StatusOK && !strings.Contains(out, "logout failed with status code 500") {
			t.Errorf("Expected logout warning in log, got %q", out)
		}
	}
}

func TestTimestamp_StrictlyIncreases(t *testing.T) {
	fake := testutils.NewFakeController(t)
	clock := testutils.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	c := loggedInClient(t, fake, func(cfg *ClientConfig) { cfg.Now = clock.Now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.ListScenarios(ctx); err != nil {
			t.Fatalf("ListScenarios failed: %v", err)
		}
	}
	// A clock step backwards must not break ordering either.
	clock.SetTime(clock.Now().Add(-time.Hour))
	if _, err := c.ListScenarios(ctx); err != nil {
		t.Fatalf("ListScenarios failed: %v", err)
	}

	calls := fake.CallsTo(http.MethodGet, "/scenarios")
	if len(calls) != 4 {
		t.Fatalf("Expected 4 calls, got %d", len(calls))
	}
	var last string
	for i, call := range calls {
		stamp := call.Query.Get("_")
		if stamp == "" {
			t.Fatalf("call %d: missing _ parameter", i)
		}
		if last != "" && !(len(stamp) > len(last) || (len(stamp) == len(last) && stamp > last)) {
			t.Errorf("call %d: timestamp %s not greater than %s", i, stamp, last)
		}
		last = stamp
	}
	if first := calls[0].Query.Get("_"); first != "1714564800000" {
		t.Errorf("Expected first timestamp from the clock, got %s", first)
	}
}

func TestRequestErrors(t *testing.T) {
	const mac = "AA-BB-CC-DD-EE-01"

	tests := []struct {
		name       string
		failure    testutils.Failure
		wantType   omerrors.ErrorType
		transient  bool
		wantCode   int
		wantStatus int
	}{
		{
			name:     "non-zero errorCode",
			failure:  testutils.Failure{ErrorCode: -39002, Msg: "The device does not exist."},
			wantType: omerrors.ErrorTypeServerLogic,
			wantCode: -39002,
		},
		{
			name:       "server error status",
			failure:    testutils.Failure{Status: http.StatusInternalServerError, ErrorCode: -1, Msg: "General error."},
			wantType:   omerrors.ErrorTypeHTTP,
			transient:  true,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "forbidden status",
			failure:    testutils.Failure{Status: http.StatusForbidden, ErrorCode: -1005, Msg: "Permission denied."},
			wantType:   omerrors.ErrorTypeHTTP,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutils.NewFakeController(t)
			fake.SetDevices(DefaultSite, map[string]any{"mac": mac, "name": "EAP1"})
			fake.SetFailure(mac, tt.failure)
			c := loggedInClient(t, fake)

			_, err := c.SetRadio(context.Background(), mac, Band2G, true, "")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := omerrors.GetErrorType(err); got != tt.wantType {
				t.Errorf("Expected error type %s, got %s (%v)", tt.wantType, got, err)
			}
			if got := omerrors.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if strings.Contains(err.Error(), testutils.FakeToken) {
				t.Errorf("Error leaks the token: %v", err)
			}

			var logicErr *omerrors.ServerLogicError
			if tt.wantCode != 0 {
				if !errors.As(err, &logicErr) || logicErr.Code != tt.wantCode {
					t.Errorf("Expected ServerLogicError code %d, got %v", tt.wantCode, err)
				}
			}
			var httpErr *omerrors.HTTPError
			if tt.wantStatus != 0 {
				if !errors.As(err, &httpErr) {
					t.Fatalf("Expected HTTPError, got %T", err)
				}
				if httpErr.StatusCode != tt.wantStatus || httpErr.ErrorCode != tt.failure.ErrorCode || httpErr.Message != tt.failure.Msg {
					t.Errorf("Unexpected HTTPError %+v", httpErr)
				}
			}
		})
	}
}

func TestTransportError_RedactsToken(t *testing.T) {
	fake := testutils.NewFakeController(t)
	var buf bytes.Buffer
	c := loggedInClient(t, fake, func(cfg *ClientConfig) { cfg.Logger = NewDefaultLogger(DebugLevel, &buf) })
	if _, err := c.ListScenarios(context.Background()); err != nil {
		t.Fatalf("ListScenarios failed: %v", err)
	}
	fake.Close()

	_, err := c.ListSites(context.Background())
	if err == nil {
		t.Fatal("Expected error from closed controller")
	}
	var transportErr *omerrors.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
	if !omerrors.IsTransient(err) {
		t.Error("Transport errors should be transient")
	}
	if strings.Contains(err.Error(), testutils.FakeToken) {
		t.Errorf("Error leaks the token: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, testutils.FakeToken) {
		t.Errorf("Debug log leaks the token: %s", out)
	}
	if !strings.Contains(out, "token=REDACTED") {
		t.Errorf("Expected redacted token in debug log, got %s", out)
	}
}

func TestRequests_WithoutLogin(t *testing.T) {
	fake := testutils.NewFakeController(t)
	c := newTestClient(t, fake)

	_, err := c.ListSites(context.Background())
	var httpErr *omerrors.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 HTTPError, got %v", err)
	}
	calls := fake.CallsTo(http.MethodGet, "/sites")
	if len(calls) != 1 || calls[0].Query.Has("token") || !calls[0].Query.Has("_") {
		t.Errorf("Expected one call without token but with timestamp, got %+v", calls)
	}
}
