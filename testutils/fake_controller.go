package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const (
	// FakeToken is the token the fake controller issues unless told otherwise.
	FakeToken = "fake-token-0123456789"

	fakeAPIPrefix = "/api/v2"

	errCodeSessionTimeout = -1200
	errCodeNotFound       = -39002
)

// Call is one request received by the fake controller.
type Call struct {
	Method string
	// Path is relative to the API prefix, e.g. "/sites/Default/eaps/AA:BB".
	Path   string
	Query  url.Values
	Header http.Header
	// Body is the decoded JSON body, nil when the request had none.
	Body    map[string]any
	RawBody string
}

// Failure makes a device endpoint answer with an error envelope.
type Failure struct {
	Status    int
	ErrorCode int
	Msg       string
}

// FakeController is an in-process Omada controller speaking the /api/v2 envelope protocol.
// Collections are plain JSON-like maps so tests can describe any field the real controller sends.
type FakeController struct {
	server *httptest.Server

	mu               sync.RWMutex
	calls            []Call
	token            string
	loginResult      map[string]any
	loginStatusCode  int
	logoutStatusCode int
	admins           []map[string]any
	sites            []map[string]any
	scenarios        []string
	settings         map[string]map[string]any
	devices          map[string][]map[string]any
	failures         map[string]Failure
}

// NewFakeController starts a fake controller that is closed when the test ends.
func NewFakeController(t testing.TB) *FakeController {
	t.Helper()

	f := &FakeController{
		token:            FakeToken,
		loginStatusCode:  http.StatusOK,
		logoutStatusCode: http.StatusOK,
		scenarios:        []string{"Office", "Hotel", "Home"},
		settings:         make(map[string]map[string]any),
		devices:          make(map[string][]map[string]any),
		failures:         make(map[string]Failure),
	}
	f.server = httptest.NewServer(f.router())
	t.Cleanup(f.server.Close)
	return f
}

// URL is the controller base URL, without the API prefix.
func (f *FakeController) URL() string {
	return f.server.URL
}

// Close shuts the server down early, e.g. to simulate an unreachable controller.
func (f *FakeController) Close() {
	f.server.Close()
}

// SetToken changes the token issued at login.
func (f *FakeController) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// SetLoginResult replaces the `result` object of the login response verbatim.
func (f *FakeController) SetLoginResult(result map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginResult = result
}

// SetLoginStatusCode sets the HTTP status of /loginStatus for a valid token.
func (f *FakeController) SetLoginStatusCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginStatusCode = code
}

// SetLogoutStatusCode sets the HTTP status of /logout.
func (f *FakeController) SetLogoutStatusCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutStatusCode = code
}

func (f *FakeController) SetAdmins(admins ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins = admins
}

func (f *FakeController) SetSites(sites ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sites = sites
}

func (f *FakeController) SetScenarios(scenarios ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scenarios = scenarios
}

func (f *FakeController) SetSettings(site string, settings map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[site] = settings
}

// SetDevices replaces the device list of a site. Each device needs a "mac".
func (f *FakeController) SetDevices(site string, devices ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[site] = devices
}

// Device returns the current state of a device, patches applied.
func (f *FakeController) Device(site, mac string) (map[string]any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d := f.findDevice(site, mac)
	return d, d != nil
}

// SetFailure makes every call to the device's EAP endpoint fail.
func (f *FakeController) SetFailure(mac string, failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if failure.Status == 0 {
		failure.Status = http.StatusOK
	}
	f.failures[mac] = failure
}

// Calls returns every request received so far, in order.
func (f *FakeController) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the calls with the given method whose path starts with prefix.
func (f *FakeController) CallsTo(method, prefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// GetCallCount returns how many requests hit exactly method and path.
func (f *FakeController) GetCallCount(method, path string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// ResetCalls forgets all recorded requests.
func (f *FakeController) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeController) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Route(fakeAPIPrefix, func(r chi.Router) {
		r.Post("/login", f.handleLogin)
		r.Post("/logout", f.handleLogout)
		r.Get("/loginStatus", f.handleLoginStatus)

		r.Group(func(r chi.Router) {
			r.Use(f.requireToken)
			r.Get("/users", f.handleList(func() any { return f.admins }))
			r.Get("/sites", f.handleList(func() any { return f.sites }))
			r.Get("/scenarios", f.handleScenarios)
			r.Get("/sites/{site}/setting", f.handleSettings)
			r.Get("/sites/{site}/devices", f.handleDevices)
			r.Get("/sites/{site}/eaps/{mac}", f.handleGetEAP)
			r.Patch("/sites/{site}/eaps/{mac}", f.handlePatchEAP)
		})
	})
	return r
}

func writeEnvelope(w http.ResponseWriter, status, errorCode int, msg string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := map[string]any{"errorCode": errorCode, "msg": msg}
	if result != nil {
		env["result"] = result
	}
	_ = json.NewEncoder(w).Encode(env)
}

func (f *FakeController) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		call := Call{
			Method:  r.Method,
			Path:    strings.TrimPrefix(r.URL.Path, fakeAPIPrefix),
			Query:   r.URL.Query(),
			Header:  r.Header.Clone(),
			RawBody: string(raw),
		}
		if len(raw) > 0 {
			var body map[string]any
			if err := json.Unmarshal(raw, &body); err == nil {
				call.Body = body
			}
		}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(raw)))
		next.ServeHTTP(w, r)
	})
}

func (f *FakeController) validToken(r *http.Request) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	token := r.URL.Query().Get("token")
	return token != "" && token == f.token && r.Header.Get("Csrf-Token") == token
}

func (f *FakeController) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.validToken(r) {
			writeEnvelope(w, http.StatusUnauthorized, errCodeSessionTimeout, "Session timed out", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeController) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeEnvelope(w, http.StatusOK, -30109, "Invalid username or password.", nil)
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	result := f.loginResult
	if result == nil {
		result = map[string]any{"roleType": 0, "token": f.token}
	}
	writeEnvelope(w, http.StatusOK, 0, "Log in successfully.", result)
}

func (f *FakeController) handleLogout(w http.ResponseWriter, _ *http.Request) {
	f.mu.RLock()
	code := f.logoutStatusCode
	f.mu.RUnlock()
	writeEnvelope(w, code, 0, "Success.", nil)
}

func (f *FakeController) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	if !f.validToken(r) {
		writeEnvelope(w, http.StatusUnauthorized, errCodeSessionTimeout, "Session timed out", nil)
		return
	}
	f.mu.RLock()
	code := f.loginStatusCode
	f.mu.RUnlock()
	writeEnvelope(w, code, 0, "Success.", map[string]any{"login": code == http.StatusOK})
}

func (f *FakeController) handleList(rows func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f.mu.RLock()
		defer f.mu.RUnlock()
		data := rows()
		total := 0
		if list, ok := data.([]map[string]any); ok {
			total = len(list)
			if list == nil {
				data = []map[string]any{}
			}
		}
		writeEnvelope(w, http.StatusOK, 0, "Success.", map[string]any{
			"totalRows":   total,
			"currentPage": 1,
			"currentSize": total,
			"data":        data,
		})
	}
}

func (f *FakeController) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	writeEnvelope(w, http.StatusOK, 0, "Success.", f.scenarios)
}

func (f *FakeController) handleSettings(w http.ResponseWriter, r *http.Request) {
	site := urlParam(r, "site")
	f.mu.RLock()
	defer f.mu.RUnlock()
	settings, ok := f.settings[site]
	if !ok {
		writeEnvelope(w, http.StatusOK, errCodeNotFound, "Site not found.", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, 0, "Success.", settings)
}

func (f *FakeController) handleDevices(w http.ResponseWriter, r *http.Request) {
	site := urlParam(r, "site")
	f.mu.RLock()
	defer f.mu.RUnlock()
	devices := f.devices[site]
	if devices == nil {
		devices = []map[string]any{}
	}
	writeEnvelope(w, http.StatusOK, 0, "Success.", devices)
}

func (f *FakeController) handleGetEAP(w http.ResponseWriter, r *http.Request) {
	site, mac := urlParam(r, "site"), urlParam(r, "mac")
	f.mu.RLock()
	defer f.mu.RUnlock()
	if failure, ok := f.failures[mac]; ok {
		writeEnvelope(w, failure.Status, failure.ErrorCode, failure.Msg, nil)
		return
	}
	device := f.findDevice(site, mac)
	if device == nil {
		writeEnvelope(w, http.StatusOK, errCodeNotFound, "The device does not exist.", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, 0, "Success.", device)
}

// handlePatchEAP merges the body into the stored device, one level deep for nested settings.
func (f *FakeController) handlePatchEAP(w http.ResponseWriter, r *http.Request) {
	site, mac := urlParam(r, "site"), urlParam(r, "mac")
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeEnvelope(w, http.StatusBadRequest, -1001, "Invalid request parameters.", nil)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if failure, ok := f.failures[mac]; ok {
		writeEnvelope(w, failure.Status, failure.ErrorCode, failure.Msg, nil)
		return
	}
	device := f.findDevice(site, mac)
	if device == nil {
		writeEnvelope(w, http.StatusOK, errCodeNotFound, "The device does not exist.", nil)
		return
	}
	for key, value := range patch {
		nested, isMap := value.(map[string]any)
		current, hasMap := device[key].(map[string]any)
		if isMap && hasMap {
			for k, v := range nested {
				current[k] = v
			}
			continue
		}
		device[key] = value
	}
	writeEnvelope(w, http.StatusOK, 0, "Success.", nil)
}

// findDevice must be called with f.mu held.
func (f *FakeController) findDevice(site, mac string) map[string]any {
	for _, d := range f.devices[site] {
		if m, _ := d["mac"].(string); m == mac {
			return d
		}
	}
	return nil
}

func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
