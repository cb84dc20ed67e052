// ABOUTME: Test helpers for e2e tests
// ABOUTME: Starts a fake drive API and the full BFF stack behind a real HTTP server

package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oganilir/drive-bff/config"
	"github.com/oganilir/drive-bff/handlers"
	"github.com/oganilir/drive-bff/middleware"
	"github.com/oganilir/drive-bff/services"
)

const (
	testSecret   = "e2e-secret-e2e-secret-e2e-secret"
	upstreamTok  = "drive-api-token-0001"
	profileJSON  = `{"status":"success","data":{"id":7,"fullname":"Siti Aminah","email":"siti@oganilir.go.id","access":true}}`
	loginReplyOK = `{"status":"success","data":{"token":"` + upstreamTok + `"}}`
)

// withTestEnv sets the minimal BFF environment plus additional vars,
// returning a cleanup function that restores all original values.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(withTestEnv(t, apiURL, map[string]string{
//	        "CORS_ALLOWED_ORIGINS": "https://example.com",
//	    }))
//	}
func withTestEnv(t *testing.T, apiURL string, extra map[string]string) func() {
	t.Helper()

	vars := map[string]string{
		"API_BASE_URL":       apiURL,
		"SESSION_SECRET":     testSecret,
		"APP_ENV":            "development",
		"GOOGLE_CLIENT_ID":   "",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range extra {
		vars[key] = value
	}

	originals := make(map[string]*string, len(vars))
	for key := range vars {
		if v, ok := os.LookupEnv(key); ok {
			originals[key] = &v
		} else {
			originals[key] = nil
		}
	}
	for key, value := range vars {
		os.Setenv(key, value)
	}

	return func() {
		for key, value := range originals {
			if value == nil {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, *value)
			}
		}
	}
}

// driveAPI is a fake upstream that answers by path and counts calls.
type driveAPI struct {
	*httptest.Server
	mu      sync.Mutex
	replies map[string]reply
	calls   map[string]int
	auth    map[string]string
}

type reply struct {
	status int
	body   string
}

func newDriveAPI(t *testing.T) *driveAPI {
	t.Helper()
	api := &driveAPI{
		replies: map[string]reply{
			"/login":      {http.StatusOK, loginReplyOK},
			"/getProfile": {http.StatusOK, profileJSON},
		},
		calls: make(map[string]int),
		auth:  make(map[string]string),
	}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		api.mu.Lock()
		api.calls[r.URL.Path]++
		api.auth[r.URL.Path] = r.Header.Get("Authorization")
		rep, ok := api.replies[r.URL.Path]
		api.mu.Unlock()
		if !ok {
			rep = reply{http.StatusNotFound, `{"message":"Not Found"}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		io.WriteString(w, rep.body)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *driveAPI) set(path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[path] = reply{status, body}
}

func (a *driveAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func (a *driveAPI) lastAuth(path string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.auth[path]
}

// newStack loads config from the environment and serves the full router.
func newStack(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	sessions := services.NewSessionStore(cfg.SessionSecret, cfg.CookieSecure)
	h := handlers.NewHandler(cfg, sessions, services.NewUpstreamClient(cfg.APIBaseURL, cfg.UpstreamTimeout))

	opts := handlers.RouterOptions{
		CORSOrigins: cfg.CORSAllowedOrigins,
		CSRFEnabled: cfg.CSRFEnabled,
	}
	if cfg.RateLimitEnabled {
		opts.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute)
		opts.DefaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
	}

	srv := httptest.NewServer(handlers.NewRouter(h, opts))
	t.Cleanup(srv.Close)
	return srv
}

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// cookie returns the jar's value for name, or "".
func (b *browser) cookie(name string) string {
	req, _ := http.NewRequest(http.MethodGet, b.base, nil)
	for _, c := range b.client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// do sends a request, attaching the CSRF header from the jar like the web app does.
func (b *browser) do(method, path, body string) (*http.Response, map[string]interface{}) {
	b.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.base+path, reader)
	if err != nil {
		b.t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf := b.cookie(services.CSRFCookieName); csrf != "" && method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", csrf)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			b.t.Fatalf("%s %s: invalid JSON %q", method, path, raw)
		}
	}
	return resp, decoded
}
