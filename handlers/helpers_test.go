package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oganilir/drive-bff/config"
	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// recordedCall is one request seen by the fake upstream.
type recordedCall struct {
	Method      string
	Path        string
	Query       string
	Auth        string
	ContentType string
	Body        []byte
}

// fakeUpstream is an httptest drive API that records every call.
type fakeUpstream struct {
	*httptest.Server
	mu    sync.Mutex
	calls []recordedCall
}

func newFakeUpstream(t *testing.T, handler http.HandlerFunc) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// reply answers every call with status and a JSON body.
func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

// routes dispatches by upstream path; unknown paths get 404 JSON.
func routes(byPath map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byPath[r.URL.Path]; ok {
			h(w, r)
			return
		}
		reply(http.StatusNotFound, `{"message":"not found"}`)(w, r)
	}
}

func testUser() models.UserSummary {
	return models.UserSummary{ID: 7, Fullname: "Siti Aminah", Email: "siti@oganilir.go.id", Access: true}
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		APIBaseURL:      apiURL,
		AppURL:          "http://localhost:8080",
		UpstreamTimeout: 2 * time.Second,
		MaxUploadMB:     1,
	}
}

// newTestHandler wires a handler and a router without CSRF or rate limits.
func newTestHandler(t *testing.T, apiURL string) (*Handler, http.Handler) {
	t.Helper()
	cfg := testConfig(apiURL)
	h := NewHandler(cfg, services.NewSessionStore(testSecret, false), services.NewUpstreamClient(apiURL, cfg.UpstreamTimeout))
	return h, NewRouter(h, RouterOptions{})
}

// sessionCookie builds a valid drive_session cookie.
func sessionCookie(t *testing.T, h *Handler, token string, user models.UserSummary) *http.Cookie {
	t.Helper()
	value, err := h.sessions.Encode(models.Session{Token: token, User: user})
	require.NoError(t, err)
	return &http.Cookie{Name: services.SessionCookieName, Value: value}
}

func newRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return resp
}

// findCookie returns the last Set-Cookie for name
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
