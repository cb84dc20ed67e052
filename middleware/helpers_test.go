package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore() *services.SessionStore {
	return services.NewSessionStore(testSecret, false)
}

// sessionCookie returns a valid drive_session cookie for user.
func sessionCookie(t *testing.T, store *services.SessionStore, user models.UserSummary) *http.Cookie {
	t.Helper()
	value, err := store.Encode(models.Session{Token: "upstream-token-123", User: user})
	require.NoError(t, err)
	return &http.Cookie{Name: services.SessionCookieName, Value: value}
}

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	}
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}
