// ABOUTME: Tests for file and folder handlers against a fake upstream
// ABOUTME: Covers local validation, token forwarding and the response shaping of proxied calls

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const upstreamToken = "upstream-token-123"

func authed(t *testing.T, h *Handler, req *http.Request) *http.Request {
	t.Helper()
	req.AddCookie(sessionCookie(t, h, upstreamToken, testUser()))
	return req
}

func TestProtectedRoutes_NoSessionNeverCallsUpstream(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"data":[]}`))
	h, router := newTestHandler(t, up.URL)

	bodies := map[string]string{
		http.MethodPost: `{"name":"x","ids":[1],"sourceIds":[1],"targetId":0,"slug":"abc","is_public":true,"access":true}`,
		http.MethodPut:  `{"name":"x","access":true}`,
	}
	public := map[string]bool{
		"/api/health": true, "/api/auth/login": true, "/api/auth/logout": true, "/api/auth/me": true,
	}

	for _, route := range h.Routes() {
		if public[route.Path] || strings.HasPrefix(route.Path, "/auth/") {
			continue
		}
		path := strings.NewReplacer("{slug}", "abc", "{id}", "1").Replace(route.Path)
		rr := do(router, newRequest(route.Method, path, bodies[route.Method]))

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.Method, route.Path)
		assert.Equal(t, notAuthenticatedMessage, decodeResponse(t, rr).Message, "%s %s", route.Method, route.Path)
	}
	assert.Empty(t, up.Calls())
}

func TestProtectedRoutes_TamperedCookieIsUnauthenticated(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"data":[]}`))
	_, router := newTestHandler(t, up.URL)

	forged, err := services.NewSessionStore("a-different-secret-of-32-characters", false).
		Encode(models.Session{Token: upstreamToken, User: testUser()})
	require.NoError(t, err)
	req := newRequest(http.MethodGet, "/api/folder", "")
	req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: forged})

	rr := do(router, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, up.Calls())
}

func TestListFolder_ForwardsTokenAndQuery(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"status":"success","data":[{"id":1,"name":"Arsip"}]}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/folder?folder=abc&page=2", "")))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"data":[{"id":1,"name":"Arsip"}]}`, rr.Body.String())

	calls := up.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "/folder", calls[0].Path)
	assert.Equal(t, "folder=abc&page=2", calls[0].Query)
	assert.Equal(t, "Bearer "+upstreamToken, calls[0].Auth)
}

func TestGetFolders_ForwardsExcludeIDs(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"data":[]}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/getFolders?excludeIds=3,4", "")))
	require.Equal(t, http.StatusOK, rr.Code)

	calls := up.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/getFolders", calls[0].Path)
	assert.Equal(t, "excludeIds=3%2C4", calls[0].Query)
}

func TestSearch(t *testing.T) {
	t.Run("blank keyword is rejected locally", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{"data":[]}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/search?keyword=%20%20", "")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgEmptyKeyword, decodeResponse(t, rr).Message)
		assert.Empty(t, up.Calls())
	})

	t.Run("keyword is trimmed", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{"data":[]}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/search?keyword=%20laporan%20", "")))
		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, up.Calls(), 1)
		assert.Equal(t, "keyword=laporan", up.Calls()[0].Query)
	})
}

func TestCreateFolder(t *testing.T) {
	t.Run("whitespace name never reaches upstream", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{"data":{}}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/folder", `{"name":"   "}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgEmptyName, decodeResponse(t, rr).Message)
		assert.Empty(t, up.Calls())
	})

	t.Run("trimmed name and parent are forwarded", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{"data":{"id":9,"name":"Laporan"}}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/folder", `{"name":"  Laporan ","parent_id":4}`)))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{"message":"Berhasil membuat folder","data":{"id":9,"name":"Laporan"}}`, rr.Body.String())

		calls := up.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPost, calls[0].Method)
		assert.Equal(t, "/folder", calls[0].Path)
		assert.JSONEq(t, `{"name":"Laporan","parent_id":4}`, string(calls[0].Body))
	})

	t.Run("malformed body", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/folder", `{"name":`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, up.Calls())
	})
}

func TestRename_EndToEnd(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"status":200,"data":{"id":3,"name":"Baru"}}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodPut, "/api/rename/f-3a9", `{"name":"Baru"}`)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Berhasil mengubah nama","data":{"id":3,"name":"Baru"}}`, rr.Body.String())

	calls := up.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/rename/f-3a9", calls[0].Path)
	assert.JSONEq(t, `{"name":"Baru"}`, string(calls[0].Body))
}

func TestRename_UpstreamMessageWins(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{"message":"Nama diperbarui","data":null}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodPut, "/api/rename/abc", `{"name":"Baru"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Nama diperbarui", decodeResponse(t, rr).Message)
}

func TestRename_InvalidSlug(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodPut, "/api/rename/..", `{"name":"Baru"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgInvalidSlug, decodeResponse(t, rr).Message)
	assert.Empty(t, up.Calls())
}

func TestIDsOperations_RejectEmptyLists(t *testing.T) {
	for _, path := range []string{"/api/delete", "/api/forceDelete", "/api/restore", "/api/setFavorite"} {
		for _, body := range []string{`{}`, `{"ids":[]}`, `{"ids":null}`, `{"ids":5}`, `{"ids":"1,2"}`} {
			t.Run(path+" "+body, func(t *testing.T) {
				up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
				h, router := newTestHandler(t, up.URL)

				rr := do(router, authed(t, h, newRequest(http.MethodPost, path, body)))
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, msgEmptyIDs, decodeResponse(t, rr).Message)
				assert.Empty(t, up.Calls())
			})
		}
	}
}

func TestIDsOperations_ForwardIDsUnchanged(t *testing.T) {
	cases := map[string]string{
		"/api/delete":      "/delete",
		"/api/forceDelete": "/forceDelete",
		"/api/restore":     "/restore",
	}
	for path, upstreamPath := range cases {
		t.Run(path, func(t *testing.T) {
			up := newFakeUpstream(t, reply(http.StatusOK, `{"data":null}`))
			h, router := newTestHandler(t, up.URL)

			rr := do(router, authed(t, h, newRequest(http.MethodPost, path, `{"ids":[1,"f-2"]}`)))
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decodeResponse(t, rr).Message)

			calls := up.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, upstreamPath, calls[0].Path)
			assert.JSONEq(t, `{"ids":[1,"f-2"]}`, string(calls[0].Body))
		})
	}
}

func TestMoveItems(t *testing.T) {
	t.Run("root target is valid", func(t *testing.T) {
		for _, target := range []string{`0`, `"0"`} {
			up := newFakeUpstream(t, reply(http.StatusOK, `{"data":null}`))
			h, router := newTestHandler(t, up.URL)

			rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/moveItem", `{"sourceIds":[5],"targetId":`+target+`}`)))
			require.Equal(t, http.StatusOK, rr.Code, "target %s: %s", target, rr.Body.String())
			assert.Equal(t, "Berhasil memindahkan item", decodeResponse(t, rr).Message)
			require.Len(t, up.Calls(), 1)

			var forwarded map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(up.Calls()[0].Body, &forwarded))
			assert.JSONEq(t, target, string(forwarded["targetId"]))
		}
	})

	t.Run("missing target", func(t *testing.T) {
		for _, body := range []string{`{"sourceIds":[5]}`, `{"sourceIds":[5],"targetId":null}`, `{"sourceIds":[5],"targetId":""}`} {
			up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
			h, router := newTestHandler(t, up.URL)

			rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/moveItem", body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
			assert.Equal(t, msgNoTarget, decodeResponse(t, rr).Message)
			assert.Empty(t, up.Calls())
		}
	})

	t.Run("empty sources", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/moveItem", `{"sourceIds":[],"targetId":2}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgEmptySources, decodeResponse(t, rr).Message)
		assert.Empty(t, up.Calls())
	})
}

func TestForward_BusinessErrorPassesThrough(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusUnprocessableEntity, `{"status":"error","message":"Nama sudah dipakai","data":{"field":"name"}}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/folder", `{"name":"Arsip"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"status":"error","message":"Nama sudah dipakai","data":{"field":"name"}}`, rr.Body.String())
}

func TestForward_BusinessErrorDefaultMessage(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusInternalServerError, `{}`))
	h, router := newTestHandler(t, up.URL)

	rr := do(router, authed(t, h, newRequest(http.MethodPost, "/api/delete", `{"ids":[1]}`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Gagal menghapus item", decodeResponse(t, rr).Message)
}

func TestForward_UpstreamUnauthenticated(t *testing.T) {
	up := newFakeUpstream(t, reply(http.StatusUnauthorized, `{"message":"Unauthenticated."}`))
	h, router := newTestHandler(t, up.URL)

	req := authed(t, h, newRequest(http.MethodGet, "/api/getFavoriteItems", ""))
	req.Header.Set("Referer", "http://localhost:3000/favorites?sort=name")
	rr := do(router, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	resp := decodeResponse(t, rr)
	assert.True(t, resp.IsUnauthenticated)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Unauthenticated.", resp.Message)
	assert.Equal(t, "/auth/session-expired?redirect=%2Ffavorites%3Fsort%3Dname", resp.Redirect)
}

func TestForward_TransportAndProtocolErrors(t *testing.T) {
	t.Run("html body is a server error", func(t *testing.T) {
		up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("<html>oops</html>"))
		})
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/folder", "")))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeResponse(t, rr)
		assert.Equal(t, internalErrorMessage, resp.Message)
		assert.NotContains(t, rr.Body.String(), "oops")
	})

	t.Run("timeout", func(t *testing.T) {
		up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		})
		h, router := newTestHandler(t, up.URL)
		h.upstream.SetHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})

		rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/folder", "")))
		assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
		assert.Equal(t, timeoutMessage, decodeResponse(t, rr).Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		up := newFakeUpstream(t, reply(http.StatusOK, `{}`))
		up.Close()
		h, router := newTestHandler(t, up.URL)

		rr := do(router, authed(t, h, newRequest(http.MethodGet, "/api/folder", "")))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, unavailableMessage, decodeResponse(t, rr).Message)
	})
}
