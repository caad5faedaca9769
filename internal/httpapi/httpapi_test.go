package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/auth"
	"github.com/backboneproto/corechat/internal/authsvc"
	"github.com/backboneproto/corechat/internal/config"
	"github.com/backboneproto/corechat/internal/idgen"
	"github.com/backboneproto/corechat/internal/messagesvc"
	"github.com/backboneproto/corechat/internal/metrics"
	"github.com/backboneproto/corechat/internal/policy"
	"github.com/backboneproto/corechat/internal/push"
	"github.com/backboneproto/corechat/internal/ratelimit"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/roomsvc"
	"github.com/backboneproto/corechat/internal/store/memory"
)

func newTestApp(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	log := zap.NewNop().Sugar()
	tokens, err := auth.NewTokenAuth([]byte("01234567890123456789012345678901"), 1, 7*24*time.Hour)
	require.NoError(t, err)

	ids, err := idgen.New(1)
	require.NoError(t, err)

	hub := realtime.NewHub(log, metrics.New())
	t.Cleanup(hub.Shutdown)

	limiter, err := ratelimit.New(ratelimit.Config{
		MessagesPerWindow:  1000,
		MessagesWindowSec:  10,
		TranslatePerWindow: 1000,
		TranslateWindowSec: 10,
	}, nil)
	require.NoError(t, err)

	cfg := &config.Config{GoEnv: "test", AllowedOrigins: []string{"http://example.com"}}

	app := &App{
		Store:    st,
		Auth:     authsvc.New(st, tokens, true, log),
		Messages: messagesvc.New(st, policy.NewProfanityDetector(nil), nil, hub, push.NewRegistry(log), metrics.New(), log, time.Hour),
		Rooms:    roomsvc.New(st, ids, log),
		Gateway:  realtime.NewGateway(hub, log),
		Tokens:   tokens,
		Limiter:  limiter,
		Cfg:      cfg,
		Log:      log,
	}
	return app, app.NewRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, r *gin.Engine, username, email string) (sessionCookie *http.Cookie) {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"identifier": username,
		"password":   "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}

func TestRegisterLoginMe_RoundTrips(t *testing.T) {
	_, r := newTestApp(t)
	cookie := registerAndLogin(t, r, "alice", "alice@example.com")

	rec := doJSON(t, r, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp["username"])
}

func TestMe_RejectsMissingSession(t *testing.T) {
	_, r := newTestApp(t)
	rec := doJSON(t, r, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	_, r := newTestApp(t)
	rec := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"identifier": "bob",
		"password":   "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RequiresCSRFHeader(t *testing.T) {
	_, r := newTestApp(t)
	cookie := registerAndLogin(t, r, "carol", "carol@example.com")

	// Missing CSRF header is rejected even with a valid session cookie.
	rec := doJSON(t, r, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A matching CSRF header (double-submit of the first 16 bytes of the
	// session cookie) is accepted.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	req.Header.Set(csrfHeaderName, csrfTokenFor(cookie.Value))
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusNoContent, rec2.Code)
}

func TestRegister_RejectsInvalidPayload(t *testing.T) {
	_, r := newTestApp(t)
	rec := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoom_RequiresAuthentication(t *testing.T) {
	_, r := newTestApp(t)
	rec := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"isGroup": false})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRoom_RejectsMissingCSRFHeader(t *testing.T) {
	_, r := newTestApp(t)
	cookie := registerAndLogin(t, r, "dave", "dave@example.com")

	rec := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"isGroup": false}, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
