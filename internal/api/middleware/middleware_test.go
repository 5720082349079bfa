package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokerstats/internal/api/apierr"
	"github.com/mcoot/pokerstats/internal/dependencies/mocks"
	basemw "github.com/mcoot/pokerstats/internal/middleware"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/testutil"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	cfg := auth.DefaultConfig()
	cfg.Secret = "test-secret"
	return auth.New(mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)), cfg)
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Viewer(r.Context())))
	})
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuth(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.IssueToken("u1", "", time.Hour)
	require.NoError(t, err)

	h := Auth(svc)(identityEcho())

	rr := serve(h, token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", rr.Body.String())

	rr = serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
}

func TestOptionalAuth(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.IssueToken("u1", "", time.Hour)
	require.NoError(t, err)

	h := OptionalAuth(svc)(identityEcho())

	assert.Equal(t, "u1", serve(h, token).Body.String())
	assert.Equal(t, "", serve(h, "").Body.String())

	rr := serve(h, "garbage")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "", rr.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	svc := newAuthService(t)
	user, err := svc.IssueToken("u1", auth.RoleUser, time.Hour)
	require.NoError(t, err)
	admin, err := svc.IssueToken("a1", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)

	h := Auth(svc)(RequireAdmin(identityEcho()))

	assert.Equal(t, http.StatusForbidden, serve(h, user).Code)
	assert.Equal(t, http.StatusOK, serve(h, admin).Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewIPRateLimiter(2))(identityEcho())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}

func TestRecoveryWritesRequestID(t *testing.T) {
	logger := testutil.NopLogger()
	h := basemw.Logging(logger)(Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(basemw.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeInternalError, body.Error.Code)
	assert.Contains(t, body.Error.Message, "req-42")
}

func TestLogging(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	h := Logging(logger)(Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-7", basemw.RequestID(r.Context()))
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", nil)
	req.Header.Set(basemw.RequestIDHeader, "req-7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "req-7", rr.Header().Get(basemw.RequestIDHeader))

	entries := logs.Messages("http request")
	require.Len(t, entries, 1)
	assert.Equal(t, "req-7", entries[0]["request_id"])
	assert.Equal(t, "/api/v1/imports", entries[0]["path"])
	assert.EqualValues(t, http.StatusAccepted, entries[0]["status"])
}
