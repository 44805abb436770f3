package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-records/records/internal/auth"
	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/sessions"
	_ "github.com/campus-records/records/testing"
)

type recordingRepo struct {
	mu      sync.Mutex
	created []sessions.Session
	deleted []string
}

func (r *recordingRepo) CreateSession(_ context.Context, sess sessions.Session, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, sess)
	return nil
}

func (r *recordingRepo) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, token)
	return nil
}

func (r *recordingRepo) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type fixture struct {
	router   http.Handler
	store    *principals.MemoryStore
	sessions *sessions.Manager
	repo     *recordingRepo
}

func newFixture(t *testing.T, loginLimit int) fixture {
	t.Helper()
	store := principals.NewMemoryStore()
	for _, p := range []struct {
		name string
		role principals.Role
	}{{"shyl1", principals.RoleStudent}, {"shyl2", principals.RoleStudent}, {"shyl3", principals.RoleStaff}} {
		salt, verifier, err := principals.NewCredentials("password")
		require.NoError(t, err)
		require.NoError(t, store.Add(principals.Principal{Username: p.name, Role: p.role, Salt: salt, Verifier: verifier}))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := sessions.NewManager(sessions.NewMemoryStore(), sessions.Config{TTL: time.Hour}, logger)
	repo := &recordingRepo{}
	handler := auth.NewHandler(logger, auth.NewService(store, manager, repo), manager, auth.HandlerConfig{
		Policy:     httpx.DefaultErrorPolicy(),
		LoginLimit: loginLimit,
	})
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return fixture{router: r, store: store, sessions: manager, repo: repo}
}

func (f fixture) do(t *testing.T, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f fixture) salt(t *testing.T, user string) string {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/get/salt/"+user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body auth.SaltResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Salt)
	return body.Salt
}

func TestSaltEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	first := f.salt(t, "shyl2")
	assert.Equal(t, first, f.salt(t, "shyl2"))

	rec := f.do(t, http.MethodGet, "/get/salt/user", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = f.do(t, http.MethodGet, "/get/salt/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenEndpointIssuesSession(t *testing.T) {
	f := newFixture(t, 0)
	digest := principals.Digest(f.salt(t, "shyl1"), "password")

	rec := f.do(t, http.MethodGet, "/get/token/shyl1", http.Header{"Authorization": {digest}})
	require.Equal(t, http.StatusOK, rec.Code)

	var body auth.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Token, 207)
	assert.Equal(t, "1", body.Level)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, body.Token, cookies[0].Value)

	sess, err := f.sessions.Resolve(context.Background(), body.Token)
	require.NoError(t, err)
	assert.Equal(t, "shyl1", sess.Username)
	assert.Len(t, f.repo.created, 1)
}

func TestTokenEndpointRejectsBadDigests(t *testing.T) {
	f := newFixture(t, 0)
	digest := principals.Digest(f.salt(t, "shyl2"), "password")

	cases := map[string]struct {
		path   string
		digest string
	}{
		"tampered digest":   {"/get/token/shyl2", digest + "1"},
		"wrong password":    {"/get/token/shyl2", principals.Digest(f.salt(t, "shyl2"), "hunter2")},
		"replayed for user": {"/get/token/shyl1", digest},
		"unknown user":      {"/get/token/shyl5", digest},
		"missing header":    {"/get/token/shyl2", ""},
	}
	var bodies []string
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.path, http.Header{"Authorization": {tc.digest}})
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			bodies = append(bodies, rec.Body.String())
		})
	}
	for _, body := range bodies[1:] {
		assert.Equal(t, bodies[0], body, "failures must be indistinguishable")
	}
	assert.Empty(t, f.repo.created)
}

func TestTokenEndpointRejectsOtherMethods(t *testing.T) {
	f := newFixture(t, 0)
	digest := principals.Digest(f.salt(t, "shyl2"), "password")
	rec := f.do(t, http.MethodPost, "/get/token/shyl5", http.Header{"Authorization": {digest}})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTokenEndpointIsRateLimited(t *testing.T) {
	f := newFixture(t, 2)
	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodGet, "/get/token/shyl2", http.Header{"Authorization": {"x"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/get/token/shyl2", http.Header{"Authorization": {"x"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t, 0)
	sess, err := f.sessions.Mint(context.Background(), "shyl1", principals.RoleStudent)
	require.NoError(t, err)
	cookie := http.Header{"Cookie": {"token=" + sess.Token}}

	rec := f.do(t, http.MethodGet, "/test/auth/shyl1", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/test/auth/shyl3", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/logout", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{sess.Token}, f.repo.deleted)

	rec = f.do(t, http.MethodGet, "/test/auth/shyl1", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/problem+json"))
}
