package rbac_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/rbac"
	"github.com/campus-records/records/internal/sessions"
)

func newProtectedRouter(t *testing.T, policy httpx.ErrorPolicy) (http.Handler, *sessions.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rel := principals.NewMemoryStore()
	rel.AssignTutee("shyl3", "shyl1")

	manager := sessions.NewManager(sessions.NewMemoryStore(), sessions.Config{TTL: time.Hour}, logger)
	mw := rbac.Middleware{
		Sessions:  manager,
		Evaluator: rbac.NewEvaluator(rel, logger),
		Logger:    logger,
		Policy:    policy,
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.With(mw.Require(rbac.StudentProfile, "user")).Get("/student/{user}", func(w http.ResponseWriter, r *http.Request) {
			sess, ok := sessions.FromContext(r.Context())
			require.True(t, ok)
			_, _ = w.Write([]byte(sess.Username))
		})
		r.With(mw.Require(rbac.StaffTutees, "user")).Get("/staff/{user}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r, manager
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareRequiresSession(t *testing.T) {
	h, _ := newProtectedRouter(t, httpx.DefaultErrorPolicy())

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/student/shyl1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/student/shyl1", "not-a-token").Code)
}

func TestMiddlewareAppliesDecisions(t *testing.T) {
	h, manager := newProtectedRouter(t, httpx.DefaultErrorPolicy())
	ctx := context.Background()
	student, err := manager.Mint(ctx, "shyl1", principals.RoleStudent)
	require.NoError(t, err)
	staff, err := manager.Mint(ctx, "shyl3", principals.RoleStaff)
	require.NoError(t, err)

	rec := get(t, h, "/student/shyl1", student.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shyl1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/student/shyl2", student.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/staff/shyl1", student.Token).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/student/shyl1", staff.Token).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/staff/shyl3", staff.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/student/shyl2", staff.Token).Code)
}

func TestMiddlewareUsesConfiguredDenyStatus(t *testing.T) {
	h, manager := newProtectedRouter(t, httpx.ErrorPolicy{DenyStatus: http.StatusForbidden})
	sess, err := manager.Mint(context.Background(), "shyl1", principals.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(t, h, "/student/shyl2", sess.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/student/shyl2", "").Code)
}
