package records_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-records/records/internal/fixtures"
	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/rbac"
	"github.com/campus-records/records/internal/records"
	"github.com/campus-records/records/internal/sessions"
)

type campus struct {
	router  http.Handler
	student string
	staff   string
	// colleague tutors shyl0 and shyl2 and teaches 25100 and 25420.
	colleague string
}

func newCampus(t *testing.T) campus {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	people, store, err := fixtures.Default().Load(fixtures.DefaultPassword)
	require.NoError(t, err)

	manager := sessions.NewManager(sessions.NewMemoryStore(), sessions.Config{TTL: time.Hour}, logger)
	mw := rbac.Middleware{
		Sessions:  manager,
		Evaluator: rbac.NewEvaluator(people, logger),
		Logger:    logger,
		Policy:    httpx.DefaultErrorPolicy(),
	}
	r := chi.NewRouter()
	records.NewHandler(logger, store, mw).MountRoutes(r)

	student, err := manager.Mint(context.Background(), "shyl1", principals.RoleStudent)
	require.NoError(t, err)
	staff, err := manager.Mint(context.Background(), "shyl3", principals.RoleStaff)
	require.NoError(t, err)
	colleague, err := manager.Mint(context.Background(), "shyl4", principals.RoleStaff)
	require.NoError(t, err)
	return campus{router: r, student: student.Token, staff: staff.Token, colleague: colleague.Token}
}

func (c campus) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func TestRecordRoutesStatus(t *testing.T) {
	c := newCampus(t)
	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"own profile", "/get/student/profile/shyl1", c.student, http.StatusOK},
		{"other profile", "/get/student/profile/shyl", c.student, http.StatusUnauthorized},
		{"missing user", "/get/student/profile/", c.student, http.StatusNotFound},
		{"no session", "/get/student/profile/shyl1", "", http.StatusUnauthorized},
		{"past modules", "/get/student/modules/past/shyl1", c.student, http.StatusOK},
		{"current modules", "/get/student/modules/now/shyl1", c.student, http.StatusOK},
		{"unknown period", "/get/student/modules/later/shyl1", c.student, http.StatusNotFound},
		{"other modules", "/get/student/modules/now/shyl", c.student, http.StatusUnauthorized},
		{"timetable", "/get/student/cwk/timetable/shyl1", c.student, http.StatusOK},
		{"unknown view", "/get/student/cwk/grades/shyl1", c.student, http.StatusNotFound},
		{"other timetable", "/get/student/cwk/timetable/shyl0", c.student, http.StatusUnauthorized},
		{"missing cwk user", "/get/student/cwk/results/", c.student, http.StatusNotFound},
		{"student staff profile", "/get/staff/profile/shyl1", c.student, http.StatusUnauthorized},
		{"student reads staff", "/get/staff/profile/shyl3", c.student, http.StatusUnauthorized},
		{"staff profile", "/get/staff/profile/shyl3", c.staff, http.StatusOK},
		{"staff modules", "/get/staff/modules/shyl3", c.staff, http.StatusOK},
		{"staff tutees", "/get/staff/tutees/shyl3", c.staff, http.StatusOK},
		{"missing staff", "/get/staff/tutees/", c.staff, http.StatusNotFound},
		{"tutee profile", "/get/student/profile/shyl1", c.staff, http.StatusOK},
		{"tutee modules", "/get/student/modules/now/shyl1", c.staff, http.StatusOK},
		{"tutee timetable", "/get/student/cwk/timetable/shyl1", c.staff, http.StatusOK},
		{"non-tutee profile", "/get/student/profile/shyl2", c.staff, http.StatusUnauthorized},
		{"taught roster", "/get/module/students/25351", c.staff, http.StatusOK},
		{"untaught roster", "/get/module/students/25100", c.staff, http.StatusUnauthorized},
		{"student roster", "/get/module/students/25351", c.student, http.StatusUnauthorized},
		{"coursework roster", "/get/cwk/students/39041", c.staff, http.StatusOK},
		{"student coursework roster", "/get/cwk/students/39041", c.student, http.StatusUnauthorized},
		{"untaught coursework roster", "/get/cwk/students/39041", c.colleague, http.StatusUnauthorized},
		{"colleague coursework roster", "/get/cwk/students/39010", c.colleague, http.StatusOK},
		{"staff untaught coursework", "/get/cwk/students/39010", c.staff, http.StatusUnauthorized},
		{"student unknown coursework roster", "/get/cwk/students/0", c.student, http.StatusUnauthorized},
		{"search", "/search/25351", c.student, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := c.get(t, tc.path, tc.token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordRoutesPayloads(t *testing.T) {
	c := newCampus(t)

	rec := c.get(t, "/get/student/profile/shyl1", c.student)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.NotNil(t, profile["email"])
	assert.NotNil(t, profile["id"])

	for _, path := range []string{
		"/get/student/modules/past/shyl1",
		"/get/student/cwk/timetable/shyl1",
		"/get/staff/modules/shyl3",
		"/get/staff/tutees/shyl3",
	} {
		rec = c.get(t, path, c.staff)
		var items []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items), path)
		assert.NotEmpty(t, items, path)
	}

	rec = c.get(t, "/get/cwk/students/39041", c.staff)
	var results []records.CourseworkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "shyl1", results[0].Username)
	require.NotNil(t, results[0].Mark)
	assert.Equal(t, 68, *results[0].Mark)

	rec = c.get(t, "/get/module/25351", c.student)
	var module records.ModuleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &module))
	assert.Equal(t, "Distributed Systems", module.Name)
	assert.Equal(t, []string{"25100"}, module.Prerequisites)
}

func TestRecordRoutesSoftMisses(t *testing.T) {
	c := newCampus(t)

	rec := c.get(t, "/get/module/0", c.student)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prerequisites":null}`, rec.Body.String())

	rec = c.get(t, "/get/cwk/0", c.student)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = c.get(t, "/get/cwk/students/0", c.staff)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchRoute(t *testing.T) {
	c := newCampus(t)
	rec := c.get(t, "/search/25351", c.student)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Modules    []map[string]any `json:"modules"`
		Programmes []map[string]any `json:"programmes"`
		Staff      []map[string]any `json:"staff"`
		Students   []map[string]any `json:"students"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Modules)
	assert.Equal(t, "25351", result.Modules[0]["code"])
	assert.NotNil(t, result.Programmes)
	assert.NotNil(t, result.Staff)
	assert.NotNil(t, result.Students)
}

func TestSearchRouteLimitsStudents(t *testing.T) {
	c := newCampus(t)
	students := func(path, token string) []string {
		t.Helper()
		rec := c.get(t, path, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var result records.SearchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.NotNil(t, result.Students)
		names := []string{}
		for _, p := range result.Students {
			names = append(names, p.Username)
		}
		return names
	}

	assert.Empty(t, students("/search/liskov", c.student))
	assert.Equal(t, []string{"shyl1"}, students("/search/dijkstra", c.student))
	assert.Empty(t, students("/search/liskov", c.staff))
	assert.Equal(t, []string{"shyl2"}, students("/search/liskov", c.colleague))
	assert.Equal(t, []string{"shyl0", "shyl2"}, students("/search/shyl", c.colleague))
}
