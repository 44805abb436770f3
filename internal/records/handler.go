package records

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/rbac"
	"github.com/campus-records/records/internal/sessions"
	"github.com/campus-records/records/internal/shared"
)

// Handler serves record lookups behind the access evaluator.
type Handler struct {
	logger   *slog.Logger
	store    Store
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store Store, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, rbac: mw, validate: validator.New()}
}

// MountRoutes registers record routes. Every route requires a session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)

		r.With(h.rbac.Require(rbac.StudentProfile, "user")).Get("/get/student/profile/{user}", h.handleStudentProfile)
		r.With(h.rbac.Require(rbac.StudentModules, "user")).Get("/get/student/modules/{time}/{user}", h.handleStudentModules)
		r.With(h.rbac.Require(rbac.StudentCoursework, "user")).Get("/get/student/cwk/{type}/{user}", h.handleStudentCoursework)

		r.With(h.rbac.Require(rbac.StaffProfile, "user")).Get("/get/staff/profile/{user}", h.handleStaffProfile)
		r.With(h.rbac.Require(rbac.StaffModules, "user")).Get("/get/staff/modules/{user}", h.handleStaffModules)
		r.With(h.rbac.Require(rbac.StaffTutees, "user")).Get("/get/staff/tutees/{user}", h.handleTutees)

		r.With(h.rbac.Require(rbac.CatalogModule, "")).Get("/get/module/{code}", h.handleModule)
		r.With(h.rbac.Require(rbac.ModuleStudents, "code")).Get("/get/module/students/{code}", h.handleModuleStudents)
		r.With(h.rbac.Require(rbac.CatalogCoursework, "")).Get("/get/cwk/{code}", h.handleCoursework)
		r.Get("/get/cwk/students/{code}", h.handleCourseworkStudents)
		r.With(h.rbac.Require(rbac.CatalogSearch, "")).Get("/search/{query}", h.handleSearch)
	})
}

func (h *Handler) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.StudentProfile(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, "student profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) handleStudentModules(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "time")
	if err := h.validate.Var(period, "required,oneof=past now"); err != nil {
		h.rbac.Policy.RespondError(w, shared.ErrNotFound)
		return
	}
	modules, err := h.store.StudentModules(r.Context(), chi.URLParam(r, "user"), Period(period))
	if err != nil {
		h.fail(w, "student modules", err)
		return
	}
	httpx.JSON(w, http.StatusOK, modules)
}

func (h *Handler) handleStudentCoursework(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "type")
	if err := h.validate.Var(view, "required,oneof=timetable results"); err != nil {
		h.rbac.Policy.RespondError(w, shared.ErrNotFound)
		return
	}
	coursework, err := h.store.StudentCoursework(r.Context(), chi.URLParam(r, "user"), CourseworkView(view))
	if err != nil {
		h.fail(w, "student coursework", err)
		return
	}
	httpx.JSON(w, http.StatusOK, coursework)
}

func (h *Handler) handleStaffProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.StaffProfile(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, "staff profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) handleStaffModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.store.StaffModules(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, "staff modules", err)
		return
	}
	httpx.JSON(w, http.StatusOK, modules)
}

func (h *Handler) handleTutees(w http.ResponseWriter, r *http.Request) {
	tutees, err := h.store.Tutees(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, "tutees", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tutees)
}

// handleModule answers unknown codes with an empty detail rather than 404.
func (h *Handler) handleModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.store.Module(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, shared.ErrNotFound) {
		httpx.JSON(w, http.StatusOK, ModuleDetail{})
		return
	}
	if err != nil {
		h.fail(w, "module", err)
		return
	}
	httpx.JSON(w, http.StatusOK, module)
}

func (h *Handler) handleModuleStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ModuleStudents(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, "module students", err)
		return
	}
	httpx.JSON(w, http.StatusOK, students)
}

func (h *Handler) handleCoursework(w http.ResponseWriter, r *http.Request) {
	coursework, err := h.store.Coursework(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, "coursework", err)
		return
	}
	httpx.JSON(w, http.StatusOK, coursework)
}

// handleCourseworkStudents authorizes against the module owning the
// coursework. Unknown codes only need a staff session and answer with an
// empty list.
func (h *Handler) handleCourseworkStudents(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	coursework, err := h.store.Coursework(r.Context(), code)
	if err != nil {
		h.fail(w, "coursework students", err)
		return
	}
	if len(coursework) == 0 {
		if h.rbac.Check(w, r, rbac.CatalogCourseworkStudents, "") {
			httpx.JSON(w, http.StatusOK, []CourseworkResult{})
		}
		return
	}
	if !h.rbac.Check(w, r, rbac.CourseworkStudents, coursework[0].ModuleCode) {
		return
	}
	results, err := h.store.CourseworkStudents(r.Context(), code)
	if err != nil {
		h.fail(w, "coursework students", err)
		return
	}
	httpx.JSON(w, http.StatusOK, results)
}

// handleSearch narrows the students group to profiles the caller may read.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	sess, _ := sessions.FromContext(r.Context())
	usernames := make([]string, 0, len(result.Students))
	for _, p := range result.Students {
		usernames = append(usernames, p.Username)
	}
	visible := h.rbac.Evaluator.Visible(r.Context(), sess, rbac.StudentProfile, usernames)
	result.Students = slices.DeleteFunc(result.Students, func(p Person) bool {
		return !slices.Contains(visible, p.Username)
	})
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("records lookup", slog.String("op", op), slog.Any("error", err))
	}
	h.rbac.Policy.RespondError(w, err)
}
