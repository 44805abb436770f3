package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-records/records/internal/observability"
	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/sessions"
	"github.com/campus-records/records/internal/shared"
)

// Middleware wires session resolution and authorization for HTTP handlers.
type Middleware struct {
	Sessions  *sessions.Manager
	Evaluator *Evaluator
	Logger    *slog.Logger
	Policy    httpx.ErrorPolicy
	Metrics   *observability.Metrics
}

// Authenticate resolves the request token and stores the session in context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Sessions.Resolve(r.Context(), m.Sessions.TokenFromRequest(r))
		if err != nil {
			if errors.Is(err, shared.ErrUnauthenticated) {
				m.Metrics.AuthEvent(observability.EventResolve, "rejected")
			} else {
				m.logger().Error("resolve session", slog.Any("error", err))
			}
			m.Policy.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(sessions.ContextWithSession(r.Context(), sess)))
	})
}

// Require authorizes the session in context for kind, taking the owner from
// the named chi URL parameter. ownerParam is empty for catalog kinds.
func (m Middleware) Require(kind Kind, ownerParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner string
			if ownerParam != "" {
				owner = chi.URLParam(r, ownerParam)
			}
			if m.Check(w, r, kind, owner) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Check authorizes the session in context for kind and owner. On refusal it
// writes the error response and returns false. Handlers use it when the
// owner is only known after a lookup.
func (m Middleware) Check(w http.ResponseWriter, r *http.Request, kind Kind, owner string) bool {
	sess, ok := sessions.FromContext(r.Context())
	if !ok {
		m.Policy.RespondError(w, shared.ErrUnauthenticated)
		return false
	}
	decision := m.Evaluator.Authorize(r.Context(), sess, owner, kind)
	if !decision.Allowed {
		m.Metrics.AuthEvent(observability.EventAuthz, "deny")
		m.logger().Info("access denied",
			slog.String("kind", kind.Name),
			slog.String("user", sess.Username),
			slog.String("owner", owner),
			slog.String("reason", decision.Reason),
		)
		m.Policy.RespondError(w, shared.ErrForbidden)
		return false
	}
	m.Metrics.AuthEvent(observability.EventAuthz, "allow")
	return true
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
