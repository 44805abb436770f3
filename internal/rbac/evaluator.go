package rbac

import (
	"context"
	"log/slog"
	"slices"

	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/sessions"
)

// Evaluator decides whether an authenticated principal may read the records
// of a given owner.
type Evaluator struct {
	relationships principals.Relationships
	logger        *slog.Logger
}

// NewEvaluator constructs an Evaluator over the provided relationship reader.
func NewEvaluator(rel principals.Relationships, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{relationships: rel, logger: logger}
}

// Authorize applies the access rules in order. Relationship sets are read on
// every call so changes take effect without re-login.
func (e *Evaluator) Authorize(ctx context.Context, sess sessions.Session, owner string, kind Kind) Decision {
	if kind.StaffOnly && sess.Role != principals.RoleStaff {
		return deny(ReasonStaffOnly)
	}
	if kind.Scope == ScopeCatalog {
		return allow(ReasonCatalog)
	}
	if kind.Scope != ScopeModule && owner != "" && owner == sess.Username {
		return allow(ReasonSelf)
	}
	if sess.Role != principals.RoleStaff {
		return deny(ReasonNoRelationship)
	}

	var (
		related []string
		err     error
		reason  string
	)
	switch kind.Scope {
	case ScopeStudent:
		related, err = e.relationships.Tutees(ctx, sess.Username)
		reason = ReasonTutee
	case ScopeModule:
		related, err = e.relationships.TaughtModules(ctx, sess.Username)
		reason = ReasonTaughtModule
	default:
		return deny(ReasonNoRelationship)
	}
	if err != nil {
		e.logger.Error("rbac relationship lookup",
			slog.String("kind", kind.Name),
			slog.String("user", sess.Username),
			slog.Any("error", err),
		)
		return deny(ReasonLookupFailed)
	}
	if slices.Contains(related, owner) {
		return allow(reason)
	}
	return deny(ReasonNoRelationship)
}

// Visible returns the owners in owners the session may read as kind,
// preserving order.
func (e *Evaluator) Visible(ctx context.Context, sess sessions.Session, kind Kind, owners []string) []string {
	out := make([]string, 0, len(owners))
	for _, owner := range owners {
		if e.Authorize(ctx, sess, owner, kind).Allowed {
			out = append(out, owner)
		}
	}
	return out
}
