package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/sessions"
)

type failingRelationships struct{}

func (failingRelationships) Tutees(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func (failingRelationships) TaughtModules(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func newRelationships(t *testing.T) *principals.MemoryStore {
	t.Helper()
	store := principals.NewMemoryStore()
	for _, p := range []principals.Principal{
		{Username: "shyl1", Role: principals.RoleStudent},
		{Username: "shyl2", Role: principals.RoleStudent},
		{Username: "shyl3", Role: principals.RoleStaff},
		{Username: "shyl4", Role: principals.RoleStaff},
	} {
		p.Salt = "00"
		p.Verifier = "00"
		require.NoError(t, store.Add(p))
	}
	store.AssignTutee("shyl3", "shyl1")
	store.AssignModule("shyl3", "25351")
	return store
}

func TestAuthorize(t *testing.T) {
	evaluator := NewEvaluator(newRelationships(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	student := sessions.Session{Username: "shyl1", Role: principals.RoleStudent}
	staff := sessions.Session{Username: "shyl3", Role: principals.RoleStaff}
	otherStaff := sessions.Session{Username: "shyl4", Role: principals.RoleStaff}

	cases := []struct {
		name   string
		sess   sessions.Session
		owner  string
		kind   Kind
		allow  bool
		reason string
	}{
		{"student reads own profile", student, "shyl1", StudentProfile, true, ReasonSelf},
		{"student reads own coursework", student, "shyl1", StudentCoursework, true, ReasonSelf},
		{"student reads other student", student, "shyl2", StudentModules, false, ReasonNoRelationship},
		{"student reads own staff view", student, "shyl1", StaffProfile, false, ReasonStaffOnly},
		{"student reads staff profile", student, "shyl3", StaffProfile, false, ReasonStaffOnly},
		{"student reads tutees", student, "shyl3", StaffTutees, false, ReasonStaffOnly},
		{"staff reads tutee", staff, "shyl1", StudentProfile, true, ReasonTutee},
		{"staff reads non-tutee", staff, "shyl2", StudentProfile, false, ReasonNoRelationship},
		{"other staff reads student", otherStaff, "shyl1", StudentModules, false, ReasonNoRelationship},
		{"staff reads own modules", staff, "shyl3", StaffModules, true, ReasonSelf},
		{"staff reads colleague", staff, "shyl4", StaffProfile, false, ReasonNoRelationship},
		{"staff reads taught roster", staff, "25351", ModuleStudents, true, ReasonTaughtModule},
		{"staff reads other roster", otherStaff, "25351", ModuleStudents, false, ReasonNoRelationship},
		{"student reads roster", student, "25351", ModuleStudents, false, ReasonStaffOnly},
		{"student reads module catalog", student, "", CatalogModule, true, ReasonCatalog},
		{"student searches", student, "", CatalogSearch, true, ReasonCatalog},
		{"student reads coursework roster", student, "", CatalogCourseworkStudents, false, ReasonStaffOnly},
		{"staff reads coursework roster", staff, "", CatalogCourseworkStudents, true, ReasonCatalog},
		{"staff reads taught coursework marks", staff, "25351", CourseworkStudents, true, ReasonTaughtModule},
		{"other staff reads coursework marks", otherStaff, "25351", CourseworkStudents, false, ReasonNoRelationship},
		{"student reads coursework marks", student, "25351", CourseworkStudents, false, ReasonStaffOnly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluator.Authorize(context.Background(), tc.sess, tc.owner, tc.kind)
			assert.Equal(t, tc.allow, got.Allowed)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestAuthorizeSeesRelationshipChanges(t *testing.T) {
	store := newRelationships(t)
	evaluator := NewEvaluator(store, nil)
	staff := sessions.Session{Username: "shyl3", Role: principals.RoleStaff}

	assert.False(t, evaluator.Authorize(context.Background(), staff, "shyl2", StudentProfile).Allowed)
	store.AssignTutee("shyl3", "shyl2")
	assert.True(t, evaluator.Authorize(context.Background(), staff, "shyl2", StudentProfile).Allowed)
}

func TestAuthorizeDeniesOnLookupFailure(t *testing.T) {
	evaluator := NewEvaluator(failingRelationships{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	staff := sessions.Session{Username: "shyl3", Role: principals.RoleStaff}

	got := evaluator.Authorize(context.Background(), staff, "shyl1", StudentProfile)
	assert.Equal(t, Decision{Reason: ReasonLookupFailed}, got)

	got = evaluator.Authorize(context.Background(), staff, "shyl3", StaffProfile)
	assert.True(t, got.Allowed, "self access needs no relationship lookup")
}

func TestVisibleKeepsReadableOwners(t *testing.T) {
	evaluator := NewEvaluator(newRelationships(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	owners := []string{"shyl1", "shyl2"}

	staff := sessions.Session{Username: "shyl3", Role: principals.RoleStaff}
	assert.Equal(t, []string{"shyl1"}, evaluator.Visible(context.Background(), staff, StudentProfile, owners))

	student := sessions.Session{Username: "shyl2", Role: principals.RoleStudent}
	assert.Equal(t, []string{"shyl2"}, evaluator.Visible(context.Background(), student, StudentProfile, owners))

	otherStaff := sessions.Session{Username: "shyl4", Role: principals.RoleStaff}
	assert.Empty(t, evaluator.Visible(context.Background(), otherStaff, StudentProfile, owners))
}
