package principals

import (
	"context"
	"strings"
)

// Role is the closed set of principal roles.
type Role int

const (
	// RoleUnknown is the zero value and never authorizes anything.
	RoleUnknown Role = iota
	// RoleStudent can see its own student records.
	RoleStudent
	// RoleStaff can see its own records and those of its tutees and modules.
	RoleStaff
)

// Wire tiers. Older accounts carry an administrative tier "3" which is
// treated as staff.
const (
	TierStudent     = "1"
	TierStaff       = "2"
	tierLegacyAdmin = "3"
)

// ParseRole converts a stored or transported tier into a Role.
func ParseRole(tier string) (Role, bool) {
	switch strings.TrimSpace(tier) {
	case TierStudent:
		return RoleStudent, true
	case TierStaff, tierLegacyAdmin:
		return RoleStaff, true
	default:
		return RoleUnknown, false
	}
}

// Tier returns the wire value clients receive as "level".
func (r Role) Tier() string {
	switch r {
	case RoleStudent:
		return TierStudent
	case RoleStaff:
		return TierStaff
	default:
		return ""
	}
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleStaff:
		return "staff"
	default:
		return "unknown"
	}
}

// Principal is an immutable account record.
type Principal struct {
	Username string
	Role     Role
	// Salt is hex encoded and handed to clients verbatim; its string bytes
	// key the login HMAC.
	Salt string
	// Verifier is HMAC-SHA512(Salt, password), hex encoded.
	Verifier string
}

// Relationships exposes the staff relationship sets used for authorization.
type Relationships interface {
	// Tutees returns the usernames of students assigned to the staff member.
	Tutees(ctx context.Context, staff string) ([]string, error)
	// TaughtModules returns the module codes the staff member teaches.
	TaughtModules(ctx context.Context, staff string) ([]string, error)
}

// Store is the read-only principal lookup consulted by the auth core.
type Store interface {
	Relationships
	// FindByUsername returns shared.ErrNotFound when no principal exists.
	FindByUsername(ctx context.Context, username string) (*Principal, error)
}
