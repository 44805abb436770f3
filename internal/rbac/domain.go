package rbac

// Scope names whose records a request kind touches.
type Scope int

const (
	// ScopeStudent kinds are owned by a student username.
	ScopeStudent Scope = iota + 1
	// ScopeStaff kinds are owned by a staff username.
	ScopeStaff
	// ScopeModule kinds are owned by a module code.
	ScopeModule
	// ScopeCatalog kinds have no owner.
	ScopeCatalog
)

func (s Scope) String() string {
	switch s {
	case ScopeStudent:
		return "student"
	case ScopeStaff:
		return "staff"
	case ScopeModule:
		return "module"
	case ScopeCatalog:
		return "catalog"
	default:
		return "unknown"
	}
}

// Kind classifies a protected request.
type Kind struct {
	Name      string
	Scope     Scope
	StaffOnly bool
}

// Request kinds served by the records API.
var (
	StudentProfile    = Kind{Name: "student.profile", Scope: ScopeStudent}
	StudentModules    = Kind{Name: "student.modules", Scope: ScopeStudent}
	StudentCoursework = Kind{Name: "student.coursework", Scope: ScopeStudent}

	StaffProfile = Kind{Name: "staff.profile", Scope: ScopeStaff, StaffOnly: true}
	StaffModules = Kind{Name: "staff.modules", Scope: ScopeStaff, StaffOnly: true}
	StaffTutees  = Kind{Name: "staff.tutees", Scope: ScopeStaff, StaffOnly: true}

	ModuleStudents = Kind{Name: "module.students", Scope: ScopeModule, StaffOnly: true}
	// CourseworkStudents is owned by the module the coursework belongs to.
	CourseworkStudents = Kind{Name: "coursework.students", Scope: ScopeModule, StaffOnly: true}

	CatalogModule             = Kind{Name: "catalog.module", Scope: ScopeCatalog}
	CatalogCoursework         = Kind{Name: "catalog.coursework", Scope: ScopeCatalog}
	// CatalogCourseworkStudents only guards codes that match no coursework.
	CatalogCourseworkStudents = Kind{Name: "catalog.coursework.students", Scope: ScopeCatalog, StaffOnly: true}
	CatalogSearch             = Kind{Name: "catalog.search", Scope: ScopeCatalog}
)

// Decision is the outcome of an authorization check. Reason is for logs only.
type Decision struct {
	Allowed bool
	Reason  string
}

// Decision reasons.
const (
	ReasonStaffOnly      = "staff-only kind"
	ReasonCatalog        = "catalog"
	ReasonSelf           = "self"
	ReasonTutee          = "tutee"
	ReasonTaughtModule   = "taught module"
	ReasonNoRelationship = "no relationship"
	ReasonLookupFailed   = "relationship lookup failed"
)

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }

func deny(reason string) Decision { return Decision{Reason: reason} }
