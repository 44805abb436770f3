// Package fixtures holds the demo campus used by the memory store driver,
// the seed script and end-to-end tests.
package fixtures

import (
	"fmt"
	"time"

	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/records"
)

// DefaultPassword is the password of every fixture account.
const DefaultPassword = "password"

// Student is a student account with an optional personal tutor.
type Student struct {
	Profile records.StudentProfile
	Tutor   string
}

// Module is a module with the staff who teach it.
type Module struct {
	Detail   records.ModuleDetail
	Teachers []string
}

// Mark is a student's result for a piece of coursework.
type Mark struct {
	Coursework string
	Username   string
	Mark       int
}

// Dataset describes a complete campus.
type Dataset struct {
	Students   []Student
	Staff      []records.StaffProfile
	Modules    []Module
	Enrolments []records.Enrolment
	Coursework []records.Coursework
	Marks      []Mark
	Programmes []records.Programme
}

// Default returns the demo campus.
func Default() Dataset {
	deadline := func(month time.Month, day int) time.Time {
		return time.Date(2026, month, day, 17, 0, 0, 0, time.UTC)
	}
	return Dataset{
		Programmes: []records.Programme{
			{Code: "G400", Name: "Computer Science"},
			{Code: "G600", Name: "Software Engineering"},
		},
		Staff: []records.StaffProfile{
			{ID: 4, Username: "shyl3", FirstName: "Grace", LastName: "Hopper", Email: "shyl3@campus.example", Office: "B2.14"},
			{ID: 5, Username: "shyl4", FirstName: "Alan", LastName: "Kay", Email: "shyl4@campus.example", Office: "B2.20"},
		},
		Students: []Student{
			{Profile: records.StudentProfile{ID: 1, Username: "shyl0", FirstName: "Ada", LastName: "Byron", Email: "shyl0@campus.example", Level: 2, EntryYear: 2024, Programme: "G400"}, Tutor: "shyl4"},
			{Profile: records.StudentProfile{ID: 2, Username: "shyl1", FirstName: "Edsger", MiddleName: "Wybe", LastName: "Dijkstra", Email: "shyl1@campus.example", Level: 1, EntryYear: 2025, Programme: "G400"}, Tutor: "shyl3"},
			{Profile: records.StudentProfile{ID: 3, Username: "shyl2", FirstName: "Barbara", LastName: "Liskov", Email: "shyl2@campus.example", Level: 1, EntryYear: 2025, Programme: "G600"}, Tutor: "shyl4"},
		},
		Modules: []Module{
			{Detail: records.ModuleDetail{Code: "25351", Name: "Distributed Systems", Description: "Consensus, replication and failure.", Credits: 15, Level: 1, Prerequisites: []string{"25100"}}, Teachers: []string{"shyl3"}},
			{Detail: records.ModuleDetail{Code: "25100", Name: "Programming Fundamentals", Credits: 15, Level: 1, Prerequisites: []string{}}, Teachers: []string{"shyl4"}},
			{Detail: records.ModuleDetail{Code: "25420", Name: "Databases", Credits: 15, Level: 2, Prerequisites: []string{"25100"}}, Teachers: []string{"shyl3", "shyl4"}},
		},
		Enrolments: []records.Enrolment{
			{Username: "shyl1", ModuleCode: "25100", Year: 2025, Semester: 1},
			{Username: "shyl1", ModuleCode: "25351", Year: 2026, Semester: 1, Current: true},
			{Username: "shyl1", ModuleCode: "25420", Year: 2026, Semester: 1, Current: true},
			{Username: "shyl0", ModuleCode: "25100", Year: 2024, Semester: 1},
			{Username: "shyl0", ModuleCode: "25420", Year: 2026, Semester: 1, Current: true},
			{Username: "shyl2", ModuleCode: "25100", Year: 2026, Semester: 1, Current: true},
		},
		Coursework: []records.Coursework{
			{Code: "39041", ModuleCode: "25351", Name: "Raft implementation", Deadline: deadline(time.November, 20), Weight: 40},
			{Code: "39042", ModuleCode: "25351", Name: "Failure analysis essay", Deadline: deadline(time.December, 11), Weight: 60},
			{Code: "39050", ModuleCode: "25420", Name: "Schema design", Deadline: deadline(time.November, 6), Weight: 50},
			{Code: "39010", ModuleCode: "25100", Name: "Interpreter project", Deadline: deadline(time.March, 13), Weight: 100},
		},
		Marks: []Mark{
			{Coursework: "39010", Username: "shyl1", Mark: 72},
			{Coursework: "39010", Username: "shyl0", Mark: 65},
			{Coursework: "39041", Username: "shyl1", Mark: 68},
		},
	}
}

// Accounts returns the username and role of every principal in d.
func (d Dataset) Accounts() []principals.Principal {
	accounts := make([]principals.Principal, 0, len(d.Students)+len(d.Staff))
	for _, s := range d.Students {
		accounts = append(accounts, principals.Principal{Username: s.Profile.Username, Role: principals.RoleStudent})
	}
	for _, s := range d.Staff {
		accounts = append(accounts, principals.Principal{Username: s.Username, Role: principals.RoleStaff})
	}
	return accounts
}

// Load builds in-memory stores for d. Each principal gets a fresh salt and
// a verifier for password.
func (d Dataset) Load(password string) (*principals.MemoryStore, *records.MemoryStore, error) {
	people := principals.NewMemoryStore()
	for _, account := range d.Accounts() {
		salt, verifier, err := principals.NewCredentials(password)
		if err != nil {
			return nil, nil, fmt.Errorf("fixtures: credentials for %s: %w", account.Username, err)
		}
		account.Salt, account.Verifier = salt, verifier
		if err := people.Add(account); err != nil {
			return nil, nil, fmt.Errorf("fixtures: %w", err)
		}
	}

	store := records.NewMemoryStore()
	for _, p := range d.Programmes {
		store.AddProgramme(p)
	}
	for _, s := range d.Staff {
		store.AddStaff(s)
	}
	for _, s := range d.Students {
		store.AddStudent(s.Profile, s.Tutor)
		if s.Tutor != "" {
			people.AssignTutee(s.Tutor, s.Profile.Username)
		}
	}
	for _, m := range d.Modules {
		store.AddModule(m.Detail, m.Teachers...)
		for _, t := range m.Teachers {
			people.AssignModule(t, m.Detail.Code)
		}
	}
	for _, e := range d.Enrolments {
		store.Enrol(e)
	}
	for _, cw := range d.Coursework {
		store.AddCoursework(cw)
	}
	for _, m := range d.Marks {
		store.RecordMark(m.Coursework, m.Username, m.Mark)
	}
	return people, store, nil
}
