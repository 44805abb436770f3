package records_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-records/records/internal/fixtures"
	"github.com/campus-records/records/internal/records"
	"github.com/campus-records/records/internal/shared"
)

func loadStore(t *testing.T) *records.MemoryStore {
	t.Helper()
	_, store, err := fixtures.Default().Load(fixtures.DefaultPassword)
	require.NoError(t, err)
	return store
}

func TestMemoryStoreStudentModules(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	now, err := store.StudentModules(ctx, "shyl1", records.PeriodNow)
	require.NoError(t, err)
	want := []records.ModuleSummary{
		{Code: "25351", Name: "Distributed Systems", Year: 2026, Semester: 1},
		{Code: "25420", Name: "Databases", Year: 2026, Semester: 1},
	}
	if diff := cmp.Diff(want, now); diff != "" {
		t.Fatalf("current modules mismatch (-want +got):\n%s", diff)
	}

	past, err := store.StudentModules(ctx, "shyl1", records.PeriodPast)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, "25100", past[0].Code)

	none, err := store.StudentModules(ctx, "nobody", records.PeriodNow)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStoreStudentCoursework(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	timetable, err := store.StudentCoursework(ctx, "shyl1", records.ViewTimetable)
	require.NoError(t, err)
	codes := make([]string, 0, len(timetable))
	for _, cw := range timetable {
		codes = append(codes, cw.Code)
		assert.Nil(t, cw.Mark)
	}
	assert.Equal(t, []string{"39050", "39041", "39042"}, codes)

	results, err := store.StudentCoursework(ctx, "shyl1", records.ViewResults)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "39010", results[0].Code)
	require.NotNil(t, results[0].Mark)
	assert.Equal(t, 72, *results[0].Mark)
}

func TestMemoryStoreLookups(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	_, err := store.StudentProfile(ctx, "shyl3")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = store.Module(ctx, "0")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	module, err := store.Module(ctx, "25351")
	require.NoError(t, err)
	assert.Equal(t, []string{"25100"}, module.Prerequisites)
	module.Prerequisites[0] = "mutated"
	again, err := store.Module(ctx, "25351")
	require.NoError(t, err)
	assert.Equal(t, []string{"25100"}, again.Prerequisites)

	cw, err := store.Coursework(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, []records.Coursework{}, cw)

	tutees, err := store.Tutees(ctx, "shyl3")
	require.NoError(t, err)
	require.Len(t, tutees, 1)
	assert.Equal(t, "shyl1", tutees[0].Username)

	roster, err := store.ModuleStudents(ctx, "25420")
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	marks, err := store.CourseworkStudents(ctx, "39010")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, "shyl0", marks[0].Username)
}

func TestMemoryStoreSearch(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	result, err := store.Search(ctx, "25351")
	require.NoError(t, err)
	require.Len(t, result.Modules, 1)
	assert.Equal(t, "25351", result.Modules[0].Code)
	assert.NotNil(t, result.Programmes)
	assert.NotNil(t, result.Staff)
	assert.NotNil(t, result.Students)

	result, err = store.Search(ctx, "  HOPPER ")
	require.NoError(t, err)
	require.Len(t, result.Staff, 1)
	assert.Equal(t, "shyl3", result.Staff[0].Username)

	result, err = store.Search(ctx, "computer")
	require.NoError(t, err)
	assert.Equal(t, []records.Programme{{Code: "G400", Name: "Computer Science"}}, result.Programmes)

	result, err = store.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, result.Modules)
	assert.NotNil(t, result.Modules)
}
