package application_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/testfixtures"
)

func names(students []application.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Nome)
	}
	return out
}

func ptr(s string) *string { return &s }

func TestUpsertStudents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("merges by RA keeping positions", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		if _, err := h.Store.UpsertStudents(ctx, []application.Student{
			{RA: "1", Nome: "Ana", Curso: "DSM", Periodo: "1"},
			{RA: "2", Nome: "Bia", Curso: "DSM", Periodo: "1"},
		}); err != nil {
			t.Fatalf("UpsertStudents returned error: %v", err)
		}
		count, err := h.Store.UpsertStudents(ctx, []application.Student{
			{RA: " 3 ", Nome: " Caio ", Curso: "DSM", Periodo: "1"},
			{RA: "1", Nome: "Ana Clara", Curso: "ADS", Periodo: "2"},
			{RA: "3", Nome: "Caio Souza", Curso: "DSM", Periodo: "1"},
		})
		if err != nil {
			t.Fatalf("UpsertStudents returned error: %v", err)
		}
		if count != 3 {
			t.Fatalf("expected directory size 3, got %d", count)
		}

		ana := h.Store.QueryStudents(application.StudentFilter{Search: "ana"})
		if len(ana) != 1 || ana[0] != (application.Student{RA: "1", Nome: "Ana Clara", Curso: "ADS", Periodo: "2"}) {
			t.Fatalf("expected RA 1 replaced in full, got %+v", ana)
		}
		if got := h.Store.StudentName("3"); got != "Caio Souza" {
			t.Fatalf("expected last record in batch to win, got %q", got)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		roster := testfixtures.SampleRoster()
		for i := 0; i < 2; i++ {
			count, err := h.Store.UpsertStudents(ctx, roster)
			if err != nil {
				t.Fatalf("UpsertStudents returned error: %v", err)
			}
			if count != len(roster) {
				t.Fatalf("expected %d students, got %d", len(roster), count)
			}
		}
	})

	t.Run("skips blank RA and keeps the rest", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		count, err := h.Store.UpsertStudents(ctx, []application.Student{
			{RA: "1", Nome: "Ana"},
			{RA: "  ", Nome: "Sem RA"},
			{RA: "2", Nome: "Bia"},
		})
		if err != nil {
			t.Fatalf("UpsertStudents returned error: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 students, got %d", count)
		}
		if got := names(h.Store.QueryStudents(application.StudentFilter{})); len(got) != 2 || got[0] != "Ana" || got[1] != "Bia" {
			t.Fatalf("unexpected directory %v", got)
		}
	})

	t.Run("only blank RAs writes nothing", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		count, err := h.Store.UpsertStudents(ctx, []application.Student{{Nome: "Sem RA"}})
		if err != nil || count != 0 {
			t.Fatalf("expected (0, nil), got (%d, %v)", count, err)
		}
		if h.Snapshots.Has(application.DefaultSnapshotKey) {
			t.Fatalf("expected no snapshot to be written")
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		count, err := h.Store.UpsertStudents(ctx, nil)
		if err != nil || count != 0 {
			t.Fatalf("expected (0, nil), got (%d, %v)", count, err)
		}
		if h.Snapshots.Has(application.DefaultSnapshotKey) {
			t.Fatalf("expected no snapshot to be written")
		}
	})
}

func TestInsertStudent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)

	student := testfixtures.NewStudent(testfixtures.WithName("Ana"))
	if err := h.Store.InsertStudent(ctx, student); err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}

	err := h.Store.InsertStudent(ctx, application.Student{RA: student.RA, Nome: "Outra"})
	var dup *application.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	if err.Error() != "RA já cadastrado!" || !errors.Is(err, application.ErrDuplicateKey) {
		t.Fatalf("unexpected duplicate error %v", err)
	}
	if got := h.Store.StudentName(student.RA); got != "Ana" {
		t.Fatalf("expected original record kept, got %q", got)
	}

	var vErr *application.ValidationError
	if err := h.Store.InsertStudent(ctx, application.Student{Nome: "Sem RA"}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for blank RA, got %v", err)
	}
}

func TestUpdateStudent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)
	if _, err := h.Store.UpsertStudents(ctx, testfixtures.SampleRoster()); err != nil {
		t.Fatalf("UpsertStudents returned error: %v", err)
	}

	updated, found, err := h.Store.UpdateStudent(ctx, "1", application.StudentPatch{Nome: ptr("Ana Paula"), Curso: ptr("  "), Periodo: nil})
	if err != nil || !found {
		t.Fatalf("expected update to succeed, got found=%v err=%v", found, err)
	}
	want := application.Student{RA: "1", Nome: "Ana Paula", Curso: "DSM", Periodo: "1"}
	if updated != want {
		t.Fatalf("expected blank fields ignored, got %+v", updated)
	}

	_, found, err = h.Store.UpdateStudent(ctx, "404", application.StudentPatch{Nome: ptr("Ninguém")})
	if err != nil || found {
		t.Fatalf("expected unknown RA to report not found silently, got found=%v err=%v", found, err)
	}
	if h.Store.StudentCount() != 6 {
		t.Fatalf("expected unknown RA update to leave directory unchanged")
	}
}

func TestDeleteStudents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)
	if _, err := h.Store.UpsertStudents(ctx, testfixtures.SampleRoster()); err != nil {
		t.Fatalf("UpsertStudents returned error: %v", err)
	}
	created, err := h.Store.UpsertSession(ctx, testfixtures.Entrada("2024-01-10", "DSM", "1", "1", "2"))
	if err != nil {
		t.Fatalf("UpsertSession returned error: %v", err)
	}

	removed, err := h.Store.DeleteStudents(ctx, []string{"1", "5", "404", "5"})
	if err != nil {
		t.Fatalf("DeleteStudents returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if err := h.Store.DeleteStudent(ctx, "404"); err != nil {
		t.Fatalf("expected deleting unknown RA to succeed, got %v", err)
	}
	if err := h.Store.DeleteStudent(ctx, "2"); err != nil {
		t.Fatalf("DeleteStudent returned error: %v", err)
	}
	if h.Store.StudentCount() != 3 {
		t.Fatalf("expected 3 students left, got %d", h.Store.StudentCount())
	}

	got, ok := h.Store.AttendeeNames(created.ID)
	if !ok {
		t.Fatalf("expected session to survive student deletion")
	}
	if want := []string{"RA:1", "RA:2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("AttendeeNames = %v, want %v", got, want)
	}
}

func TestQueryStudents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)
	if _, err := h.Store.UpsertStudents(ctx, testfixtures.SampleRoster()); err != nil {
		t.Fatalf("UpsertStudents returned error: %v", err)
	}

	cases := []struct {
		name   string
		filter application.StudentFilter
		want   []string
	}{
		{name: "all ordered by collation", filter: application.StudentFilter{}, want: []string{"Ana", "Bia", "Caio", "davi", "Érica", "Zeca"}},
		{name: "by course", filter: application.StudentFilter{Curso: "ADS"}, want: []string{"davi", "Zeca"}},
		{name: "by class", filter: application.StudentFilter{Curso: "DSM", Periodo: "1"}, want: []string{"Ana", "Bia"}},
		{name: "search name case-insensitive", filter: application.StudentFilter{Search: "ÉRI"}, want: []string{"Érica"}},
		{name: "search RA", filter: application.StudentFilter{Search: "4"}, want: []string{"Caio"}},
		{name: "no match", filter: application.StudentFilter{Curso: "XYZ"}, want: []string{}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := names(h.Store.QueryStudents(tc.filter)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("QueryStudents(%+v) = %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestDistinctValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)
	if _, err := h.Store.UpsertStudents(ctx, testfixtures.SampleRoster()); err != nil {
		t.Fatalf("UpsertStudents returned error: %v", err)
	}

	if got, want := h.Store.DistinctCourses(), []string{"ADS", "DSM"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctCourses = %v, want %v", got, want)
	}
	if got, want := h.Store.DistinctPeriods(""), []string{"1", "2", "10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctPeriods = %v, want %v", got, want)
	}
	if got, want := h.Store.DistinctPeriods("ADS"), []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctPeriods(ADS) = %v, want %v", got, want)
	}

	want := []application.ClassGroup{
		{Curso: "ADS", Periodo: "1"},
		{Curso: "ADS", Periodo: "2"},
		{Curso: "DSM", Periodo: "1"},
		{Curso: "DSM", Periodo: "2"},
		{Curso: "DSM", Periodo: "10"},
	}
	if got := h.Store.DistinctClasses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctClasses = %v, want %v", got, want)
	}
}

func TestClassRosters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := testfixtures.NewStoreHarness(t)
	if _, err := h.Store.UpsertStudents(ctx, testfixtures.SampleRoster()); err != nil {
		t.Fatalf("UpsertStudents returned error: %v", err)
	}

	all := h.Store.ClassRosters(nil)
	if len(all) != 5 {
		t.Fatalf("expected one roster per class, got %d", len(all))
	}
	if all[2].Class != (application.ClassGroup{Curso: "DSM", Periodo: "1"}) || !reflect.DeepEqual(names(all[2].Students), []string{"Ana", "Bia"}) {
		t.Fatalf("unexpected DSM 1 roster %+v", all[2])
	}

	selected := h.Store.ClassRosters([]application.ClassGroup{{Curso: "DSM", Periodo: "10"}, {Curso: "XYZ", Periodo: "1"}})
	if len(selected) != 1 || selected[0].Students[0].Nome != "Caio" {
		t.Fatalf("expected empty classes to be skipped, got %+v", selected)
	}
}
