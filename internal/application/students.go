package application

import (
	"context"
	"time"
)

func normalizeStudent(s Student) Student {
	return Student{RA: trim(s.RA), Nome: trim(s.Nome), Curso: trim(s.Curso), Periodo: trim(s.Periodo)}
}

func validateStudent(s Student) *ValidationError {
	vErr := &ValidationError{}
	if s.RA == "" {
		vErr.add("ra", "RA é obrigatório")
	}
	return vErr
}

// UpsertStudents merges a batch into the directory keyed by RA. Existing
// records are replaced in full and keep their position; new RAs are appended
// in batch order. When the batch repeats an RA the last record wins. Records
// with a blank RA have no key and are skipped. Returns the directory size.
func (s *Store) UpsertStudents(ctx context.Context, students []Student) (count int, err error) {
	defer s.observe(ctx, "UpsertStudents", time.Now(), &err)
	logger := s.loggerWith(ctx, "UpsertStudents", "batch_size", len(students))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert students", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "students upserted", "directory_size", count)
	}()

	batch := make([]Student, 0, len(students))
	for _, st := range students {
		if st = normalizeStudent(st); st.RA == "" {
			continue
		}
		batch = append(batch, st)
	}
	if skipped := len(students) - len(batch); skipped > 0 {
		logger.WarnContext(ctx, "skipping students without RA", "skipped", skipped)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(batch) == 0 {
		return len(s.state.students), nil
	}
	next := s.state.clone()
	for _, st := range batch {
		next.putStudent(st)
	}
	if err = s.commit(ctx, next); err != nil {
		return 0, err
	}
	return len(next.students), nil
}

// InsertStudent adds a single student. It fails with *DuplicateKeyError when
// the RA is already registered.
func (s *Store) InsertStudent(ctx context.Context, student Student) (err error) {
	defer s.observe(ctx, "InsertStudent", time.Now(), &err)
	student = normalizeStudent(student)
	logger := s.loggerWith(ctx, "InsertStudent", "ra", student.RA)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "student not inserted", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "student inserted")
	}()

	if vErr := validateStudent(student); vErr.HasErrors() {
		return vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.student(student.RA); exists {
		return &DuplicateKeyError{RA: student.RA}
	}
	next := s.state.clone()
	next.putStudent(student)
	return s.commit(ctx, next)
}

// UpdateStudent overwrites the non-blank fields of patch on the student with
// the given RA. It reports false without error when the RA is unknown.
func (s *Store) UpdateStudent(ctx context.Context, ra string, patch StudentPatch) (updated Student, found bool, err error) {
	defer s.observe(ctx, "UpdateStudent", time.Now(), &err)
	ra = trim(ra)
	logger := s.loggerWith(ctx, "UpdateStudent", "ra", ra)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "failed to update student", "error", err, "error_kind", ErrorKind(err))
		case !found:
			logger.DebugContext(ctx, "student not found, nothing updated")
		default:
			logger.InfoContext(ctx, "student updated")
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.state.student(ra)
	if !ok {
		return Student{}, false, nil
	}
	updated = current
	applyPatch(&updated.Nome, patch.Nome)
	applyPatch(&updated.Curso, patch.Curso)
	applyPatch(&updated.Periodo, patch.Periodo)

	next := s.state.clone()
	next.putStudent(updated)
	if err = s.commit(ctx, next); err != nil {
		return Student{}, true, err
	}
	return updated, true, nil
}

func applyPatch(dst *string, value *string) {
	if value == nil {
		return
	}
	if v := trim(*value); v != "" {
		*dst = v
	}
}

// DeleteStudent removes the student with the given RA. Unknown RAs are ignored.
func (s *Store) DeleteStudent(ctx context.Context, ra string) error {
	_, err := s.deleteStudents(ctx, "DeleteStudent", []string{ra})
	return err
}

// DeleteStudents removes every listed RA and returns how many were removed.
// Sessions keep referencing removed RAs.
func (s *Store) DeleteStudents(ctx context.Context, ras []string) (int, error) {
	return s.deleteStudents(ctx, "DeleteStudents", ras)
}

func (s *Store) deleteStudents(ctx context.Context, operation string, ras []string) (removed int, err error) {
	defer s.observe(ctx, operation, time.Now(), &err)
	logger := s.loggerWith(ctx, operation, "requested", len(ras))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete students", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "students deleted", "removed", removed)
	}()

	targets := make(map[string]struct{}, len(ras))
	for _, ra := range uniqueStrings(ras) {
		targets[ra] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	removed = next.removeStudents(targets)
	if removed == 0 {
		return 0, nil
	}
	if err = s.commit(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

// QueryStudents returns the students matching every non-empty filter field,
// ordered by name using the configured collation.
func (s *Store) QueryStudents(filter StudentFilter) []Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryStudentsLocked(filter)
}

func (s *Store) queryStudentsLocked(filter StudentFilter) []Student {
	curso := trim(filter.Curso)
	periodo := trim(filter.Periodo)
	search := trim(filter.Search)

	out := make([]Student, 0, len(s.state.students))
	for _, st := range s.state.students {
		if curso != "" && st.Curso != curso {
			continue
		}
		if periodo != "" && st.Periodo != periodo {
			continue
		}
		if search != "" && !s.order.contains(st.Nome, search) && !s.order.contains(st.RA, search) {
			continue
		}
		out = append(out, st)
	}
	s.order.sortStudentsByName(out)
	return out
}

// StudentCount returns the directory size.
func (s *Store) StudentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.students)
}

// StudentName resolves an RA to a display name. Unknown RAs resolve to the
// placeholder "RA:<ra>".
func (s *Store) StudentName(ra string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studentNameLocked(ra)
}

func (s *Store) studentNameLocked(ra string) string {
	if st, ok := s.state.student(ra); ok {
		return st.Nome
	}
	return "RA:" + ra
}

// DistinctCourses lists every course in collation order.
func (s *Store) DistinctCourses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, st := range s.state.students {
		if _, ok := seen[st.Curso]; ok {
			continue
		}
		seen[st.Curso] = struct{}{}
		out = append(out, st.Curso)
	}
	s.order.sortText(out)
	return out
}

// DistinctPeriods lists the periods of course (all courses when empty) in
// numeric-aware order.
func (s *Store) DistinctPeriods(course string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	course = trim(course)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, st := range s.state.students {
		if course != "" && st.Curso != course {
			continue
		}
		if _, ok := seen[st.Periodo]; ok {
			continue
		}
		seen[st.Periodo] = struct{}{}
		out = append(out, st.Periodo)
	}
	s.order.sortNumeric(out)
	return out
}

// DistinctClasses lists every (course, period) pair, by course then by
// numeric-aware period.
func (s *Store) DistinctClasses() []ClassGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.distinctClassesLocked()
}

func (s *Store) distinctClassesLocked() []ClassGroup {
	seen := make(map[ClassGroup]struct{})
	out := make([]ClassGroup, 0)
	for _, st := range s.state.students {
		class := ClassGroup{Curso: st.Curso, Periodo: st.Periodo}
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		out = append(out, class)
	}
	s.order.sortClasses(out)
	return out
}

// ClassRosters returns the students of each requested class, ordered by name.
// An empty request means every class. Classes without students are omitted.
func (s *Store) ClassRosters(classes []ClassGroup) []ClassRoster {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(classes) == 0 {
		classes = s.distinctClassesLocked()
	}
	out := make([]ClassRoster, 0, len(classes))
	for _, class := range classes {
		students := make([]Student, 0)
		for _, st := range s.state.students {
			if st.Curso == class.Curso && st.Periodo == class.Periodo {
				students = append(students, st)
			}
		}
		if len(students) == 0 {
			continue
		}
		s.order.sortStudentsByName(students)
		out = append(out, ClassRoster{Class: class, Students: students})
	}
	return out
}
