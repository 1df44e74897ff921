package application

// state is the full in-memory dataset. Mutating operations work on a clone
// and swap it in only after the snapshot has been written.
type state struct {
	students []Student
	byRA     map[string]int
	sessions []Session
}

func newState() *state {
	return &state{byRA: make(map[string]int)}
}

// clone copies the collections. Session values are copied shallowly, so code
// that changes a session must assign fresh PresentRAs/Logs slices.
func (st *state) clone() *state {
	next := &state{
		students: append([]Student(nil), st.students...),
		byRA:     make(map[string]int, len(st.byRA)),
		sessions: append([]Session(nil), st.sessions...),
	}
	for ra, idx := range st.byRA {
		next.byRA[ra] = idx
	}
	return next
}

// putStudent replaces the record with the same RA in place or appends it.
func (st *state) putStudent(student Student) {
	if idx, ok := st.byRA[student.RA]; ok {
		st.students[idx] = student
		return
	}
	st.byRA[student.RA] = len(st.students)
	st.students = append(st.students, student)
}

func (st *state) student(ra string) (Student, bool) {
	idx, ok := st.byRA[ra]
	if !ok {
		return Student{}, false
	}
	return st.students[idx], true
}

// removeStudents drops every student whose RA is in ras and returns how many
// were removed.
func (st *state) removeStudents(ras map[string]struct{}) int {
	kept := st.students[:0:0]
	for _, s := range st.students {
		if _, drop := ras[s.RA]; !drop {
			kept = append(kept, s)
		}
	}
	removed := len(st.students) - len(kept)
	st.students = kept
	st.reindex()
	return removed
}

func (st *state) reindex() {
	st.byRA = make(map[string]int, len(st.students))
	for i, s := range st.students {
		st.byRA[s.RA] = i
	}
}

// sessionIndexByKey returns the position of the first session with key, or -1.
func (st *state) sessionIndexByKey(key SessionKey) int {
	for i := range st.sessions {
		if st.sessions[i].Key() == key {
			return i
		}
	}
	return -1
}

func (st *state) sessionIndexByID(id int64) int {
	for i := range st.sessions {
		if st.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *state) maxSessionID() int64 {
	var highest int64
	for _, s := range st.sessions {
		if s.ID > highest {
			highest = s.ID
		}
	}
	return highest
}

func cloneSession(s Session) Session {
	s.PresentRAs = append([]string{}, s.PresentRAs...)
	s.Logs = append([]AuditEntry{}, s.Logs...)
	return s
}

// withEntry returns a new slice holding logs followed by entry.
func withEntry(logs []AuditEntry, entry AuditEntry) []AuditEntry {
	out := make([]AuditEntry, 0, len(logs)+1)
	out = append(out, logs...)
	return append(out, entry)
}

// uniqueStrings trims values, drops blanks, and keeps the first occurrence of
// each remaining value.
func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = trim(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
