package application

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceSheet is a session with its members resolved to display names,
// ready to be printed or downloaded.
type AttendanceSheet struct {
	Session Session
	Names   []string
}

// AttendanceSheet resolves session id into a printable sheet.
func (s *Store) AttendanceSheet(id int64) (AttendanceSheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.state.sessionIndexByID(id)
	if idx < 0 {
		return AttendanceSheet{}, false
	}
	session := cloneSession(s.state.sessions[idx])
	names := make([]string, 0, len(session.PresentRAs))
	for _, ra := range session.PresentRAs {
		names = append(names, s.studentNameLocked(ra))
	}
	return AttendanceSheet{Session: session, Names: names}, true
}

// Text renders the sheet as the plain text list printed for the class.
func (a AttendanceSheet) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lista de Presença - %s %s - %s\n", a.Session.Course, a.Session.Period, a.displayDate("/"))
	fmt.Fprintf(&b, "Tipo: %s\n", a.Session.Type)
	fmt.Fprintf(&b, "Total: %d\n", len(a.Session.PresentRAs))
	b.WriteString("----------------\n")
	b.WriteString(strings.Join(a.Names, "\n"))
	return b.String()
}

// FileName is the suggested download name, e.g. Lista_DSM_1_10-01-2024.txt.
func (a AttendanceSheet) FileName() string {
	return fmt.Sprintf("Lista_%s_%s_%s.txt", a.Session.Course, a.Session.Period, a.displayDate("-"))
}

func (a AttendanceSheet) displayDate(sep string) string {
	parsed, err := time.Parse(sessionDateLayout, a.Session.Date)
	if err != nil {
		return a.Session.Date
	}
	return parsed.Format("02" + sep + "01" + sep + "2006")
}
