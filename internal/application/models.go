package application

import "time"

// Student is a roster entry keyed by its registration number (RA).
type Student struct {
	RA      string
	Nome    string
	Curso   string
	Periodo string
}

// StudentPatch lists the fields to overwrite on an existing student. Nil or
// blank fields leave the stored value unchanged.
type StudentPatch struct {
	Nome    *string
	Curso   *string
	Periodo *string
}

// StudentFilter narrows QueryStudents. Empty fields do not filter.
type StudentFilter struct {
	Curso   string
	Periodo string
	// Search matches case-insensitively against the name or the RA.
	Search string
}

// ClassGroup identifies a class ("turma") by course and period.
type ClassGroup struct {
	Curso   string
	Periodo string
}

// ClassRoster is the ordered student list of one class.
type ClassRoster struct {
	Class    ClassGroup
	Students []Student
}

// SessionType is the direction of an attendance session.
type SessionType string

const (
	SessionEntrada SessionType = "Entrada"
	SessionSaida   SessionType = "Saída"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	return t == SessionEntrada || t == SessionSaida
}

// Toggle returns the opposite direction.
func (t SessionType) Toggle() SessionType {
	if t == SessionEntrada {
		return SessionSaida
	}
	return SessionEntrada
}

// SessionKey is the natural key of a session. At most one session exists
// per key.
type SessionKey struct {
	Date   string // YYYY-MM-DD
	Course string
	Period string
	Type   SessionType
}

// SessionInput carries the caller supplied fields of an attendance upsert.
type SessionInput struct {
	Key        SessionKey
	PresentRAs []string
}

// Audit actions recorded in Session.Logs.
const (
	ActionCreated       = "Created"
	ActionOverwritten   = "Updated (overwritten)"
	ActionManualEdit    = "Manually edited"
	ActionImported      = "Imported/Created"
	ActionTypeChanged   = "Type changed"
	AuditTimeLayout     = "02/01/2006, 15:04:05"
	sessionDateLayout   = "2006-01-02"
	displayDateLayout   = "02/01/2006"
	timestampWireLayout = "2006-01-02T15:04:05.000Z07:00"
)

// AuditEntry is one append-only history record of a session.
type AuditEntry struct {
	Action string
	Time   string
}

// Session is one attendance taking event.
type Session struct {
	ID         int64
	Date       string
	Course     string
	Period     string
	Type       SessionType
	PresentRAs []string
	Timestamp  time.Time
	Logs       []AuditEntry

	// rawTimestamp keeps a stored timestamp that is not RFC 3339 so it is
	// written back as it was read.
	rawTimestamp string
}

// TimestampText renders Timestamp in the snapshot layout. A stored value that
// could not be parsed is returned unchanged.
func (s Session) TimestampText() string {
	if s.Timestamp.IsZero() {
		return s.rawTimestamp
	}
	return s.Timestamp.UTC().Format(timestampWireLayout)
}

// Key returns the natural key of the session.
func (s Session) Key() SessionKey {
	return SessionKey{Date: s.Date, Course: s.Course, Period: s.Period, Type: s.Type}
}

// SessionFilter narrows QuerySessions. Empty fields do not filter.
type SessionFilter struct {
	Period string
	// Search matches case-insensitively against "dd/mm/yyyy course period type".
	Search string
}

// UpsertOutcome reports which branch UpsertSession took.
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

// UpsertResult is returned by UpsertSession.
type UpsertResult struct {
	Outcome UpsertOutcome
	ID      int64
}
