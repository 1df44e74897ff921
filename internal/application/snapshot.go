package application

import (
	"time"

	"github.com/example/chamada/internal/persistence"
)

func documentFromState(st *state) persistence.Document {
	doc := persistence.Document{
		Students:   make([]persistence.StudentRecord, 0, len(st.students)),
		Attendance: make([]persistence.SessionRecord, 0, len(st.sessions)),
	}
	for _, s := range st.students {
		doc.Students = append(doc.Students, persistence.StudentRecord{
			RA:      persistence.Text(s.RA),
			Nome:    persistence.Text(s.Nome),
			Curso:   persistence.Text(s.Curso),
			Periodo: persistence.Text(s.Periodo),
		})
	}
	for _, s := range st.sessions {
		rec := persistence.SessionRecord{
			ID:         s.ID,
			Date:       persistence.Text(s.Date),
			Course:     persistence.Text(s.Course),
			Period:     persistence.Text(s.Period),
			Type:       persistence.Text(s.Type),
			PresentRAs: make([]persistence.Text, 0, len(s.PresentRAs)),
			Logs:       make([]persistence.LogRecord, 0, len(s.Logs)),
			Timestamp:  s.TimestampText(),
		}
		for _, ra := range s.PresentRAs {
			rec.PresentRAs = append(rec.PresentRAs, persistence.Text(ra))
		}
		for _, l := range s.Logs {
			rec.Logs = append(rec.Logs, persistence.LogRecord{Action: l.Action, Time: l.Time})
		}
		doc.Attendance = append(doc.Attendance, rec)
	}
	return doc
}

// stateFromDocument rebuilds the dataset from a decoded snapshot, filling
// defaults that older snapshots lack.
func stateFromDocument(doc persistence.Document) *state {
	st := newState()
	for _, rec := range doc.Students {
		ra := trim(rec.RA.String())
		if ra == "" {
			continue
		}
		st.putStudent(Student{
			RA:      ra,
			Nome:    rec.Nome.String(),
			Curso:   rec.Curso.String(),
			Periodo: rec.Periodo.String(),
		})
	}

	st.sessions = make([]Session, 0, len(doc.Attendance))
	for _, rec := range doc.Attendance {
		ras := make([]string, 0, len(rec.PresentRAs))
		for _, ra := range rec.PresentRAs {
			ras = append(ras, ra.String())
		}
		session := Session{
			ID:         rec.ID,
			Date:       rec.Date.String(),
			Course:     rec.Course.String(),
			Period:     rec.Period.String(),
			Type:       SessionType(rec.Type.String()),
			PresentRAs: uniqueStrings(ras),
		}
		if ts, ok := parseTimestamp(rec.Timestamp); ok {
			session.Timestamp = ts
		} else {
			session.rawTimestamp = rec.Timestamp
		}
		if rec.Logs == nil {
			session.Logs = []AuditEntry{{Action: ActionImported, Time: rec.Timestamp}}
		} else {
			session.Logs = make([]AuditEntry, 0, len(rec.Logs))
			for _, l := range rec.Logs {
				session.Logs = append(session.Logs, AuditEntry{Action: l.Action, Time: l.Time})
			}
		}
		st.sessions = append(st.sessions, session)
	}
	return st
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
