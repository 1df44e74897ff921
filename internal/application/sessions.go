package application

import (
	"context"
	"fmt"
	"time"
)

func normalizeKey(key SessionKey) SessionKey {
	return SessionKey{Date: trim(key.Date), Course: trim(key.Course), Period: trim(key.Period), Type: SessionType(trim(string(key.Type)))}
}

func validateKey(key SessionKey) *ValidationError {
	vErr := &ValidationError{}
	if key.Date == "" {
		vErr.add("date", "data é obrigatória")
	} else if _, err := time.Parse(sessionDateLayout, key.Date); err != nil {
		vErr.add("date", "data deve estar no formato AAAA-MM-DD")
	}
	if key.Course == "" {
		vErr.add("course", "curso é obrigatório")
	}
	if key.Period == "" {
		vErr.add("period", "período é obrigatório")
	}
	if !key.Type.Valid() {
		vErr.add("type", "tipo deve ser Entrada ou Saída")
	}
	return vErr
}

// UpsertSession records attendance for a natural key. When a session with
// the key exists its member list is overwritten and an "Updated
// (overwritten)" entry is appended; otherwise a new session is created with
// a "Created" entry. The lookup and the write happen under one lock, so a
// key never maps to more than one session.
func (s *Store) UpsertSession(ctx context.Context, input SessionInput) (result UpsertResult, err error) {
	defer s.observe(ctx, "UpsertSession", time.Now(), &err)
	key := normalizeKey(input.Key)
	logger := s.loggerWith(ctx, "UpsertSession",
		"date", key.Date,
		"course", key.Course,
		"period", key.Period,
		"type", string(key.Type),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", result.ID, "outcome", string(result.Outcome)).InfoContext(ctx, "attendance recorded")
	}()

	if vErr := validateKey(key); vErr.HasErrors() {
		err = vErr
		return
	}
	present := uniqueStrings(input.PresentRAs)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	stamp := s.auditNow()
	if idx := next.sessionIndexByKey(key); idx >= 0 {
		session := next.sessions[idx]
		session.PresentRAs = present
		session.Logs = withEntry(session.Logs, AuditEntry{Action: ActionOverwritten, Time: stamp})
		next.sessions[idx] = session
		result = UpsertResult{Outcome: OutcomeUpdated, ID: session.ID}
	} else {
		session := Session{
			ID:         s.nextSessionID(next),
			Date:       key.Date,
			Course:     key.Course,
			Period:     key.Period,
			Type:       key.Type,
			PresentRAs: present,
			Timestamp:  s.now().UTC(),
			Logs:       []AuditEntry{{Action: ActionCreated, Time: stamp}},
		}
		next.sessions = append(next.sessions, session)
		result = UpsertResult{Outcome: OutcomeCreated, ID: session.ID}
	}

	if err = s.commit(ctx, next); err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

// CheckDuplicate reports whether a session with key exists. It is advisory;
// UpsertSession never creates a second session for the same key.
func (s *Store) CheckDuplicate(key SessionKey) bool {
	key = normalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.sessionIndexByKey(key) >= 0
}

// EditMembership replaces the member list of session id and appends a
// "Manually edited" entry. It fails with ErrNotFound when id is unknown.
func (s *Store) EditMembership(ctx context.Context, id int64, presentRAs []string) (session Session, err error) {
	defer s.observe(ctx, "EditMembership", time.Now(), &err)
	logger := s.loggerWith(ctx, "EditMembership", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to edit attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance edited", "present", len(session.PresentRAs))
	}()

	return s.mutateSession(ctx, id, func(current Session) (Session, error) {
		current.PresentRAs = uniqueStrings(presentRAs)
		current.Logs = withEntry(current.Logs, AuditEntry{Action: ActionManualEdit, Time: s.auditNow()})
		return current, nil
	})
}

// ToggleSessionType flips a session between Entrada and Saída and appends a
// "Type changed" entry. It fails with ErrNotFound when id is unknown and with
// a *SessionConflictError when the flipped key already belongs to another
// session.
func (s *Store) ToggleSessionType(ctx context.Context, id int64) (session Session, err error) {
	defer s.observe(ctx, "ToggleSessionType", time.Now(), &err)
	logger := s.loggerWith(ctx, "ToggleSessionType", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to toggle session type", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session type changed", "type", string(session.Type))
	}()

	return s.mutateSession(ctx, id, func(current Session) (Session, error) {
		current.Type = current.Type.Toggle()
		if other := s.state.sessionIndexByKey(current.Key()); other >= 0 {
			return Session{}, &SessionConflictError{Key: current.Key()}
		}
		current.Logs = withEntry(current.Logs, AuditEntry{Action: ActionTypeChanged, Time: s.auditNow()})
		return current, nil
	})
}

// mutateSession applies change to session id and commits the result.
func (s *Store) mutateSession(ctx context.Context, id int64, change func(Session) (Session, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.state.sessionIndexByID(id)
	if idx < 0 {
		return Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	updated, err := change(s.state.sessions[idx])
	if err != nil {
		return Session{}, err
	}
	next := s.state.clone()
	next.sessions[idx] = updated
	if err := s.commit(ctx, next); err != nil {
		return Session{}, err
	}
	return cloneSession(updated), nil
}

// DeleteSession removes session id. Unknown ids are ignored.
func (s *Store) DeleteSession(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "DeleteSession", time.Now(), &err)
	logger := s.loggerWith(ctx, "DeleteSession", "session_id", id)
	removed := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted", "removed", removed)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.state.sessionIndexByID(id)
	if idx < 0 {
		return nil
	}
	next := s.state.clone()
	next.sessions = append(next.sessions[:idx], next.sessions[idx+1:]...)
	if err = s.commit(ctx, next); err != nil {
		return err
	}
	removed = true
	return nil
}

// FindSession returns a copy of session id.
func (s *Store) FindSession(id int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.state.sessionIndexByID(id)
	if idx < 0 {
		return Session{}, false
	}
	return cloneSession(s.state.sessions[idx]), true
}

// AttendeeNames resolves the members of session id to display names, in
// member order. Students deleted since resolve to "RA:<ra>".
func (s *Store) AttendeeNames(id int64) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.state.sessionIndexByID(id)
	if idx < 0 {
		return nil, false
	}
	ras := s.state.sessions[idx].PresentRAs
	names := make([]string, 0, len(ras))
	for _, ra := range ras {
		names = append(names, s.studentNameLocked(ra))
	}
	return names, true
}

// QuerySessions returns matching sessions newest first by insertion order,
// regardless of their dates.
func (s *Store) QuerySessions(filter SessionFilter) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	period := trim(filter.Period)
	search := trim(filter.Search)

	out := make([]Session, 0, len(s.state.sessions))
	for i := len(s.state.sessions) - 1; i >= 0; i-- {
		session := s.state.sessions[i]
		if period != "" && session.Period != period {
			continue
		}
		if search != "" && !s.order.contains(searchText(session), search) {
			continue
		}
		out = append(out, cloneSession(session))
	}
	return out
}

// searchText is the string session searches match against.
func searchText(session Session) string {
	date := session.Date
	if parsed, err := time.Parse(sessionDateLayout, session.Date); err == nil {
		date = parsed.Format(displayDateLayout)
	}
	return fmt.Sprintf("%s %s %s %s", date, session.Course, session.Period, session.Type)
}
