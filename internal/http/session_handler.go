package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/chamada/internal/application"
)

type sessionStore interface {
	QuerySessions(filter application.SessionFilter) []application.Session
	UpsertSession(ctx context.Context, input application.SessionInput) (application.UpsertResult, error)
	CheckDuplicate(key application.SessionKey) bool
	FindSession(id int64) (application.Session, bool)
	AttendeeNames(id int64) ([]string, bool)
	AttendanceSheet(id int64) (application.AttendanceSheet, bool)
	EditMembership(ctx context.Context, id int64, presentRAs []string) (application.Session, error)
	ToggleSessionType(ctx context.Context, id int64) (application.Session, error)
	DeleteSession(ctx context.Context, id int64) error
}

type SessionHandler struct {
	store     sessionStore
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(store sessionStore, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{store: store, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// sessionID reads the path id injected by the router.
func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request, operation string) (int64, bool) {
	id, ok := SessionIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return 0, false
	}
	return id, true
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	q := r.URL.Query()
	sessions := h.store.QuerySessions(application.SessionFilter{Period: q.Get("period"), Search: q.Get("search")})

	h.log(r.Context(), "List").With("result_count", len(sessions)).DebugContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *SessionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req sessionRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Upsert", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	input := req.toInput()
	logger := h.log(r.Context(), "Upsert", "date", input.Key.Date, "course", input.Key.Course, "period", input.Key.Period, "type", string(input.Key.Type))
	result, err := h.store.UpsertSession(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == application.OutcomeCreated {
		status = http.StatusCreated
	}
	resp := upsertSessionResponse{Outcome: string(result.Outcome), ID: result.ID}
	if session, ok := h.store.FindSession(result.ID); ok {
		dto := toSessionDTO(session)
		resp.Session = &dto
	}

	logger.With("session_id", result.ID, "outcome", string(result.Outcome)).InfoContext(r.Context(), "attendance saved")
	h.responder.writeJSON(r.Context(), w, status, resp)
}

func (h *SessionHandler) Check(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	q := r.URL.Query()
	req := sessionKeyRequest{Date: q.Get("date"), Course: q.Get("course"), Period: q.Get("period"), Type: q.Get("type")}
	if err := validateRequest(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	exists := h.store.CheckDuplicate(req.toKey())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkSessionResponse{Exists: exists})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r, "Get")
	if !ok {
		return
	}

	session, found := h.store.FindSession(id)
	if !found {
		h.responder.handleServiceError(r.Context(), w, fmt.Errorf("session %d: %w", id, application.ErrNotFound))
		return
	}
	names, _ := h.store.AttendeeNames(id)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionDetailResponse{Session: toSessionDTO(session), Attendees: names})
}

func (h *SessionHandler) EditMembers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r, "EditMembers")
	if !ok {
		return
	}

	var req membersRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "EditMembers", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode members request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "EditMembers")
	session, err := h.store.EditMembership(r.Context(), id, req.PresentRAs)
	if err != nil {
		logger.ErrorContext(r.Context(), "membership edit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "membership edited", "present", len(session.PresentRAs))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) ToggleType(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r, "ToggleType")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "ToggleType")
	session, err := h.store.ToggleSessionType(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "type toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session type toggled", "type", string(session.Type))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete")
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "session delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r, "Export")
	if !ok {
		return
	}

	sheet, found := h.store.AttendanceSheet(id)
	if !found {
		h.responder.handleServiceError(r.Context(), w, fmt.Errorf("session %d: %w", id, application.ErrNotFound))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(sheet.Text())); err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "failed to write attendance sheet", "error", err)
	}
}

type sessionKeyRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Course string `json:"course" validate:"notblank"`
	Period string `json:"period" validate:"notblank"`
	Type   string `json:"type" validate:"oneof=Entrada Saída"`
}

func (r sessionKeyRequest) toKey() application.SessionKey {
	return application.SessionKey{
		Date:   strings.TrimSpace(r.Date),
		Course: strings.TrimSpace(r.Course),
		Period: strings.TrimSpace(r.Period),
		Type:   application.SessionType(strings.TrimSpace(r.Type)),
	}
}

type sessionRequest struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	Course     string   `json:"course" validate:"notblank"`
	Period     string   `json:"period" validate:"notblank"`
	Type       string   `json:"type" validate:"oneof=Entrada Saída"`
	PresentRAs []string `json:"presentRAs"`
}

func (r sessionRequest) toInput() application.SessionInput {
	key := sessionKeyRequest{Date: r.Date, Course: r.Course, Period: r.Period, Type: r.Type}.toKey()
	return application.SessionInput{Key: key, PresentRAs: r.PresentRAs}
}

type membersRequest struct {
	PresentRAs []string `json:"presentRAs" validate:"required"`
}

type checkSessionResponse struct {
	Exists bool `json:"exists"`
}

type upsertSessionResponse struct {
	Outcome string      `json:"outcome"`
	ID      int64       `json:"id"`
	Session *sessionDTO `json:"session,omitempty"`
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type sessionDetailResponse struct {
	Session   sessionDTO `json:"session"`
	Attendees []string   `json:"attendees"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	ID         int64         `json:"id"`
	Date       string        `json:"date"`
	Course     string        `json:"course"`
	Period     string        `json:"period"`
	Type       string        `json:"type"`
	PresentRAs []string      `json:"presentRAs"`
	Timestamp  string        `json:"timestamp,omitempty"`
	Logs       []auditLogDTO `json:"logs"`
}

type auditLogDTO struct {
	Action string `json:"action"`
	Time   string `json:"time"`
}

func toSessionDTO(s application.Session) sessionDTO {
	dto := sessionDTO{
		ID:         s.ID,
		Date:       s.Date,
		Course:     s.Course,
		Period:     s.Period,
		Type:       string(s.Type),
		PresentRAs: append([]string{}, s.PresentRAs...),
		Logs:       make([]auditLogDTO, 0, len(s.Logs)),
	}
	dto.Timestamp = s.TimestampText()
	for _, l := range s.Logs {
		dto.Logs = append(dto.Logs, auditLogDTO{Action: l.Action, Time: l.Time})
	}
	return dto
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}
