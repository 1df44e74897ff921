package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/chamada/internal/application"
)

type catalogStore interface {
	DistinctCourses() []string
	DistinctPeriods(course string) []string
	DistinctClasses() []application.ClassGroup
	ClassRosters(classes []application.ClassGroup) []application.ClassRoster
}

// CatalogHandler serves the read-only lookups used to fill selectors and
// print sign-in sheets.
type CatalogHandler struct {
	store     catalogStore
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(store catalogStore, logger *slog.Logger) *CatalogHandler {
	base := defaultLogger(logger)
	return &CatalogHandler{store: store, responder: newResponder(base), logger: base}
}

func (h *CatalogHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CatalogHandler", operation, attrs...)
}

func (h *CatalogHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, coursesResponse{Courses: h.store.DistinctCourses()})
}

func (h *CatalogHandler) Periods(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	course := r.URL.Query().Get("course")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, periodsResponse{Course: course, Periods: h.store.DistinctPeriods(course)})
}

func (h *CatalogHandler) Classes(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classesResponse{Classes: toClassDTOs(h.store.DistinctClasses())})
}

// Rosters answers the per-class student lists. The class parameter takes
// "CURSO|PERIODO" and may repeat; without it every class is listed.
func (h *CatalogHandler) Rosters(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	q := r.URL.Query()
	var classes []application.ClassGroup
	for _, raw := range q["class"] {
		if raw == "" || raw == "all" {
			continue
		}
		curso, periodo, ok := strings.Cut(raw, "|")
		if !ok || strings.TrimSpace(curso) == "" || strings.TrimSpace(periodo) == "" {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"class": "use o formato CURSO|PERIODO"},
			})
			return
		}
		classes = append(classes, application.ClassGroup{Curso: strings.TrimSpace(curso), Periodo: strings.TrimSpace(periodo)})
	}

	rosters := h.store.ClassRosters(classes)
	h.log(r.Context(), "Rosters").With("result_count", len(rosters)).DebugContext(r.Context(), "rosters listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rostersResponse{
		Date:    q.Get("date"),
		Type:    q.Get("type"),
		Rosters: toRosterDTOs(rosters),
	})
}

type coursesResponse struct {
	Courses []string `json:"courses"`
}

type periodsResponse struct {
	Course  string   `json:"course,omitempty"`
	Periods []string `json:"periods"`
}

type classDTO struct {
	Curso   string `json:"curso"`
	Periodo string `json:"periodo"`
}

type classesResponse struct {
	Classes []classDTO `json:"classes"`
}

type rosterDTO struct {
	Curso    string       `json:"curso"`
	Periodo  string       `json:"periodo"`
	Students []studentDTO `json:"students"`
}

type rostersResponse struct {
	Date    string      `json:"date,omitempty"`
	Type    string      `json:"type,omitempty"`
	Rosters []rosterDTO `json:"rosters"`
}

func toClassDTOs(classes []application.ClassGroup) []classDTO {
	out := make([]classDTO, 0, len(classes))
	for _, c := range classes {
		out = append(out, classDTO{Curso: c.Curso, Periodo: c.Periodo})
	}
	return out
}

func toRosterDTOs(rosters []application.ClassRoster) []rosterDTO {
	out := make([]rosterDTO, 0, len(rosters))
	for _, r := range rosters {
		out = append(out, rosterDTO{Curso: r.Class.Curso, Periodo: r.Class.Periodo, Students: toStudentDTOs(r.Students)})
	}
	return out
}
