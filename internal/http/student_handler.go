package http

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/importer"
)

type studentStore interface {
	QueryStudents(filter application.StudentFilter) []application.Student
	StudentCount() int
	InsertStudent(ctx context.Context, student application.Student) error
	UpdateStudent(ctx context.Context, ra string, patch application.StudentPatch) (application.Student, bool, error)
	DeleteStudent(ctx context.Context, ra string) error
	DeleteStudents(ctx context.Context, ras []string) (int, error)
}

type studentImporter interface {
	Import(ctx context.Context, format importer.Format, r io.Reader) (importer.Result, error)
}

type StudentHandler struct {
	store     studentStore
	importer  studentImporter
	responder responder
	logger    *slog.Logger
}

func NewStudentHandler(store studentStore, imp studentImporter, logger *slog.Logger) *StudentHandler {
	base := defaultLogger(logger)
	return &StudentHandler{store: store, importer: imp, responder: newResponder(base), logger: base}
}

func (h *StudentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StudentHandler", operation, attrs...)
}

func (h *StudentHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	q := r.URL.Query()
	filter := application.StudentFilter{Curso: q.Get("curso"), Periodo: q.Get("periodo"), Search: q.Get("search")}
	students := h.store.QueryStudents(filter)

	h.log(r.Context(), "List").With("result_count", len(students)).DebugContext(r.Context(), "students listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStudentsResponse{
		Students: toStudentDTOs(students),
		Total:    h.store.StudentCount(),
	})
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req studentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode student request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	student := req.toStudent()
	logger := h.log(r.Context(), "Create", "ra", student.RA)
	if err := h.store.InsertStudent(r.Context(), student); err != nil {
		logger.WarnContext(r.Context(), "student creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "student created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, studentResponse{Student: toStudentDTO(student)})
}

func (h *StudentHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if h.importer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	format, ok := importFormat(r)
	if !ok {
		h.log(r.Context(), "Import", "error_kind", "unsupported_media").WarnContext(r.Context(), "unsupported import payload", "content_type", r.Header.Get("Content-Type"))
		h.responder.writeError(r.Context(), w, http.StatusUnsupportedMediaType, errUnsupportedMedia)
		return
	}

	logger := h.log(r.Context(), "Import", "format", string(format))
	result, err := h.importer.Import(r.Context(), format, io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.ErrorContext(r.Context(), "import failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "students imported", "processed", result.Processed)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importResponse{
		Rows:          result.Rows,
		Processed:     result.Processed,
		DirectorySize: result.DirectorySize,
	})
}

func (h *StudentHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req deleteStudentsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "DeleteMany", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode delete request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "DeleteMany", "requested", len(req.RAs))
	removed, err := h.store.DeleteStudents(r.Context(), req.RAs)
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "students deleted", "removed", removed)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteStudentsResponse{Removed: removed})
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	ra, ok := StudentRAFromContext(r.Context())
	if !ok || strings.TrimSpace(ra) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing ra for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRA)
		return
	}

	var req studentPatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode student patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update")
	student, found, err := h.store.UpdateStudent(r.Context(), ra, req.toPatch())
	if err != nil {
		logger.ErrorContext(r.Context(), "student update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := updateStudentResponse{Updated: found}
	if found {
		dto := toStudentDTO(student)
		resp.Student = &dto
	}
	logger.InfoContext(r.Context(), "student update handled", "updated", found)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	ra, ok := StudentRAFromContext(r.Context())
	if !ok || strings.TrimSpace(ra) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing ra for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRA)
		return
	}

	logger := h.log(r.Context(), "Delete")
	if err := h.store.DeleteStudent(r.Context(), ra); err != nil {
		logger.ErrorContext(r.Context(), "student delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "student deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// importFormat picks the decoder from the Content-Type, falling back to the
// format query parameter.
func importFormat(r *http.Request) (importer.Format, bool) {
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := importer.ParseFormat(name)
		return f, err == nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "application/json":
		return importer.FormatJSON, true
	case "text/csv", "application/csv":
		return importer.FormatCSV, true
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return importer.FormatXLSX, true
	}
	return "", false
}

type studentRequest struct {
	RA      string `json:"ra" validate:"notblank"`
	Nome    string `json:"nome" validate:"notblank"`
	Curso   string `json:"curso"`
	Periodo string `json:"periodo"`
}

func (r studentRequest) toStudent() application.Student {
	return application.Student{
		RA:      strings.TrimSpace(r.RA),
		Nome:    strings.TrimSpace(r.Nome),
		Curso:   strings.TrimSpace(r.Curso),
		Periodo: strings.TrimSpace(r.Periodo),
	}
}

type studentPatchRequest struct {
	Nome    *string `json:"nome"`
	Curso   *string `json:"curso"`
	Periodo *string `json:"periodo"`
}

func (r studentPatchRequest) toPatch() application.StudentPatch {
	return application.StudentPatch{Nome: r.Nome, Curso: r.Curso, Periodo: r.Periodo}
}

type deleteStudentsRequest struct {
	RAs []string `json:"ras" validate:"min=1"`
}

type deleteStudentsResponse struct {
	Removed int `json:"removed"`
}

type studentResponse struct {
	Student studentDTO `json:"student"`
}

type updateStudentResponse struct {
	Updated bool        `json:"updated"`
	Student *studentDTO `json:"student,omitempty"`
}

type listStudentsResponse struct {
	Students []studentDTO `json:"students"`
	Total    int          `json:"total"`
}

type importResponse struct {
	Rows          int `json:"rows"`
	Processed     int `json:"processed"`
	DirectorySize int `json:"directory_size"`
}

type studentDTO struct {
	RA      string `json:"ra"`
	Nome    string `json:"nome"`
	Curso   string `json:"curso"`
	Periodo string `json:"periodo"`
}

func toStudentDTO(s application.Student) studentDTO {
	return studentDTO{RA: s.RA, Nome: s.Nome, Curso: s.Curso, Periodo: s.Periodo}
}

func toStudentDTOs(students []application.Student) []studentDTO {
	out := make([]studentDTO, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentDTO(s))
	}
	return out
}
