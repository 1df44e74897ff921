package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/importer"
)

var (
	errBadRequestBody   = errors.New("Formato de requisição inválido.")
	errInvalidSessionID = errors.New("Identificador de chamada inválido.")
	errInvalidRA        = errors.New("RA inválido.")
	errUnsupportedMedia = errors.New("Envie um arquivo JSON ou CSV.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		dup      *application.DuplicateKeyError
		conflict *application.SessionConflictError
		vErr     *application.ValidationError
	)
	switch {
	case errors.As(err, &dup):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "DUPLICATE_RA", Message: dup.Error()})
	case errors.As(err, &conflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "SESSION_CONFLICT", Message: conflict.Error()})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, importer.ErrMalformed):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "Não foi possível ler o arquivo."})
	case errors.Is(err, importer.ErrUnsupportedFormat):
		r.writeJSON(ctx, w, http.StatusUnsupportedMediaType, errorResponse{Message: errUnsupportedMedia.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: localizedStatusMessage(http.StatusServiceUnavailable)})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusNotFound:
		return "Registro não encontrado."
	case http.StatusConflict:
		return "A operação conflita com um registro existente."
	case http.StatusUnsupportedMediaType:
		return errUnsupportedMedia.Error()
	case http.StatusUnprocessableEntity:
		return "Verifique os campos informados."
	case http.StatusServiceUnavailable:
		return "Serviço indisponível, tente novamente."
	default:
		return "Erro interno do servidor."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
