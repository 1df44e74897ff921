package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/chamada/internal/application"
)

type storeAdmin interface {
	Clear(ctx context.Context) error
}

// AdminHandler exposes dataset wide maintenance.
type AdminHandler struct {
	store     storeAdmin
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(store storeAdmin, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{store: store, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "AdminHandler", "Clear")
	if err := h.store.Clear(r.Context()); err != nil {
		logger.ErrorContext(r.Context(), "store clear failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.WarnContext(r.Context(), "store cleared")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
