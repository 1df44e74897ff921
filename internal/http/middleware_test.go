package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("generates request ids and logs status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		var seenID string
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := RequestIDFromContext(r.Context())
			if !ok || id == "" {
				t.Errorf("expected request id in context")
			}
			if LoggerFromContext(r.Context()) == nil {
				t.Errorf("expected request logger in context")
			}
			seenID = id
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students", nil))

		if got := rec.Header().Get(requestIDHeader); got == "" || got != seenID {
			t.Fatalf("expected response header to echo %q, got %q", seenID, got)
		}
		out := buf.String()
		if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"path":"/students"`) {
			t.Fatalf("expected completion log with status and path, got %s", out)
		}
	})

	t.Run("reuses client request id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, _ := RequestIDFromContext(r.Context()); id != "abc-123" {
				t.Errorf("expected client id, got %q", id)
			}
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get(requestIDHeader) != "abc-123" {
			t.Fatalf("expected client id echoed")
		}
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Erro interno do servidor.") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	err := validateRequest(sessionRequest{Date: "2024-02-30", Course: " ", Period: "1", Type: "Saída"})
	vErr, ok := err.(interface{ HasErrors() bool })
	if !ok || !vErr.HasErrors() {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := validateRequest(sessionRequest{Date: "2024-02-29", Course: "DSM", Period: "1", Type: "Saída"}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestHandlerLogger(t *testing.T) {
	t.Parallel()

	t.Run("fallback logger gets request and path values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		fallback := slog.New(slog.NewJSONHandler(&buf, nil))
		ctx := ContextWithSessionID(ContextWithRequestID(context.Background(), "req-1"), 42)

		handlerLogger(ctx, fallback, "SessionHandler", "Delete", "extra", "x").Info("done")

		out := buf.String()
		for _, want := range []string{`"request_id":"req-1"`, `"handler":"SessionHandler"`, `"operation":"Delete"`, `"session_id":42`, `"extra":"x"`} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %s in %s", want, out)
			}
		}
		if strings.Contains(out, `"ra"`) {
			t.Fatalf("unexpected ra attribute in %s", out)
		}
	})

	t.Run("context logger wins and is not tagged twice", func(t *testing.T) {
		t.Parallel()

		var ctxBuf, fallbackBuf bytes.Buffer
		reqLogger := slog.New(slog.NewJSONHandler(&ctxBuf, nil)).With("request_id", "req-2")
		ctx := ContextWithStudentRA(ContextWithRequestID(ContextWithLogger(context.Background(), reqLogger), "req-2"), "2024001")

		handlerLogger(ctx, slog.New(slog.NewJSONHandler(&fallbackBuf, nil)), "StudentHandler", "Update").Info("done")

		out := ctxBuf.String()
		if fallbackBuf.Len() != 0 {
			t.Fatalf("expected fallback unused, got %s", fallbackBuf.String())
		}
		if strings.Count(out, `"request_id"`) != 1 || !strings.Contains(out, `"ra":"2024001"`) {
			t.Fatalf("unexpected log line %s", out)
		}
	})
}
