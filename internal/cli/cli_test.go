package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/config"
	"github.com/example/chamada/internal/testfixtures"
)

func harnessOpener(h *testfixtures.StoreHarness) StoreOpener {
	return func(ctx context.Context, opts *RootOptions, _ ...application.StoreOption) (*Runtime, error) {
		return &Runtime{
			Config: config.Config{StoreDriver: "memory", HTTPPort: 8080},
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			Store:  h.Store,
		}, nil
	}
}

type cliResult struct {
	Stdout string
	Stderr string
	Code   int
}

func runCLI(t *testing.T, h *testfixtures.StoreHarness, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	opts := &RootOptions{Open: harnessOpener(h)}
	code := execute(context.Background(), opts, args, &stdout, &stderr)
	return cliResult{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}
}

// decodeEnvelope parses a --format json response, decoding data into T.
func decodeEnvelope[T any](t *testing.T, raw string) (string, T, *CLIError) {
	t.Helper()

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope), "raw output: %s", raw)

	var data T
	if len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
	}
	return envelope.Status, data, envelope.Error
}

func seedRoster(t *testing.T, h *testfixtures.StoreHarness) {
	t.Helper()
	_, err := h.Store.UpsertStudents(context.Background(), testfixtures.SampleRoster())
	require.NoError(t, err)
}

func seedSession(t *testing.T, h *testfixtures.StoreHarness, input application.SessionInput) int64 {
	t.Helper()
	result, err := h.Store.UpsertSession(context.Background(), input)
	require.NoError(t, err)
	return result.ID
}
