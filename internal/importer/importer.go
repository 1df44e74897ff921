package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/logging"
)

// StudentWriter is the part of the store the importer writes to.
type StudentWriter interface {
	UpsertStudents(ctx context.Context, students []application.Student) (int, error)
}

// Result summarizes one import.
type Result struct {
	Rows          int `json:"rows"`
	Processed     int `json:"processed"`
	DirectorySize int `json:"directory_size"`
}

// Importer reads, normalizes and upserts roster files.
type Importer struct {
	writer StudentWriter
	newRA  func() string
	logger *slog.Logger
}

// Option customizes an Importer.
type Option func(*Importer)

// WithRASource replaces SyntheticRA.
func WithRASource(next func() string) Option {
	return func(i *Importer) { i.newRA = next }
}

// WithLogger sets the fallback logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) { i.logger = logger }
}

// New returns an Importer writing into writer.
func New(writer StudentWriter, opts ...Option) *Importer {
	imp := &Importer{writer: writer, newRA: SyntheticRA}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.logger == nil {
		imp.logger = slog.Default()
	}
	return imp
}

// FormatFromName infers the format from a file name extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Import decodes r, normalizes its rows and upserts the result.
func (i *Importer) Import(ctx context.Context, format Format, r io.Reader) (result Result, err error) {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = i.logger
	}
	logger = logger.With("component", "importer", "format", string(format))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "import failed", "error", err, "error_kind", application.ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "import finished", "rows", result.Rows, "processed", result.Processed, "directory_size", result.DirectorySize)
	}()

	rows, err := ReadRows(format, r)
	if err != nil {
		return Result{}, err
	}
	students := Normalize(rows, i.newRA)
	size, err := i.writer.UpsertStudents(ctx, students)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: len(rows), Processed: len(students), DirectorySize: size}, nil
}

// ImportFile imports the file at path, picking the format from its extension.
func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("importer: open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, format, f)
}
