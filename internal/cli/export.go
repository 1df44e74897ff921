package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/chamada/internal/application"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

type exportResult struct {
	ID       int64  `json:"id"`
	FileName string `json:"fileName"`
	Path     string `json:"path,omitempty"`
	Text     string `json:"text"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print or save the attendance list of a session",
		Long: `Render a session as the plain text attendance list.

Without --out the list is printed. When --out names a directory the file is
written there as Lista_<curso>_<periodo>_dd-mm-yyyy.txt.

Example:
  chamada export 1704891600000
  chamada export 1704891600000 --out ./listas/`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "file or directory to write the list to")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("id de chamada inválido: %q", rawID), err)
	}

	rt, err := openRuntime(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	sheet, ok := rt.Store.AttendanceSheet(id)
	if !ok {
		return WrapExitError(ExitFailure, fmt.Sprintf("chamada %d não encontrada", id), application.ErrNotFound)
	}
	result := exportResult{ID: id, FileName: sheet.FileName(), Text: sheet.Text()}

	if opts.Out != "" {
		path := opts.Out
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, result.FileName)
		}
		if err := os.WriteFile(path, []byte(result.Text), 0o644); err != nil {
			return WrapExitError(ExitFailure, "falha ao salvar lista", err)
		}
		result.Path = path
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(result, func(w io.Writer) {
		if result.Path != "" {
			fmt.Fprintf(w, "Lista salva em %s\n", result.Path)
			return
		}
		fmt.Fprintln(w, result.Text)
	})
}
