package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/chamada/internal/importer"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	InputFormat string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import students from an XLSX, JSON or CSV roster",
		Long: `Import a roster file into the student directory.

Workbooks are read from their first sheet, whose first row holds the column
names. Rows are matched by RA: existing students are replaced, new ones are added.
Columns are found by header name (ra/id, nome/name/aluno, curso,
periodo/turma). Rows without a name are skipped.

Use "-" to read from standard input together with --input-format.

Example:
  chamada import turma.xlsx
  chamada import alunos.json
  chamada import turma.csv --format json
  cat alunos.csv | chamada import - --input-format csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "file format (xlsx|json|csv); inferred from the extension when empty")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	format, err := resolveImportFormat(opts.InputFormat, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "formato de arquivo não suportado", err)
	}

	var src io.Reader
	if path == "-" {
		src = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return WrapExitError(ExitCommandError, "arquivo não encontrado", err)
			}
			return WrapExitError(ExitFailure, "falha ao abrir arquivo", err)
		}
		defer f.Close()
		src = f
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()
	ctx = rt.Context(ctx)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	out.VerboseLog("importando %s (%s)", path, format)

	result, err := importer.New(rt.Store, importer.WithLogger(rt.Logger)).Import(ctx, format, src)
	if err != nil {
		if errors.Is(err, importer.ErrMalformed) {
			return WrapExitError(ExitFailure, "Erro ao ler arquivo.", err)
		}
		return WrapExitError(ExitFailure, "falha na importação", err)
	}

	return out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "%d alunos processados.\n", result.Processed)
		fmt.Fprintf(w, "Total no cadastro: %d\n", result.DirectorySize)
	})
}

func resolveImportFormat(flag, path string) (importer.Format, error) {
	if flag != "" {
		return importer.ParseFormat(flag)
	}
	if path == "-" {
		return "", fmt.Errorf("%w: --input-format é obrigatório para stdin", importer.ErrUnsupportedFormat)
	}
	return importer.FormatFromName(path)
}
