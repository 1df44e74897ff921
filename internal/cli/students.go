package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/chamada/internal/application"
)

// StudentsOptions holds flags for the students command.
type StudentsOptions struct {
	*RootOptions
	Curso   string
	Periodo string
	Search  string
}

type studentView struct {
	RA      string `json:"ra"`
	Nome    string `json:"nome"`
	Curso   string `json:"curso"`
	Periodo string `json:"periodo"`
}

type studentsResult struct {
	Students []studentView `json:"students"`
	Total    int           `json:"total"`
}

// NewStudentsCommand creates the students command.
func NewStudentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StudentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "students",
		Short: "List registered students",
		Long: `List the student directory sorted by name.

Filters combine: --curso and --periodo match exactly, --search matches any
part of the name or RA ignoring case.

Example:
  chamada students --curso DSM --periodo 1
  chamada students --search silva --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStudents(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Curso, "curso", "", "filter by course")
	cmd.Flags().StringVar(&opts.Periodo, "periodo", "", "filter by period")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search name or RA")

	return cmd
}

func runStudents(cmd *cobra.Command, opts *StudentsOptions) error {
	rt, err := openRuntime(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	students := rt.Store.QueryStudents(application.StudentFilter{
		Curso:   opts.Curso,
		Periodo: opts.Periodo,
		Search:  opts.Search,
	})
	result := studentsResult{Students: make([]studentView, 0, len(students)), Total: rt.Store.StudentCount()}
	for _, s := range students {
		result.Students = append(result.Students, studentView{RA: s.RA, Nome: s.Nome, Curso: s.Curso, Periodo: s.Periodo})
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(result, func(w io.Writer) {
		if len(result.Students) == 0 {
			fmt.Fprintln(w, "Nenhum aluno encontrado.")
		} else {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RA\tNOME\tCURSO\tPERÍODO")
			for _, s := range result.Students {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.RA, s.Nome, s.Curso, s.Periodo)
			}
			_ = tw.Flush()
		}
		fmt.Fprintf(w, "%d de %d alunos\n", len(result.Students), result.Total)
	})
}
