package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase every student and session",
		Long: `Erase the whole dataset, students and attendance history alike.

This cannot be undone; --yes is required.

Example:
  chamada clear --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm erasing all data")

	return cmd
}

func runClear(cmd *cobra.Command, opts *ClearOptions) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "isso apaga tudo; confirme com --yes")
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Store.Clear(rt.Context(ctx)); err != nil {
		return WrapExitError(ExitFailure, "falha ao apagar dados", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(map[string]bool{"cleared": true}, func(w io.Writer) {
		fmt.Fprintln(w, "Cadastro apagado.")
	})
}
