package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/chamada/internal/application"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Period string
	Search string
}

type auditView struct {
	Action string `json:"action"`
	Time   string `json:"time"`
}

type sessionView struct {
	ID         int64       `json:"id"`
	Date       string      `json:"date"`
	Course     string      `json:"course"`
	Period     string      `json:"period"`
	Type       string      `json:"type"`
	PresentRAs []string    `json:"presentRAs"`
	Timestamp  time.Time   `json:"timestamp"`
	Logs       []auditView `json:"logs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded attendance sessions",
		Long: `List attendance sessions, most recently recorded first.

--search matches "dd/mm/yyyy course period type" ignoring case, so dates can
be searched the way they are displayed.

Example:
  chamada history --period 2
  chamada history --search "10/01/2024" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Period, "period", "", "filter by period")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search date, course, period or type")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	rt, err := openRuntime(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	sessions := rt.Store.QuerySessions(application.SessionFilter{Period: opts.Period, Search: opts.Search})
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toSessionView(s))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "Nenhuma chamada encontrada.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATA\tTURMA\tTIPO\tPRESENTES\tÚLTIMA ALTERAÇÃO")
		for _, v := range views {
			last := ""
			if n := len(v.Logs); n > 0 {
				last = v.Logs[n-1].Action + " " + v.Logs[n-1].Time
			}
			fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%d\t%s\n", v.ID, displayDate(v.Date), v.Course, v.Period, v.Type, len(v.PresentRAs), last)
		}
		_ = tw.Flush()
	})
}

func toSessionView(s application.Session) sessionView {
	logs := make([]auditView, 0, len(s.Logs))
	for _, entry := range s.Logs {
		logs = append(logs, auditView{Action: entry.Action, Time: entry.Time})
	}
	present := s.PresentRAs
	if present == nil {
		present = []string{}
	}
	return sessionView{
		ID:         s.ID,
		Date:       s.Date,
		Course:     s.Course,
		Period:     s.Period,
		Type:       string(s.Type),
		PresentRAs: present,
		Timestamp:  s.Timestamp,
		Logs:       logs,
	}
}

func displayDate(date string) string {
	parsed, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return parsed.Format("02/01/2006")
}
