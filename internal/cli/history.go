package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/emit/kcd"
	"github.com/roach88/canspec/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB  string // build history database
	Bus string // restrict to one bus
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds and layout drift",
		Long: `List the builds recorded by "compile --db" in build order, each with the
messages whose identifier or layout changed since the previous build of
the same bus.

Examples:
  canspec history --db builds.db
  canspec history --db builds.db --bus rover --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the build history database (required)")
	cmd.Flags().StringVar(&opts.Bus, "bus", "", "only show builds of this bus")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening would create an empty database; a typo should not.
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("database not found: %s", opts.DB),
			Err:     err,
		})
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err})
	}
	defer st.Close()

	entries, err := st.History(cmd.Context(), opts.Bus)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err})
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No builds recorded.")
		return nil
	}
	for _, e := range entries {
		fp := e.Build.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		fmt.Fprintf(w, "#%d %s %s (%d message(s))\n", e.Build.Seq, e.Build.Bus, fp, len(e.Build.Messages))
		formatter.VerboseLog("build %s: %s", e.Build.ID, strings.Join(messageIDs(e.Build), " "))
		if !e.Drifted() {
			continue
		}
		for _, c := range e.Changes {
			line := fmt.Sprintf("  %s %s", c.Kind, c.Message)
			if c.Detail != "" {
				line += ": " + c.Detail
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

// messageIDs renders the identifiers of a build, used in verbose output.
func messageIDs(b store.Build) []string {
	ids := make([]string, len(b.Messages))
	for i, m := range b.Messages {
		ids[i] = m.Name + "=" + kcd.FormatID(m.ID, m.Extended)
	}
	return ids
}
