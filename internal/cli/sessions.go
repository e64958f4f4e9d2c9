package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/store"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions [id]",
	Short: "List recorded sessions, or show one session's results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Path == "" {
			return errors.New("the session journal is disabled (store.path is empty)")
		}
		if _, err := os.Stat(cfg.Store.Path); err != nil {
			return fmt.Errorf("no journal at %s: %w", cfg.Store.Path, err)
		}

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			return printSession(cmd.OutOrStdout(), st, args[0])
		}
		return listSessions(cmd.OutOrStdout(), st, sessionsLimit)
	},
}

func listSessions(out io.Writer, st *store.Store, limit int) error {
	sessions, err := st.Sessions().List(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSTRATEGY\tKEYS\tCORRECT\tWRONG")
	for _, sess := range sessions {
		sum, err := st.Sessions().Summary(sess.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			sess.ID, sess.StartedAt.Local().Format("2006-01-02 15:04"), duration(sess),
			sess.Strategy, sum.Keystrokes, sum.Outcomes["correct"], sum.Outcomes["wrong"])
	}
	return w.Flush()
}

func printSession(out io.Writer, st *store.Store, id string) error {
	sum, err := st.Sessions().Summary(id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	fmt.Fprintf(out, "Session %s (%s, %dx%d)\n", sum.ID, sum.Strategy, sum.Width, sum.Height)
	fmt.Fprintf(out, "Started %s, lasted %s\n", sum.StartedAt.Local().Format(time.DateTime), duration(&sum.Session))
	fmt.Fprintf(out, "%d keystrokes:", sum.Keystrokes)
	outcomes := make([]string, 0, len(sum.Outcomes))
	for o := range sum.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(out, " %s=%d", o, sum.Outcomes[o])
	}
	fmt.Fprintln(out)

	wrong, err := st.Keystrokes().FingerErrors(id)
	if err != nil {
		return err
	}
	if len(wrong) > 0 {
		keys := make([]string, 0, len(wrong))
		for k := range wrong {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if wrong[keys[i]] != wrong[keys[j]] {
				return wrong[keys[i]] > wrong[keys[j]]
			}
			return keys[i] < keys[j]
		})
		fmt.Fprint(out, "Wrong finger on:")
		for _, k := range keys {
			fmt.Fprintf(out, " %s(%d)", k, wrong[k])
		}
		fmt.Fprintln(out)
	}

	drills, err := st.Drills().ListBySession(id)
	if err != nil {
		return err
	}
	for _, d := range drills {
		fmt.Fprintf(out, "Drill %s #%d: %.1f wpm, %.0f%% accuracy, %d errors in %s\n",
			d.Level, d.TextIndex, d.WPM, d.Accuracy, d.Errors, d.Elapsed.Round(time.Second))
	}
	return nil
}

func duration(sess *store.Session) string {
	if sess.EndedAt == nil {
		return "running"
	}
	return sess.EndedAt.Sub(sess.StartedAt).Round(time.Second).String()
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "number of sessions to list (0 for all)")
	rootCmd.AddCommand(sessionsCmd)
}
