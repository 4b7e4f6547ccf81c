package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bidwell-group/tender-cli/internal/ledger"
	"github.com/bidwell-group/tender-cli/internal/model"
)

var (
	matchesProjectID string
	matchesStatus    string
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List effective matches for a project",
	Long:  "Lists matches with stale suggestions suppressed: once a response item is accepted or manually matched somewhere, its remaining suggestions are hidden from the listing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := model.ParseMatchFilter(matchesStatus)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		matches, err := ledger.New(st).List(ctx, matchesProjectID, filter)
		if err != nil {
			return eris.Wrap(err, "matches")
		}

		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No matches found.")
			return nil
		}

		formatMatches(os.Stdout, matches)
		return nil
	},
}

func init() {
	matchesCmd.Flags().StringVar(&matchesProjectID, "project", "", "project id (required)")
	_ = matchesCmd.MarkFlagRequired("project")
	matchesCmd.Flags().StringVar(&matchesStatus, "status", "", "filter by status (suggested, accepted, rejected, manual)")
	rootCmd.AddCommand(matchesCmd)
}

// formatMatches writes a tabular match list to out.
func formatMatches(out io.Writer, matches []model.Match) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tCONF\tITT_ITEM\tRESPONSE_ITEM\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t------\t----\t--------\t-------------\t-------")

	for _, m := range matches {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			truncateID(m.ID), m.Status, m.Confidence,
			truncateID(m.ITTItemID), truncateID(m.ResponseItemID),
			m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// truncateID shortens UUID-length identifiers for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
