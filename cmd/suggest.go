package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bidwell-group/tender-cli/internal/ledger"
	"github.com/bidwell-group/tender-cli/internal/model"
)

var suggestProjectID string

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Record auto-matcher suggestions",
	Long:  "Loads a JSON array of candidate pairings from the auto-matcher and records them as suggested matches. Invalid rows are rejected individually; replayed batches count duplicates instead of failing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read suggestions")
		}
		var suggestions []model.Suggestion
		if err := json.Unmarshal(data, &suggestions); err != nil {
			return eris.Wrap(err, "unmarshal suggestions")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		report, err := ledger.New(st).RecordSuggestions(ctx, suggestProjectID, suggestions)
		if err != nil {
			return eris.Wrap(err, "suggest")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestProjectID, "project", "", "project id (required)")
	_ = suggestCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(suggestCmd)
}
