package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/assess"
	"github.com/bidwell-group/tender-cli/internal/store"
)

var (
	assessProjectID string
	assessOut       string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Build the assessment payload for a project",
	Long:  "Joins the project's bill, responses, matches, and exceptions into the cross-contractor comparison payload and writes it as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		snap, err := store.LoadSnapshot(ctx, st, assessProjectID)
		if err != nil {
			return eris.Wrap(err, "assess")
		}
		payload := assess.Build(*snap)

		out := os.Stdout
		if assessOut != "" {
			f, err := os.Create(assessOut)
			if err != nil {
				return eris.Wrap(err, "assess: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return eris.Wrap(err, "assess: encode payload")
		}

		zap.L().Info("assessment built",
			zap.String("project_id", assessProjectID),
			zap.Int("lines", len(payload.Lines)),
			zap.Int("contractors", len(payload.Contractors)),
			zap.Int("inconsistencies", payload.Inconsistencies),
		)
		return nil
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessProjectID, "project", "", "project id (required)")
	_ = assessCmd.MarkFlagRequired("project")
	assessCmd.Flags().StringVar(&assessOut, "out", "", "output path (default stdout)")
	rootCmd.AddCommand(assessCmd)
}
