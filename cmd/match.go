package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bidwell-group/tender-cli/internal/ledger"
	"github.com/bidwell-group/tender-cli/internal/model"
)

var (
	matchProjectID string
	matchITTItem   string
	matchRespItem  string
	matchComment   string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Create and settle matches",
	Long:  "Manual match creation and accept/reject settlement of auto-matcher suggestions. Settled matches are terminal; repeating a settlement is a no-op.",
}

// -- match manual --

var matchManualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Manually match an ITT item to a response item",
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

		m, err := ledger.New(st).CreateManual(ctx, matchProjectID, matchITTItem, matchRespItem, matchComment)
		if err != nil {
			return eris.Wrap(err, "match manual")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	},
}

// -- match accept / reject --

var matchAcceptCmd = &cobra.Command{
	Use:   "accept <match-id>",
	Short: "Accept a suggested match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return settleMatch(cmd, args[0], true)
	},
}

var matchRejectCmd = &cobra.Command{
	Use:   "reject <match-id>",
	Short: "Reject a suggested match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return settleMatch(cmd, args[0], false)
	},
}

func settleMatch(cmd *cobra.Command, matchID string, accept bool) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	lg := ledger.New(st)
	var settled *model.Match
	if accept {
		settled, err = lg.Accept(ctx, matchProjectID, matchID, matchComment)
	} else {
		settled, err = lg.Reject(ctx, matchProjectID, matchID, matchComment)
	}
	if err != nil {
		return eris.Wrap(err, cmd.Name())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(settled)
}

func init() {
	matchCmd.PersistentFlags().StringVar(&matchProjectID, "project", "", "project id (required)")
	_ = matchCmd.MarkPersistentFlagRequired("project")
	matchCmd.PersistentFlags().StringVar(&matchComment, "comment", "", "comment recorded on the match")

	matchManualCmd.Flags().StringVar(&matchITTItem, "itt", "", "ITT item id (required)")
	matchManualCmd.Flags().StringVar(&matchRespItem, "response", "", "response item id (required)")
	_ = matchManualCmd.MarkFlagRequired("itt")
	_ = matchManualCmd.MarkFlagRequired("response")

	matchCmd.AddCommand(matchManualCmd)
	matchCmd.AddCommand(matchAcceptCmd)
	matchCmd.AddCommand(matchRejectCmd)
	rootCmd.AddCommand(matchCmd)
}
