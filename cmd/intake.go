package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bidwell-group/tender-cli/internal/ingest"
	"github.com/bidwell-group/tender-cli/internal/intake"
	"github.com/bidwell-group/tender-cli/internal/resilience"
)

var (
	intakeProjectID string
	intakeAll       bool
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Sweep the FTP inbox for extracted documents",
	Long:  "Downloads new extraction outputs from the FTP inbox, ingests them, and archives processed files. One sweep per invocation; serve mode runs sweeps on a schedule.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("intake"); err != nil {
			return err
		}
		if intakeAll == (intakeProjectID != "") {
			return eris.New("pass exactly one of --project or --all")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		sweeper := intake.NewSweeper(ingest.New(st), st, intakeOptions())

		var report *intake.Report
		if intakeAll {
			report, err = sweeper.SweepAll(ctx)
		} else {
			report, err = sweeper.Sweep(ctx, intakeProjectID)
		}
		if err != nil {
			return eris.Wrap(err, "intake")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	intakeCmd.Flags().StringVar(&intakeProjectID, "project", "", "sweep a single project's inbox")
	intakeCmd.Flags().BoolVar(&intakeAll, "all", false, "sweep every project directory in the inbox")
	rootCmd.AddCommand(intakeCmd)
}

// intakeOptions maps the intake config onto sweeper options.
func intakeOptions() intake.Options {
	r := cfg.Intake.Retry
	return intake.Options{
		Addr:     cfg.Intake.Addr,
		User:     cfg.Intake.User,
		Password: cfg.Intake.Password,
		Inbox:    cfg.Intake.Inbox,
		Staging:  cfg.Intake.Staging,
		Timeout:  time.Duration(cfg.Intake.TimeoutSecs) * time.Second,
		Retry:    resilience.FromConfig(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs, r.Multiplier, r.JitterFraction),
	}
}
