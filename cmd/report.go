package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/assess"
	"github.com/bidwell-group/tender-cli/internal/report"
	"github.com/bidwell-group/tender-cli/internal/store"
)

var (
	reportProjectID string
	reportOut       string
	reportLayout    string
	reportPublish   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the comparison workbook for a project",
	Long: `Builds the assessment payload and renders it as an xlsx workbook. With an
Anthropic key configured an LLM-written assessment summary is printed
alongside; with --publish and Notion credentials the assessment is also
published as a Notion page. Both extras degrade to a logged warning when
unavailable.`,
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

		snap, err := store.LoadSnapshot(ctx, st, reportProjectID)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		payload := assess.Build(*snap)

		summary := ""
		if gen := initInsight(); gen != nil {
			summary, err = gen.Summarize(ctx, &payload)
			if err != nil {
				zap.L().Warn("report: insight summary skipped",
					zap.String("project_id", reportProjectID),
					zap.Error(err))
				summary = ""
			}
		} else {
			zap.L().Debug("report: no anthropic key, skipping insight summary")
		}

		layoutPath := reportLayout
		if layoutPath == "" {
			layoutPath = cfg.Report.Layout
		}
		layout, err := report.LoadLayout(layoutPath)
		if err != nil {
			return err
		}

		if err := report.Write(&payload, layout, reportOut); err != nil {
			return eris.Wrap(err, "report")
		}
		zap.L().Info("report written",
			zap.String("project_id", reportProjectID),
			zap.String("path", reportOut),
			zap.Int("lines", len(payload.Lines)),
			zap.Int("contractors", len(payload.Contractors)),
		)
		fmt.Printf("Wrote %s (%d lines, %d contractors).\n",
			reportOut, len(payload.Lines), len(payload.Contractors))
		if summary != "" {
			fmt.Printf("\n%s\n", summary)
		}

		if reportPublish {
			client := initNotion()
			if client == nil {
				zap.L().Warn("report: notion publish skipped, token or database not configured")
				return nil
			}
			url, err := report.PublishAssessment(ctx, client, cfg.Notion.AssessmentDB, &payload, summary)
			if err != nil {
				return eris.Wrap(err, "report: publish")
			}
			fmt.Printf("Published to %s\n", url)
		}

		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportProjectID, "project", "", "project id (required)")
	_ = reportCmd.MarkFlagRequired("project")
	reportCmd.Flags().StringVar(&reportOut, "out", "assessment.xlsx", "output workbook path")
	reportCmd.Flags().StringVar(&reportLayout, "layout", "", "layout YAML path (default from config)")
	reportCmd.Flags().BoolVar(&reportPublish, "publish", false, "publish the assessment to Notion")
	rootCmd.AddCommand(reportCmd)
}
