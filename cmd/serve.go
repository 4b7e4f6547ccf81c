package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/ingest"
	"github.com/bidwell-group/tender-cli/internal/intake"
	"github.com/bidwell-group/tender-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tender comparison API server",
	Long:  "Serves the JSON API for projects, ingest, matching, and assessment. With an FTP inbox configured, inbox sweeps run on the configured cron schedule.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
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

		router := buildRouter(st)

		if cfg.Intake.Addr != "" {
			c, err := scheduleIntake(ctx, st)
			if err != nil {
				return err
			}
			defer func() { <-c.Stop().Done() }()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// scheduleIntake starts inbox sweeps on the configured cron schedule.
// Overlapping runs are skipped rather than stacked, since two sweeps over
// the same inbox would race on staging files.
func scheduleIntake(ctx context.Context, st store.Store) (*cron.Cron, error) {
	sweeper := intake.NewSweeper(ingest.New(st), st, intakeOptions())

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	_, err := c.AddFunc(cfg.Intake.Schedule, func() {
		report, err := sweeper.SweepAll(ctx)
		if err != nil {
			zap.L().Warn("intake: scheduled sweep failed", zap.Error(err))
			return
		}
		zap.L().Info("intake: scheduled sweep complete",
			zap.Int("itt_files", report.ITTFiles),
			zap.Int("response_files", report.ResponseFiles),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "parse intake schedule %q", cfg.Intake.Schedule)
	}

	c.Start()
	zap.L().Info("intake: sweeps scheduled", zap.String("schedule", cfg.Intake.Schedule))
	return c, nil
}

// cronLogger adapts the global zap logger to the cron logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	zap.L().Sugar().Infow("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	zap.L().Sugar().Errorw("cron: "+msg, append(kv, "error", err)...)
}
