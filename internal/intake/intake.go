// Package intake sweeps an FTP inbox for canonical tender documents and
// feeds them through the ingest layer.
//
// The extraction service drops its JSON outputs per project:
//
//	<inbox>/<projectID>/itt/*.json        bill of quantities extracts
//	<inbox>/<projectID>/responses/*.json  contractor submissions, one per file
//
// Files that ingest cleanly are moved to <inbox>/<projectID>/processed/ on
// the server. Files that fail stay put and are retried by the next sweep.
package intake

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/ingest"
	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/resilience"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// Options configures the inbox sweeper.
type Options struct {
	Addr     string        // FTP host or host:port
	User     string        // login user, default "anonymous"
	Password string        // login password, default "anonymous@"
	Inbox    string        // remote inbox root, e.g. "/tenders/inbox"
	Staging  string        // local directory downloads land in
	Timeout  time.Duration // dial timeout, default 30s
	Retry    resilience.RetryConfig
}

// Report summarizes one sweep.
type Report struct {
	ITTFiles      int `json:"itt_files"`
	ResponseFiles int `json:"response_files"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"` // inbox directories with no matching project
}

// Sweeper pulls pending documents from the FTP inbox and ingests them.
type Sweeper struct {
	ingestor *ingest.Ingestor
	store    store.Store
	opts     Options

	// dial is swapped out by tests.
	dial func(ctx context.Context) (remote, error)
}

// NewSweeper creates a Sweeper over the given ingestor and store.
func NewSweeper(ing *ingest.Ingestor, st store.Store, opts Options) *Sweeper {
	if opts.User == "" {
		opts.User = "anonymous"
	}
	if opts.Password == "" {
		opts.Password = "anonymous@"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	opts.Addr = withDefaultPort(opts.Addr)

	s := &Sweeper{ingestor: ing, store: st, opts: opts}
	s.dial = func(ctx context.Context) (remote, error) {
		return dialFTP(ctx, s.opts.Addr, s.opts.User, s.opts.Password, s.opts.Timeout)
	}
	return s
}

// Sweep processes pending inbox files for a single project.
func (s *Sweeper) Sweep(ctx context.Context, projectID string) (*Report, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "intake: project not found: %s", projectID)
	}

	rm, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer rm.Close() //nolint:errcheck

	report := &Report{}
	if err := s.sweepProject(ctx, rm, projectID, report); err != nil {
		return nil, err
	}

	zap.L().Info("intake: sweep complete",
		zap.String("project_id", projectID),
		zap.Int("itt_files", report.ITTFiles),
		zap.Int("response_files", report.ResponseFiles),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// SweepAll processes pending inbox files for every known project. Inbox
// directories without a matching project are counted and left untouched.
func (s *Sweeper) SweepAll(ctx context.Context) (*Report, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(projects))
	for _, p := range projects {
		known[p.ID] = true
	}

	rm, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer rm.Close() //nolint:errcheck

	dirs, err := rm.ListDirs(s.opts.Inbox)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, dir := range dirs {
		if !known[dir] {
			report.Skipped++
			zap.L().Warn("intake: inbox directory has no matching project",
				zap.String("dir", path.Join(s.opts.Inbox, dir)))
			continue
		}
		if err := s.sweepProject(ctx, rm, dir, report); err != nil {
			report.Failed++
			zap.L().Warn("intake: project sweep failed",
				zap.String("project_id", dir), zap.Error(err))
		}
	}

	zap.L().Info("intake: inbox swept",
		zap.Int("projects", len(dirs)-report.Skipped),
		zap.Int("itt_files", report.ITTFiles),
		zap.Int("response_files", report.ResponseFiles),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *Sweeper) sweepProject(ctx context.Context, rm remote, projectID string, report *Report) error {
	if err := s.sweepITT(ctx, rm, projectID, report); err != nil {
		return err
	}
	return s.sweepResponses(ctx, rm, projectID, report)
}

func (s *Sweeper) sweepITT(ctx context.Context, rm remote, projectID string, report *Report) error {
	dir := path.Join(s.opts.Inbox, projectID, "itt")
	names, err := rm.ListFiles(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		if !isJSON(name) {
			continue
		}
		remotePath := path.Join(dir, name)
		localPath := filepath.Join(s.opts.Staging, projectID, "itt", name)

		staged, err := s.fetch(ctx, rm, remotePath, localPath)
		if err != nil {
			report.Failed++
			zap.L().Warn("intake: itt download failed", zap.String("file", remotePath), zap.Error(err))
			continue
		}
		if staged {
			// A previous sweep already ingested this file and only the
			// archive move failed. Retry the move without re-ingesting.
			s.archive(rm, projectID, "itt", name)
			continue
		}

		records, err := ingest.LoadLineItems(localPath + partSuffix)
		if err == nil {
			// Each drop replaces the whole bill, so with several files
			// pending the lexically last one wins.
			_, err = s.ingestor.ITT(ctx, projectID, records)
		}
		if err != nil {
			report.Failed++
			zap.L().Warn("intake: itt ingest failed", zap.String("file", remotePath), zap.Error(err))
			continue
		}

		markStaged(localPath)
		report.ITTFiles++
		s.archive(rm, projectID, "itt", name)
	}
	return nil
}

func (s *Sweeper) sweepResponses(ctx context.Context, rm remote, projectID string, report *Report) error {
	dir := path.Join(s.opts.Inbox, projectID, "responses")
	names, err := rm.ListFiles(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		if !isJSON(name) {
			continue
		}
		remotePath := path.Join(dir, name)
		localPath := filepath.Join(s.opts.Staging, projectID, "responses", name)

		staged, err := s.fetch(ctx, rm, remotePath, localPath)
		if err != nil {
			report.Failed++
			zap.L().Warn("intake: response download failed", zap.String("file", remotePath), zap.Error(err))
			continue
		}
		if staged {
			s.archive(rm, projectID, "responses", name)
			continue
		}

		contractor := contractorFromFilename(name)
		records, err := ingest.LoadResponseItems(localPath + partSuffix)
		if err == nil {
			_, err = s.ingestor.Response(ctx, projectID, contractor, records)
		}
		if err != nil {
			report.Failed++
			zap.L().Warn("intake: response ingest failed", zap.String("file", remotePath), zap.Error(err))
			continue
		}

		markStaged(localPath)
		report.ResponseFiles++
		s.archive(rm, projectID, "responses", name)
	}
	return nil
}

const partSuffix = ".part"

// fetch downloads a remote file into staging under a .part name. It reports
// staged=true when the final staged copy already exists, which means an
// earlier sweep ingested the file and only its archive move failed.
func (s *Sweeper) fetch(ctx context.Context, rm remote, remotePath, localPath string) (staged bool, err error) {
	if _, statErr := os.Stat(localPath); statErr == nil {
		return true, nil
	}

	err = resilience.Do(ctx, s.retryCfg("download"), func(_ context.Context) error {
		return rm.Download(remotePath, localPath+partSuffix)
	})
	return false, err
}

// markStaged promotes the .part download to its final staged name once the
// file is safely ingested.
func markStaged(localPath string) {
	if err := os.Rename(localPath+partSuffix, localPath); err != nil {
		zap.L().Warn("intake: staging rename failed", zap.String("file", localPath), zap.Error(err))
	}
}

// archive moves a processed file aside on the server. Failure leaves the
// file in the inbox for the next sweep.
func (s *Sweeper) archive(rm remote, projectID, kind, name string) {
	destDir := path.Join(s.opts.Inbox, projectID, "processed", kind)
	rm.EnsureDir(destDir)

	src := path.Join(s.opts.Inbox, projectID, kind, name)
	dst := path.Join(destDir, time.Now().UTC().Format("20060102T150405")+"-"+name)
	if err := rm.Move(src, dst); err != nil {
		zap.L().Warn("intake: archive failed, file stays in inbox",
			zap.String("file", src), zap.Error(err))
	}
}

func (s *Sweeper) connect(ctx context.Context) (remote, error) {
	return resilience.DoVal(ctx, s.retryCfg("dial"), func(ctx context.Context) (remote, error) {
		return s.dial(ctx)
	})
}

func (s *Sweeper) retryCfg(op string) resilience.RetryConfig {
	cfg := s.opts.Retry
	cfg.OnRetry = resilience.RetryLogger("ftp", op)
	return cfg
}

func isJSON(name string) bool {
	return strings.EqualFold(path.Ext(name), ".json")
}

// contractorFromFilename derives a contractor name from a response file
// name: "bw-construction.json" reads as "bw construction". Display casing
// is applied by the ingest layer.
func contractorFromFilename(name string) string {
	stem := strings.TrimSuffix(name, path.Ext(name))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return strings.Join(strings.Fields(stem), " ")
}
