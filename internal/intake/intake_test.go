package intake

import (
	"context"
	"encoding/json"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwell-group/tender-cli/internal/ingest"
	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/resilience"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// fakeRemote is an in-memory FTP server: a flat map of slash paths to file
// contents.
type fakeRemote struct {
	files   map[string][]byte
	moved   map[string]string
	ensured []string
	moveErr error
	closed  bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{files: map[string][]byte{}, moved: map[string]string{}}
}

func (f *fakeRemote) ListFiles(dir string) ([]string, error) {
	var names []string
	for k := range f.files {
		if path.Dir(k) == dir {
			names = append(names, path.Base(k))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeRemote) ListDirs(dir string) ([]string, error) {
	prefix := dir + "/"
	set := map[string]bool{}
	for k := range f.files {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rest, "/"); i > 0 {
			set[rest[:i]] = true
		}
	}
	var names []string
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeRemote) Download(remotePath, localPath string) error {
	content, ok := f.files[remotePath]
	if !ok {
		return &textproto.Error{Code: 550, Msg: "no such file"}
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, content, 0o644)
}

func (f *fakeRemote) Move(src, dst string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	content, ok := f.files[src]
	if !ok {
		return &textproto.Error{Code: 550, Msg: "no such file"}
	}
	delete(f.files, src)
	f.files[dst] = content
	f.moved[src] = dst
	return nil
}

func (f *fakeRemote) EnsureDir(dir string) {
	f.ensured = append(f.ensured, dir)
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

type sweepFixture struct {
	sweeper *Sweeper
	store   store.Store
	remote  *fakeRemote
	project model.Project
}

func newTestSweeper(t *testing.T) *sweepFixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "tender.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	project, err := st.CreateProject(ctx, "Depot Refit", "Thames Water")
	require.NoError(t, err)

	fake := newFakeRemote()
	s := NewSweeper(ingest.New(st), st, Options{
		Addr:    "ftp.internal",
		Inbox:   "/inbox",
		Staging: t.TempDir(),
		Retry:   resilience.RetryConfig{MaxAttempts: 1},
	})
	s.dial = func(context.Context) (remote, error) { return fake, nil }

	return &sweepFixture{sweeper: s, store: st, remote: fake, project: *project}
}

func fptr(v float64) *float64 { return &v }

func lineItemsJSON(t *testing.T, items []model.ParsedLineItem) []byte {
	t.Helper()
	b, err := json.Marshal(items)
	require.NoError(t, err)
	return b
}

func responseItemsJSON(t *testing.T, items []model.ParsedResponseItem) []byte {
	t.Helper()
	b, err := json.Marshal(items)
	require.NoError(t, err)
	return b
}

func (f *sweepFixture) dropITT(t *testing.T, name string) {
	f.remote.files[path.Join("/inbox", f.project.ID, "itt", name)] = lineItemsJSON(t, []model.ParsedLineItem{
		{Description: "Excavate to reduced level", Unit: "m3", Qty: fptr(120), Rate: fptr(14.5), SectionCode: "1", SectionName: "Groundworks"},
		{Description: "Disposal off site", Unit: "m3", Qty: fptr(120), Rate: fptr(9), SectionCode: "1", SectionName: "Groundworks"},
	})
}

func (f *sweepFixture) dropResponse(t *testing.T, name string, items []model.ParsedResponseItem) {
	f.remote.files[path.Join("/inbox", f.project.ID, "responses", name)] = responseItemsJSON(t, items)
}

// --- Single project sweeps ---

func TestSweep_IngestsInboxFiles(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	f.dropITT(t, "bill.json")
	f.dropResponse(t, "buildco-ltd.json", []model.ParsedResponseItem{
		{Description: "Excavation", Value: "1,690.00"},
		{Description: "Cart away", Value: "Included"},
	})
	f.dropResponse(t, "groundfix.json", []model.ParsedResponseItem{
		{Description: "Excavation", Value: 1640.0},
	})

	report, err := f.sweeper.Sweep(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ITTFiles)
	assert.Equal(t, 2, report.ResponseFiles)
	assert.Equal(t, 0, report.Failed)

	items, err := f.store.ListITTItems(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	contractors, err := f.store.ListContractors(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 2)
	names := []string{contractors[0].Name, contractors[1].Name}
	sort.Strings(names)
	assert.Equal(t, []string{"Buildco Ltd", "Groundfix"}, names)

	responses, err := f.store.ListResponseItems(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 3)

	// All three files were archived under processed/ with a timestamp prefix.
	require.Len(t, f.remote.moved, 3)
	src := path.Join("/inbox", f.project.ID, "itt", "bill.json")
	dst := f.remote.moved[src]
	assert.True(t, strings.HasPrefix(dst, path.Join("/inbox", f.project.ID, "processed", "itt")+"/"))
	assert.True(t, strings.HasSuffix(dst, "-bill.json"))

	// The staged copy marks the file as ingested.
	_, err = os.Stat(filepath.Join(f.sweeper.opts.Staging, f.project.ID, "itt", "bill.json"))
	assert.NoError(t, err)

	assert.True(t, f.remote.closed)
}

func TestSweep_EmptyInbox(t *testing.T) {
	f := newTestSweeper(t)

	report, err := f.sweeper.Sweep(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ITTFiles)
	assert.Equal(t, 0, report.ResponseFiles)
	assert.Equal(t, 0, report.Failed)
}

func TestSweep_BadFileStaysInInbox(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	bad := path.Join("/inbox", f.project.ID, "responses", "mangled.json")
	f.remote.files[bad] = []byte(`{not json`)
	f.dropResponse(t, "goodco.json", []model.ParsedResponseItem{
		{Description: "Excavation", Value: 900.0},
	})

	report, err := f.sweeper.Sweep(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ResponseFiles)
	assert.Equal(t, 1, report.Failed)

	// The mangled file is still in the inbox for the next sweep.
	_, stillThere := f.remote.files[bad]
	assert.True(t, stillThere)
	_, movedBad := f.remote.moved[bad]
	assert.False(t, movedBad)

	contractors, err := f.store.ListContractors(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 1)
	assert.Equal(t, "Goodco", contractors[0].Name)
}

func TestSweep_InvalidRowRejectsFile(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	f.dropResponse(t, "buildco.json", []model.ParsedResponseItem{
		{Description: "", Value: 900.0}, // description required
	})

	report, err := f.sweeper.Sweep(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ResponseFiles)
	assert.Equal(t, 1, report.Failed)

	// Validation failed before the contractor was resolved.
	contractors, err := f.store.ListContractors(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Empty(t, contractors)
}

func TestSweep_ArchiveFailureDoesNotReingest(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	f.dropResponse(t, "buildco.json", []model.ParsedResponseItem{
		{Description: "Excavation", Value: 900.0},
	})

	// First sweep ingests but cannot archive.
	f.remote.moveErr = &textproto.Error{Code: 450, Msg: "file busy"}
	report, err := f.sweeper.Sweep(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ResponseFiles)

	// Second sweep finds the staged copy, skips ingest and retries the move.
	f.remote.moveErr = nil
	report, err = f.sweeper.Sweep(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ResponseFiles)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, f.remote.moved, 1)

	// Exactly one ingest happened across both sweeps.
	responses, err := f.store.ListResponseItems(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestSweep_SkipsNonJSONFiles(t *testing.T) {
	f := newTestSweeper(t)

	f.remote.files[path.Join("/inbox", f.project.ID, "responses", "notes.txt")] = []byte("call the QS")

	report, err := f.sweeper.Sweep(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ResponseFiles)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, f.remote.moved)
}

func TestSweep_ProjectMissing(t *testing.T) {
	f := newTestSweeper(t)

	_, err := f.sweeper.Sweep(context.Background(), "nope")
	require.ErrorIs(t, err, model.ErrNotFound)
}

// --- Full inbox sweeps ---

func TestSweepAll_SkipsUnknownDirectories(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	f.dropResponse(t, "buildco.json", []model.ParsedResponseItem{
		{Description: "Excavation", Value: 900.0},
	})
	f.remote.files["/inbox/zombie/itt/bill.json"] = []byte(`[]`)

	report, err := f.sweeper.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ResponseFiles)
	assert.Equal(t, 1, report.Skipped)

	// The orphan directory was left untouched.
	_, stillThere := f.remote.files["/inbox/zombie/itt/bill.json"]
	assert.True(t, stillThere)
}

func TestSweepAll_MultipleProjects(t *testing.T) {
	f := newTestSweeper(t)
	ctx := context.Background()

	second, err := f.store.CreateProject(ctx, "Pump House", "Severn Trent")
	require.NoError(t, err)

	f.dropITT(t, "bill.json")
	f.remote.files[path.Join("/inbox", second.ID, "responses", "acme.json")] = responseItemsJSON(t, []model.ParsedResponseItem{
		{Description: "Pump install", Value: "4,200.00"},
	})

	report, err := f.sweeper.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ITTFiles)
	assert.Equal(t, 1, report.ResponseFiles)
	assert.Equal(t, 0, report.Skipped)

	contractors, err := f.store.ListContractors(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 1)
	assert.Equal(t, "Acme", contractors[0].Name)
}

// --- Helpers ---

func TestContractorFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"buildco-ltd.json", "buildco ltd"},
		{"BW_Construction.json", "BW Construction"},
		{"acme.json", "acme"},
		{"Groundfix Civils.json", "Groundfix Civils"},
		{"double--dash.json", "double dash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contractorFromFilename(tt.in), "input %q", tt.in)
	}
}

func TestWithDefaultPort(t *testing.T) {
	assert.Equal(t, "ftp.example.com:21", withDefaultPort("ftp.example.com"))
	assert.Equal(t, "ftp.example.com:2121", withDefaultPort("ftp.example.com:2121"))
	assert.Equal(t, "", withDefaultPort(""))
}

func TestIsMissingPath(t *testing.T) {
	assert.True(t, isMissingPath(&textproto.Error{Code: 550, Msg: "not found"}))
	assert.True(t, isMissingPath(&textproto.Error{Code: 450, Msg: "unavailable"}))
	assert.False(t, isMissingPath(&textproto.Error{Code: 530, Msg: "not logged in"}))
	assert.False(t, isMissingPath(assert.AnError))
}
