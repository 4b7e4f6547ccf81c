package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// newTestIngestor spins up an Ingestor over a throwaway SQLite store with
// one empty project.
func newTestIngestor(t *testing.T) (*Ingestor, store.Store, model.Project) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "tender.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	project, err := st.CreateProject(ctx, "Depot Refit", "Thames Water")
	require.NoError(t, err)
	return New(st), st, *project
}

func fptr(v float64) *float64 { return &v }

// --- ITT ---

func TestIngest_ITT(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()

	result, err := ing.ITT(ctx, project.ID, []model.ParsedLineItem{
		{ItemCode: "1.1", Description: "Excavate to reduced level", Unit: "m3", Qty: fptr(120), Rate: fptr(14.5), Amount: fptr(1740), SectionCode: "1.0", SectionName: "Groundworks"},
		{ItemCode: "1.2", Description: "Disposal off site", Unit: "m3", Qty: fptr(10), Rate: fptr(2.5), SectionCode: "1.0", SectionName: "Groundworks"},
		{ItemCode: "2.1", Description: "C30 slab", Unit: "m2", Qty: fptr(80), Rate: fptr(95), Amount: fptr(7600), SectionCode: "2.0", SectionName: "Concrete"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Sections)
	require.Equal(t, 3, result.Items)

	sections, err := st.ListSections(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	require.Equal(t, "Groundworks", sections[0].Name)
	require.Equal(t, "Concrete", sections[1].Name)

	items, err := st.ListITTItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "1.1", items[0].ItemCode)
	require.Equal(t, sections[0].ID, items[0].SectionID)
	require.Equal(t, sections[1].ID, items[2].SectionID)
	require.Equal(t, "Groundworks", items[0].SectionNameHint)

	// No extracted amount: derived qty*rate.
	require.Equal(t, 25.0, items[1].Amount)
}

func TestIngest_ITT_ReingestKeepsSectionIDs(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()

	_, err := ing.ITT(ctx, project.ID, []model.ParsedLineItem{
		{Description: "Strip topsoil", Qty: fptr(50), Rate: fptr(3), SectionCode: "1.0", SectionName: "Groundworks"},
	})
	require.NoError(t, err)
	before, err := st.ListSections(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Re-extraction renders the same section in different case; the stored
	// row is updated in place, not duplicated.
	_, err = ing.ITT(ctx, project.ID, []model.ParsedLineItem{
		{Description: "Strip topsoil", Qty: fptr(55), Rate: fptr(3), SectionCode: "1.0", SectionName: "GROUNDWORKS"},
		{Description: "Trim and compact", Qty: fptr(55), Rate: fptr(1.5), SectionCode: "1.0", SectionName: "GROUNDWORKS"},
	})
	require.NoError(t, err)

	after, err := st.ListSections(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, before[0].ID, after[0].ID)
	require.Equal(t, "GROUNDWORKS", after[0].Name)

	items, err := st.ListITTItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, before[0].ID, items[0].SectionID)
}

func TestIngest_ITT_RejectsInvalidRow(t *testing.T) {
	ing, _, project := newTestIngestor(t)

	_, err := ing.ITT(context.Background(), project.ID, []model.ParsedLineItem{
		{Description: "Strip topsoil", Qty: fptr(50), Rate: fptr(3)},
		{Description: "   "},
	})
	require.ErrorIs(t, err, model.ErrValidation)
	require.Contains(t, err.Error(), "line item 1")
}

func TestIngest_ITT_ProjectMissing(t *testing.T) {
	ing, _, _ := newTestIngestor(t)

	_, err := ing.ITT(context.Background(), "p-99", []model.ParsedLineItem{
		{Description: "Strip topsoil"},
	})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestIngest_ITT_NoSectionHints(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()

	result, err := ing.ITT(ctx, project.ID, []model.ParsedLineItem{
		{Description: "Preliminaries", Amount: fptr(12000)},
	})
	require.NoError(t, err)
	require.Zero(t, result.Sections)

	items, err := st.ListITTItems(ctx, project.ID)
	require.NoError(t, err)
	require.Empty(t, items[0].SectionID)
}

// --- Responses ---

func TestIngest_Response(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()

	result, err := ing.Response(ctx, project.ID, "BUILDCO ltd", []model.ParsedResponseItem{
		{Description: "Excavation", Value: "$1,234.50"},
		{Description: "Disposal", Value: "Included"},
		{Description: "Contingency release", Value: "(500)"},
		{Description: "Dayworks", Value: nil, Qty: fptr(10), Rate: fptr(45)},
	})
	require.NoError(t, err)
	require.Equal(t, "Buildco Ltd", result.Contractor.Name)
	require.Equal(t, 4, result.Items)

	items, err := st.ListResponseItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 4)

	require.NotNil(t, items[0].Amount)
	require.Equal(t, 1234.50, *items[0].Amount)
	require.Empty(t, items[0].AmountLabel)

	require.Nil(t, items[1].Amount)
	require.Equal(t, "Included", items[1].AmountLabel)

	require.NotNil(t, items[2].Amount)
	require.Equal(t, -500.0, *items[2].Amount)

	// Blank cell stays blank; qty/rate carry through for the aggregator's
	// fallback derivation.
	require.Nil(t, items[3].Amount)
	require.Empty(t, items[3].AmountLabel)
	require.Equal(t, 10.0, *items[3].Qty)
}

func TestIngest_Response_ReusesContractor(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()

	first, err := ing.Response(ctx, project.ID, "Buildco Ltd", []model.ParsedResponseItem{
		{Description: "Excavation", Value: 1500},
	})
	require.NoError(t, err)

	second, err := ing.Response(ctx, project.ID, "  BUILDCO   LTD ", []model.ParsedResponseItem{
		{Description: "Revised excavation", Value: 1450},
	})
	require.NoError(t, err)
	require.Equal(t, first.Contractor.ID, second.Contractor.ID)

	contractors, err := st.ListContractors(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 1)

	items, err := st.ListResponseItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestIngest_Response_BlankContractor(t *testing.T) {
	ing, _, project := newTestIngestor(t)

	_, err := ing.Response(context.Background(), project.ID, "   ", nil)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestIngest_Response_ProjectMissing(t *testing.T) {
	ing, _, _ := newTestIngestor(t)

	_, err := ing.Response(context.Background(), "p-99", "Buildco", nil)
	require.ErrorIs(t, err, model.ErrNotFound)
}

// --- Files ---

func TestIngest_ResponseFiles(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()
	dir := t.TempDir()

	buildco := filepath.Join(dir, "buildco.json")
	require.NoError(t, os.WriteFile(buildco, []byte(`[{"description":"Excavation","value":"$1,500.00"}]`), 0o644))
	groundfix := filepath.Join(dir, "groundfix.json")
	require.NoError(t, os.WriteFile(groundfix, []byte(`[{"description":"Excavation","value":1480},{"description":"Disposal","value":"Excluded"}]`), 0o644))

	outcomes, err := ing.ResponseFiles(ctx, project.ID, []ResponseFile{
		{Contractor: "Buildco", Path: buildco},
		{Contractor: "Groundfix", Path: groundfix},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.Equal(t, 1, outcomes[0].Result.Items)
	require.Equal(t, 2, outcomes[1].Result.Items)

	contractors, err := st.ListContractors(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 2)
}

func TestIngest_ResponseFiles_CollectsPerFileErrors(t *testing.T) {
	ing, st, project := newTestIngestor(t)
	ctx := context.Background()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o644))
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"description":"Excavation","value":1480}]`), 0o644))

	outcomes, err := ing.ResponseFiles(ctx, project.ID, []ResponseFile{
		{Contractor: "Badco", Path: bad},
		{Contractor: "Goodco", Path: good},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2")
	require.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)

	// The good file landed despite the bad one.
	contractors, err := st.ListContractors(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, contractors, 1)
	require.Equal(t, "Goodco", contractors[0].Name)
}

func TestLoadLineItems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "itt.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"item_code":"1.1","description":"Excavate","qty":120,"rate":14.5,"section_name":"Groundworks"}]`), 0o644))

	records, err := LoadLineItems(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Excavate", records[0].Description)
	require.Equal(t, 120.0, *records[0].Qty)
	require.Nil(t, records[0].Amount)

	_, err = LoadLineItems(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
