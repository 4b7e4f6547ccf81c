package assess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwell-group/tender-cli/internal/model"
)

func fp(v float64) *float64 { return &v }

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func match(id, ittID, respID string, status model.MatchStatus, conf float64, updated time.Time) model.Match {
	return model.Match{
		ID:             id,
		ProjectID:      "proj-1",
		ITTItemID:      ittID,
		ResponseItemID: respID,
		Status:         status,
		Confidence:     conf,
		UpdatedAt:      updated,
	}
}

func TestBuild_SectionTotalScenario(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1", Name: "Riverside School"},
		Sections: []model.Section{{ID: "sec-1", ProjectID: "proj-1", Code: "1", Name: "Groundworks", SortOrder: 1}},
		ITTItems: []model.ITTItem{
			{ID: "itt-1", ProjectID: "proj-1", SectionID: "sec-1", Description: "Excavate", Amount: 100},
			{ID: "itt-2", ProjectID: "proj-1", SectionID: "sec-1", Description: "Backfill", Amount: 50},
		},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Excavate", Amount: fp(90)},
			{ID: "resp-2", ProjectID: "proj-1", ContractorID: "con-1", Description: "Backfill", Amount: fp(50)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-1", model.MatchAccepted, 0.9, t0),
			match("m2", "itt-2", "resp-2", model.MatchAccepted, 0.9, t0),
		},
	}

	payload := Build(snap)

	require.Len(t, payload.Sections, 1)
	sec := payload.Sections[0]
	assert.Equal(t, "sec-1", sec.SectionID)
	assert.InDelta(t, 150, sec.TotalITTAmount, 1e-9)
	assert.InDelta(t, 140, sec.TotalsByContractor["con-1"], 1e-9)

	require.Len(t, payload.Contractors, 1)
	assert.InDelta(t, 140, payload.Contractors[0].Total, 1e-9)
	assert.Zero(t, payload.Inconsistencies)
}

func TestBuild_ManualSupersedesAccepted(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1", Name: "Riverside School"},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", Description: "Excavate", Amount: 100}},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Excavate", Amount: fp(90)},
			{ID: "resp-2", ProjectID: "proj-1", ContractorID: "con-1", Description: "Excavation works", Amount: fp(85)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-1", model.MatchAccepted, 0.9, t0),
			match("m2", "itt-1", "resp-2", model.MatchManual, 1.0, t0.Add(time.Minute)),
		},
	}

	payload := Build(snap)

	require.Len(t, payload.Lines, 1)
	cell, ok := payload.Lines[0].Cells["con-1"]
	require.True(t, ok)
	assert.Equal(t, "resp-2", cell.ResponseItemID)
	assert.Equal(t, model.MatchManual, cell.MatchStatus)
	require.NotNil(t, cell.Amount)
	assert.InDelta(t, 85, *cell.Amount, 1e-9)

	// The superseded accepted match must not double-count the slot.
	assert.InDelta(t, 85, payload.Contractors[0].Total, 1e-9)
}

func TestBuild_QtyRateFallback(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", Description: "Formwork", Amount: 30}},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Formwork", Qty: fp(10), Rate: fp(2.5)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches:     []model.Match{match("m1", "itt-1", "resp-1", model.MatchAccepted, 0.9, t0)},
	}

	payload := Build(snap)

	cell := payload.Lines[0].Cells["con-1"]
	require.NotNil(t, cell.Amount)
	assert.InDelta(t, 25.00, *cell.Amount, 1e-9)
	assert.InDelta(t, 25.00, payload.Contractors[0].Total, 1e-9)
}

func TestBuild_LabelCellContributesNothing(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project: model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{
			{ID: "itt-1", ProjectID: "proj-1", Description: "Scaffolding", Amount: 400},
			{ID: "itt-2", ProjectID: "proj-1", Description: "Hoarding", Amount: 200},
		},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Scaffolding", AmountLabel: "Included"},
			{ID: "resp-2", ProjectID: "proj-1", ContractorID: "con-1", Description: "Hoarding", Amount: fp(180)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-1", model.MatchAccepted, 0.9, t0),
			match("m2", "itt-2", "resp-2", model.MatchAccepted, 0.9, t0),
		},
	}

	payload := Build(snap)

	cell := payload.Lines[0].Cells["con-1"]
	assert.Nil(t, cell.Amount)
	assert.Equal(t, "Included", cell.AmountLabel)

	// The label cell contributes zero to the total, not an error.
	assert.InDelta(t, 180, payload.Contractors[0].Total, 1e-9)
}

func TestBuild_SuggestedCellVisibleButNotTotalled(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", Description: "Drainage", Amount: 75}},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Drainage", Amount: fp(70)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches:     []model.Match{match("m1", "itt-1", "resp-1", model.MatchSuggested, 0.8, t0)},
	}

	payload := Build(snap)

	cell, ok := payload.Lines[0].Cells["con-1"]
	require.True(t, ok)
	assert.Equal(t, model.MatchSuggested, cell.MatchStatus)
	require.NotNil(t, cell.Amount)
	assert.InDelta(t, 70, *cell.Amount, 1e-9)
	assert.Zero(t, payload.Contractors[0].Total)
}

func TestBuild_BestSuggestionWinsTheCell(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", Description: "Drainage", Amount: 75}},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Drainage A", Amount: fp(70)},
			{ID: "resp-2", ProjectID: "proj-1", ContractorID: "con-1", Description: "Drainage B", Amount: fp(72)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-1", model.MatchSuggested, 0.6, t0),
			match("m2", "itt-1", "resp-2", model.MatchSuggested, 0.9, t0),
		},
	}

	payload := Build(snap)

	cell := payload.Lines[0].Cells["con-1"]
	assert.Equal(t, "resp-2", cell.ResponseItemID)
	assert.InDelta(t, 0.9, cell.Confidence, 1e-9)
}

func TestBuild_StaleSuggestionLeavesCellEmpty(t *testing.T) {
	t.Parallel()

	// resp-1 is settled against itt-1; its leftover suggestion on itt-2
	// must not fill itt-2's cell.
	snap := Snapshot{
		Project: model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{
			{ID: "itt-1", ProjectID: "proj-1", Description: "Excavate", Amount: 100},
			{ID: "itt-2", ProjectID: "proj-1", Description: "Backfill", Amount: 50},
		},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Excavate", Amount: fp(95)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-1", model.MatchAccepted, 0.9, t0),
			match("m2", "itt-2", "resp-1", model.MatchSuggested, 0.4, t0.Add(-time.Hour)),
		},
	}

	payload := Build(snap)

	_, ok := payload.Lines[1].Cells["con-1"]
	assert.False(t, ok)
	assert.InDelta(t, 95, payload.Contractors[0].Total, 1e-9)
}

func TestBuild_InconsistentMatchSkipsCell(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1"},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", Description: "Excavate", Amount: 100}},
		ResponseItems: []model.ResponseItem{
			{ID: "resp-1", ProjectID: "proj-1", ContractorID: "con-1", Description: "Excavate", Amount: fp(90)},
		},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Matches: []model.Match{
			match("m1", "itt-1", "resp-ghost", model.MatchAccepted, 0.9, t0),
			match("m2", "itt-ghost", "resp-1", model.MatchAccepted, 0.9, t0),
		},
	}

	payload := Build(snap)

	assert.Equal(t, 2, payload.Inconsistencies)
	assert.Empty(t, payload.Lines[0].Cells)
	assert.Zero(t, payload.Contractors[0].Total)
}

func TestBuild_ExceptionContractorFallback(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:     model.Project{ID: "proj-1"},
		Contractors: []model.Contractor{{ID: "con-1", ProjectID: "proj-1", Name: "Acme Builders"}},
		Exceptions: []model.Exception{
			{ID: "ex-1", ProjectID: "proj-1", ResponseItemID: "resp-9", ContractorID: "con-ghost", Description: "Night working allowance", Amount: fp(500)},
			{ID: "ex-2", ProjectID: "proj-1", ResponseItemID: "resp-8", ContractorID: "con-1", Description: "Temporary works", AmountLabel: "TBC"},
		},
	}

	payload := Build(snap)

	require.Len(t, payload.Exceptions, 2)
	assert.Equal(t, "Unknown", payload.Exceptions[0].ContractorName)
	assert.Equal(t, "Acme Builders", payload.Exceptions[1].ContractorName)
	assert.Equal(t, "TBC", payload.Exceptions[1].AmountLabel)
}

func TestBuild_SectionExceptionAttachment(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project:  model.Project{ID: "proj-1"},
		Sections: []model.Section{{ID: "sec-1", ProjectID: "proj-1", Name: "Groundworks", SortOrder: 1}},
		ITTItems: []model.ITTItem{{ID: "itt-1", ProjectID: "proj-1", SectionID: "sec-1", Description: "Excavate", Amount: 100}},
		Exceptions: []model.Exception{
			{ID: "ex-1", ProjectID: "proj-1", ResponseItemID: "resp-9", ContractorID: "con-1", Description: "Rock excavation", SectionID: "sec-1", Amount: fp(250)},
			{ID: "ex-2", ProjectID: "proj-1", ResponseItemID: "resp-8", ContractorID: "con-1", Description: "Unattached", Amount: fp(99)},
		},
	}

	payload := Build(snap)

	require.Len(t, payload.Sections, 1)
	sec := payload.Sections[0]
	assert.Equal(t, 1, sec.ExceptionCount)
	assert.InDelta(t, 250, sec.ExceptionAmountsByContractor["con-1"], 1e-9)
	// Attached exception values sit beside the totals, never inside them.
	assert.InDelta(t, 0, sec.TotalsByContractor["con-1"], 1e-9)
}

func TestBuild_SectionOrderingAndHintFallback(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project: model.Project{ID: "proj-1"},
		Sections: []model.Section{
			{ID: "sec-2", ProjectID: "proj-1", Code: "2", Name: "Superstructure", SortOrder: 2},
			{ID: "sec-1", ProjectID: "proj-1", Code: "1", Name: "Groundworks", SortOrder: 1},
			{ID: "sec-empty", ProjectID: "proj-1", Code: "9", Name: "Unused", SortOrder: 0},
		},
		ITTItems: []model.ITTItem{
			{ID: "itt-1", ProjectID: "proj-1", SectionID: "sec-2", Description: "Frame", Amount: 900},
			{ID: "itt-2", ProjectID: "proj-1", SectionID: "sec-1", Description: "Excavate", Amount: 100},
			{ID: "itt-3", ProjectID: "proj-1", SectionID: "sec-ghost", SectionNameHint: "Provisional Sums", Description: "Contingency", Amount: 5000},
			{ID: "itt-4", ProjectID: "proj-1", SectionCodeHint: "PS", SectionNameHint: "Prime Cost", Description: "PC sum", Amount: 1200},
		},
	}

	payload := Build(snap)

	require.Len(t, payload.Sections, 4)
	// Persisted sections first by sort order; the unused one is omitted.
	assert.Equal(t, "sec-1", payload.Sections[0].SectionID)
	assert.Equal(t, "sec-2", payload.Sections[1].SectionID)

	// Synthetic summaries follow, carrying hint names.
	assert.True(t, payload.Sections[2].Synthetic)
	assert.True(t, payload.Sections[3].Synthetic)
	names := []string{payload.Sections[2].Name, payload.Sections[3].Name}
	assert.Contains(t, names, "Provisional Sums")
	assert.Contains(t, names, "Prime Cost")

	var totalITT float64
	for _, s := range payload.Sections {
		totalITT += s.TotalITTAmount
	}
	assert.InDelta(t, 7200, totalITT, 1e-9)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	t.Parallel()

	payload := Build(Snapshot{Project: model.Project{ID: "proj-1", Name: "Empty"}})

	assert.Equal(t, "proj-1", payload.ProjectID)
	assert.Empty(t, payload.Lines)
	assert.Empty(t, payload.Sections)
	assert.Empty(t, payload.Contractors)
	assert.Empty(t, payload.Exceptions)
	assert.Zero(t, payload.Inconsistencies)
	assert.False(t, payload.GeneratedAt.IsZero())
}
