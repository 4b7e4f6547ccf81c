package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidwell-group/tender-cli/internal/model"
)

func mk(id, respID string, status model.MatchStatus, updated time.Time) model.Match {
	return model.Match{
		ID:             id,
		ProjectID:      "proj-1",
		ITTItemID:      "itt-" + id,
		ContractorID:   "con-1",
		ResponseItemID: respID,
		Status:         status,
		Confidence:     0.9,
		UpdatedAt:      updated,
	}
}

func TestEffective_StaleSuppression(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Response item r1 has one accepted match and one leftover suggestion.
	accepted := mk("m1", "r1", model.MatchAccepted, now)
	stale := mk("m2", "r1", model.MatchSuggested, now.Add(-time.Hour))
	other := mk("m3", "r2", model.MatchSuggested, now)
	matches := []model.Match{accepted, stale, other}

	t.Run("all hides the stale suggestion", func(t *testing.T) {
		t.Parallel()
		got := Effective(matches, model.FilterAll)
		require.Len(t, got, 2)
		assert.Equal(t, "m1", got[0].ID)
		assert.Equal(t, "m3", got[1].ID)
	})

	t.Run("suggested hides the stale suggestion", func(t *testing.T) {
		t.Parallel()
		got := Effective(matches, model.FilterSuggested)
		require.Len(t, got, 1)
		assert.Equal(t, "m3", got[0].ID)
	})

	t.Run("accepted keeps the settled match", func(t *testing.T) {
		t.Parallel()
		got := Effective(matches, model.FilterAccepted)
		require.Len(t, got, 1)
		assert.Equal(t, "m1", got[0].ID)
	})
}

func TestEffective_RejectedStaysVisible(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	matches := []model.Match{
		mk("m1", "r1", model.MatchManual, now),
		mk("m2", "r1", model.MatchRejected, now.Add(-time.Minute)),
	}

	// Only suggestions go stale; the rejected record remains audit-visible.
	all := Effective(matches, model.FilterAll)
	assert.Len(t, all, 2)

	rejected := Effective(matches, model.FilterRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "m2", rejected[0].ID)
}

func TestEffective_NoSettledMatchKeepsSuggestions(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	matches := []model.Match{
		mk("m1", "r1", model.MatchSuggested, now),
		mk("m2", "r1", model.MatchSuggested, now),
	}

	got := Effective(matches, model.FilterAll)
	assert.Len(t, got, 2)

	got = Effective(matches, model.FilterSuggested)
	assert.Len(t, got, 2)
}

func TestSettledByResponseItem_MostRecentWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	older := mk("m1", "r1", model.MatchAccepted, now.Add(-time.Hour))
	newer := mk("m2", "r1", model.MatchManual, now)

	settled := SettledByResponseItem([]model.Match{older, newer})
	require.Contains(t, settled, "r1")
	assert.Equal(t, "m2", settled["r1"].ID)
}

func TestSettledByResponseItem_TieBreaksOnID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := mk("m-b", "r1", model.MatchAccepted, now)
	b := mk("m-a", "r1", model.MatchAccepted, now)

	// Same timestamp: the lexically smaller id wins regardless of input order.
	settled := SettledByResponseItem([]model.Match{a, b})
	assert.Equal(t, "m-a", settled["r1"].ID)

	settled = SettledByResponseItem([]model.Match{b, a})
	assert.Equal(t, "m-a", settled["r1"].ID)
}

func TestNewer(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, Newer(mk("m1", "r1", model.MatchAccepted, now), mk("m2", "r1", model.MatchAccepted, now.Add(-time.Second))))
	assert.False(t, Newer(mk("m1", "r1", model.MatchAccepted, now.Add(-time.Second)), mk("m2", "r1", model.MatchAccepted, now)))
	assert.True(t, Newer(mk("m1", "r1", model.MatchAccepted, now), mk("m2", "r1", model.MatchAccepted, now)))
	assert.False(t, Newer(mk("m2", "r1", model.MatchAccepted, now), mk("m1", "r1", model.MatchAccepted, now)))
}
