// Package assess builds the cross-contractor comparison payload for a
// project from a point-in-time entity snapshot.
package assess

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/normalize"
	"github.com/bidwell-group/tender-cli/internal/resolve"
)

// unknownContractor is the display fallback when an exception references
// a contractor record that is missing from the snapshot.
const unknownContractor = "Unknown"

// Snapshot is the full entity set for one project at a point in time.
type Snapshot struct {
	Project       model.Project
	Sections      []model.Section
	ITTItems      []model.ITTItem
	ResponseItems []model.ResponseItem
	Contractors   []model.Contractor
	Matches       []model.Match
	Exceptions    []model.Exception
}

// Build aggregates the snapshot into the comparison payload. It is pure
// and never fails: a match referencing an item absent from the snapshot
// skips its cell, logs a warning, and increments the payload's
// inconsistency counter.
func Build(snap Snapshot) model.AssessmentPayload {
	ittByID := make(map[string]model.ITTItem, len(snap.ITTItems))
	for _, it := range snap.ITTItems {
		ittByID[it.ID] = it
	}
	respByID := make(map[string]model.ResponseItem, len(snap.ResponseItems))
	for _, ri := range snap.ResponseItems {
		respByID[ri.ID] = ri
	}
	contractorByID := make(map[string]model.Contractor, len(snap.Contractors))
	for _, c := range snap.Contractors {
		contractorByID[c.ID] = c
	}
	sectionByID := make(map[string]model.Section, len(snap.Sections))
	for _, s := range snap.Sections {
		sectionByID[s.ID] = s
	}

	effective := resolve.Effective(snap.Matches, model.FilterAll)

	// Pick the winning match per (ittItemID, contractorID) slot. Settled
	// matches beat suggestions; rejected pairs never fill a cell.
	type slotKey struct{ ittItemID, contractorID string }
	inconsistencies := 0
	winners := make(map[slotKey]model.Match)
	for _, m := range effective {
		if m.Status == model.MatchRejected {
			continue
		}
		ri, ok := respByID[m.ResponseItemID]
		if !ok {
			zap.L().Warn("assess: match references missing response item",
				zap.String("match_id", m.ID),
				zap.String("response_item_id", m.ResponseItemID),
			)
			inconsistencies++
			continue
		}
		if _, ok := ittByID[m.ITTItemID]; !ok {
			zap.L().Warn("assess: match references missing itt item",
				zap.String("match_id", m.ID),
				zap.String("itt_item_id", m.ITTItemID),
			)
			inconsistencies++
			continue
		}
		key := slotKey{ittItemID: m.ITTItemID, contractorID: ri.ContractorID}
		cur, exists := winners[key]
		if !exists || slotBetter(m, cur) {
			winners[key] = m
		}
	}

	// Walk the bill in order, building lines and accumulating totals from
	// the winning cells only.
	lines := make([]model.LineAssessment, 0, len(snap.ITTItems))
	contractorTotals := make(map[string]float64, len(snap.Contractors))
	sections := newSectionIndex(sectionByID)
	for _, item := range snap.ITTItems {
		line := model.LineAssessment{
			ITTItemID:   item.ID,
			SectionID:   item.SectionID,
			ItemCode:    item.ItemCode,
			Description: item.Description,
			Unit:        item.Unit,
			Qty:         item.Qty,
			Rate:        item.Rate,
			Amount:      normalize.Round2(item.Amount),
			Cells:       make(map[string]model.ResponseCell),
		}
		acc := sections.bucketFor(item)
		acc.ittTotal += item.Amount

		for _, c := range snap.Contractors {
			m, ok := winners[slotKey{ittItemID: item.ID, contractorID: c.ID}]
			if !ok {
				continue
			}
			ri := respByID[m.ResponseItemID]
			amount, label := cellAmount(ri)
			line.Cells[c.ID] = model.ResponseCell{
				MatchID:        m.ID,
				ResponseItemID: ri.ID,
				MatchStatus:    m.Status,
				Confidence:     m.Confidence,
				Amount:         amount,
				AmountLabel:    label,
			}
			if m.Status.Settled() && amount != nil {
				contractorTotals[c.ID] += *amount
				acc.byContractor[c.ID] += *amount
			}
		}
		lines = append(lines, line)
	}

	sections.attachExceptions(snap.Exceptions)

	columns := make([]model.ContractorColumn, 0, len(snap.Contractors))
	for _, c := range snap.Contractors {
		columns = append(columns, model.ContractorColumn{
			ContractorID: c.ID,
			Name:         c.Name,
			Total:        normalize.Round2(contractorTotals[c.ID]),
		})
	}

	exceptions := make([]model.ExceptionEntry, 0, len(snap.Exceptions))
	for _, ex := range snap.Exceptions {
		name := unknownContractor
		if c, ok := contractorByID[ex.ContractorID]; ok {
			name = c.Name
		}
		entry := model.ExceptionEntry{
			ExceptionID:    ex.ID,
			ResponseItemID: ex.ResponseItemID,
			ContractorID:   ex.ContractorID,
			ContractorName: name,
			Description:    ex.Description,
			SectionID:      ex.SectionID,
			AmountLabel:    ex.AmountLabel,
			Note:           ex.Note,
		}
		if ex.Amount != nil {
			v := normalize.Round2(*ex.Amount)
			entry.Amount = &v
		}
		exceptions = append(exceptions, entry)
	}

	return model.AssessmentPayload{
		ProjectID:       snap.Project.ID,
		ProjectName:     snap.Project.Name,
		Contractors:     columns,
		Lines:           lines,
		Sections:        sections.summaries(),
		Exceptions:      exceptions,
		Inconsistencies: inconsistencies,
		GeneratedAt:     time.Now().UTC(),
	}
}

// slotBetter reports whether a beats b for one comparison cell: settled
// beats suggested, settled ties go to the most recently updated, and
// suggestion ties go to the higher confidence then the smaller id.
func slotBetter(a, b model.Match) bool {
	as, bs := a.Status.Settled(), b.Status.Settled()
	if as != bs {
		return as
	}
	if as {
		return resolve.Newer(a, b)
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.ID < b.ID
}

// cellAmount computes a cell's numeric value: the response amount when
// present, else qty*rate when both are numeric, else nil. The label
// carries through unchanged.
func cellAmount(ri model.ResponseItem) (*float64, string) {
	if ri.Amount != nil {
		v := normalize.Round2(*ri.Amount)
		return &v, ri.AmountLabel
	}
	if ri.Qty != nil && ri.Rate != nil {
		v := normalize.Round2(*ri.Qty * *ri.Rate)
		return &v, ri.AmountLabel
	}
	return nil, ri.AmountLabel
}

// sectionBucket accumulates one surfaced section summary.
type sectionBucket struct {
	id               string
	code             string
	name             string
	sortOrder        int
	synthetic        bool
	ittTotal         float64
	byContractor     map[string]float64
	exceptionCount   int
	exceptionAmounts map[string]float64
}

// sectionIndex groups ITT items into surfaced sections, persisted rows
// first, falling back to the item's own code/name hints.
type sectionIndex struct {
	byID     map[string]model.Section
	buckets  map[string]*sectionBucket
	ordering []string
}

func newSectionIndex(byID map[string]model.Section) *sectionIndex {
	return &sectionIndex{byID: byID, buckets: make(map[string]*sectionBucket)}
}

// bucketFor returns the accumulator for the item's section, creating it
// on first sight. Items whose section id has no persisted row group
// under a synthetic bucket built from the item's hints.
func (si *sectionIndex) bucketFor(item model.ITTItem) *sectionBucket {
	key := item.SectionID
	if key == "" {
		key = normalize.SectionKey(item.SectionCodeHint, item.SectionNameHint)
	}
	if b, ok := si.buckets[key]; ok {
		return b
	}

	b := &sectionBucket{
		id:               key,
		byContractor:     make(map[string]float64),
		exceptionAmounts: make(map[string]float64),
	}
	if sec, ok := si.byID[item.SectionID]; ok {
		b.code = sec.Code
		b.name = sec.Name
		b.sortOrder = sec.SortOrder
	} else {
		b.synthetic = true
		b.code = item.SectionCodeHint
		b.name = item.SectionNameHint
		if b.name == "" {
			b.name = item.SectionCodeHint
		}
		if b.name == "" {
			b.name = "Unsectioned"
		}
	}
	si.buckets[key] = b
	si.ordering = append(si.ordering, key)
	return b
}

// attachExceptions counts and sums exceptions against the sections they
// are attached to. Exceptions on unsurfaced sections only appear in the
// payload's exception list.
func (si *sectionIndex) attachExceptions(exceptions []model.Exception) {
	for _, ex := range exceptions {
		if ex.SectionID == "" {
			continue
		}
		b, ok := si.buckets[ex.SectionID]
		if !ok {
			continue
		}
		b.exceptionCount++
		if ex.Amount != nil {
			b.exceptionAmounts[ex.ContractorID] += *ex.Amount
		}
	}
}

// summaries renders the buckets in display order: persisted sections by
// ascending sort order, synthetic ones after, by section id.
func (si *sectionIndex) summaries() []model.SectionSummary {
	keys := make([]string, len(si.ordering))
	copy(keys, si.ordering)
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := si.buckets[keys[i]], si.buckets[keys[j]]
		if a.synthetic != b.synthetic {
			return !a.synthetic
		}
		if a.synthetic {
			return a.id < b.id
		}
		if a.sortOrder != b.sortOrder {
			return a.sortOrder < b.sortOrder
		}
		return a.id < b.id
	})

	out := make([]model.SectionSummary, 0, len(keys))
	for _, k := range keys {
		b := si.buckets[k]
		totals := make(map[string]float64, len(b.byContractor))
		for id, v := range b.byContractor {
			totals[id] = normalize.Round2(v)
		}
		summary := model.SectionSummary{
			SectionID:          b.id,
			Code:               b.code,
			Name:               b.name,
			SortOrder:          b.sortOrder,
			TotalITTAmount:     normalize.Round2(b.ittTotal),
			TotalsByContractor: totals,
			ExceptionCount:     b.exceptionCount,
			Synthetic:          b.synthetic,
		}
		if len(b.exceptionAmounts) > 0 {
			amounts := make(map[string]float64, len(b.exceptionAmounts))
			for id, v := range b.exceptionAmounts {
				amounts[id] = normalize.Round2(v)
			}
			summary.ExceptionAmountsByContractor = amounts
		}
		out = append(out, summary)
	}
	return out
}
