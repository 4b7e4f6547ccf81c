// Package ingest loads canonical parsed records into a project. Records
// arrive as JSON from the external extraction service; ingest validates
// them at the boundary, resolves sections and contractors, and classifies
// priced cells through the normalizer.
package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/normalize"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// Ingestor writes validated parsed records through the store.
type Ingestor struct {
	store store.Store
}

// New creates an Ingestor backed by st.
func New(st store.Store) *Ingestor {
	return &Ingestor{store: st}
}

// ITTResult reports one ITT ingest.
type ITTResult struct {
	Sections int `json:"sections"`
	Items    int `json:"items"`
}

// ResponseResult reports one contractor response ingest.
type ResponseResult struct {
	Contractor model.Contractor `json:"contractor"`
	Items      int              `json:"items"`
}

// ITT replaces the project's bill of quantities with the given records.
// Sections are upserted by their normalized code|name key in order of
// first appearance, so a re-extracted bill updates section rows in place
// instead of minting new ones. Item amounts missing from the extraction
// are derived as qty*rate.
func (g *Ingestor) ITT(ctx context.Context, projectID string, records []model.ParsedLineItem) (*ITTResult, error) {
	project, err := g.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ingest: project not found: %s", projectID)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, eris.Wrapf(err, "ingest: line item %d", i)
		}
	}

	sections := collectSections(projectID, records)
	if len(sections) > 0 {
		if err := g.store.UpsertSections(ctx, sections); err != nil {
			return nil, err
		}
	}
	stored, err := g.store.ListSections(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sectionIDs := make(map[string]string, len(stored))
	for _, s := range stored {
		sectionIDs[normalize.SectionKey(s.Code, s.Name)] = s.ID
	}

	items := make([]model.ITTItem, 0, len(records))
	for _, r := range records {
		item := model.ITTItem{
			ID:              uuid.New().String(),
			ProjectID:       projectID,
			ItemCode:        r.ItemCode,
			Description:     r.Description,
			Unit:            r.Unit,
			Amount:          lineAmount(r),
			SectionCodeHint: r.SectionCode,
			SectionNameHint: r.SectionName,
		}
		if r.Qty != nil {
			item.Qty = *r.Qty
		}
		if r.Rate != nil {
			item.Rate = *r.Rate
		}
		if r.SectionCode != "" || r.SectionName != "" {
			item.SectionID = sectionIDs[normalize.SectionKey(r.SectionCode, r.SectionName)]
		}
		items = append(items, item)
	}
	if err := g.store.ReplaceITTItems(ctx, projectID, items); err != nil {
		return nil, err
	}

	zap.L().Info("ingest: itt loaded",
		zap.String("project_id", projectID),
		zap.Int("sections", len(sections)),
		zap.Int("items", len(items)))
	return &ITTResult{Sections: len(sections), Items: len(items)}, nil
}

// Response ingests one contractor's priced records. The contractor is
// created on first sight under its normalized name; each raw priced cell
// is classified into a numeric amount or a verbatim label.
func (g *Ingestor) Response(ctx context.Context, projectID, contractorName string, records []model.ParsedResponseItem) (*ResponseResult, error) {
	project, err := g.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ingest: project not found: %s", projectID)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, eris.Wrapf(err, "ingest: response item %d", i)
		}
	}

	contractor, err := g.resolveContractor(ctx, projectID, contractorName)
	if err != nil {
		return nil, err
	}

	items := make([]model.ResponseItem, 0, len(records))
	for _, r := range records {
		amount, label := normalize.Apply(r.Value)
		items = append(items, model.ResponseItem{
			ID:           uuid.New().String(),
			ProjectID:    projectID,
			ContractorID: contractor.ID,
			ItemCode:     r.ItemCode,
			Description:  r.Description,
			Unit:         r.Unit,
			Qty:          r.Qty,
			Rate:         r.Rate,
			Amount:       amount,
			AmountLabel:  label,
		})
	}
	if len(items) > 0 {
		if err := g.store.InsertResponseItems(ctx, items); err != nil {
			return nil, err
		}
	}

	zap.L().Info("ingest: response loaded",
		zap.String("project_id", projectID),
		zap.String("contractor", contractor.Name),
		zap.Int("items", len(items)))
	return &ResponseResult{Contractor: *contractor, Items: len(items)}, nil
}

// resolveContractor finds the project's contractor for a raw name,
// creating it when absent. Two ingests racing on the same new name both
// resolve to the row that won the insert.
func (g *Ingestor) resolveContractor(ctx context.Context, projectID, name string) (*model.Contractor, error) {
	key := normalize.Key(name)
	if key == "" {
		return nil, eris.Wrap(model.ErrValidation, "ingest: contractor name is required")
	}

	c, err := g.store.GetContractorByKey(ctx, projectID, key)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	fresh := model.Contractor{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      normalize.DisplayName(name),
	}
	err = g.store.InsertContractor(ctx, fresh)
	if err == nil {
		return &fresh, nil
	}
	if !errors.Is(err, model.ErrConflict) {
		return nil, err
	}
	c, err = g.store.GetContractorByKey(ctx, projectID, key)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, eris.Wrapf(model.ErrConflict, "ingest: contractor %q vanished after conflict", name)
	}
	return c, nil
}

// collectSections builds the section rows referenced by a bill, keyed by
// normalized code|name and ordered by first appearance.
func collectSections(projectID string, records []model.ParsedLineItem) []model.Section {
	var sections []model.Section
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.SectionCode == "" && r.SectionName == "" {
			continue
		}
		key := normalize.SectionKey(r.SectionCode, r.SectionName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sections = append(sections, model.Section{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			Code:      r.SectionCode,
			Name:      r.SectionName,
			SortOrder: len(sections),
		})
	}
	return sections
}

// lineAmount picks the item amount: the extracted total when present,
// otherwise qty*rate, otherwise zero.
func lineAmount(r model.ParsedLineItem) float64 {
	if r.Amount != nil {
		return normalize.Round2(*r.Amount)
	}
	if r.Qty != nil && r.Rate != nil {
		return normalize.Round2(*r.Qty * *r.Rate)
	}
	return 0
}
