// Package ledger enforces the match state machine: suggestion intake from
// the auto-matcher, manual match creation, and accept/reject settlement.
// Matches are never deleted; superseded and rejected records keep their
// status for audit and the resolver decides what callers see.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/resolve"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// Ledger coordinates match writes against the store.
type Ledger struct {
	store store.Store
}

// New creates a Ledger backed by st.
func New(st store.Store) *Ledger {
	return &Ledger{store: st}
}

// SuggestionReport summarizes one recorded auto-matcher batch: how many
// rows arrived, landed, were already present, or were rejected.
type SuggestionReport struct {
	Received   int        `json:"received"`
	Inserted   int        `json:"inserted"`
	Duplicates int        `json:"duplicates"`
	Rejected   []RowError `json:"rejected,omitempty"`
}

// RowError pairs a rejected row's position in the batch with the reason.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// RecordSuggestions stores a batch of auto-matcher candidates as suggested
// matches. Rows that fail validation or reference items outside the
// project are rejected row by row and reported without blocking the rest
// of the batch. A suggestion carrying an id already in the ledger counts
// as a duplicate, so producers can replay a batch safely.
func (l *Ledger) RecordSuggestions(ctx context.Context, projectID string, suggestions []model.Suggestion) (*SuggestionReport, error) {
	report := &SuggestionReport{Received: len(suggestions)}
	if len(suggestions) == 0 {
		return report, nil
	}

	project, err := l.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: project not found: %s", projectID)
	}

	ittItems, err := l.store.ListITTItems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	respItems, err := l.store.ListResponseItems(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ittSet := make(map[string]struct{}, len(ittItems))
	for _, it := range ittItems {
		ittSet[it.ID] = struct{}{}
	}
	respByID := make(map[string]model.ResponseItem, len(respItems))
	for _, it := range respItems {
		respByID[it.ID] = it
	}

	now := time.Now().UTC()
	matches := make([]model.Match, 0, len(suggestions))
	for i, s := range suggestions {
		if err := s.Validate(); err != nil {
			report.Rejected = append(report.Rejected, RowError{Row: i, Reason: err.Error()})
			continue
		}
		if _, ok := ittSet[s.ITTItemID]; !ok {
			report.Rejected = append(report.Rejected, RowError{Row: i, Reason: fmt.Sprintf("itt item %s not in project", s.ITTItemID)})
			continue
		}
		resp, ok := respByID[s.ResponseItemID]
		if !ok {
			report.Rejected = append(report.Rejected, RowError{Row: i, Reason: fmt.Sprintf("response item %s not in project", s.ResponseItemID)})
			continue
		}

		id := s.ID
		if id == "" {
			id = uuid.New().String()
		}
		matches = append(matches, model.Match{
			ID:             id,
			ProjectID:      projectID,
			ITTItemID:      s.ITTItemID,
			ContractorID:   resp.ContractorID,
			ResponseItemID: s.ResponseItemID,
			Status:         model.MatchSuggested,
			Confidence:     s.Confidence,
			Comment:        s.Comment,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if len(matches) > 0 {
		inserted, err := l.store.InsertSuggestions(ctx, matches)
		if err != nil {
			return nil, err
		}
		report.Inserted = inserted
		report.Duplicates = len(matches) - inserted
	}

	zap.L().Info("ledger: suggestions recorded",
		zap.String("project_id", projectID),
		zap.Int("received", report.Received),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("rejected", len(report.Rejected)))
	return report, nil
}

// CreateManual records a user-made association between an ITT item and a
// response item. The match is born terminal with confidence 1; any accepted
// match already holding the same comparison cell stays in place and is
// superseded at read time by the resolver.
func (l *Ledger) CreateManual(ctx context.Context, projectID, ittItemID, responseItemID, comment string) (*model.Match, error) {
	itt, err := l.store.GetITTItem(ctx, projectID, ittItemID)
	if err != nil {
		return nil, err
	}
	if itt == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: itt item %s not in project %s", ittItemID, projectID)
	}
	resp, err := l.store.GetResponseItem(ctx, projectID, responseItemID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: response item %s not in project %s", responseItemID, projectID)
	}

	now := time.Now().UTC()
	m := model.Match{
		ID:             uuid.New().String(),
		ProjectID:      projectID,
		ITTItemID:      ittItemID,
		ContractorID:   resp.ContractorID,
		ResponseItemID: responseItemID,
		Status:         model.MatchManual,
		Confidence:     1,
		Comment:        comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.store.InsertMatch(ctx, m); err != nil {
		return nil, err
	}
	zap.L().Info("ledger: manual match created",
		zap.String("project_id", projectID),
		zap.String("match_id", m.ID),
		zap.String("itt_item_id", ittItemID),
		zap.String("response_item_id", responseItemID))
	return &m, nil
}

// Accept settles a suggested match as accepted.
func (l *Ledger) Accept(ctx context.Context, projectID, matchID, comment string) (*model.Match, error) {
	return l.Settle(ctx, projectID, matchID, model.MatchAccepted, comment)
}

// Reject settles a suggested match as rejected.
func (l *Ledger) Reject(ctx context.Context, projectID, matchID, comment string) (*model.Match, error) {
	return l.Settle(ctx, projectID, matchID, model.MatchRejected, comment)
}

// Settle moves a suggested match to a terminal status. Settling a match
// that is already terminal leaves it untouched and returns it as-is, so
// repeated accept/reject calls are idempotent. A missing match is NotFound.
func (l *Ledger) Settle(ctx context.Context, projectID, matchID string, status model.MatchStatus, comment string) (*model.Match, error) {
	if status != model.MatchAccepted && status != model.MatchRejected {
		return nil, eris.Wrapf(model.ErrInvalidState, "ledger: cannot settle match as %q", status)
	}

	settled, err := l.store.SettleMatch(ctx, projectID, matchID, status, comment)
	if err != nil {
		return nil, err
	}

	m, err := l.store.GetMatch(ctx, projectID, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: match %s not in project %s", matchID, projectID)
	}

	if settled {
		zap.L().Info("ledger: match settled",
			zap.String("project_id", projectID),
			zap.String("match_id", matchID),
			zap.String("status", string(status)))
	} else {
		zap.L().Debug("ledger: settle no-op on terminal match",
			zap.String("project_id", projectID),
			zap.String("match_id", matchID),
			zap.String("status", string(m.Status)))
	}
	return m, nil
}

// List returns the effective matches for a project under the given filter,
// with stale suggestions suppressed.
func (l *Ledger) List(ctx context.Context, projectID string, filter model.MatchFilter) ([]model.Match, error) {
	matches, err := l.store.ListMatches(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return resolve.Effective(matches, filter), nil
}

// FlagException records a response line as scope the bill never asked for.
// Pricing fields are denormalized from the response item so the aggregator
// can list the exception without another join.
func (l *Ledger) FlagException(ctx context.Context, projectID, responseItemID, note string) (*model.Exception, error) {
	resp, err := l.store.GetResponseItem(ctx, projectID, responseItemID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: response item %s not in project %s", responseItemID, projectID)
	}

	ex := model.Exception{
		ID:             uuid.New().String(),
		ProjectID:      projectID,
		ResponseItemID: responseItemID,
		ContractorID:   resp.ContractorID,
		Description:    resp.Description,
		Amount:         resp.Amount,
		AmountLabel:    resp.AmountLabel,
		Note:           note,
	}
	if err := l.store.InsertExceptions(ctx, []model.Exception{ex}); err != nil {
		return nil, err
	}
	zap.L().Info("ledger: exception flagged",
		zap.String("project_id", projectID),
		zap.String("exception_id", ex.ID),
		zap.String("response_item_id", responseItemID))
	return &ex, nil
}

// AttachException ties an exception to a section so its value is surfaced
// beside that section's totals. The section must belong to the project.
func (l *Ledger) AttachException(ctx context.Context, projectID, exceptionID, sectionID string) (*model.Exception, error) {
	sections, err := l.store.ListSections(ctx, projectID)
	if err != nil {
		return nil, err
	}
	known := false
	for _, s := range sections {
		if s.ID == sectionID {
			known = true
			break
		}
	}
	if !known {
		return nil, eris.Wrapf(model.ErrNotFound, "ledger: section %s not in project %s", sectionID, projectID)
	}

	if err := l.store.AttachExceptionSection(ctx, projectID, exceptionID, sectionID); err != nil {
		return nil, err
	}

	exceptions, err := l.store.ListExceptions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range exceptions {
		if exceptions[i].ID == exceptionID {
			zap.L().Info("ledger: exception attached",
				zap.String("project_id", projectID),
				zap.String("exception_id", exceptionID),
				zap.String("section_id", sectionID))
			return &exceptions[i], nil
		}
	}
	return nil, eris.Wrapf(model.ErrNotFound, "ledger: exception %s not in project %s", exceptionID, projectID)
}
