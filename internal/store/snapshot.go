package store

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/bidwell-group/tender-cli/internal/assess"
	"github.com/bidwell-group/tender-cli/internal/model"
)

// LoadSnapshot gathers every project entity needed for assessment in one
// round of concurrent reads.
func LoadSnapshot(ctx context.Context, s Store, projectID string) (*assess.Snapshot, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "project not found: %s", projectID)
	}

	snap := &assess.Snapshot{Project: *project}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Sections, err = s.ListSections(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.ITTItems, err = s.ListITTItems(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.ResponseItems, err = s.ListResponseItems(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Contractors, err = s.ListContractors(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Matches, err = s.ListMatches(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Exceptions, err = s.ListExceptions(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "store: load snapshot")
	}

	return snap, nil
}
