package ingest

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bidwell-group/tender-cli/internal/model"
)

// maxConcurrentFiles bounds parallel response-file ingest.
const maxConcurrentFiles = 4

// LoadLineItems reads a JSON array of canonical ITT records from the
// given path.
func LoadLineItems(path string) ([]model.ParsedLineItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read line items")
	}

	var records []model.ParsedLineItem
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "ingest: unmarshal line items")
	}

	return records, nil
}

// LoadResponseItems reads a JSON array of canonical response records from
// the given path.
func LoadResponseItems(path string) ([]model.ParsedResponseItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read response items")
	}

	var records []model.ParsedResponseItem
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "ingest: unmarshal response items")
	}

	return records, nil
}

// ResponseFile names one canonical response JSON file and the contractor
// it prices for.
type ResponseFile struct {
	Contractor string
	Path       string
}

// FileOutcome is one file's result within a batch. Err is set when that
// file failed; the batch keeps going.
type FileOutcome struct {
	File   ResponseFile
	Result *ResponseResult
	Err    error
}

// ResponseFiles ingests several contractor response files concurrently.
// A failing file is reported in its outcome without stopping the others;
// the returned error summarizes the batch when any file failed. Outcomes
// keep the input order.
func (g *Ingestor) ResponseFiles(ctx context.Context, projectID string, files []ResponseFile) ([]FileOutcome, error) {
	outcomes := make([]FileOutcome, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentFiles)
	for i, f := range files {
		eg.Go(func() error {
			outcomes[i] = FileOutcome{File: f}
			records, err := LoadResponseItems(f.Path)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			result, err := g.Response(egCtx, projectID, f.Contractor, records)
			if err != nil {
				outcomes[i].Err = eris.Wrapf(err, "ingest: %s", f.Path)
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return outcomes, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			zap.L().Warn("ingest: response file failed",
				zap.String("project_id", projectID),
				zap.String("path", o.File.Path),
				zap.Error(o.Err))
		}
	}
	if failed > 0 {
		return outcomes, eris.Errorf("ingest: %d of %d response files failed", failed, len(files))
	}
	return outcomes, nil
}
