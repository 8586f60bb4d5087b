package profile

import (
	"context"

	"github.com/jonathan/cv-job-matcher/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the batch concurrency when none is given
const DefaultWorkers = 4

// Document is one input to ExtractBatch
type Document struct {
	Name     string
	Text     string
	Mentions []types.PlaceMention
}

// ExtractBatch extracts profiles for docs using up to workers goroutines.
// Results keep the order of docs. The only error is ctx being done.
func (e *Extractor) ExtractBatch(ctx context.Context, docs []Document, workers int) ([]*types.CandidateProfile, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	profiles := make([]*types.CandidateProfile, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profiles[i] = e.Extract(doc.Text, doc.Mentions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a cancellation that landed between the last Go and Wait
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}
