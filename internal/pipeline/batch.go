package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ProcessBatch processes the captures at paths in parallel with at most
// workers goroutines (GOMAXPROCS when workers <= 0). Results keep the order
// of paths. Sheets share no mutable state; a failed sheet never affects the
// others.
//
// Cancelling ctx stops new sheets from starting; sheets already running
// finish. The returned error is ctx's error in that case, and results for
// unstarted sheets are nil.
func ProcessBatch(ctx context.Context, paths []string, opts Options, workers int) ([]*Result, error) {
	p, err := NewProcessor(opts)
	if err != nil {
		return nil, err
	}
	return p.ProcessBatch(ctx, paths, workers)
}

// ProcessBatch is the Processor form of the package-level ProcessBatch.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
