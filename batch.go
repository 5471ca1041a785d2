package backtest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one independent simulation of a batch.
type Job struct {
	Name        string
	InitialCash Money
	Orders      []Order
}

// Result is the outcome of a Job.
type Result struct {
	Job   Job
	Trail *Trail
	Err   error
}

// RunBatch runs every job against the same prices, at most 'limit' at a time
// (no limit if limit <= 0). Each job is a complete, isolated run of engine:
// a failing job does not stop the others, its error is in its Result.
//
// Results are in the order of jobs. The error is non nil only if ctx is done
// before every job could start.
func RunBatch(ctx context.Context, engine Engine, prices *PriceTable, jobs []Job, limit int) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// a run cannot be interrupted, but there is no point starting one.
			if err := gctx.Err(); err != nil {
				return err
			}
			trail, err := engine.Run(job.InitialCash, job.Orders, prices)
			results[i] = Result{Job: job, Trail: trail, Err: err}
			return nil
		})
	}
	// a job only fails when ctx is done before it starts, that is reported below.
	_ = g.Wait()
	var err error
	for i := range results {
		if results[i].Trail == nil && results[i].Err == nil {
			err = ctx.Err()
			results[i] = Result{Job: jobs[i], Err: err}
		}
	}
	return results, err
}
