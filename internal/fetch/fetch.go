// Package fetch is the bounded-concurrency engine behind the I/O stages of
// the pipeline. It runs independent per-item jobs under a global in-flight
// cap, isolates per-item failures, and funnels progress updates through a
// single consumer so that no worker ever touches shared state.
package fetch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one independent fetch operation, tagged with the key (product id,
// image name, ...) its result belongs to.
type Job[K comparable, V any] struct {
	Key K
	Run func(ctx context.Context) (V, error)
}

// Result carries a job's outcome under its originating key. Err is the
// job's own failure; the batch always completes regardless.
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// ProgressFunc receives (done, total) after every job completion. It is
// invoked from a single goroutine, never concurrently.
type ProgressFunc func(done, total int)

// Run executes all jobs with at most limit in flight. Completion order is
// arbitrary but results keep submission order and per-item identity. When
// ctx is cancelled, in-flight jobs drain and the remaining ones are marked
// with the context error without being started.
func Run[K comparable, V any](ctx context.Context, limit int, jobs []Job[K, V], onProgress ProgressFunc, logger *zap.Logger) []Result[K, V] {
	if limit < 1 {
		limit = 1
	}

	total := len(jobs)
	results := make([]Result[K, V], total)

	if onProgress != nil {
		onProgress(0, total)
	}
	if total == 0 {
		return results
	}

	completions := make(chan struct{})
	aggregatorDone := make(chan struct{})
	go func() {
		defer close(aggregatorDone)
		done := 0
		for range completions {
			done++
			if onProgress != nil {
				onProgress(done, total)
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(limit)

	for i, job := range jobs {
		// No new jobs after cancellation; running ones drain below.
		if err := ctx.Err(); err != nil {
			results[i] = Result[K, V]{Key: job.Key, Err: err}
			continue
		}

		g.Go(func() error {
			value, err := job.Run(ctx)
			if err != nil {
				logger.Warn("fetch job failed, treating as empty",
					zap.Any("key", job.Key),
					zap.Error(err))
			}
			results[i] = Result[K, V]{Key: job.Key, Value: value, Err: err}
			completions <- struct{}{}
			return nil
		})
	}

	_ = g.Wait() // job errors are recorded per item
	close(completions)
	<-aggregatorDone

	return results
}
