// Package transform runs CPU-bound per-file jobs (image re-encoding) across
// a fixed-size worker pool. Jobs share no mutable state; progress follows
// the same single-consumer contract as the fetch engine.
package transform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/stocklens/stocklens/internal/fetch"
	"go.uber.org/zap"
)

// Job maps one source file to one destination file. The transform is a pure
// function of the source bytes.
type Job struct {
	Src string
	Dst string
}

// Func turns source bytes into destination bytes.
type Func func(src []byte) ([]byte, error)

// Pool executes transform jobs with a fixed number of workers.
type Pool struct {
	workers int
	logger  *zap.Logger
}

// NewPool sizes the pool; workers < 1 means available CPU parallelism.
func NewPool(workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers, logger: logger.Named("transform")}
}

// Run executes all jobs and reports progress after every completion.
// A missing source is a no-op, not an error. Failures are logged and the
// item skipped; the batch always completes.
func (p *Pool) Run(ctx context.Context, jobs []Job, fn Func, onProgress fetch.ProgressFunc) {
	total := len(jobs)
	if onProgress != nil {
		onProgress(0, total)
	}
	if total == 0 {
		return
	}

	pending := make(chan Job)
	completions := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range pending {
				p.runOne(job, fn)
				completions <- struct{}{}
			}
		}()
	}

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

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		pending <- job
	}
	close(pending)
	wg.Wait()
	close(completions)
	<-aggregatorDone
}

func (p *Pool) runOne(job Job, fn Func) {
	src, err := os.ReadFile(job.Src)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("transform source unreadable", zap.String("src", job.Src), zap.Error(err))
		}
		return
	}

	out, err := fn(src)
	if err != nil {
		p.logger.Warn("transform failed, skipping item",
			zap.String("src", job.Src),
			zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(job.Dst), 0o755); err != nil {
		p.logger.Warn("transform destination dir", zap.String("dst", job.Dst), zap.Error(err))
		return
	}
	if err := os.WriteFile(job.Dst, out, 0o644); err != nil {
		p.logger.Warn("transform write failed", zap.String("dst", job.Dst), zap.Error(err))
	}
}
