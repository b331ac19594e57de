package stubdoc

import (
	"context"
	"runtime"
	"sync"
)

// runParallel processes the queue across a bounded worker pool. Files are
// independent: each worker runs the full pipeline for its file, including
// the commit, and records the outcome through a single mutex-guarded
// callback. Module loads are shared through the Loader, which guarantees
// one load per module path across all workers.
func (e *Engine) runParallel(ctx context.Context, queue []stubFile, stats *Stats) {
	if len(queue) == 0 {
		return
	}

	numWorkers := e.cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(queue) {
		numWorkers = len(queue)
	}

	workCh := make(chan stubFile, len(queue))
	for _, f := range queue {
		workCh <- f
	}
	close(workCh)

	var mu sync.Mutex
	record := func(update func()) {
		mu.Lock()
		update()
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				e.runOne(ctx, f, stats, record)
			}
		}()
	}
	wg.Wait()
}
