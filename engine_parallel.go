package codemap

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// workItem is one file handed to a read/parse worker.
type workItem struct {
	index int
	path  string
	lang  string
}

// workResult carries a parsed file, or the failure, back to the extractor
// loop.
type workResult struct {
	index  int
	path   string
	parsed *parsedFile
	err    error
}

// indexFilesParallel runs a two-phase pipeline:
//
//	Phase A (parallel): read and parse on a worker pool.
//	Phase B (serial):   extract in input order on the calling goroutine.
//
// Phase B reorders results by input index, so the graph never depends on
// worker scheduling.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	var errs []error

	// Unsupported paths fail before any I/O, as in the serial path.
	var items []workItem
	for i, path := range paths {
		lang, ok := e.enabled(path)
		if !ok {
			err := fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
			e.logger.Warn("index failed", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		items = append(items, workItem{index: i, path: path, lang: lang})
	}
	if len(items) == 0 {
		return summarize(errs)
	}

	// ---- Phase A: parallel read and parse ----
	numWorkers := e.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, len(items)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	resultCh := make(chan workResult, len(items))
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				res := workResult{index: item.index, path: item.path}
				if err := ctx.Err(); err != nil {
					res.err = err
				} else {
					res.parsed, res.err = e.readAndParse(ctx, item.path, item.lang)
				}
				resultCh <- res
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase B: serial extraction in input order ----
	ready := make(map[int]workResult, len(items))
	next := 0
	for res := range resultCh {
		ready[res.index] = res
		for next < len(items) {
			r, ok := ready[items[next].index]
			if !ok {
				break
			}
			delete(ready, items[next].index)
			next++

			err := r.err
			if err == nil {
				err = e.extract(r.parsed)
			}
			if err != nil {
				e.logger.Warn("index failed", "path", r.path, "err", err)
				errs = append(errs, fmt.Errorf("index %s: %w", r.path, err))
			}
		}
	}
	return summarize(errs)
}
