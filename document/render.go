package document

import (
	"context"
	"sync"

	"github.com/pdfray/pdfray/content"
	"golang.org/x/sync/semaphore"

	pdf "github.com/pdfray/pdfray"
)

// RenderPageFunc builds a content-stream interpreter for one page and
// runs it to completion against a caller-supplied Painter. index is
// 0-based.
type RenderPageFunc func(ctx context.Context, d *Document, index int) error

// RenderPages runs fn once per page, across the half-open range
// [0, count), honoring maxWorkers concurrent pages (at least 1). It stops
// launching new pages once ctx is canceled or any invocation returns an
// error, and returns the first such error.
func (d *Document) RenderPages(ctx context.Context, count, maxWorkers int, fn RenderPageFunc) error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	sem := semaphore.NewWeighted(int64(maxWorkers))

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)

	for i := 0; i < count; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		mu.Lock()
		if firstErr != nil {
			mu.Unlock()
			sem.Release(1)
			break
		}
		mu.Unlock()

		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer sem.Release(1)

			if err := fn(ctx, d, index); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return firstErr
}

// RunPage decodes a single page's content stream and its resource stack,
// then runs them against p through a fresh Interpreter. opts is passed
// through unchanged (diagnostic sink, iteration/recursion caps).
func (d *Document) RunPage(index int, p content.Painter, opts *pdf.ReaderOptions) error {
	data, err := d.ContentBytes(index)
	if err != nil {
		return err
	}
	stack, err := d.PageResources(index)
	if err != nil {
		return err
	}

	it := content.NewInterpreter(d.R, p, opts, stack...)
	return it.Run(data)
}
