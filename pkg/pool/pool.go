package pool

import (
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// searchAlone runs f, which may return nil, until count elements are found
func searchAlone(ctx context.Context, f func() (interface{}, error), count int) ([]interface{}, error) {
	results := make([]interface{}, 0, count)
	for len(results) < count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := f()
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, res)
		}
	}
	return results, nil
}

// parallelizeAlone calculates f count times on the current goroutine
func parallelizeAlone(ctx context.Context, f func(context.Context, int) error, count int) error {
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Pool bounds the number of goroutines used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
type Pool struct {
	// This holds the number of workers we allow at once
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	return &Pool{workerCount: count}
}

// Workers returns the maximum number of goroutines used by p.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful. An error returned by f aborts the search, unless count successes
// were already found.
//
// The result will be a slice containing the first count successes.
func (p *Pool) Search(ctx context.Context, count int, f func() (interface{}, error)) ([]interface{}, error) {
	if p == nil {
		return searchAlone(ctx, f, count)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var mtx sync.Mutex
	results := make([]interface{}, 0, count)
	for i := 0; i < p.workerCount; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				res, err := f()
				if err != nil {
					mtx.Lock()
					done := len(results) == count
					mtx.Unlock()
					if done {
						return nil
					}
					return err
				}
				if res == nil {
					continue
				}
				mtx.Lock()
				if len(results) < count {
					results = append(results, res)
				}
				if len(results) == count {
					cancel()
				}
				mtx.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(results) < count {
		if err := parent.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	return results, nil
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// At most Workers() calls run at the same time. The first error returned by f
// cancels the context passed to the remaining calls, and is returned.
func (p *Pool) Parallelize(ctx context.Context, count int, f func(context.Context, int) error) error {
	if p == nil {
		return parallelizeAlone(ctx, f, count)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, i)
		})
	}
	return g.Wait()
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This type implements io.Reader, returning the same output.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
func NewLockedReader(r io.Reader) *LockedReader {
	// Intentionally not initializing m, since the zero value is ok
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader
//
// The behavior is to return the same output as the underlying reader. The difference
// is that it's safe to call this function concurrently.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
