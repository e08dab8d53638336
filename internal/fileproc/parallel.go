// Package fileproc fans per-module work out over a bounded worker pool, one
// tree-sitter parser per task.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/clientprune/pkg/parser"
)

// ProcessingError is a failure tied to one file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors lists failed files in input order.
type ProcessingErrors struct {
	Errors []ProcessingError
}

// HasErrors reports whether any file failed. Safe on nil.
func (e *ProcessingErrors) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// Sorted returns the failures ordered by path.
func (e *ProcessingErrors) Sorted() []ProcessingError {
	if e == nil {
		return nil
	}
	out := make([]ProcessingError, len(e.Errors))
	copy(out, e.Errors)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (e *ProcessingErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// DefaultWorkerMultiplier scales NumCPU when no worker count is given.
const DefaultWorkerMultiplier = 2

// Workers resolves a requested worker count; n <= 0 means 2x NumCPU.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// DoneFunc is called once per file with its result or error, from the
// worker that handled it.
type DoneFunc[T any] func(path string, result T, err error)

// MapFiles runs fn over files with the default worker count.
func MapFiles[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapFilesN(ctx, files, 0, fn, nil)
}

// MapFilesN runs fn over files on at most maxWorkers goroutines. Results of
// successful files come back in input order; failed files, including those
// not started before ctx was cancelled, are returned as ProcessingErrors,
// which is nil when every file succeeded.
func MapFilesN[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error), onDone DoneFunc[T]) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	type slot struct {
		val T
		err error
	}
	// each task owns its slot, so no locking
	slots := make([]slot, len(files))

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers))
	for i, path := range files {
		p.Go(func() {
			s := &slots[i]
			if err := ctx.Err(); err != nil {
				s.err = err
			} else {
				s.val, s.err = runOne(fn, path)
			}
			if onDone != nil {
				onDone(path, s.val, s.err)
			}
		})
	}
	p.Wait()

	results := make([]T, 0, len(files))
	var errs ProcessingErrors
	for i, s := range slots {
		if s.err != nil {
			errs.Errors = append(errs.Errors, ProcessingError{Path: files[i], Err: s.err})
			continue
		}
		results = append(results, s.val)
	}
	if !errs.HasErrors() {
		return results, nil
	}
	return results, &errs
}

func runOne[T any](fn func(*parser.Parser, string) (T, error), path string) (T, error) {
	psr := parser.New()
	defer psr.Close()
	return fn(psr, path)
}
