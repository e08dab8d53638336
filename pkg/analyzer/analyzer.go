// Package analyzer holds the contracts shared by batch analyzers.
package analyzer

import "context"

// FileAnalyzer runs over a batch of module paths and produces a report of
// type T. A Tracker carried by ctx is told the outcome of every module.
type FileAnalyzer[T any] interface {
	Analyze(ctx context.Context, files []string) (T, error)
	Close()
}
