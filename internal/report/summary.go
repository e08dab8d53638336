// Package report aggregates a batch of prune results into summary
// statistics and renderable tables.
package report

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

// Summary holds batch-level statistics.
type Summary struct {
	Modules     int `json:"modules" toon:"modules"`
	Changed     int `json:"changed" toon:"changed"`
	Skipped     int `json:"skipped" toon:"skipped"`
	Failed      int `json:"failed" toon:"failed"`
	CacheHits   int `json:"cache_hits" toon:"cache_hits"`
	Removed     int `json:"removed_bindings" toon:"removed_bindings"`
	Stubbed     int `json:"stubbed" toon:"stubbed"`
	NulledCalls int `json:"nulled_calls" toon:"nulled_calls"`
	BytesBefore int `json:"bytes_before" toon:"bytes_before"`
	BytesAfter  int `json:"bytes_after" toon:"bytes_after"`

	// Reduction statistics over pruned (not skipped) modules.
	MeanReduction   float64 `json:"mean_reduction" toon:"mean_reduction"`
	MedianReduction float64 `json:"median_reduction" toon:"median_reduction"`
	StdDevReduction float64 `json:"stddev_reduction" toon:"stddev_reduction"`
	MaxReduction    float64 `json:"max_reduction" toon:"max_reduction"`

	RemovedByKind map[prune.Kind]int `json:"removed_by_kind" toon:"removed_by_kind"`
}

// TotalReduction returns the fraction of bytes removed across the batch.
func (s Summary) TotalReduction() float64 {
	if s.BytesBefore == 0 || s.BytesAfter >= s.BytesBefore {
		return 0
	}
	return float64(s.BytesBefore-s.BytesAfter) / float64(s.BytesBefore)
}

// Summarize computes batch statistics for an analysis.
func Summarize(a *prune.Analysis) Summary {
	s := Summary{RemovedByKind: map[prune.Kind]int{}}
	if a == nil {
		return s
	}
	s.Modules = len(a.Modules)
	s.Failed = len(a.Failures)
	s.CacheHits = a.CacheHits

	var reductions []float64
	for _, m := range a.Modules {
		s.BytesBefore += m.BytesBefore
		s.BytesAfter += m.BytesAfter
		s.Stubbed += len(m.Stubbed)
		s.NulledCalls += m.NulledCalls
		if m.Changed {
			s.Changed++
		}
		if m.Skipped != prune.SkipNone {
			s.Skipped++
			continue
		}
		s.Removed += len(m.Removed)
		for _, r := range m.Removed {
			s.RemovedByKind[r.Kind]++
		}
		reductions = append(reductions, m.Reduction())
	}

	if len(reductions) == 0 {
		return s
	}
	slices.Sort(reductions)
	s.MeanReduction = stat.Mean(reductions, nil)
	s.MedianReduction = stat.Quantile(0.5, stat.Empirical, reductions, nil)
	s.MaxReduction = reductions[len(reductions)-1]
	if len(reductions) > 1 {
		if sd := stat.StdDev(reductions, nil); !math.IsNaN(sd) {
			s.StdDevReduction = sd
		}
	}
	return s
}
