package prune

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/panbanda/clientprune/internal/cache"
	"github.com/panbanda/clientprune/internal/fileproc"
	"github.com/panbanda/clientprune/pkg/analyzer"
	"github.com/panbanda/clientprune/pkg/parser"
	"github.com/panbanda/clientprune/pkg/source"
)

// Failure records a module that could not be pruned. Failed modules are
// never rewritten.
type Failure struct {
	Path       string `json:"path" toon:"path"`
	Code       string `json:"code" toon:"code"`
	Identifier string `json:"identifier,omitempty" toon:"identifier,omitempty"`
	Error      string `json:"error" toon:"error"`
}

// Analysis is the outcome of pruning a batch of modules.
type Analysis struct {
	GeneratedAt time.Time `json:"generated_at" toon:"generated_at"`
	Modules     []*Result `json:"modules" toon:"modules"`
	Failures    []Failure `json:"failures" toon:"failures"`
	CacheHits   int       `json:"cache_hits" toon:"cache_hits"`
}

// Changed returns the modules whose output differs from their input.
func (a *Analysis) Changed() []*Result {
	var out []*Result
	for _, m := range a.Modules {
		if m.Changed {
			out = append(out, m)
		}
	}
	return out
}

// Analyzer prunes batches of modules in parallel.
type Analyzer struct {
	opts    Options
	src     source.ContentSource
	store   cache.Store
	workers int
}

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// AnalyzerOption is a functional option for configuring an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithTransformOptions sets the per-module transform options.
func WithTransformOptions(opts Options) AnalyzerOption {
	return func(a *Analyzer) {
		a.opts = opts
	}
}

// WithSource reads module content from src instead of the filesystem.
func WithSource(src source.ContentSource) AnalyzerOption {
	return func(a *Analyzer) {
		if src != nil {
			a.src = src
		}
	}
}

// WithStore caches results in store.
func WithStore(store cache.Store) AnalyzerOption {
	return func(a *Analyzer) {
		a.store = store
	}
}

// WithWorkers caps the number of modules pruned at once. Zero picks a
// default from the CPU count.
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// NewAnalyzer creates a batch analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		opts: DefaultOptions(),
		src:  source.NewFilesystem(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

type moduleOutcome struct {
	result *Result
	cached bool
}

func (o moduleOutcome) classify(err error) analyzer.Outcome {
	switch {
	case err != nil || o.result == nil:
		return analyzer.OutcomeFailed
	case o.cached:
		return analyzer.OutcomeCached
	case o.result.Skipped != SkipNone:
		return analyzer.OutcomeSkipped
	case o.result.Changed:
		return analyzer.OutcomePruned
	default:
		return analyzer.OutcomeUnchanged
	}
}

// cachedModule is the cache encoding of a Result, which keeps Output out of
// its JSON form.
type cachedModule struct {
	Result *Result `json:"result"`
	Output []byte  `json:"output"`
}

// Analyze prunes every file. Per-module failures are reported in the
// Analysis; the returned error is non-nil only when ctx is cancelled.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	var onDone fileproc.DoneFunc[moduleOutcome]
	if tracker := analyzer.TrackerFromContext(ctx); tracker != nil {
		tracker.Add(len(files))
		onDone = func(path string, o moduleOutcome, err error) {
			tracker.Record(path, o.classify(err))
		}
	}

	outcomes, errs := fileproc.MapFilesN(ctx, files, a.workers, func(psr *parser.Parser, path string) (moduleOutcome, error) {
		return a.analyzeFile(ctx, psr, path)
	}, onDone)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		GeneratedAt: time.Now().UTC(),
		Modules:     make([]*Result, 0, len(outcomes)),
		Failures:    []Failure{},
	}
	for _, o := range outcomes {
		analysis.Modules = append(analysis.Modules, o.result)
		if o.cached {
			analysis.CacheHits++
		}
	}
	sort.Slice(analysis.Modules, func(i, j int) bool {
		return analysis.Modules[i].Path < analysis.Modules[j].Path
	})
	for _, pe := range errs.Sorted() {
		analysis.Failures = append(analysis.Failures, Failure{
			Path:       pe.Path,
			Code:       Code(pe.Err),
			Identifier: Identifier(pe.Err),
			Error:      pe.Err.Error(),
		})
	}
	return analysis, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, psr *parser.Parser, path string) (moduleOutcome, error) {
	content, err := a.src.Read(path)
	if err != nil {
		return moduleOutcome{}, err
	}

	var key string
	if a.store != nil {
		key = cache.ModuleKey(path, content, a.opts.Fingerprint())
		if data, ok := a.store.Get(key); ok {
			var cm cachedModule
			if json.Unmarshal(data, &cm) == nil && cm.Result != nil {
				cm.Result.Output = cm.Output
				return moduleOutcome{result: cm.Result, cached: true}, nil
			}
		}
	}

	result, err := transformWith(ctx, psr, a.opts, path, content)
	if err != nil {
		return moduleOutcome{}, err
	}

	if a.store != nil {
		if data, err := json.Marshal(cachedModule{Result: result, Output: result.Output}); err == nil {
			_ = a.store.Set(key, data)
		}
	}
	return moduleOutcome{result: result}, nil
}
