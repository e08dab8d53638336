package prune

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/clientprune/pkg/config"
	"github.com/panbanda/clientprune/pkg/parser"
	"github.com/panbanda/clientprune/pkg/printer"
)

// Options controls a single module transform.
type Options struct {
	// Directives recognised in the prologue. Defaults to "use client".
	Directives []string
	// RequireDirective passes modules without a directive through unpruned.
	RequireDirective bool
	// StubExports replaces exported implementations with null placeholders.
	StubExports bool
	// NullCall, when set, nulls the arguments of `key: NullCall(...)` properties.
	NullCall string
}

// DefaultOptions returns options that prune every module.
func DefaultOptions() Options {
	return Options{Directives: []string{DefaultDirective}}
}

// OptionsFromConfig maps the [prune] config section to transform options.
func OptionsFromConfig(cfg config.PruneConfig) Options {
	opts := DefaultOptions()
	if len(cfg.Directives) > 0 {
		opts.Directives = slices.Clone(cfg.Directives)
	}
	opts.RequireDirective = cfg.RequireDirective
	opts.StubExports = cfg.Stub
	opts.NullCall = cfg.NullCall
	return opts
}

func (o Options) directives() []string {
	if len(o.Directives) == 0 {
		return []string{DefaultDirective}
	}
	return o.Directives
}

// Fingerprint returns a stable hash of the options for cache keys.
func (o Options) Fingerprint() string {
	dirs := slices.Clone(o.directives())
	slices.Sort(dirs)
	key := fmt.Sprintf("d=%s;r=%t;s=%t;n=%s", strings.Join(dirs, ","), o.RequireDirective, o.StubExports, o.NullCall)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// Transform prunes one parsed module. On any error no output is produced and
// the module must be left untouched.
func Transform(ctx context.Context, result *parser.ParseResult, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if se := parser.FirstSyntaxError(result); se != nil {
		return nil, &ParseError{Path: result.Path, Line: se.Line, Column: se.Column, Near: se.Text}
	}

	res := &Result{
		Path:        result.Path,
		Removed:     []RemovedBinding{},
		Live:        []string{},
		BytesBefore: len(result.Source),
	}

	calls, nulled := planNullCalls(result, opts.NullCall)
	res.NulledCalls = nulled
	edits := calls.edits

	directive, ok := HasDirective(result, opts.directives())
	res.Directive = directive
	if opts.RequireDirective && !ok {
		res.Skipped = SkipNoDirective
		return finish(res, result.Source, edits)
	}

	catalog, err := BuildCatalog(result)
	if err != nil {
		return nil, err
	}

	masks := calls.masks
	if opts.StubExports {
		stubs := planStubs(result, catalog)
		edits = append(edits, stubs.edits...)
		masks = append(masks, stubs.masks...)
		res.Stubbed = stubs.names
	}

	graph := BuildGraph(result, catalog, masks)
	live := Reachable(graph)

	deletions, removed, err := Prune(result, catalog, live)
	if err != nil {
		return nil, err
	}
	edits = append(edits, deletions...)
	if removed != nil {
		res.Removed = removed
	}
	if names := live.Names(); names != nil {
		res.Live = names
	}
	return finish(res, result.Source, edits)
}

func finish(res *Result, source []byte, edits []printer.Edit) (*Result, error) {
	out, err := printer.Apply(source, edits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Path, err)
	}
	res.Output = out
	res.BytesAfter = len(out)
	res.Changed = string(out) != string(source)
	return res, nil
}

// Pruner transforms modules with a fixed set of options. A Pruner owns a
// tree-sitter parser and is not safe for concurrent use.
type Pruner struct {
	parser *parser.Parser
	opts   Options
}

// Option is a functional option for configuring a Pruner.
type Option func(*Pruner)

// WithDirectives sets the recognised directives.
func WithDirectives(directives ...string) Option {
	return func(p *Pruner) {
		if len(directives) > 0 {
			p.opts.Directives = directives
		}
	}
}

// WithRequireDirective leaves modules without a directive unpruned.
func WithRequireDirective(require bool) Option {
	return func(p *Pruner) {
		p.opts.RequireDirective = require
	}
}

// WithStubExports enables null placeholders for exported implementations.
func WithStubExports(stub bool) Option {
	return func(p *Pruner) {
		p.opts.StubExports = stub
	}
}

// WithNullCall sets the identifier whose property call arguments are nulled.
func WithNullCall(identifier string) Option {
	return func(p *Pruner) {
		p.opts.NullCall = identifier
	}
}

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(p *Pruner) {
		p.opts = opts
	}
}

// New creates a Pruner.
func New(opts ...Option) *Pruner {
	p := &Pruner{
		parser: parser.New(),
		opts:   DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Options returns the pruner's options.
func (p *Pruner) Options() Options {
	return p.opts
}

// TransformSource parses source, detecting the dialect from path, and prunes it.
func (p *Pruner) TransformSource(ctx context.Context, path string, source []byte) (*Result, error) {
	return transformWith(ctx, p.parser, p.opts, path, source)
}

// Close releases the parser.
func (p *Pruner) Close() {
	p.parser.Close()
}

func transformWith(ctx context.Context, psr *parser.Parser, opts Options, path string, source []byte) (*Result, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}
	parsed, err := psr.ParseCtx(ctx, source, lang, path)
	if err != nil {
		return nil, err
	}
	defer parsed.Tree.Close()
	return Transform(ctx, parsed, opts)
}
