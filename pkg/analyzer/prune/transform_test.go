package prune

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/clientprune/pkg/config"
)

func TestTransform_Golden(t *testing.T) {
	cases := []string{"bulk_exports", "helpers_and_lazy"}

	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join("testdata", name)
			input, err := os.ReadFile(filepath.Join(dir, "input.tsx"))
			require.NoError(t, err)
			expected, err := os.ReadFile(filepath.Join(dir, "expected.tsx"))
			require.NoError(t, err)

			p := New(WithRequireDirective(true))
			defer p.Close()

			res, err := p.TransformSource(context.Background(), "input.tsx", input)
			require.NoError(t, err)
			assert.Equal(t, string(expected), string(res.Output))
			assert.Equal(t, DefaultDirective, res.Directive)
			assert.True(t, res.Changed)
			assert.Greater(t, res.Reduction(), 0.0)

			// pruning is a fixed point
			again, err := p.TransformSource(context.Background(), "input.tsx", res.Output)
			require.NoError(t, err)
			assert.Equal(t, string(res.Output), string(again.Output))
			assert.False(t, again.Changed)
			assert.Empty(t, again.Removed)
		})
	}
}

func TestTransform_BulkExportsRemoved(t *testing.T) {
	input, err := os.ReadFile(filepath.Join("testdata", "bulk_exports", "input.tsx"))
	require.NoError(t, err)

	res := transformString(t, "input.tsx", string(input), DefaultOptions())
	assert.Equal(t, []RemovedBinding{{Name: "MyFn2FromAnotherFile", Kind: KindImport, Line: 7}}, res.Removed)
	assert.ElementsMatch(t, []string{"MyFnOtherFile2", "MyFn", "MyFn2", "someVariable"}, res.Live)
}

func TestTransform_RequireDirective(t *testing.T) {
	opts := DefaultOptions()
	opts.RequireDirective = true

	src := "const dead = 1;\nexport const live = 2;\n"
	res := transformString(t, "mod.js", src, opts)

	assert.Equal(t, SkipNoDirective, res.Skipped)
	assert.Equal(t, src, string(res.Output))
	assert.False(t, res.Changed)
	assert.Empty(t, res.Removed)

	res = transformString(t, "mod.js", "'use client';\n"+src, opts)
	assert.Equal(t, SkipNone, res.Skipped)
	assert.Equal(t, "'use client';\nexport const live = 2;\n", string(res.Output))
}

func TestTransform_CustomDirective(t *testing.T) {
	p := New(WithDirectives("use server"), WithRequireDirective(true))
	defer p.Close()

	res, err := p.TransformSource(context.Background(), "a.js", []byte("'use client';\nconst dead = 1;\n"))
	require.NoError(t, err)
	assert.Equal(t, SkipNoDirective, res.Skipped)

	res, err = p.TransformSource(context.Background(), "a.js", []byte("'use server';\nconst dead = 1;\n"))
	require.NoError(t, err)
	assert.Equal(t, "'use server';\n", string(res.Output))
	assert.Equal(t, "use server", res.Directive)
}

func TestTransform_ParseError(t *testing.T) {
	result := parseModule(t, "broken.js", "function (\n")
	_, err := Transform(context.Background(), result, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "broken.js", pe.Path)
}

func TestTransform_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Transform(ctx, parseModule(t, "a.js", "export const a = 1;\n"), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransform_Unchanged(t *testing.T) {
	src := "export const a = 1;\n"
	res := transformString(t, "a.js", src, DefaultOptions())
	assert.False(t, res.Changed)
	assert.Equal(t, src, string(res.Output))
	assert.Equal(t, len(src), res.BytesBefore)
	assert.Equal(t, len(src), res.BytesAfter)
	assert.Equal(t, 0.0, res.Reduction())
	assert.Equal(t, []string{"a"}, res.Live)
	assert.Empty(t, res.Removed)
}

func TestTransformSource_Unsupported(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.TransformSource(context.Background(), "styles.css", []byte("a {}"))
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	p := New(WithStubExports(true), WithNullCall("t"))
	defer p.Close()
	assert.True(t, p.Options().StubExports)
	assert.Equal(t, "t", p.Options().NullCall)
	assert.Equal(t, []string{DefaultDirective}, p.Options().Directives)

	q := New(WithOptions(Options{RequireDirective: true}))
	defer q.Close()
	assert.True(t, q.Options().RequireDirective)
	assert.Empty(t, q.Options().Directives)
}

func TestOptionsFingerprint(t *testing.T) {
	a := Options{Directives: []string{"use client", "use server"}}
	b := Options{Directives: []string{"use server", "use client"}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)

	// empty directives fall back to the default
	assert.Equal(t, DefaultOptions().Fingerprint(), Options{}.Fingerprint())

	stub := DefaultOptions()
	stub.StubExports = true
	assert.NotEqual(t, DefaultOptions().Fingerprint(), stub.Fingerprint())

	null := DefaultOptions()
	null.NullCall = "t"
	assert.NotEqual(t, DefaultOptions().Fingerprint(), null.Fingerprint())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := OptionsFromConfig(cfg.Prune)
	assert.Equal(t, []string{"use client"}, opts.Directives)
	assert.True(t, opts.RequireDirective)
	assert.False(t, opts.StubExports)
	assert.Empty(t, opts.NullCall)

	opts = OptionsFromConfig(config.PruneConfig{Stub: true, NullCall: "ClientOnly"})
	assert.Equal(t, []string{DefaultDirective}, opts.Directives)
	assert.False(t, opts.RequireDirective)
	assert.True(t, opts.StubExports)
	assert.Equal(t, "ClientOnly", opts.NullCall)
}
