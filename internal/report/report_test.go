package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

func sampleAnalysis() *prune.Analysis {
	return &prune.Analysis{
		Modules: []*prune.Result{
			{
				Path:        "a.tsx",
				Changed:     true,
				BytesBefore: 100,
				BytesAfter:  50,
				Removed: []prune.RemovedBinding{
					{Name: "helper", Kind: prune.KindFunction, Line: 3},
					{Name: "lodash", Kind: prune.KindImportDefault, Line: 1},
				},
			},
			{
				Path:        "b.tsx",
				BytesBefore: 100,
				BytesAfter:  100,
				Removed:     []prune.RemovedBinding{},
			},
			{
				Path:        "server.ts",
				Skipped:     prune.SkipNoDirective,
				BytesBefore: 40,
				BytesAfter:  40,
				Removed:     []prune.RemovedBinding{},
			},
		},
		Failures: []prune.Failure{
			{Path: "broken.tsx", Code: "syntax", Error: "broken.tsx:1:1: syntax error"},
		},
		CacheHits: 1,
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleAnalysis())

	assert.Equal(t, 3, s.Modules)
	assert.Equal(t, 1, s.Changed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 2, s.Removed)
	assert.Equal(t, 240, s.BytesBefore)
	assert.Equal(t, 190, s.BytesAfter)
	assert.Equal(t, 1, s.RemovedByKind[prune.KindFunction])
	assert.Equal(t, 1, s.RemovedByKind[prune.KindImportDefault])

	// reductions over pruned modules: 0.5 and 0
	assert.InDelta(t, 0.25, s.MeanReduction, 1e-9)
	assert.InDelta(t, 0.5, s.MaxReduction, 1e-9)
	assert.InDelta(t, 0.3535533, s.StdDevReduction, 1e-6)
	assert.InDelta(t, 50.0/240.0, s.TotalReduction(), 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&prune.Analysis{})
	assert.Zero(t, s.Modules)
	assert.Zero(t, s.MeanReduction)
	assert.Zero(t, s.TotalReduction())

	s = Summarize(nil)
	assert.NotNil(t, s.RemovedByKind)
}

func TestSummarizeSingleModuleHasNoStdDev(t *testing.T) {
	a := &prune.Analysis{Modules: []*prune.Result{{Path: "a.tsx", BytesBefore: 10, BytesAfter: 5}}}
	s := Summarize(a)
	assert.InDelta(t, 0.5, s.MeanReduction, 1e-9)
	assert.InDelta(t, 0.5, s.MedianReduction, 1e-9)
	assert.Zero(t, s.StdDevReduction)
}

func TestBindings(t *testing.T) {
	rows := Bindings(sampleAnalysis())
	require.Len(t, rows, 2)
	assert.Equal(t, BindingRow{Path: "a.tsx", Name: "helper", Kind: prune.KindFunction, Line: 3}, rows[0])
}

func TestBuildText(t *testing.T) {
	rep := Build("clientprune", sampleAnalysis(), false)
	require.Len(t, rep.Sections, 3)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderText(&buf, false))
	out := buf.String()
	for _, want := range []string{"clientprune", "a.tsx", "no_directive", "unchanged", "broken.tsx", "50.0%"} {
		assert.Contains(t, out, want)
	}
}

func TestBuildDetail(t *testing.T) {
	rep := Build("check", sampleAnalysis(), true)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderMarkdown(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# check\n"))
	assert.Contains(t, out, "| a.tsx:3 | helper | function |")
}

func TestBuildData(t *testing.T) {
	rep := Build("clientprune", sampleAnalysis(), false)
	data, ok := rep.RenderData().(Data)
	require.True(t, ok)
	assert.Equal(t, 3, data.Summary.Modules)
	assert.Len(t, data.Failures, 1)
}

func TestBuildWithoutFailures(t *testing.T) {
	a := sampleAnalysis()
	a.Failures = nil
	rep := Build("clientprune", a, false)
	assert.Len(t, rep.Sections, 2)
}

func TestBuildTextColored(t *testing.T) {
	rep := Build("clientprune", sampleAnalysis(), false)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderText(&buf, true))
	assert.Contains(t, buf.String(), "broken.tsx")
}
