package report

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/clientprune/internal/output"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

var numbers = message.NewPrinter(language.English)

// modules shrinking by at least this much are highlighted
const largeReduction = 0.25

// Data is the structured form of a batch report.
type Data struct {
	Summary  Summary         `json:"summary" toon:"summary"`
	Modules  []*prune.Result `json:"modules" toon:"modules"`
	Failures []prune.Failure `json:"failures" toon:"failures"`
}

// Build assembles a renderable report for an analysis. With detail set each
// removed binding gets its own row instead of a per-module count.
func Build(title string, a *prune.Analysis, detail bool) *output.Report {
	summary := Summarize(a)
	sections := []output.Renderable{summaryTable(summary)}
	if detail {
		sections = append(sections, bindingsTable(a))
	} else {
		sections = append(sections, modulesTable(a))
	}
	if len(a.Failures) > 0 {
		sections = append(sections, failuresTable(a))
	}
	return &output.Report{
		Title:    title,
		Sections: sections,
		Data:     Data{Summary: summary, Modules: a.Modules, Failures: a.Failures},
	}
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func summaryTable(s Summary) *output.Table {
	rows := [][]string{
		{"Modules", strconv.Itoa(s.Modules)},
		{"Changed", strconv.Itoa(s.Changed)},
		{"Skipped (no directive)", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Removed bindings", strconv.Itoa(s.Removed)},
		{"Bytes", numbers.Sprintf("%d -> %d", s.BytesBefore, s.BytesAfter)},
		{"Total reduction", percent(s.TotalReduction())},
		{"Mean reduction", fmt.Sprintf("%s (stddev %s)", percent(s.MeanReduction), percent(s.StdDevReduction))},
		{"Median reduction", percent(s.MedianReduction)},
	}
	if s.Stubbed > 0 {
		rows = append(rows, []string{"Stubbed exports", strconv.Itoa(s.Stubbed)})
	}
	if s.NulledCalls > 0 {
		rows = append(rows, []string{"Nulled calls", strconv.Itoa(s.NulledCalls)})
	}
	if s.CacheHits > 0 {
		rows = append(rows, []string{"Cache hits", strconv.Itoa(s.CacheHits)})
	}

	kinds := make([]string, 0, len(s.RemovedByKind))
	for k := range s.RemovedByKind {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		rows = append(rows, []string{"Removed " + k, strconv.Itoa(s.RemovedByKind[prune.Kind(k)])})
	}
	return output.NewTable("Summary", []string{"Metric", "Value"}, rows, s)
}

func modulesTable(a *prune.Analysis) *output.Table {
	rows := make([][]string, 0, len(a.Modules))
	for _, m := range a.Modules {
		status := "pruned"
		switch {
		case m.Skipped != prune.SkipNone:
			status = string(m.Skipped)
		case !m.Changed:
			status = "unchanged"
		}
		rows = append(rows, []string{
			m.Path,
			status,
			strconv.Itoa(len(m.Removed)),
			numbers.Sprintf("%d", m.BytesBefore),
			numbers.Sprintf("%d", m.BytesAfter),
			percent(m.Reduction()),
		})
	}
	table := output.NewTable("Modules",
		[]string{"Path", "Status", "Removed", "Before", "After", "Reduction"},
		rows, a.Modules).WithNumeric(2, 3, 4, 5)
	table.Emphasis = func(i int) color.Attribute {
		if r := a.Modules[i].Reduction(); r >= largeReduction {
			return color.FgGreen
		}
		return 0
	}
	return table
}

// BindingRow is one removable binding in a check report.
type BindingRow struct {
	Path string     `json:"path" toon:"path"`
	Name string     `json:"name" toon:"name"`
	Kind prune.Kind `json:"kind" toon:"kind"`
	Line uint32     `json:"line" toon:"line"`
}

// Bindings flattens the removed bindings of every module.
func Bindings(a *prune.Analysis) []BindingRow {
	var out []BindingRow
	for _, m := range a.Modules {
		for _, r := range m.Removed {
			out = append(out, BindingRow{Path: m.Path, Name: r.Name, Kind: r.Kind, Line: r.Line})
		}
	}
	return out
}

func bindingsTable(a *prune.Analysis) *output.Table {
	bindings := Bindings(a)
	rows := make([][]string, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, []string{fmt.Sprintf("%s:%d", b.Path, b.Line), b.Name, string(b.Kind)})
	}
	return output.NewTable("Removable bindings", []string{"Location", "Name", "Kind"}, rows, bindings)
}

func failuresTable(a *prune.Analysis) *output.Table {
	rows := make([][]string, 0, len(a.Failures))
	for _, f := range a.Failures {
		rows = append(rows, []string{f.Path, f.Code, f.Error})
	}
	table := output.NewTable("Failures", []string{"Path", "Code", "Error"}, rows, a.Failures)
	table.Emphasis = func(int) color.Attribute { return color.FgRed }
	return table
}
