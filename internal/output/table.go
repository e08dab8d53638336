package output

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table is a titled grid. Data, when set, replaces the rows in JSON and
// TOON output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Data    any

	// Numeric columns are right aligned.
	Numeric []int
	// Emphasis picks a color for a row in colored text output; zero means
	// none.
	Emphasis func(row int) color.Attribute
}

// NewTable creates a table that serialises as data.
func NewTable(title string, headers []string, rows [][]string, data any) *Table {
	return &Table{Title: title, Headers: headers, Rows: rows, Data: data}
}

// WithNumeric marks columns as numeric and returns t.
func (t *Table) WithNumeric(cols ...int) *Table {
	t.Numeric = append(t.Numeric, cols...)
	return t
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

func (t *Table) alignments() []tw.Align {
	aligns := make([]tw.Align, len(t.Headers))
	for i := range aligns {
		aligns[i] = tw.AlignLeft
		if slices.Contains(t.Numeric, i) {
			aligns[i] = tw.AlignRight
		}
	}
	return aligns
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		writeHeading(w, t.Title, colored, color.Bold)
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{Alignment: tw.CellAlignment{PerColumn: t.alignments()}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(t.Headers)
	for i, row := range t.Rows {
		if colored && t.Emphasis != nil {
			if attr := t.Emphasis(i); attr != 0 {
				row = paint(row, attr)
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func paint(row []string, attr color.Attribute) []string {
	c := color.New(attr)
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = c.Sprint(cell)
	}
	return out
}

var markdownCell = strings.NewReplacer("|", `\|`, "\n", " ")

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprint(w, "_None._\n\n")
		return err
	}

	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i, a := range t.alignments() {
		seps[i] = "---"
		if a == tw.AlignRight {
			seps[i] = "---:"
		}
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = markdownCell.Replace(cell)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeHeading(w io.Writer, title string, colored bool, attrs ...color.Attribute) {
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}
