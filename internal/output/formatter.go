// Package output renders prune results as text tables, JSON, markdown or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Renderable is anything that can draw itself as text or markdown and hand
// back plain data for the structured formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes values in one Format.
type Formatter struct {
	format  Format
	writer  io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter writes to stdout, or creates the file at path when it is set.
// File output is never colored.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	if path == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return &Formatter{format: format, writer: f, closer: f}, nil
}

// NewWriterFormatter writes to w, which the formatter does not own.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored && format == FormatText}
}

// Close closes the report file, if the formatter opened one.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes v. Renderables pick their own text and markdown layout;
// anything else is serialised.
func (f *Formatter) Output(v any) error {
	r, ok := v.(Renderable)
	if !ok {
		return f.encode(v)
	}
	switch f.format {
	case FormatText:
		return r.RenderText(f.writer, f.colored)
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return f.encode(r.RenderData())
	}
}

func (f *Formatter) encode(v any) error {
	switch f.format {
	case FormatTOON:
		out, err := MarshalTOON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.writer, out)
		return err
	case FormatMarkdown:
		if _, err := fmt.Fprintln(f.writer, "```json"); err != nil {
			return err
		}
		if err := writeJSON(f.writer, v); err != nil {
			return err
		}
		_, err := fmt.Fprintln(f.writer, "```")
		return err
	default:
		return writeJSON(f.writer, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MarshalTOON encodes data as TOON with two-space indentation.
func MarshalTOON(data any) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
