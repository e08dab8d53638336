package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{" toon ", FormatTOON},
		{"unknown", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterFileDisablesColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if f.Colored() {
		t.Error("file output should not be colored")
	}
	if err := f.Output(map[string]int{"removed": 3}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	if got["removed"] != 3 {
		t.Errorf("removed = %d, want 3", got["removed"])
	}
}

func TestNewFormatterBadPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	if err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestColorOnlyForText(t *testing.T) {
	var buf bytes.Buffer
	if !NewWriterFormatter(FormatText, &buf, true).Colored() {
		t.Error("text output should keep color")
	}
	if NewWriterFormatter(FormatJSON, &buf, true).Colored() {
		t.Error("json output should never be colored")
	}
}

func TestTOONOutput(t *testing.T) {
	type module struct {
		Path    string `toon:"path"`
		Removed int    `toon:"removed"`
	}

	var buf bytes.Buffer
	f := NewWriterFormatter(FormatTOON, &buf, false)
	if err := f.Output(module{Path: "a.tsx", Removed: 2}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "path") || !strings.Contains(out, "a.tsx") {
		t.Errorf("toon output missing fields:\n%s", out)
	}
}

func TestRawMarkdownFencesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &buf, false).Output([]int{1, 2}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "```json\n") || !strings.HasSuffix(out, "```\n") {
		t.Errorf("unexpected fence:\n%s", out)
	}
}
