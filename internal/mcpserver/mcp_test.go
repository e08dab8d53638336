package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/clientprune/internal/output"
	"github.com/panbanda/clientprune/internal/report"
	"github.com/panbanda/clientprune/pkg/config"
)

const clientModule = `'use client'
import { used } from './used'
import { unused } from './unused'

function helper() {
  return unused()
}

export function Button() {
  return used()
}
`

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}
	return tc.Text
}

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test", nil)
	if server == nil || server.server == nil {
		t.Fatal("NewServer() returned an incomplete server")
	}
	if server.store == nil {
		t.Error("default config should enable the memory store")
	}
	if NewServer("", config.DefaultConfig()) == nil {
		t.Fatal(`NewServer("") returned nil`)
	}
}

func TestToolDescriptions(t *testing.T) {
	for name, fn := range map[string]func() string{
		"prune_module": describePruneModule,
		"check_paths":  describeCheckPaths,
	} {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				if !strings.Contains(desc, section) {
					t.Errorf("description missing %s", section)
				}
			}
		})
	}
}

func TestGetPaths(t *testing.T) {
	if got := getPaths(nil); len(got) != 1 || got[0] != "." {
		t.Errorf("getPaths(nil) = %v", got)
	}
	if got := getPaths([]string{"/a", "/b"}); len(got) != 2 {
		t.Errorf("getPaths() = %v", got)
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format string
		want   output.Format
	}{
		{"", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"toon", output.FormatTOON},
		{"xml", output.FormatTOON},
	}
	for _, tt := range tests {
		if got := getFormat(PruneOptionsInput{Format: tt.format}); got != tt.want {
			t.Errorf("getFormat(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestOptionsOverrides(t *testing.T) {
	s := NewServer("test", nil)

	opts := s.options(PruneOptionsInput{})
	if !opts.RequireDirective || opts.StubExports || opts.NullCall != "" {
		t.Errorf("unexpected defaults: %+v", opts)
	}

	opts = s.options(PruneOptionsInput{All: true, Stub: true, NullCall: "ClientOnly", Directives: []string{"use server"}})
	if opts.RequireDirective || !opts.StubExports || opts.NullCall != "ClientOnly" || opts.Directives[0] != "use server" {
		t.Errorf("overrides not applied: %+v", opts)
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("boom")
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("IsError should be true")
	}
	if got := textOf(t, result); got != "Error: boom" {
		t.Errorf("text = %q", got)
	}
}

func TestFormatOutput(t *testing.T) {
	data := map[string]int{"removed": 2}

	js, err := formatOutput(data, output.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(js), &decoded); err != nil || decoded["removed"] != 2 {
		t.Errorf("json output = %q (%v)", js, err)
	}

	md, err := formatOutput(data, output.FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md, "```\n") || !strings.HasSuffix(md, "\n```") {
		t.Errorf("markdown output not fenced: %q", md)
	}

	tn, err := formatOutput(data, output.FormatTOON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tn, "removed") {
		t.Errorf("toon output = %q", tn)
	}
}

func TestHandlePruneModuleInlineSource(t *testing.T) {
	s := NewServer("test", nil)
	result, _, err := s.handlePruneModule(context.Background(), nil, PruneModuleInput{
		PruneOptionsInput: PruneOptionsInput{Format: "json"},
		Path:              "button.tsx",
		Source:            clientModule,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}

	var out struct {
		Result struct {
			Removed []struct {
				Name string `json:"name"`
			} `json:"removed"`
		} `json:"result"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal([]byte(textOf(t, result)), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if strings.Contains(out.Output, "helper") || strings.Contains(out.Output, "./unused") {
		t.Errorf("dead code survived:\n%s", out.Output)
	}
	if !strings.Contains(out.Output, "export function Button") {
		t.Errorf("export removed:\n%s", out.Output)
	}
	names := map[string]bool{}
	for _, r := range out.Result.Removed {
		names[r.Name] = true
	}
	if !names["helper"] || !names["unused"] {
		t.Errorf("removed = %v", out.Result.Removed)
	}
}

func TestHandlePruneModuleFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.tsx")
	if err := os.WriteFile(path, []byte(clientModule), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewServer("test", nil)
	result, _, err := s.handlePruneModule(context.Background(), nil, PruneModuleInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}
	if text := textOf(t, result); strings.Contains(text, "function helper") {
		t.Errorf("dead code survived:\n%s", text)
	}
}

func TestHandlePruneModuleErrors(t *testing.T) {
	s := NewServer("test", nil)

	result, _, _ := s.handlePruneModule(context.Background(), nil, PruneModuleInput{})
	if !result.IsError {
		t.Error("missing path should be a tool error")
	}

	result, _, _ = s.handlePruneModule(context.Background(), nil, PruneModuleInput{
		Path:   "broken.ts",
		Source: "'use client'\nconst = ;\n",
	})
	if !result.IsError {
		t.Error("syntax error should be a tool error")
	}

	result, _, _ = s.handlePruneModule(context.Background(), nil, PruneModuleInput{
		Path: filepath.Join(t.TempDir(), "missing.tsx"),
	})
	if !result.IsError {
		t.Error("missing file should be a tool error")
	}
}

func TestHandleCheckPaths(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"button.tsx": clientModule,
		"server.ts":  "import { db } from './db'\nexport const q = 1\n",
		"broken.tsx": "'use client'\nconst = ;\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := NewServer("test", nil)
	result, _, err := s.handleCheckPaths(context.Background(), nil, CheckPathsInput{
		PruneOptionsInput: PruneOptionsInput{Format: "json"},
		Paths:             []string{dir},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}

	var data report.Data
	if err := json.Unmarshal([]byte(textOf(t, result)), &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if data.Summary.Modules != 2 {
		t.Errorf("modules = %d, want 2", data.Summary.Modules)
	}
	if data.Summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", data.Summary.Skipped)
	}
	if data.Summary.Failed != 1 || len(data.Failures) != 1 {
		t.Errorf("failures = %v", data.Failures)
	}
	if data.Summary.Removed != 2 {
		t.Errorf("removed = %d, want 2", data.Summary.Removed)
	}
}

func TestHandleCheckPathsEmpty(t *testing.T) {
	s := NewServer("test", nil)
	result, _, _ := s.handleCheckPaths(context.Background(), nil, CheckPathsInput{Paths: []string{t.TempDir()}})
	if !result.IsError {
		t.Error("empty directory should be a tool error")
	}
}

func TestParseFrontmatter(t *testing.T) {
	fm, body := parseFrontmatter([]byte("---\ndescription: hi\narguments:\n  - name: paths\n    default: .\n---\nbody {{paths}}\n"))
	if fm.Description != "hi" || len(fm.Arguments) != 1 {
		t.Errorf("frontmatter = %+v", fm)
	}
	if body != "body {{paths}}\n" {
		t.Errorf("body = %q", body)
	}

	fm, body = parseFrontmatter([]byte("no frontmatter"))
	if fm.Description != "" || body != "no frontmatter" {
		t.Errorf("unexpected parse: %+v %q", fm, body)
	}
}

func TestSubstituteArgs(t *testing.T) {
	declared := []promptArgument{{Name: "paths", Default: "."}, {Name: "stub", Default: "false"}}
	got := substituteArgs("check {{paths}} stub={{stub}}", declared, map[string]string{"paths": "src"})
	if got != "check src stub=false" {
		t.Errorf("substituteArgs() = %q", got)
	}
}

func TestEmbeddedPrompts(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil || len(entries) == 0 {
		t.Fatalf("no embedded prompts: %v", err)
	}
	for _, entry := range entries {
		content, err := promptFiles.ReadFile("prompts/" + entry.Name())
		if err != nil {
			t.Fatal(err)
		}
		fm, body := parseFrontmatter(content)
		if fm.Description == "" {
			t.Errorf("%s: missing description", entry.Name())
		}

		handler := makePromptHandler(fm, body)
		res, err := handler(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: entry.Name()}})
		if err != nil {
			t.Fatal(err)
		}
		text := res.Messages[0].Content.(*mcp.TextContent).Text
		if strings.Contains(text, "{{paths}}") {
			t.Errorf("%s: placeholder not substituted", entry.Name())
		}
	}
}

func TestGenerateManifest(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"", "0.0.0"},
		{"dev", "0.0.0"},
		{"v1.2.3", "1.2.3"},
		{"1.2.3", "1.2.3"},
	}
	for _, tt := range tests {
		data, err := GenerateManifest(tt.version)
		if err != nil {
			t.Fatal(err)
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		if m.Version != tt.want {
			t.Errorf("GenerateManifest(%q).Version = %q, want %q", tt.version, m.Version, tt.want)
		}
		if got := m.Packages[0].Identifier; got != "ghcr.io/panbanda/clientprune:"+tt.want {
			t.Errorf("identifier = %q", got)
		}
	}

	data, _ := GenerateManifest("1.0.0")
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	env := m.Packages[0].EnvironmentVariables
	if len(env) != 1 || env[0].Name != "CLIENTPRUNE_CONFIG" || env[0].IsRequired {
		t.Errorf("environment variables = %+v", env)
	}
}
