package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/clientprune/internal/output"
	"github.com/panbanda/clientprune/internal/report"
	"github.com/panbanda/clientprune/internal/scanner"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

// PruneOptionsInput overrides the configured transform options.
type PruneOptionsInput struct {
	Directives []string `json:"directives,omitempty" jsonschema:"Directives that mark a client module. Defaults to the configured list, usually use client."`
	All        bool     `json:"all,omitempty" jsonschema:"Prune modules even when they carry no directive."`
	Stub       bool     `json:"stub,omitempty" jsonschema:"Replace retained exported implementations with null placeholders."`
	NullCall   string   `json:"null_call,omitempty" jsonschema:"Identifier whose call arguments in object properties are replaced by null."`
	Format     string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// PruneModuleInput is the input of prune_module.
type PruneModuleInput struct {
	PruneOptionsInput
	Path   string `json:"path" jsonschema:"Module path. Used to read the file and to pick the dialect from its extension."`
	Source string `json:"source,omitempty" jsonschema:"Module source. When set the file at path is not read."`
}

// CheckPathsInput is the input of check_paths.
type CheckPathsInput struct {
	PruneOptionsInput
	Paths []string `json:"paths,omitempty" jsonschema:"Files or directories to check. Defaults to current directory if empty."`
}

// ModuleOutput is the prune_module result.
type ModuleOutput struct {
	Result *prune.Result `json:"result" toon:"result"`
	Output string        `json:"output" toon:"output"`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(input PruneOptionsInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func (s *Server) options(input PruneOptionsInput) prune.Options {
	opts := prune.OptionsFromConfig(s.config.Prune)
	if len(input.Directives) > 0 {
		opts.Directives = input.Directives
	}
	if input.All {
		opts.RequireDirective = false
	}
	if input.Stub {
		opts.StubExports = true
	}
	if input.NullCall != "" {
		opts.NullCall = input.NullCall
	}
	return opts
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := output.MarshalTOON(data)
		if err != nil {
			return "", err
		}
		return "```\n" + out + "\n```", nil
	default:
		return output.MarshalTOON(data)
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handlePruneModule(ctx context.Context, req *mcp.CallToolRequest, input PruneModuleInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	opts := s.options(input.PruneOptionsInput)
	format := getFormat(input.PruneOptionsInput)

	var result *prune.Result
	if input.Source != "" {
		pruner := prune.New(prune.WithOptions(opts))
		defer pruner.Close()
		res, err := pruner.TransformSource(ctx, input.Path, []byte(input.Source))
		if err != nil {
			return toolError(err.Error())
		}
		result = res
	} else {
		a := prune.NewAnalyzer(
			prune.WithTransformOptions(opts),
			prune.WithStore(s.store),
			prune.WithWorkers(1),
		)
		defer a.Close()
		analysis, err := a.Analyze(ctx, []string{input.Path})
		if err != nil {
			return toolError(err.Error())
		}
		if len(analysis.Failures) > 0 {
			return toolError(analysis.Failures[0].Error)
		}
		if len(analysis.Modules) == 0 {
			return toolError(fmt.Sprintf("%s: not pruned", input.Path))
		}
		result = analysis.Modules[0]
	}

	return toolResult(ModuleOutput{Result: result, Output: string(result.Output)}, format)
}

func (s *Server) handleCheckPaths(ctx context.Context, req *mcp.CallToolRequest, input CheckPathsInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.Paths)
	format := getFormat(input.PruneOptionsInput)

	files, err := scanner.NewScanner(s.config).ScanPaths(paths)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	a := prune.NewAnalyzer(
		prune.WithTransformOptions(s.options(input.PruneOptionsInput)),
		prune.WithStore(s.store),
		prune.WithWorkers(s.config.Workers),
	)
	defer a.Close()
	analysis, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(report.Data{
		Summary:  report.Summarize(analysis),
		Modules:  analysis.Modules,
		Failures: analysis.Failures,
	}, format)
}
