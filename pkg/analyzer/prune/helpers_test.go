package prune

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panbanda/clientprune/pkg/parser"
)

func parseModule(t *testing.T, path, src string) *parser.ParseResult {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)
	result, err := p.Parse([]byte(src), parser.DetectLanguage(path), path)
	require.NoError(t, err)
	t.Cleanup(result.Tree.Close)
	return result
}

func buildCatalog(t *testing.T, path, src string) *Catalog {
	t.Helper()
	catalog, err := BuildCatalog(parseModule(t, path, src))
	require.NoError(t, err)
	return catalog
}

func buildGraph(t *testing.T, path, src string) *Graph {
	t.Helper()
	result := parseModule(t, path, src)
	catalog, err := BuildCatalog(result)
	require.NoError(t, err)
	return BuildGraph(result, catalog, nil)
}

func transformString(t *testing.T, path, src string, opts Options) *Result {
	t.Helper()
	res, err := Transform(context.Background(), parseModule(t, path, src), opts)
	require.NoError(t, err)
	return res
}

func bindingNames(bindings []*Binding) []string {
	names := make([]string, 0, len(bindings))
	for _, b := range bindings {
		names = append(names, b.Name)
	}
	return names
}
