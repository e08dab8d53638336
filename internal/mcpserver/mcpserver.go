// Package mcpserver exposes pruning to MCP clients over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/clientprune/internal/cache"
	"github.com/panbanda/clientprune/pkg/config"
)

// Server wraps the MCP server and registers the clientprune tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	store  cache.Store
}

// NewServer creates a new MCP server with all tools and prompts registered.
// Results are memoised in an in-memory LRU sized from the config.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "clientprune",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	if mem, err := cache.NewMemory(cfg.Cache.MemoryEntries); err == nil {
		s.store = mem
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "prune_module",
		Description: describePruneModule(),
	}, s.handlePruneModule)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_paths",
		Description: describeCheckPaths(),
	}, s.handleCheckPaths)
}
