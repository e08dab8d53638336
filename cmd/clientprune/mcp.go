package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes pruning as tools
that LLMs can invoke.

To use with an MCP client, add to its config:
  {
    "mcpServers": {
      "clientprune": {
        "command": "clientprune",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - prune_module   Prune one module and return its source
  - check_paths    Report removable bindings below paths`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP server manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return mcpserver.NewServer(version, cfg).Run(ctx)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
