package mcpserver

import (
	"encoding/json"
	"strings"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the registry server.json document for the stdio server.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes one way to launch the server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// EnvVariable is an environment input the client may set when launching.
type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired"`
	Format      string `json:"format,omitempty"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for the given release. A leading "v"
// is stripped from git tag versions.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	const repo = "https://github.com/panbanda/clientprune"
	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/clientprune",
		Title:       "clientprune",
		Description: "Removes unreferenced top-level code from use client JavaScript and TypeScript modules",
		Version:     version,
		WebsiteURL:  repo,
		Repository:  &Repository{URL: repo, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       "ghcr.io/panbanda/clientprune:" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVariable{{
				Name:        "CLIENTPRUNE_CONFIG",
				Description: "Path to a clientprune.toml, .yaml or .json config file",
				Format:      "filepath",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(manifest, "", "  ")
}
