package pg

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization of a Graph.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Unknown extensions are
// read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a graph, normalizes it and validates it.
func Decode(r io.Reader, format Format) (*Graph, error) {
	var g Graph
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml graph: %w", err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&g); err != nil {
			return nil, fmt.Errorf("decode json graph: %w", err)
		}
	}
	g.Normalize()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Load reads the graph file at path.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatFor(path))
}

// Encode writes g. JSON output is indented.
func Encode(w io.Writer, g *Graph, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("encode yaml graph: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("encode json graph: %w", err)
		}
		return nil
	}
}
