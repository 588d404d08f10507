package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/pgstar/internal/codec"
	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// Error code constants shared by all CLI commands. Conversion failures use
// the codes of schema.ConversionError and checker warnings their W codes.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Glob expansion error
	ErrCodeNoFiles       = "E003" // No files matched
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeReadFailed    = "E008" // File unreadable or malformed
	ErrCodeInvalidSchema = "E009" // Context holds rule defects
)

// LoadError is a failure to read an input file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadedSchema is a parsed context file.
type LoadedSchema struct {
	Path       string
	Schema     *schema.Schema
	Quads      []rdf.Quad
	Hash       string
	Violations []schema.Violation
}

// LoadSchema reads and parses the context at path. IRIs written as
// <prefix:name> are expanded with prefixes. Rule defects do not make it
// fail; they are returned in Violations and the defective rules are left out
// of the schema.
func LoadSchema(path string, prefixes map[string]string) (*LoadedSchema, error) {
	quads, err := codec.ReadFile(path)
	if err != nil {
		return nil, readError(path, "cannot read context", err)
	}
	quads = rdf.ExpandQuads(quads, prefixes)
	s, violations := schema.Parse(dataset.New(quads...))
	slog.Debug("loaded schema", "path", path, "rules", len(s.Rules), "violations", len(violations))
	return &LoadedSchema{
		Path:       path,
		Schema:     s,
		Quads:      quads,
		Hash:       store.Fingerprint(quads),
		Violations: violations,
	}, nil
}

// LoadGraph reads a property graph. JSON and YAML files hold the graph
// document; RDF files hold its property graph ontology encoding.
func LoadGraph(path string) (*pg.Graph, error) {
	if !codec.IsRDF(path) {
		g, err := pg.Load(path)
		if err != nil {
			return nil, readError(path, "cannot read property graph", err)
		}
		return g, nil
	}

	quads, err := codec.ReadFile(path)
	if err != nil {
		return nil, readError(path, "cannot read property graph", err)
	}
	g, err := pg.FromQuads(dataset.New(quads...))
	if err != nil {
		return nil, readError(path, "cannot decode property graph", err)
	}
	if err := g.Validate(); err != nil {
		return nil, readError(path, "invalid property graph", err)
	}
	return g, nil
}

// LoadDataset reads an RDF file, expanding <prefix:name> IRIs with
// prefixes.
func LoadDataset(path string, prefixes map[string]string) (*dataset.Dataset, error) {
	quads, err := codec.ReadFile(path)
	if err != nil {
		return nil, readError(path, "cannot read RDF", err)
	}
	return dataset.New(rdf.ExpandQuads(quads, prefixes)...), nil
}

// compactRule shortens a rule name such as "<http://example.org/Person>"
// against prefixes for text output.
func compactRule(name string, prefixes map[string]string) string {
	if len(name) > 2 && strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">") {
		return rdf.Compact(rdf.NamedNode(name[1:len(name)-1]), prefixes)
	}
	return name
}

func readError(path, message string, err error) *LoadError {
	code := ErrCodeReadFailed
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}
	return &LoadError{Code: code, Path: path, Message: message, Err: err}
}

// ExpandPatterns resolves file arguments that may be doublestar globs such
// as "schemas/**/*.nq". Arguments that match nothing are returned unchanged
// when they name an existing file.
func ExpandPatterns(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Path: p, Message: "invalid pattern", Err: err}
		}
		if len(matches) == 0 {
			if _, err := os.Stat(p); err == nil {
				matches = []string{p}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Path: fmt.Sprint(patterns), Message: "no files matched"}
	}
	return files, nil
}

// recordRun stores run in the trace database at path. An empty path
// disables tracing.
func recordRun(ctx context.Context, path string, run store.Run) (store.Run, error) {
	if path == "" {
		return run, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing trace database", "error", closeErr)
		}
	}()

	stored, err := st.WriteRun(ctx, run)
	if err != nil {
		return store.Run{}, err
	}
	slog.Debug("recorded run", "id", stored.ID, "seq", stored.Seq, "direction", stored.Direction)
	return stored, nil
}

// loadError turns an input failure into an exit error and reports it.
func loadError(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		_ = f.Error(le.Code, le.Error(), nil)
		return WrapExitError(ExitCommandError, le.Message, err)
	}
	_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// conversionError reports a failed apply or revert.
func conversionError(f *OutputFormatter, stage string, err error) error {
	code := ErrCodeGeneric
	var details any
	var ce *schema.ConversionError
	if errors.As(err, &ce) {
		code = string(ce.Code)
		details = map[string]string{"element": ce.Element, "rule": ce.Rule}
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, stage+" failed", err)
}

// invalidSchema reports rule defects of a context.
func invalidSchema(f *OutputFormatter, loaded *LoadedSchema) error {
	_ = f.Error(ErrCodeInvalidSchema, fmt.Sprintf("%s has %d rule defect(s)", loaded.Path, len(loaded.Violations)), loaded.Violations)
	if !f.JSON() {
		for _, v := range loaded.Violations {
			fmt.Fprintf(f.Writer, "  %s\n", v)
		}
	}
	return NewExitError(ExitFailure, "invalid schema")
}

// writeGraph writes g to path. RDF extensions get the property graph
// ontology encoding, other files JSON or YAML.
func writeGraph(path string, g *pg.Graph) error {
	if codec.IsRDF(path) {
		return codec.WriteFile(path, codec.Sorted(pg.ToQuads(g)))
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pg.Encode(out, g, pg.FormatFor(path)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
