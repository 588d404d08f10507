package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/pgstar/internal/rdf"
)

// Format is an RDF serialization.
type Format string

const (
	FormatNQuads Format = "nquads"
	FormatJSONLD Format = "jsonld"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatNQuads, FormatJSONLD:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown RDF format %q (want nquads or jsonld)", name)
	}
}

// FormatFor picks the format from a file name, ignoring a compression
// suffix. Anything that is not JSON-LD is read as N-Quads-star, which also
// covers N-Triples-star.
func FormatFor(path string) Format {
	base := strings.ToLower(path)
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".zst")
	switch filepath.Ext(base) {
	case ".jsonld", ".json":
		return FormatJSONLD
	default:
		return FormatNQuads
	}
}

// IsRDF reports whether path names an N-Quads, N-Triples or JSON-LD file,
// possibly compressed. Plain .json files are not counted as RDF.
func IsRDF(path string) bool {
	base := strings.ToLower(path)
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".zst")
	switch filepath.Ext(base) {
	case ".nq", ".nt", ".jsonld":
		return true
	default:
		return false
	}
}

// Open opens path for reading, decompressing .gz and .zst files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		rc := zr.IOReadCloser()
		return &stackedReader{Reader: rc, closers: []io.Closer{rc, f}}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing .gz and .zst files.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zw := gzip.NewWriter(f)
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	return closeAll(s.closers)
}

type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriter) Close() error {
	return closeAll(s.closers)
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Read decodes quads from r in the given format.
func Read(r io.Reader, format Format) ([]rdf.Quad, error) {
	switch format {
	case FormatJSONLD:
		return ReadJSONLD(r)
	default:
		return ReadNQuads(r)
	}
}

// Write encodes quads to w in the given format.
func Write(w io.Writer, quads []rdf.Quad, format Format) error {
	switch format {
	case FormatJSONLD:
		return WriteJSONLD(w, quads)
	default:
		return WriteNQuads(w, quads)
	}
}

// ReadFile reads the quads of path, choosing format and compression from
// its name.
func ReadFile(path string) ([]rdf.Quad, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	quads, err := Read(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return quads, nil
}

// WriteFile writes quads to path, choosing format and compression from its
// name.
func WriteFile(path string, quads []rdf.Quad) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, quads, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Sorted returns a copy of quads ordered by their N-Quads form.
func Sorted(quads []rdf.Quad) []rdf.Quad {
	out := make([]rdf.Quad, len(quads))
	copy(out, quads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Statement() < out[j].Statement()
	})
	return out
}
