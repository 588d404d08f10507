package testutil

import (
	"sort"
	"strings"
	"testing"

	"github.com/roach88/pgstar/internal/codec"
	"github.com/roach88/pgstar/internal/rdf"
)

// Prefixes used by Expand in test fixtures.
var Prefixes = map[string]string{
	"ex:":   "http://example.org/",
	"rdf:":  rdf.RDFNamespace,
	"xsd:":  rdf.XSDNamespace,
	"prec:": rdf.PrecNamespace,
	"pvar:": rdf.PvarNamespace,
}

// Expand rewrites prefixed names written as <ex:name> into full IRIs, which
// keeps N-Quads fixtures short.
func Expand(text string) string {
	for prefix, ns := range Prefixes {
		text = strings.ReplaceAll(text, "<"+prefix, "<"+ns)
	}
	return text
}

// MustParseQuads parses N-Quads-star text after Expand, failing the test on
// error.
func MustParseQuads(t testing.TB, text string) []rdf.Quad {
	t.Helper()
	quads, err := codec.ParseNQuads(Expand(text))
	if err != nil {
		t.Fatalf("parse quads: %v", err)
	}
	return quads
}

// Statements returns the sorted N-Quads lines of quads, for order-insensitive
// comparison.
func Statements(quads []rdf.Quad) []string {
	out := make([]string, len(quads))
	for i, q := range quads {
		out[i] = q.Statement()
	}
	sort.Strings(out)
	return out
}
