package harness

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/pgstar/internal/check"
	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
)

const schemaCacheSize = 64

// compiledSchema is a parsed and checked context. Schemas are not modified
// after parsing, so one value serves every scenario sharing the context.
type compiledSchema struct {
	schema     *schema.Schema
	violations []schema.Violation
	report     check.Report
}

// schemas holds compiled contexts keyed by their fingerprint.
var schemas = func() *lru.Cache[string, *compiledSchema] {
	c, err := lru.New[string, *compiledSchema](schemaCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}()

// compile parses and checks the context with the given fingerprint, reusing
// an earlier result for the same quads.
func compile(hash string, quads []rdf.Quad) (*compiledSchema, bool) {
	if c, ok := schemas.Get(hash); ok {
		return c, true
	}
	s, violations := schema.Parse(dataset.New(quads...))
	c := &compiledSchema{schema: s, violations: violations}
	if len(violations) == 0 {
		c.report = check.Check(s)
	}
	schemas.Add(hash, c)
	return c, false
}
