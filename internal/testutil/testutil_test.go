package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/rdf"
)

func TestDeterministicBlankNodes_Sequence(t *testing.T) {
	f := NewDeterministicBlankNodes("n")

	assert.Equal(t, rdf.BlankNode("n1"), f.Next())
	assert.Equal(t, rdf.BlankNode("n2"), f.Next())
	assert.Equal(t, 2, f.Count())

	f.Reset()
	assert.Equal(t, 0, f.Count())
	assert.Equal(t, rdf.BlankNode("n1"), f.Next())
}

func TestDeterministicBlankNodes_DefaultPrefix(t *testing.T) {
	assert.Equal(t, rdf.BlankNode("t1"), NewDeterministicBlankNodes("").Next())
}

func TestDeterministicBlankNodes_ThreadSafe(t *testing.T) {
	f := NewDeterministicBlankNodes("")
	const workers, calls = 20, 50

	var mu sync.Mutex
	seen := make(map[rdf.BlankNode]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				b := f.Next()
				mu.Lock()
				seen[b] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, workers*calls, f.Count())
}

func TestMustParseQuads_ExpandsPrefixes(t *testing.T) {
	quads := MustParseQuads(t, `
<ex:Rule> <rdf:type> <prec:NodeRule> .
<ex:Rule> <prec:composedOf> << <pvar:self> <ex:name> "name"^^<prec:valueOf> >> .
`)
	require.Len(t, quads, 2)
	assert.Equal(t, rdf.NewTriple(rdf.NamedNode("http://example.org/Rule"), rdf.RDFType, rdf.PrecNodeRule), quads[0])

	template := quads[1].Object.(rdf.Quad)
	assert.Equal(t, rdf.PvarSelf, template.Subject)
	assert.Equal(t, rdf.NewLiteral("name", rdf.PrecValueOf), template.Object)
}

func TestStatements_Sorted(t *testing.T) {
	quads := MustParseQuads(t, `
_:b <ex:p> "2" .
_:a <ex:p> "1" .
`)
	assert.Equal(t, []string{
		`_:a <http://example.org/p> "1" .`,
		`_:b <http://example.org/p> "2" .`,
	}, Statements(quads))
}
