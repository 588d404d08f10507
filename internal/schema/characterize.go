package schema

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/pgstar/internal/rdf"
)

const characterizationCacheSize = 8192

// characterizations memoizes Characterize. Quads are comparable values, so
// the cache is keyed by the quad itself.
var characterizations = mustCache(characterizationCacheSize)

func mustCache(size int) *lru.Cache[rdf.Quad, rdf.Quad] {
	c, err := lru.New[rdf.Quad, rdf.Quad](size)
	if err != nil {
		panic(err)
	}
	return c
}

// Characterize returns the structural shape of q: literals become
// prec:_Literal, blank nodes and placeholder IRIs become prec:_Placeholder,
// and every other term and the nesting are kept.
//
// Two triples with the same characterization cannot be told apart when
// deciding which rule produced them.
func Characterize(q rdf.Quad) rdf.Quad {
	if c, ok := characterizations.Get(q); ok {
		return c
	}
	c := rdf.MapLeaves(q, characterizeTerm)
	characterizations.Add(q, c)
	return c
}

func characterizeTerm(t rdf.Term) rdf.Term {
	switch t := t.(type) {
	case rdf.Literal:
		return rdf.PrecLiteralMarker
	case rdf.BlankNode:
		return rdf.PrecPlaceholderMarker
	case rdf.NamedNode:
		switch t {
		case rdf.PvarSelf, rdf.PvarNode, rdf.PvarEdge, rdf.PvarSource, rdf.PvarDestination:
			return rdf.PrecPlaceholderMarker
		}
	}
	return t
}

// CharacterizationPattern turns a template triple into a pattern matching
// every quad that could share its characterization: each literal, blank node
// and placeholder becomes a distinct variable. Callers still compare the
// characterization of each match, since a variable also matches IRIs.
func CharacterizationPattern(t rdf.Quad) rdf.Quad {
	n := 0
	return rdf.MapLeaves(t, func(term rdf.Term) rdf.Term {
		if characterizeTerm(term) == term {
			return term
		}
		v := rdf.Variable(placeholderVarPrefix + strconv.Itoa(n))
		n++
		return v
	})
}

const placeholderVarPrefix = "_c"
