// Package dataset provides an in-memory quad store with pattern matching and
// rule-driven rewriting.
//
// Patterns are quads that may contain rdf.Variable terms at any depth,
// including inside quoted triples. MatchPattern handles a single pattern,
// MatchAndBind joins several, and FindFilterReplace rewrites the store from
// the bindings of a source conjunction.
package dataset
