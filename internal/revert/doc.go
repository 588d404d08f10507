// Package revert turns an RDF graph produced by a structural schema back into
// the property graph it came from.
//
// Reversion uses structural evidence only. Signatures type the blank nodes,
// accessors read property values and endpoints back out of the quads, and
// quads that link nodes through an edge-unique rule become synthesized edges.
// The first inconsistency aborts the run with a *schema.ConversionError.
package revert
