// Package pg holds the property graph description exchanged with graph
// database adapters, its JSON and YAML forms, and the direct RDF encoding
// based on the property graph ontology.
package pg
