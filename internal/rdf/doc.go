// Package rdf defines the RDF-star term and quad model.
//
// Terms form a closed set of value types. Quads nest: a quad in the subject
// or object position of another quad is a quoted triple. Paths address terms
// inside nested quads and are the basis for pattern matching in the dataset
// package and for value extraction during reversion.
package rdf
