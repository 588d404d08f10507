// Package codec reads and writes RDF: N-Quads-star (with quoted triples),
// expanded JSON-LD for graphs without quoted triples, and gzip or zstd
// compressed files of either.
package codec
