// Package store records conversion runs in a SQLite trace database.
//
// Each apply or revert run is stored once, keyed by a content-addressed ID
// derived from the direction, the schema fingerprint and the input
// fingerprint. Rerunning the same conversion is a no-op. Every run carries
// the per-element rule assignments it made.
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned on insert, never by
// wall time. Queries order by seq ASC, id COLLATE BINARY ASC.
//
// # Connections
//
// A store holds a single connection in WAL mode with synchronous=NORMAL, a
// five second busy timeout and foreign keys enforced. Schema changes after
// schema.sql are numbered migrations tracked in user_version.
//
// Fingerprints are BLAKE3 digests with domain separation, see hash.go.
package store
