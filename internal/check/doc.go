// Package check decides statically whether a schema is well-behaved, that
// is whether every property graph it converts can be reverted exactly.
//
// Each rule is checked for identification (W201, W202), value loss (W203),
// signature existence (W204) and, for edge-unique rules, shape exclusivity
// (W205). All violations are collected.
package check
