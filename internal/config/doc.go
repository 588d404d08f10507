// Package config loads converter settings from a CUE file checked against
// an embedded schema, with overrides from the environment and an optional
// .env file.
package config
