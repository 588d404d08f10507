package harness

import (
	"github.com/roach88/pgstar/internal/check"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the expectations held and every
	// assertion passed.
	Pass bool `json:"pass"`

	// Violations lists schema errors and checker warnings.
	Violations []schema.Violation `json:"violations,omitempty"`

	// Report is the checker report. Nil when the schema did not parse.
	Report *check.Report `json:"report,omitempty"`

	// Quads is the dataset produced by applying the schema, in insertion
	// order.
	Quads []rdf.Quad `json:"-"`

	// Assignments are the rule choices of the apply run.
	Assignments []schema.Assignment `json:"assignments,omitempty"`

	// Reverted is the graph read back from Quads.
	Reverted *pg.Graph `json:"reverted,omitempty"`

	// ApplyError and RevertError hold the conversion failures, if any.
	ApplyError  error `json:"-"`
	RevertError error `json:"-"`

	// Runs are the conversions recorded in the scenario trace database.
	Runs []store.Run `json:"runs,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
