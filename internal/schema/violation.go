package schema

import "fmt"

// Violation is a schema defect. Violations are collected and reported as a
// batch; they never abort parsing or checking.
type Violation struct {
	// Code identifies the defect ("E101", "W204", ...).
	Code string `json:"code"`

	// Rule names the offending rule, if any.
	Rule string `json:"rule,omitempty"`

	// Message is a human-readable reason.
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Rule != "" {
		return fmt.Sprintf("[%s] %s: %s", v.Code, v.Rule, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// Parse violation codes.
const (
	CodeNoType             = "E101"
	CodeManyTypes          = "E102"
	CodeUndeclaredProperty = "E103"
	CodeNodeUsesEndpoint   = "E104"
	CodeEdgeUsesNode       = "E105"
	CodeBadTemplateRef     = "E106"
	CodeBadName            = "E107"
)
