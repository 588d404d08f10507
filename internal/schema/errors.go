package schema

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes conversion errors.
type ErrorCode string

const (
	ErrCodeNoRule           ErrorCode = "NO_RULE"
	ErrCodeAmbiguousRule    ErrorCode = "AMBIGUOUS_RULE"
	ErrCodeMissingProperty  ErrorCode = "MISSING_PROPERTY"
	ErrCodeMissingEndpoint  ErrorCode = "MISSING_ENDPOINT"
	ErrCodeDanglingEndpoint ErrorCode = "DANGLING_ENDPOINT"
	ErrCodeNoSignature      ErrorCode = "NO_SIGNATURE"
	ErrCodeUntypedBlankNode ErrorCode = "UNTYPED_BLANK_NODE"
	ErrCodeAmbiguousNode    ErrorCode = "AMBIGUOUS_BLANK_NODE"
	ErrCodeAmbiguousQuad    ErrorCode = "AMBIGUOUS_QUAD"
	ErrCodeUnexplainedQuad  ErrorCode = "UNEXPLAINED_QUAD"
	ErrCodeConflictingValue ErrorCode = "CONFLICTING_VALUE"
	ErrCodePropertyMismatch ErrorCode = "PROPERTY_MISMATCH"
	ErrCodeInvalidEndpoint  ErrorCode = "INVALID_ENDPOINT"
	ErrCodeInvalidValue     ErrorCode = "INVALID_VALUE"
)

// Sentinels for errors.Is. Each ConversionError unwraps to the one matching
// its code.
var (
	ErrNoRule           = errors.New("no matching rule")
	ErrAmbiguousRule    = errors.New("ambiguous rule")
	ErrMissingProperty  = errors.New("missing property")
	ErrMissingEndpoint  = errors.New("missing endpoint")
	ErrDanglingEndpoint = errors.New("dangling endpoint")
	ErrNoSignature      = errors.New("rule has no signature")
	ErrUntypedBlankNode = errors.New("untyped blank node")
	ErrAmbiguousNode    = errors.New("ambiguous blank node")
	ErrAmbiguousQuad    = errors.New("ambiguous quad")
	ErrUnexplainedQuad  = errors.New("unexplained quad")
	ErrConflictingValue = errors.New("conflicting value")
	ErrPropertyMismatch = errors.New("property mismatch")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrInvalidValue     = errors.New("invalid value")
)

var sentinels = map[ErrorCode]error{
	ErrCodeNoRule:           ErrNoRule,
	ErrCodeAmbiguousRule:    ErrAmbiguousRule,
	ErrCodeMissingProperty:  ErrMissingProperty,
	ErrCodeMissingEndpoint:  ErrMissingEndpoint,
	ErrCodeDanglingEndpoint: ErrDanglingEndpoint,
	ErrCodeNoSignature:      ErrNoSignature,
	ErrCodeUntypedBlankNode: ErrUntypedBlankNode,
	ErrCodeAmbiguousNode:    ErrAmbiguousNode,
	ErrCodeAmbiguousQuad:    ErrAmbiguousQuad,
	ErrCodeUnexplainedQuad:  ErrUnexplainedQuad,
	ErrCodeConflictingValue: ErrConflictingValue,
	ErrCodePropertyMismatch: ErrPropertyMismatch,
	ErrCodeInvalidEndpoint:  ErrInvalidEndpoint,
	ErrCodeInvalidValue:     ErrInvalidValue,
}

// ConversionError is a fatal error of a single apply or revert run.
type ConversionError struct {
	Code ErrorCode

	// Element identifies the property graph element or blank node involved.
	Element string

	// Rule names the rule involved, if any.
	Rule string

	Message string
}

func (e *ConversionError) Error() string {
	switch {
	case e.Element != "" && e.Rule != "":
		return fmt.Sprintf("%s: %s (element=%s, rule=%s)", e.Code, e.Message, e.Element, e.Rule)
	case e.Element != "":
		return fmt.Sprintf("%s: %s (element=%s)", e.Code, e.Message, e.Element)
	case e.Rule != "":
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the sentinel of the error code.
func (e *ConversionError) Unwrap() error {
	return sentinels[e.Code]
}

// NewConversionError builds a ConversionError with a formatted message.
func NewConversionError(code ErrorCode, element, rule, format string, args ...any) *ConversionError {
	return &ConversionError{
		Code:    code,
		Element: element,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of a ConversionError anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}
