package config

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error is an invalid configuration with the position of the offending
// value when CUE reports one.
type Error struct {
	File    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("config %s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.File, e.Message)
}

// cueError keeps the first of possibly many CUE errors.
func cueError(file string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{File: file, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{File: file, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
