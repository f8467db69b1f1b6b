// Package diag implements the three error strata spec.md §7 names for the
// unroller: soft (best-effort give-up), user (elaboration-time failure
// reported at a source location), and fatal (internal compiler error).
// Grounded on cmd/ralph-cc/main.go's parseFile (accumulate, report via
// Fprintf, return a plain error) — no third-party error-wrapping library,
// matching the teacher's own choice across its whole codebase.
package diag

import (
	"fmt"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
)

// UserError is a user-visible compile error reported at a source location.
type UserError struct {
	Pos     ast.Pos
	Message string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

// FatalError is an internal compiler error: a contract violation by an
// earlier pass, or an evaluator failure where none should be possible.
type FatalError struct {
	Pos     ast.Pos
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s:%d:%d: internal compiler error: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

// User constructs a UserError.
func User(pos ast.Pos, message string) error {
	return &UserError{Pos: pos, Message: message}
}

// Fatal constructs a FatalError.
func Fatal(pos ast.Pos, message string) error {
	return &FatalError{Pos: pos, Message: message}
}

// Reporter collects diagnostics emitted over the course of a pass run, the
// way pkg/parser's Errors() accumulator does for the front end.
type Reporter struct {
	errs []error
}

// Report appends an error (user or fatal) to the reporter's log.
func (r *Reporter) Report(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// Errors returns every diagnostic reported so far.
func (r *Reporter) Errors() []error {
	return r.errs
}

// HasErrors reports whether any diagnostic has been reported.
func (r *Reporter) HasErrors() bool {
	return len(r.errs) > 0
}
