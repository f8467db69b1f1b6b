package diag

import (
	"strings"
	"testing"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
)

func TestUserErrorFormatting(t *testing.T) {
	pos := ast.Pos{File: "top.v", Line: 12, Column: 3}
	err := User(pos, "for loop doesn't have genvar index, or is malformed")

	got := err.Error()
	if !strings.Contains(got, "top.v:12:3") || !strings.Contains(got, "error:") {
		t.Errorf("got %q, missing location or \"error:\" marker", got)
	}
	if _, ok := err.(*UserError); !ok {
		t.Errorf("got %T, want *UserError", err)
	}
}

func TestFatalErrorFormatting(t *testing.T) {
	pos := ast.Pos{File: "top.v", Line: 5}
	err := Fatal(pos, "loop condition slot holds a list")

	got := err.Error()
	if !strings.Contains(got, "internal compiler error:") {
		t.Errorf("got %q, want it to contain \"internal compiler error:\"", got)
	}
	if _, ok := err.(*FatalError); !ok {
		t.Errorf("got %T, want *FatalError", err)
	}
}

func TestReporterAccumulates(t *testing.T) {
	var r Reporter
	if r.HasErrors() {
		t.Fatal("fresh Reporter should have no errors")
	}
	r.Report(nil)
	if r.HasErrors() {
		t.Error("reporting nil should not count as an error")
	}
	r.Report(User(ast.Pos{}, "bad shape"))
	r.Report(Fatal(ast.Pos{}, "internal invariant violated"))
	if !r.HasErrors() {
		t.Fatal("expected HasErrors after two reports")
	}
	if len(r.Errors()) != 2 {
		t.Errorf("got %d errors, want 2", len(r.Errors()))
	}
}
