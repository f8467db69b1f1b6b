package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

func TestWriteModuleEmitsOneChangePerConstantAssignment(t *testing.T) {
	tr := ast.New()
	pos := ast.Pos{File: "t.v", Line: 1}
	idOut := ast.VarIdentity{Name: "out"}

	a0 := tr.NewAssign(pos, tr.NewVarRef(pos, idOut, true), tr.NewConst(pos, numeric.FromInt64(0, numeric.Type{Width: 8})))
	a1 := tr.NewAssign(pos, tr.NewVarRef(pos, idOut, true), tr.NewConst(pos, numeric.FromInt64(1, numeric.Type{Width: 8})))
	a2 := tr.NewAssign(pos, tr.NewVarRef(pos, idOut, true), tr.NewConst(pos, numeric.FromInt64(2, numeric.Type{Width: 8})))
	container := tr.NewBlock(pos, "top", false, ast.Nil)
	tr.SetChain(container, ast.ChildBody, []ast.Handle{a0, a1, a2})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteModule(tr, "top", tr.ChildAt(container, ast.ChildBody)); err != nil {
		t.Fatalf("WriteModule failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "$var wire 32 ! out $end") {
		t.Errorf("missing $var declaration for out, got:\n%s", out)
	}
	if !strings.Contains(out, "$enddefinitions $end") {
		t.Error("missing $enddefinitions $end")
	}
	if got := strings.Count(out, "#"); got != 3 {
		t.Errorf("got %d timestamp markers, want 3", got)
	}
	if !strings.Contains(out, " !\n") {
		t.Errorf("expected value-change lines ending in signal id '!', got:\n%s", out)
	}
}

func TestWriteModuleSkipsNonConstantAssignments(t *testing.T) {
	tr := ast.New()
	pos := ast.Pos{File: "t.v", Line: 1}
	idOut := ast.VarIdentity{Name: "out"}
	idIn := ast.VarIdentity{Name: "in"}

	assign := tr.NewAssign(pos, tr.NewVarRef(pos, idOut, true), tr.NewVarRef(pos, idIn, false))
	container := tr.NewBlock(pos, "top", false, ast.Nil)
	tr.SetChain(container, ast.ChildBody, []ast.Handle{assign})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteModule(tr, "top", tr.ChildAt(container, ast.ChildBody)); err != nil {
		t.Fatalf("WriteModule failed: %v", err)
	}
	if strings.Contains(buf.String(), "#0") {
		t.Error("a non-constant assignment should not produce a value-change record")
	}
}

func TestVCDIdentifierAllocationIsDistinctAndStable(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	a := ast.VarIdentity{Name: "a"}
	b := ast.VarIdentity{Name: "b"}
	w.registerSignal(a)
	w.registerSignal(b)
	w.registerSignal(a) // re-registering must not allocate a second id

	if w.ids[a] == w.ids[b] {
		t.Error("distinct signals must receive distinct VCD identifiers")
	}
	if len(w.order) != 2 {
		t.Errorf("got %d registered signals, want 2", len(w.order))
	}
}

func TestBinaryStringMasksToWidth(t *testing.T) {
	v := numeric.FromInt64(-1, numeric.Type{})
	got := binaryString(v, 4)
	if got != "1111" {
		t.Errorf("got %q, want %q", got, "1111")
	}
}
