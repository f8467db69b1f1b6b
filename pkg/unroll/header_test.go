package unroll

import (
	"testing"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/config"
	"github.com/vrtl-hdl/vrtlc/pkg/stats"
)

// TestRecognizeHeaderFoldsTailRecoveredIncrement covers spec.md §4.3: a
// while loop's increment recovered from the body's tail statement must be
// constant-folded the same as an increment from a dedicated slot, not left
// as an unevaluated expression.
func TestRecognizeHeaderFoldsTailRecoveredIncrement(t *testing.T) {
	tr := ast.New()
	idI := ast.VarIdentity{Name: "i"}
	idOut := ast.VarIdentity{Name: "out"}

	init := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idI, true), expandTestConst(tr, 0))
	bodyStmt := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idOut, true), tr.NewVarRef(expandTestPos, idI, false))
	// The increment's right-hand side is a closed expression (no reference
	// to i), so it folds to a constant on its own, making the fold
	// observable instead of a no-op.
	incrRHS := tr.NewBinary(expandTestPos, ast.OpAdd, expandTestConst(tr, 2), expandTestConst(tr, 3))
	incr := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idI, true), incrRHS)
	cond := tr.NewBinary(expandTestPos, ast.OpLt, tr.NewVarRef(expandTestPos, idI, false), expandTestConst(tr, 10))

	loop := tr.NewWhile(expandTestPos, cond, ast.Nil)
	tr.SetChain(loop, ast.ChildBody, []ast.Handle{bodyStmt, incr})

	container := tr.NewBlock(expandTestPos, "top", false, ast.Nil)
	tr.SetChain(container, ast.ChildBody, []ast.Handle{init, loop})

	s := newState(tr, config.Default(), stats.New(), false, "")
	hdr, err := s.recognizeHeader(loop, false)
	if err != nil {
		t.Fatalf("recognizeHeader failed: %v", err)
	}

	if len(hdr.incrList) != 1 {
		t.Fatalf("got %d increment-list elements, want 1", len(hdr.incrList))
	}
	rhs := tr.AssignRHS(hdr.incrList[0])
	if tr.Kind(rhs) != ast.KindConst {
		t.Fatalf("expected folded increment right-hand side, got kind %v", tr.Kind(rhs))
	}
	if tr.ConstValue(rhs).Int64() != 5 {
		t.Errorf("got %d, want 5", tr.ConstValue(rhs).Int64())
	}
}
