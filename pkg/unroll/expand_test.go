package unroll

import (
	"testing"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/config"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
	"github.com/vrtl-hdl/vrtlc/pkg/stats"
)

var expandTestPos = ast.Pos{File: "t.v", Line: 1}

func expandTestConst(tr *ast.Tree, n int64) ast.Handle {
	return tr.NewConst(expandTestPos, numeric.FromInt64(n, numeric.Type{Width: 32, Sign: numeric.Signed}))
}

// TestExpandIterationsMarksInductionVarsUsedAsIndex covers spec.md §4.6's
// completion step: every induction variable's defining occurrence should be
// flagged used-as-index before its statement is detached, so a later
// unused-variable pass never has to know expansion happened.
func TestExpandIterationsMarksInductionVarsUsedAsIndex(t *testing.T) {
	tr := ast.New()
	idI := ast.VarIdentity{Name: "i"}
	idOut := ast.VarIdentity{Name: "out"}

	init := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idI, true), expandTestConst(tr, 0))
	bodyStmt := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idOut, true), tr.NewVarRef(expandTestPos, idI, false))
	incr := tr.NewAssign(expandTestPos, tr.NewVarRef(expandTestPos, idI, true),
		tr.NewBinary(expandTestPos, ast.OpAdd, tr.NewVarRef(expandTestPos, idI, false), expandTestConst(tr, 1)))
	cond := tr.NewBinary(expandTestPos, ast.OpLt, tr.NewVarRef(expandTestPos, idI, false), expandTestConst(tr, 2))

	loop := tr.NewWhile(expandTestPos, cond, ast.Nil)
	tr.SetChain(loop, ast.ChildBody, []ast.Handle{bodyStmt, incr})

	container := tr.NewBlock(expandTestPos, "top", false, ast.Nil)
	tr.SetChain(container, ast.ChildBody, []ast.Handle{init, loop})

	s := newState(tr, config.Default(), stats.New(), false, "")
	hdr, err := s.recognizeHeader(loop, false)
	if err != nil {
		t.Fatalf("recognizeHeader failed: %v", err)
	}

	initLHS := tr.AssignLHS(hdr.initList[0])
	incrLHS := tr.AssignLHS(hdr.incrList[0])
	if tr.UsedAsIndex(initLHS) || tr.UsedAsIndex(incrLHS) {
		t.Fatal("should not be marked before expansion")
	}

	if err := s.expandIterations(loop, hdr, false, config.Default().UnrollCount); err != nil {
		t.Fatalf("expandIterations failed: %v", err)
	}

	if !tr.UsedAsIndex(initLHS) {
		t.Error("init-list element's left-hand side should be marked used-as-index")
	}
	if !tr.UsedAsIndex(incrLHS) {
		t.Error("increment-list element's left-hand side should be marked used-as-index")
	}
}
