package ast

import (
	"testing"

	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

func TestNewVarRefAndConst(t *testing.T) {
	tr := New()
	id := VarIdentity{Name: "x", ScopeID: 1}
	ref := tr.NewVarRef(Pos{Line: 1}, id, true)
	gotID, isLval := tr.VarRef(ref)
	if gotID != id || !isLval {
		t.Errorf("got (%v, %v), want (%v, true)", gotID, isLval, id)
	}

	c := tr.NewConst(Pos{}, numeric.FromInt64(42, numeric.Type{}))
	if tr.Kind(c) != KindConst {
		t.Errorf("got kind %v, want KindConst", tr.Kind(c))
	}
	if tr.ConstValue(c).Int64() != 42 {
		t.Errorf("got %d, want 42", tr.ConstValue(c).Int64())
	}
}

func TestSetChainAndChainSlice(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.FromInt64(1, numeric.Type{}))
	b := tr.NewConst(Pos{}, numeric.FromInt64(2, numeric.Type{}))
	c := tr.NewConst(Pos{}, numeric.FromInt64(3, numeric.Type{}))
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)

	tr.SetChain(owner, ChildBody, []Handle{a, b, c})

	got := tr.ChainSlice(tr.ChildAt(owner, ChildBody))
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Errorf("got %v, want [%d %d %d]", got, a, b, c)
	}
	for _, h := range got {
		if tr.Parent(h) != owner {
			t.Errorf("node %d has parent %d, want %d", h, tr.Parent(h), owner)
		}
	}
}

func TestPrecedingInChain(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.Zero())
	b := tr.NewConst(Pos{}, numeric.Zero())
	c := tr.NewConst(Pos{}, numeric.Zero())
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b, c})

	preceding, ok := tr.PrecedingInChain(owner, ChildBody, c)
	if !ok || len(preceding) != 2 || preceding[0] != a || preceding[1] != b {
		t.Errorf("got (%v, %v), want ([a b], true)", preceding, ok)
	}

	_, ok = tr.PrecedingInChain(owner, ChildBody, Handle(999))
	if ok {
		t.Error("expected not-found for a handle outside the chain")
	}
}

func TestDetachFromChainMidList(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.Zero())
	b := tr.NewConst(Pos{}, numeric.Zero())
	c := tr.NewConst(Pos{}, numeric.Zero())
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b, c})

	tr.DetachFromChain(owner, ChildBody, b)

	got := tr.ChainSlice(tr.ChildAt(owner, ChildBody))
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Errorf("got %v, want [a c]", got)
	}
	if tr.Parent(b) != Nil || tr.Next(b) != Nil {
		t.Errorf("detached node should have nil parent/next, got parent=%d next=%d", tr.Parent(b), tr.Next(b))
	}
}

func TestReplaceInChainMidList(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.Zero())
	b := tr.NewConst(Pos{}, numeric.Zero())
	c := tr.NewConst(Pos{}, numeric.Zero())
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b, c})

	repl := tr.NewConst(Pos{}, numeric.FromInt64(9, numeric.Type{}))
	tr.ReplaceInChain(owner, ChildBody, b, repl)

	got := tr.ChainSlice(tr.ChildAt(owner, ChildBody))
	if len(got) != 3 || got[0] != a || got[1] != repl || got[2] != c {
		t.Errorf("got %v, want [a repl c]", got)
	}
	if tr.Parent(repl) != owner {
		t.Errorf("replacement node has parent %d, want %d", tr.Parent(repl), owner)
	}
}

func TestSplicePrecondSlot(t *testing.T) {
	tr := New()
	cond := tr.NewConst(Pos{}, numeric.One())
	body := tr.NewConst(Pos{}, numeric.Zero())
	loop := tr.NewWhile(Pos{}, cond, body)
	pre := tr.NewConst(Pos{}, numeric.Zero())
	tr.SetPrecond(loop, pre)

	repl := tr.NewConst(Pos{}, numeric.FromInt64(7, numeric.Type{}))
	tr.Splice(pre, repl)

	got, has := tr.Precond(loop)
	if !has || got != repl {
		t.Errorf("got (%d, %v), want (%d, true)", got, has, repl)
	}
}

func TestSpliceChainMember(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.Zero())
	b := tr.NewConst(Pos{}, numeric.Zero())
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b})

	repl := tr.NewConst(Pos{}, numeric.FromInt64(5, numeric.Type{}))
	tr.Splice(a, repl)

	got := tr.ChainSlice(tr.ChildAt(owner, ChildBody))
	if len(got) != 2 || got[0] != repl || got[1] != b {
		t.Errorf("got %v, want [repl b]", got)
	}
}

func TestCloneSiblingListPreservesAllStatements(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.FromInt64(1, numeric.Type{}))
	b := tr.NewConst(Pos{}, numeric.FromInt64(2, numeric.Type{}))
	c := tr.NewConst(Pos{}, numeric.FromInt64(3, numeric.Type{}))
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b, c})

	clone := tr.CloneSubtree(owner)
	cloneBody := tr.ChildAt(clone, ChildBody)
	got := tr.ChainSlice(cloneBody)
	if len(got) != 3 {
		t.Fatalf("got %d cloned statements, want 3", len(got))
	}
	wantVals := []int64{1, 2, 3}
	for i, h := range got {
		if tr.ConstValue(h).Int64() != wantVals[i] {
			t.Errorf("statement %d: got %d, want %d", i, tr.ConstValue(h).Int64(), wantVals[i])
		}
		if tr.Parent(h) != clone {
			t.Errorf("statement %d: parent %d, want %d", i, tr.Parent(h), clone)
		}
	}
	// Clones must be independent nodes, not aliases of the originals.
	if got[0] == a || got[1] == b || got[2] == c {
		t.Error("cloned statements should be distinct handles from the originals")
	}
}

func TestNodeCountShortCircuits(t *testing.T) {
	tr := New()
	a := tr.NewConst(Pos{}, numeric.Zero())
	b := tr.NewConst(Pos{}, numeric.Zero())
	c := tr.NewConst(Pos{}, numeric.Zero())
	owner := tr.NewBlock(Pos{}, "blk", false, Nil)
	tr.SetChain(owner, ChildBody, []Handle{a, b, c})
	body := tr.ChildAt(owner, ChildBody)

	if exceeds, _ := tr.NodeCount(body, 10); exceeds {
		t.Error("3 nodes should fit under budget 10")
	}
	if exceeds, _ := tr.NodeCount(body, 2); !exceeds {
		t.Error("3 nodes should exceed budget 2")
	}
}

func TestDetachAndQueueFreeThenFlush(t *testing.T) {
	tr := New()
	body := tr.NewConst(Pos{}, numeric.Zero())
	loop := tr.NewWhile(Pos{}, tr.NewConst(Pos{}, numeric.One()), body)

	tr.Detach(body)
	if tr.ChildAt(loop, ChildBody) != Nil {
		t.Error("detached body should clear the owner's slot")
	}
	tr.QueueFree(body)
	tr.Flush()
	if tr.Kind(body) != KindInvalid {
		t.Error("flushed node should report KindInvalid")
	}
}

func TestMarkUsedAsIndex(t *testing.T) {
	tr := New()
	ref := tr.NewVarRef(Pos{}, VarIdentity{Name: "i"}, true)
	if tr.UsedAsIndex(ref) {
		t.Error("fresh node should not start out marked")
	}
	tr.MarkUsedAsIndex(ref)
	if !tr.UsedAsIndex(ref) {
		t.Error("expected node to be marked after MarkUsedAsIndex")
	}
}
