package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/diag"
	"github.com/vrtl-hdl/vrtlc/pkg/fold"
)

// header is C4's output: the loop's decomposed parts, plus enough
// placement information (owner/slot) for C7 to detach each part later
// without re-deriving it.
type header struct {
	initOwner ast.Handle
	initSlot  ast.Child
	initList  []ast.Handle

	precond ast.Handle // ast.Nil if absent

	cond ast.Handle

	// incrInBody is true when the increment-list was recovered from the
	// tail of the body chain (while variant with no dedicated slot), false
	// when it came from a dedicated increment slot (generate variant).
	incrInBody bool
	incrOwner  ast.Handle
	incrSlot   ast.Child
	incrList   []ast.Handle

	body ast.Handle // head of the body chain; the increment tail, if any, is still attached here until C7 detaches it
}

// shapeFailure is C4/C5/C6's "cannot unroll" result: a soft failure by
// default (spec.md §7), promoted to a user error by the pass driver in
// generate mode.
type shapeFailure struct {
	reason string
}

func (e *shapeFailure) Error() string { return e.reason }

func giveUp(reason string) error { return &shapeFailure{reason: reason} }

// recognizeHeader is C4. It decomposes loop into its init-list,
// precondition, condition, increment-list, and body, folding and validating
// each init/increment element's shape as it goes, and populates the
// induction-variable table from the identities it recognizes. A
// *shapeFailure result means "cannot unroll" with a named reason; any other
// non-nil error is fatal (the condition slot held a list).
func (s *State) recognizeHeader(loop ast.Handle, isGenerate bool) (header, error) {
	t := s.tree
	var h header
	s.clearIndVars() // drop entries left by an earlier loop that gave up

	cond := t.ChildAt(loop, ast.ChildCond)
	if t.Next(cond) != ast.Nil {
		return header{}, diag.Fatal(t.Pos(loop), "loop condition slot holds a list")
	}
	h.cond = cond

	if precond, has := t.Precond(loop); has {
		h.precond = precond
	}

	if isGenerate {
		h.initOwner = loop
		h.initSlot = ast.ChildInit
		if initH := t.ChildAt(loop, ast.ChildInit); initH != ast.Nil {
			h.initList = []ast.Handle{initH}
		}

		h.incrOwner = loop
		h.incrSlot = ast.ChildIncr
		h.incrList = t.ChainSlice(t.ChildAt(loop, ast.ChildIncr))

		h.body = t.ChildAt(loop, ast.ChildBody)
	} else {
		parent := t.Parent(loop)
		if slot, ok := t.ContainingSlot(parent, loop); ok {
			preceding, _ := t.PrecedingInChain(parent, slot, loop)
			h.initOwner = parent
			h.initSlot = slot
			h.initList = preceding
		} else {
			// No parent, or loop is not a member of any of its parent's
			// child chains: this yields an empty init-list rather than an
			// error. (A sole statement of its block takes the branch above
			// and likewise gets an empty init-list.)
			h.initOwner = parent
			h.initSlot = ast.ChildInit
		}

		bodyHead := t.ChildAt(loop, ast.ChildBody)
		h.body = bodyHead
		if incrH := t.ChildAt(loop, ast.ChildIncr); incrH != ast.Nil {
			h.incrOwner = loop
			h.incrSlot = ast.ChildIncr
			h.incrList = t.ChainSlice(incrH)
		} else {
			h.incrInBody = true
			h.incrOwner = loop
			h.incrSlot = ast.ChildBody
			if tail := chainTail(t, bodyHead); tail != ast.Nil {
				// Fold as soon as the increment is identified, same as the
				// dedicated slot is folded before recognizeHeader runs in
				// the generate variant. Re-derive the tail afterward,
				// matching the original's constifyEdit-then-re-derive-tail
				// sequencing.
				if t.Kind(tail) == ast.KindAssign {
					fold.InPlace(t, t.AssignRHS(tail))
				}
				tail = chainTail(t, bodyHead)
				h.incrList = []ast.Handle{tail}
			}
		}
	}

	for i, elem := range h.initList {
		if t.Kind(elem) != ast.KindAssign {
			return header{}, giveUp("non-assignment in loop init-list")
		}
		// Only the first init-list element is required to fold to a
		// constant; later elements may legitimately reference earlier ones
		// (spec.md §4.3).
		fold.InPlace(t, t.AssignRHS(elem))
		if i == 0 && t.Kind(t.AssignRHS(elem)) != ast.KindConst {
			return header{}, giveUp("non-constant initializer")
		}
		lhs := t.AssignLHS(elem)
		if t.Kind(lhs) != ast.KindVarRef {
			return header{}, giveUp("init-list left-hand side is not a simple variable")
		}
		id, isLval := t.VarRef(lhs)
		if !isLval {
			return header{}, giveUp("init-list left-hand side is not a simple variable")
		}
		s.addIndVar(id)
	}

	for _, elem := range h.incrList {
		if t.Kind(elem) != ast.KindAssign {
			return header{}, giveUp("non-assignment in loop increment-list")
		}
		lhs := t.AssignLHS(elem)
		if t.Kind(lhs) != ast.KindVarRef {
			return header{}, giveUp("increment-list left-hand side is not a simple variable")
		}
		id, isLval := t.VarRef(lhs)
		if !isLval {
			return header{}, giveUp("increment-list left-hand side is not a simple variable")
		}
		s.addIndVar(id) // merging: no-op if init already recorded this identity
	}

	return h, nil
}

func chainTail(t *ast.Tree, head ast.Handle) ast.Handle {
	cur := head
	for cur != ast.Nil && t.Next(cur) != ast.Nil {
		cur = t.Next(cur)
	}
	return cur
}
