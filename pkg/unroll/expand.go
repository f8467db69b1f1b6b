package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/diag"
)

// beginBra and beginKet delimit the encoded index value in a generate
// begin-block's synthesized name. A plain "[value]" would collide with
// the array-subscript syntax genvar-indexed instances already use
// elsewhere in the output, so the source picks an unambiguous bracket
// spelling instead; this port keeps that spelling for the same reason.
const (
	beginBra = "__BRA__"
	beginKet = "__KET__"
)

// expandIterations is C7. It re-seeds induction variables, detaches the
// loop's parts, then emits one cloned-and-substituted copy of the body
// (plus precondition) per iteration — concatenating the substituted
// increment-list after it for the while variant, wrapping it in a named
// begin-block for the generate variant — until the condition stops
// holding or the safety cap fires.
func (s *State) expandIterations(loop ast.Handle, h header, isGenerate bool, unrollCap int) error {
	t := s.tree

	if !s.reseedInductionVars(h) {
		return giveUp("unable to simulate loop")
	}

	// Every induction variable's defining occurrences are about to be
	// substituted away iteration by iteration; mark them now so a later
	// unused-variable pass doesn't flag a genvar or loop variable that is
	// only ever read through substitution.
	for _, elem := range h.initList {
		t.MarkUsedAsIndex(t.AssignLHS(elem))
	}
	for _, elem := range h.incrList {
		t.MarkUsedAsIndex(t.AssignLHS(elem))
	}

	for _, elem := range h.initList {
		t.DetachFromChain(h.initOwner, h.initSlot, elem)
	}
	precond := h.precond
	if precond != ast.Nil {
		t.SetPrecond(loop, ast.Nil)
	}
	if !isGenerate {
		// Generate loops never emit the increment — the index becomes
		// dead once every reference to it has been replaced by a
		// constant — so its dedicated slot is left attached to loop and
		// torn down along with it at completion.
		for _, elem := range h.incrList {
			t.DetachFromChain(h.incrOwner, h.incrSlot, elem)
		}
	}
	body := t.ChildAt(loop, ast.ChildBody)
	t.SetChildAt(loop, ast.ChildBody, ast.Nil)

	var output, outputTail ast.Handle
	iterCount := 0
	safetyCap := 3 * unrollCap

	for {
		value, ok := s.emulate(h.cond)
		if !ok {
			return giveUp("unable to simulate loop")
		}
		if !value.IsOne() {
			break
		}

		var precondClone ast.Handle
		if precond != ast.Nil {
			precondClone = t.CloneSubtree(precond)
		}
		bodyClone := t.CloneSiblingList(body)

		s.mode = modeReplace
		s.substituteChain(precondClone)
		s.substituteChain(bodyClone)
		s.mode = modeIdle

		// Captured before applyIncrements advances the table below, so a
		// generate-block's name reflects the iteration it was built from
		// rather than the next one's index.
		indexForName := s.indexEncoding()

		iterSeq := precondClone
		if iterSeq == ast.Nil {
			iterSeq = bodyClone
		} else if bodyClone != ast.Nil {
			t.SetNext(chainTail(t, iterSeq), bodyClone)
		}

		var incrClone ast.Handle
		if len(h.incrList) > 0 {
			incrClone = cloneChainFromSlice(t, h.incrList)
			s.mode = modeReplace
			s.substituteChain(incrClone)
			s.mode = modeIdle
		}
		if !s.applyIncrements(h) {
			return diag.Fatal(t.Pos(loop), "loop increment failed to evaluate mid-expansion")
		}
		if isGenerate {
			t.QueueFree(incrClone)
		} else if incrClone != ast.Nil {
			if iterSeq == ast.Nil {
				iterSeq = incrClone
			} else {
				t.SetNext(chainTail(t, iterSeq), incrClone)
			}
		}

		if isGenerate {
			name := s.beginName + beginBra + indexForName + beginKet
			iterSeq = t.NewBlock(t.Pos(loop), name, true, iterSeq)
		}

		if output == ast.Nil {
			output = iterSeq
		} else {
			t.SetNext(outputTail, iterSeq)
		}
		outputTail = chainTail(t, iterSeq)

		iterCount++
		s.sink.IncIters(1)
		if iterCount > safetyCap {
			return diag.Fatal(t.Pos(loop), "loop unrolling took too long; probably infinite")
		}
	}

	t.Splice(loop, output)

	t.QueueFree(body)
	if precond != ast.Nil {
		t.QueueFree(precond)
	}
	for _, elem := range h.initList {
		t.QueueFree(elem)
	}
	if !isGenerate {
		for _, elem := range h.incrList {
			t.QueueFree(elem)
		}
	}
	t.QueueFree(loop)

	s.clearIndVars()
	s.sink.IncLoop()
	return nil
}

// indexEncoding renders the first induction variable's current value for
// use inside a generate begin-block's synthesized name.
func (s *State) indexEncoding() string {
	if len(s.indVars) == 0 || s.indVars[0].value.Int == nil {
		return "0"
	}
	return s.indVars[0].value.Int.String()
}

// cloneChainFromSlice clones each handle in order and links the clones
// into a fresh chain, independent of whatever chain (if any) the
// originals still belong to. Used for the increment-list, whose elements
// are detached one at a time and so no longer share a live Next chain by
// the time they need to be cloned per iteration.
func cloneChainFromSlice(t *ast.Tree, handles []ast.Handle) ast.Handle {
	var head, tail ast.Handle
	for _, h := range handles {
		c := t.CloneSubtree(h)
		if head == ast.Nil {
			head = c
		} else {
			t.SetNext(tail, c)
		}
		tail = c
	}
	return head
}

// substituteChain runs substituteInduction over node and every sibling
// reachable from it — the entry point for a cloned chain head, as opposed
// to a single already-nested node.
func (s *State) substituteChain(node ast.Handle) {
	for n := node; n != ast.Nil; {
		next := s.tree.Next(n)
		s.substituteInduction(n)
		n = next
	}
}

// substituteInduction is REPLACE mode's traversal (C7 steps 2-3): at each
// rvalue reference to a tracked induction variable, it replaces the
// reference with a clone of that variable's current folded-constant node.
func (s *State) substituteInduction(node ast.Handle) {
	if node == ast.Nil {
		return
	}
	t := s.tree
	if t.Kind(node) == ast.KindVarRef {
		if id, isLval := t.VarRef(node); !isLval {
			if i := s.indVarIndex(id); i >= 0 && s.indVars[i].constant != ast.Nil {
				replacement := t.CloneSubtree(s.indVars[i].constant)
				t.Splice(node, replacement)
				t.QueueFree(node)
				return
			}
		}
	}
	s.walkChildren(node, s.substituteInduction)
}
