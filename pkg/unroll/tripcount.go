package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
	"github.com/vrtl-hdl/vrtlc/pkg/symeval"
)

// estimateTripCount is C6. It re-seeds induction variables from the
// init-list, then repeatedly evaluates the condition and, while it reduces
// to one, applies the increment-list and counts the iteration, until the
// condition reduces to anything else (success) or the count exceeds cap
// (failure — the loop-bound oracle, spec.md §4.5).
func (s *State) estimateTripCount(h header, cap int) (count int, ok bool) {
	if !s.reseedInductionVars(h) {
		return 0, false
	}
	for {
		value, evOk := s.emulate(h.cond)
		if !evOk {
			return count, false
		}
		if !value.IsOne() {
			return count, true
		}
		count++
		if count > cap {
			return count, false
		}
		if !s.applyIncrements(h) {
			return count, false
		}
	}
}

// reseedInductionVars is the pre-step C6 and C7 share (spec.md §4.6: "The
// pre-step is repeated here rather than shared with C6 because C6's state
// is discarded"): for each init-list assignment, evaluate its right-hand
// side under current bindings and store the result into the corresponding
// induction-variable record, both the numeric value and a freshly folded
// constant node. Returns false if any initializer fails to evaluate.
func (s *State) reseedInductionVars(h header) bool {
	t := s.tree
	for _, elem := range h.initList {
		id, _ := t.VarRef(t.AssignLHS(elem))
		i := s.indVarIndex(id)
		if i < 0 {
			continue
		}
		value, ok := s.emulate(t.AssignRHS(elem))
		if !ok {
			return false
		}
		s.setIndVar(i, value, t.NewConst(t.Pos(elem), value))
	}
	return true
}

// applyIncrements evaluates each increment-list assignment's right-hand
// side under current bindings and updates that variable's record.
func (s *State) applyIncrements(h header) bool {
	t := s.tree
	for _, elem := range h.incrList {
		id, _ := t.VarRef(t.AssignLHS(elem))
		i := s.indVarIndex(id)
		if i < 0 {
			continue
		}
		value, ok := s.emulate(t.AssignRHS(elem))
		if !ok {
			return false
		}
		s.setIndVar(i, value, t.NewConst(t.Pos(elem), value))
	}
	return true
}

// emulate clones expr (so evaluation never mutates the live tree), submits
// it to the symbolic evaluator in "parameter-emulate" mode under the
// current induction-variable bindings, and queues the clone for deferred
// deletion. No data-type hint is threaded through: this AST does not carry
// a declared width for plain variable references, only for the constants
// the evaluator already produces.
func (s *State) emulate(expr ast.Handle) (numeric.Value, bool) {
	t := s.tree
	clone := t.CloneSubtree(expr)
	defer t.QueueFree(clone)
	optimizable, value, _, ok := symeval.Emulate(t, clone, s.bindingEnv(), numeric.Type{})
	if !optimizable || !ok {
		return numeric.Value{}, false
	}
	return value, true
}
