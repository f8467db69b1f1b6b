package unroll

import "github.com/vrtl-hdl/vrtlc/pkg/ast"

// checkMutation is C5: the body-mutation check. It walks the precondition,
// body, and increment-list subtrees looking for an lvalue reference to a
// tracked induction variable; a hit means the loop reassigns its own index
// somewhere other than the canonical increment and cannot be unrolled.
func (s *State) checkMutation(h header) bool {
	s.mode = modeCheck
	s.assignHit = false
	s.ignoreIncRoots = make(map[ast.Handle]bool, len(h.incrList))
	for _, elem := range h.incrList {
		s.ignoreIncRoots[elem] = true
	}

	s.walkCheckChain(h.precond)
	s.walkCheckChain(h.body)
	for _, elem := range h.incrList {
		s.walkCheck(elem)
	}

	hit := s.assignHit
	s.assignHit = false
	s.ignoreIncRoots = nil
	s.mode = modeIdle
	return !hit
}

// walkCheckChain runs walkCheck over node and every sibling reachable from
// it, for callers (checkMutation) holding a chain head rather than a single
// node.
func (s *State) walkCheckChain(node ast.Handle) {
	for n := node; n != ast.Nil; n = s.tree.Next(n) {
		s.walkCheck(n)
	}
}

// walkCheck is CHECK mode's traversal. Design Notes §9 prefers two separate
// traversal functions over one flag-driven visitor; walkCheck and
// substituteInduction (expand.go) are those two, sharing walkChildren for
// the generic recursion both need.
func (s *State) walkCheck(node ast.Handle) {
	if node == ast.Nil || s.ignoreIncRoots[node] {
		return
	}
	t := s.tree
	if t.Kind(node) == ast.KindVarRef {
		if id, isLval := t.VarRef(node); isLval {
			if s.indVarIndex(id) >= 0 {
				s.assignHit = true
			}
		}
	}
	s.walkChildren(node, s.walkCheck)
}

// walkChildren visits node's precondition (if any) and every element of
// its four child-slot chains, the traversal shape CHECK and REPLACE mode
// both drive.
func (s *State) walkChildren(node ast.Handle, visit func(ast.Handle)) {
	t := s.tree
	if precond, has := t.Precond(node); has {
		visit(precond)
	}
	for _, slot := range []ast.Child{ast.ChildInit, ast.ChildCond, ast.ChildIncr, ast.ChildBody} {
		child := t.ChildAt(node, slot)
		for child != ast.Nil {
			// next is read before visit so a REPLACE-mode substitution of
			// child doesn't disturb the walk's own position.
			next := t.Next(child)
			visit(child)
			child = next
		}
	}
}
