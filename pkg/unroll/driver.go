package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/config"
	"github.com/vrtl-hdl/vrtlc/pkg/diag"
	"github.com/vrtl-hdl/vrtlc/pkg/fold"
	"github.com/vrtl-hdl/vrtlc/pkg/stats"
)

// UnrollGenerate is the mandatory, elaboration-time entry point (spec.md
// §6): loop must be a generate-for node. A shape failure becomes a
// user-visible error at loop's source location; a fatal error aborts and
// is returned as-is.
func UnrollGenerate(tree *ast.Tree, cfg *config.Config, sink *stats.Sink, loop ast.Handle, beginName string) error {
	s := newState(tree, cfg, sink, true, beginName)
	err := s.dispatch(loop)
	tree.Flush()
	return err
}

// UnrollAll is the best-effort, optimization-time entry point: it walks
// netlistRoot's sibling chain and every reachable descendant, unrolling
// every while loop it can and silently counting the ones it can't in the
// statistics sink. Generate-for loops are descended into, not unrolled.
func UnrollAll(tree *ast.Tree, cfg *config.Config, sink *stats.Sink, netlistRoot ast.Handle) error {
	s := newState(tree, cfg, sink, false, "")
	err := s.dispatchChain(netlistRoot)
	tree.Flush()
	return err
}

// dispatch is C8: the pass driver, a tagged-variant match over node's kind
// (Design Notes §9's replacement for the source's virtual-dispatch
// visitor). Descent into children is the default for anything that is not
// itself a loop this pass is responsible for.
func (s *State) dispatch(node ast.Handle) error {
	if node == ast.Nil {
		return nil
	}
	t := s.tree
	switch t.Kind(node) {
	case ast.KindWhile:
		fold.InPlace(t, t.ChildAt(node, ast.ChildCond))
		if precond, has := t.Precond(node); has {
			fold.InPlace(t, precond)
		}
		return s.handleWhileResult(node, s.attemptUnroll(node, false))

	case ast.KindGenFor:
		if !s.generateMode {
			// Another pass drives generate-for elaboration; at
			// optimization time we only ever descend through it.
			return s.dispatchChildren(node)
		}
		if init := t.ChildAt(node, ast.ChildInit); init != ast.Nil && t.Kind(init) == ast.KindAssign {
			fold.InPlace(t, t.AssignRHS(init))
		}
		fold.InPlace(t, t.ChildAt(node, ast.ChildCond))
		if incr := t.ChildAt(node, ast.ChildIncr); incr != ast.Nil && t.Kind(incr) == ast.KindAssign {
			fold.InPlace(t, t.AssignRHS(incr))
		}
		cond := t.ChildAt(node, ast.ChildCond)
		if t.Kind(cond) == ast.KindConst && t.ConstValue(cond).Sign() == 0 {
			// A generate-loop with zero iterations simply vanishes: no
			// pre-state is needed because the index is a synthetic
			// parameter, not a runtime signal.
			t.Splice(node, ast.Nil)
			t.QueueFree(node)
			return nil
		}
		return s.handleGenerateResult(node, s.attemptUnroll(node, true))

	case ast.KindOtherFor:
		if s.generateMode {
			return s.dispatchChildren(node)
		}
		return diag.Fatal(t.Pos(node), "unrecognized for-loop variant reached the unroller outside elaboration")

	default:
		return s.dispatchChildren(node)
	}
}

// dispatchChildren descends into node's precondition (if any) and every
// element of its four child-slot chains.
func (s *State) dispatchChildren(node ast.Handle) error {
	t := s.tree
	if precond, has := t.Precond(node); has {
		if err := s.dispatch(precond); err != nil {
			return err
		}
	}
	for _, slot := range []ast.Child{ast.ChildInit, ast.ChildCond, ast.ChildIncr, ast.ChildBody} {
		child := t.ChildAt(node, slot)
		for child != ast.Nil {
			next := t.Next(child)
			if err := s.dispatch(child); err != nil {
				return err
			}
			child = next
		}
	}
	return nil
}

// dispatchChain runs dispatch over node and every sibling reachable from
// it, for UnrollAll's top-level sweep.
func (s *State) dispatchChain(node ast.Handle) error {
	for n := node; n != ast.Nil; {
		next := s.tree.Next(n)
		if err := s.dispatch(n); err != nil {
			return err
		}
		n = next
	}
	return nil
}

// attemptUnroll runs C4 through C7 against loop: header recognition,
// mutation check, simulatability and trip-count estimation (outside
// generate mode only), body-size check, and finally expansion. Any
// component's failure short-circuits the rest.
func (s *State) attemptUnroll(loop ast.Handle, isGenerate bool) error {
	hdr, err := s.recognizeHeader(loop, isGenerate)
	if err != nil {
		return err
	}
	if !s.checkMutation(hdr) {
		return giveUp("induction variable assigned inside loop")
	}
	cap := s.cfg.UnrollCount
	if isGenerate {
		cap = s.cfg.GenerateUnrollCap()
	}
	tripCount := 0
	if !isGenerate {
		// Seed the induction-variable table from the init-list before the
		// simulatability check: C3 reports whether an expression evaluates
		// under the current bindings, and until this point no induction
		// variable has one yet. C6's own pre-step redoes this moments later
		// (its state is discarded on return); that repeats the same
		// deterministic computation from the same init-list, so it's harmless.
		if !s.reseedInductionVars(hdr) {
			return giveUp("Unable to simulate loop")
		}
		if !s.simulatable(hdr.cond) {
			return giveUp("Unable to simulate loop")
		}
		var ok bool
		tripCount, ok = s.estimateTripCount(hdr, cap)
		if !ok {
			return giveUp("Unable to simulate loop")
		}
	}
	budget := perIterationBudget(s.cfg.UnrollStmts, tripCount, isGenerate)
	if bodyTooLarge(s.tree, hdr.body, budget) {
		return giveUp("Body too large")
	}
	return s.expandIterations(loop, hdr, isGenerate, cap)
}

// handleWhileResult applies the procedural-mode error stratum: a soft
// shape failure leaves the loop intact and only counts a give-up; a fatal
// error propagates and aborts the pass.
func (s *State) handleWhileResult(loop ast.Handle, err error) error {
	if err == nil {
		return nil
	}
	if sf, ok := err.(*shapeFailure); ok {
		s.sink.GiveUp(sf.reason)
		return nil
	}
	return err
}

// handleGenerateResult applies the elaboration-mode error stratum: a soft
// shape failure is promoted to a fixed-text user error at loop's source
// location and that loop's unroll is abandoned, but the pass itself does
// not abort; a fatal error still propagates.
func (s *State) handleGenerateResult(loop ast.Handle, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*shapeFailure); ok {
		return diag.User(s.tree.Pos(loop), "for loop doesn't have genvar index, or is malformed")
	}
	return err
}
