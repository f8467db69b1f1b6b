// Package unroll implements the loop-unrolling transformation pass
// (spec.md's core, components C1-C8). It symbolically executes a loop's
// header to enumerate iterations and clones the body per iteration with
// induction variables substituted by their computed values.
//
// Two entry points serve the pass's two callers: UnrollGenerate (mandatory,
// elaboration-time) and UnrollAll (best-effort, optimization-time).
package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/config"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
	"github.com/vrtl-hdl/vrtlc/pkg/stats"
)

// mode records which traversal is currently running: CHECK while
// checkMutation walks, REPLACE while expandIterations substitutes. The two
// traversals are separate functions (walkCheck and substituteInduction)
// sharing the walkChildren helper, so nothing dispatches on mode; it is set
// and reset around each traversal but not read.
type mode int

const (
	modeIdle mode = iota
	modeCheck
	modeReplace
)

// indVarRecord is one entry in the induction-variable table (C1): the
// identity being tracked, its current symbolic value, and the folded
// constant node representing that value for substitution into clones.
type indVarRecord struct {
	id       ast.VarIdentity
	value    numeric.Value
	constant ast.Handle // ast.Nil before the first update
}

// State is one pass invocation's mutable state (spec.md §3 "Pass state").
type State struct {
	tree   *ast.Tree
	cfg    *config.Config
	sink   *stats.Sink

	generateMode bool
	beginName    string

	mode           mode
	assignHit      bool
	ignoreIncRoots map[ast.Handle]bool

	// indVars is the ordered induction-variable table (C1). Order matches
	// textual order of assignments in the init-list and increment-list;
	// lookups are linear because these tables are tiny (spec.md §3).
	indVars []indVarRecord
}

// newState constructs pass state for one UnrollGenerate or UnrollAll call.
func newState(tree *ast.Tree, cfg *config.Config, sink *stats.Sink, generateMode bool, beginName string) *State {
	return &State{
		tree:           tree,
		cfg:            cfg,
		sink:           sink,
		generateMode:   generateMode,
		beginName:      beginName,
		ignoreIncRoots: make(map[ast.Handle]bool),
	}
}

// indVarIndex returns the table index of id, or -1 if not present.
func (s *State) indVarIndex(id ast.VarIdentity) int {
	for i, r := range s.indVars {
		if r.id == id {
			return i
		}
	}
	return -1
}

// addIndVar appends id to the table if not already present (merging, per
// spec.md §4.3: "merging — do not duplicate an identity already present
// from init").
func (s *State) addIndVar(id ast.VarIdentity) {
	if s.indVarIndex(id) < 0 {
		s.indVars = append(s.indVars, indVarRecord{id: id})
	}
}

// setIndVar overwrites index i's symbolic value and folded-constant node,
// releasing the previous constant by queuing it for deletion (spec.md §3:
// "both are released on pass completion or before reassignment").
func (s *State) setIndVar(i int, value numeric.Value, constant ast.Handle) {
	if s.indVars[i].constant != ast.Nil {
		s.tree.QueueFree(s.indVars[i].constant)
	}
	s.indVars[i].value = value
	s.indVars[i].constant = constant
}

// clearIndVars releases every record's owned constant and empties the
// table (spec.md §4.6 completion step: "Clear the induction-variable
// table").
func (s *State) clearIndVars() {
	for _, r := range s.indVars {
		if r.constant != ast.Nil {
			s.tree.QueueFree(r.constant)
		}
	}
	s.indVars = nil
}
