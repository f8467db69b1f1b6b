package unroll

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/symeval"
)

// simulatable is C3: the simulatability check. It clones expr so mutation
// during evaluation never touches the live tree, submits the clone to the
// external symbolic evaluator in "check" mode, and queues the clone for
// deferred deletion before returning.
func (s *State) simulatable(expr ast.Handle) bool {
	clone := s.tree.CloneSubtree(expr)
	defer s.tree.QueueFree(clone)
	return symeval.Check(s.tree, clone, s.bindingEnv())
}

// bindingEnv projects the induction-variable table into the symbolic
// evaluator's binding environment.
func (s *State) bindingEnv() symeval.Env {
	env := make(symeval.Env, len(s.indVars))
	for _, r := range s.indVars {
		env[r.id] = r.value
	}
	return env
}
