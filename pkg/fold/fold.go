// Package fold implements the constant-folder the unroller consumes through
// a single "fold and normalize in place" entry point. It is a real,
// minimal recursive evaluator over closed arithmetic/comparison
// expressions — enough to drive pkg/unroll's end-to-end tests — not the
// full constant-folding pass a production HDL compiler would ship.
package fold

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

// InPlace folds node and, where it reduces to a constant, replaces it with
// a KindConst node spliced into wherever node lived (a precondition slot,
// a child slot, or mid-chain among statement-list siblings). It returns the
// (possibly replaced) handle; callers must re-fetch any pointers/handles to
// node after calling this, per the external contract.
func InPlace(t *ast.Tree, node ast.Handle) ast.Handle {
	if node == ast.Nil {
		return node
	}
	v, ok := Eval(t, node)
	if !ok {
		return node
	}
	pos := t.Pos(node)
	replacement := t.NewConst(pos, v)
	t.Splice(node, replacement)
	t.QueueFree(node)
	return replacement
}

// Eval recursively evaluates a closed expression (one with no free
// variable references) to a numeric.Value. It does not mutate the tree.
func Eval(t *ast.Tree, node ast.Handle) (numeric.Value, bool) {
	switch t.Kind(node) {
	case ast.KindConst:
		return t.ConstValue(node), true
	case ast.KindBinary:
		op, l, r := t.BinaryOp(node)
		lv, ok := Eval(t, l)
		if !ok {
			return numeric.Value{}, false
		}
		rv, ok := Eval(t, r)
		if !ok {
			return numeric.Value{}, false
		}
		return evalBinary(op, lv, rv)
	case ast.KindUnary:
		op, arg := t.UnaryOp(node)
		av, ok := Eval(t, arg)
		if !ok {
			return numeric.Value{}, false
		}
		return evalUnary(op, av)
	default:
		return numeric.Value{}, false
	}
}

func evalBinary(op ast.BinOp, l, r numeric.Value) (numeric.Value, bool) {
	if l.Int == nil || r.Int == nil {
		return numeric.Value{}, false
	}
	ty := resultType(l.Type, r.Type)
	mk := func(n int64) numeric.Value { return numeric.AssignWidth(numeric.FromInt64(n, ty), ty) }
	li, ri := l.Int.Int64(), r.Int.Int64()
	switch op {
	case ast.OpAdd:
		return mk(li + ri), true
	case ast.OpSub:
		return mk(li - ri), true
	case ast.OpMul:
		return mk(li * ri), true
	case ast.OpDiv:
		if ri == 0 {
			return numeric.Value{}, false
		}
		return mk(li / ri), true
	case ast.OpMod:
		if ri == 0 {
			return numeric.Value{}, false
		}
		return mk(li % ri), true
	case ast.OpLt:
		return boolValue(li < ri), true
	case ast.OpLe:
		return boolValue(li <= ri), true
	case ast.OpGt:
		return boolValue(li > ri), true
	case ast.OpGe:
		return boolValue(li >= ri), true
	case ast.OpEq:
		return boolValue(li == ri), true
	case ast.OpNe:
		return boolValue(li != ri), true
	default:
		return numeric.Value{}, false
	}
}

func evalUnary(op ast.UnOp, v numeric.Value) (numeric.Value, bool) {
	if v.Int == nil {
		return numeric.Value{}, false
	}
	switch op {
	case ast.OpNeg:
		return numeric.AssignWidth(numeric.FromInt64(-v.Int.Int64(), v.Type), v.Type), true
	case ast.OpNot:
		return boolValue(v.Int.Sign() == 0), true
	default:
		return numeric.Value{}, false
	}
}

func boolValue(b bool) numeric.Value {
	if b {
		return numeric.One()
	}
	return numeric.Zero()
}

// resultType picks the wider of two operand types; an untyped (zero-width)
// operand defers to the other, matching how a genvar's untyped constant
// flows through arithmetic with a typed signal.
func resultType(a, b numeric.Type) numeric.Type {
	if a.Width == 0 {
		return b
	}
	if b.Width == 0 {
		return a
	}
	if b.Width > a.Width {
		return b
	}
	return a
}
