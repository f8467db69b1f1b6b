// Package symeval implements the symbolic evaluator the unroller consumes
// through two entry points: Check ("can this be evaluated under the current
// bindings?") and Emulate ("evaluate it"). Like pkg/fold, it is a real but
// minimal evaluator — a recursive walk over an expression with free
// variables resolved through a binding environment — grounded on the
// teacher's context-threading translator shape (pkg/cshmgen/expr.go).
package symeval

import (
	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

// Env binds variable identities to their current symbolic value, the way
// the unroller's induction-variable table does.
type Env map[ast.VarIdentity]numeric.Value

// Check reports whether node can be symbolically evaluated under env,
// without returning the value. The unroller calls this on a clone of the
// subtree being checked so evaluation never touches the live tree.
func Check(t *ast.Tree, node ast.Handle, env Env) (optimizable bool) {
	_, _, ok := eval(t, node, env)
	return ok
}

// Emulate fully evaluates node under env. dataType, when non-zero-width,
// casts the result the way an assignment to a typed destination would.
func Emulate(t *ast.Tree, node ast.Handle, env Env, dataType numeric.Type) (optimizable bool, value numeric.Value, typ numeric.Type, ok bool) {
	v, rty, success := eval(t, node, env)
	if !success {
		return false, numeric.Value{}, numeric.Type{}, false
	}
	if dataType.Width != 0 {
		v = numeric.AssignWidth(v, dataType)
		rty = dataType
	}
	return true, v, rty, true
}

func eval(t *ast.Tree, node ast.Handle, env Env) (numeric.Value, numeric.Type, bool) {
	switch t.Kind(node) {
	case ast.KindConst:
		v := t.ConstValue(node)
		return v, v.Type, true
	case ast.KindVarRef:
		id, _ := t.VarRef(node)
		v, ok := env[id]
		if !ok {
			return numeric.Value{}, numeric.Type{}, false
		}
		return v, v.Type, true
	case ast.KindBinary:
		op, l, r := t.BinaryOp(node)
		lv, lty, ok := eval(t, l, env)
		if !ok {
			return numeric.Value{}, numeric.Type{}, false
		}
		rv, rty, ok := eval(t, r, env)
		if !ok {
			return numeric.Value{}, numeric.Type{}, false
		}
		return evalBinary(op, lv, lty, rv, rty)
	case ast.KindUnary:
		op, arg := t.UnaryOp(node)
		av, aty, ok := eval(t, arg, env)
		if !ok {
			return numeric.Value{}, numeric.Type{}, false
		}
		return evalUnary(op, av, aty)
	default:
		return numeric.Value{}, numeric.Type{}, false
	}
}

func evalBinary(op ast.BinOp, l numeric.Value, lty numeric.Type, r numeric.Value, rty numeric.Type) (numeric.Value, numeric.Type, bool) {
	if l.Int == nil || r.Int == nil {
		return numeric.Value{}, numeric.Type{}, false
	}
	ty := lty
	if rty.Width > lty.Width {
		ty = rty
	}
	li, ri := l.Int.Int64(), r.Int.Int64()
	mk := func(n int64) (numeric.Value, numeric.Type, bool) {
		return numeric.AssignWidth(numeric.FromInt64(n, ty), ty), ty, true
	}
	boolTy := numeric.Type{Width: 1, Sign: numeric.Unsigned}
	mkBool := func(b bool) (numeric.Value, numeric.Type, bool) {
		if b {
			return numeric.One(), boolTy, true
		}
		return numeric.Zero(), boolTy, true
	}
	switch op {
	case ast.OpAdd:
		return mk(li + ri)
	case ast.OpSub:
		return mk(li - ri)
	case ast.OpMul:
		return mk(li * ri)
	case ast.OpDiv:
		if ri == 0 {
			return numeric.Value{}, numeric.Type{}, false
		}
		return mk(li / ri)
	case ast.OpMod:
		if ri == 0 {
			return numeric.Value{}, numeric.Type{}, false
		}
		return mk(li % ri)
	case ast.OpLt:
		return mkBool(li < ri)
	case ast.OpLe:
		return mkBool(li <= ri)
	case ast.OpGt:
		return mkBool(li > ri)
	case ast.OpGe:
		return mkBool(li >= ri)
	case ast.OpEq:
		return mkBool(li == ri)
	case ast.OpNe:
		return mkBool(li != ri)
	default:
		return numeric.Value{}, numeric.Type{}, false
	}
}

func evalUnary(op ast.UnOp, v numeric.Value, ty numeric.Type) (numeric.Value, numeric.Type, bool) {
	if v.Int == nil {
		return numeric.Value{}, numeric.Type{}, false
	}
	switch op {
	case ast.OpNeg:
		return numeric.AssignWidth(numeric.FromInt64(-v.Int.Int64(), ty), ty), ty, true
	case ast.OpNot:
		boolTy := numeric.Type{Width: 1, Sign: numeric.Unsigned}
		if v.Int.Sign() == 0 {
			return numeric.One(), boolTy, true
		}
		return numeric.Zero(), boolTy, true
	default:
		return numeric.Value{}, numeric.Type{}, false
	}
}
