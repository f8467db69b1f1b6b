package hdl

import (
	"fmt"
	"io"
	"strings"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
)

// Printer outputs an ast.Tree in a human-readable indented form, for the
// CLI's debug-dump flags. It is stage-agnostic: the same Printer dumps a
// freshly parsed module and a post-unroll one, since both are ast.Tree
// values of the same shape.
type Printer struct {
	w      io.Writer
	tree   *ast.Tree
	indent int
}

// NewPrinter creates a Printer that writes to w.
func NewPrinter(w io.Writer, tree *ast.Tree) *Printer {
	return &Printer{w: w, tree: tree}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

// PrintModule prints the module container node and its whole subtree.
func (p *Printer) PrintModule(module ast.Handle) {
	name, _, body := p.tree.BlockInfo(module)
	fmt.Fprintf(p.w, "module %s\n", name)
	p.indent++
	p.printChain(body)
	p.indent--
}

func (p *Printer) printChain(head ast.Handle) {
	for n := head; n != ast.Nil; n = p.tree.Next(n) {
		p.printNode(n)
	}
}

func (p *Printer) printNode(n ast.Handle) {
	t := p.tree
	p.writeIndent()
	switch t.Kind(n) {
	case ast.KindBlock:
		name, isGenerate, body := t.BlockInfo(n)
		kind := "begin"
		if isGenerate {
			kind = "generate-begin"
		}
		fmt.Fprintf(p.w, "%s : %s\n", kind, name)
		p.indent++
		p.printChain(body)
		p.indent--

	case ast.KindGenFor:
		fmt.Fprintln(p.w, "generate-for")
		p.indent++
		p.writeIndent()
		fmt.Fprint(p.w, "init: ")
		p.printExpr(t.ChildAt(n, ast.ChildInit))
		fmt.Fprintln(p.w)
		p.writeIndent()
		fmt.Fprint(p.w, "cond: ")
		p.printExpr(t.ChildAt(n, ast.ChildCond))
		fmt.Fprintln(p.w)
		p.writeIndent()
		fmt.Fprint(p.w, "incr: ")
		p.printExpr(t.ChildAt(n, ast.ChildIncr))
		fmt.Fprintln(p.w)
		p.printChain(t.ChildAt(n, ast.ChildBody))
		p.indent--

	case ast.KindWhile:
		fmt.Fprint(p.w, "while (")
		p.printExpr(t.ChildAt(n, ast.ChildCond))
		fmt.Fprintln(p.w, ")")
		p.indent++
		p.printChain(t.ChildAt(n, ast.ChildBody))
		p.indent--

	case ast.KindOtherFor:
		fmt.Fprintln(p.w, "for (...)")
		p.indent++
		p.printChain(t.ChildAt(n, ast.ChildBody))
		p.indent--

	case ast.KindAssign:
		p.printExpr(t.AssignLHS(n))
		fmt.Fprint(p.w, " = ")
		p.printExpr(t.AssignRHS(n))
		fmt.Fprintln(p.w)

	default:
		p.printExpr(n)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) printExpr(n ast.Handle) {
	t := p.tree
	switch t.Kind(n) {
	case ast.KindConst:
		fmt.Fprint(p.w, t.ConstValue(n).Int64())
	case ast.KindVarRef:
		id, _ := t.VarRef(n)
		if id.ScopeID != 0 {
			fmt.Fprintf(p.w, "%s#%d", id.Name, id.ScopeID)
			return
		}
		fmt.Fprint(p.w, id.Name)
	case ast.KindBinary:
		op, l, r := t.BinaryOp(n)
		fmt.Fprint(p.w, "(")
		p.printExpr(l)
		fmt.Fprintf(p.w, " %s ", binOpSymbol(op))
		p.printExpr(r)
		fmt.Fprint(p.w, ")")
	case ast.KindUnary:
		op, arg := t.UnaryOp(n)
		fmt.Fprint(p.w, unOpSymbol(op))
		p.printExpr(arg)
	default:
		fmt.Fprintf(p.w, "<%v>", t.Kind(n))
	}
}

func binOpSymbol(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpLt:
		return "<"
	case ast.OpLe:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGe:
		return ">="
	case ast.OpEq:
		return "=="
	case ast.OpNe:
		return "!="
	default:
		return "?"
	}
}

func unOpSymbol(op ast.UnOp) string {
	if op == ast.OpNot {
		return "!"
	}
	return "-"
}
