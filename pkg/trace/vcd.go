// Package trace writes a VCD (Value Change Dump) subset for a post-unroll
// pkg/ast tree: every assignment whose right-hand side has folded to a
// constant becomes one value-change record, in source order. It exists to
// give the pass something to show, not to simulate anything: once
// unrolling has run, an assignment chain's RHS values are the pass's own
// answer for what the signal does at each step.
package trace

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

// Writer emits a VCD subset to w, tracking which VarIdentity has been
// assigned which VCD identifier code.
type Writer struct {
	w      io.Writer
	ids    map[ast.VarIdentity]string
	order  []ast.VarIdentity
	nextID int
	tick   int
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, ids: make(map[ast.VarIdentity]string)}
}

// WriteModule writes a complete VCD dump for the statement chain rooted at
// root, naming the top scope moduleName.
func (w *Writer) WriteModule(tree *ast.Tree, moduleName string, root ast.Handle) error {
	w.collectSignals(tree, root)

	fmt.Fprintln(w.w, "$date")
	fmt.Fprintln(w.w, "  generated by vrtlc")
	fmt.Fprintln(w.w, "$end")
	fmt.Fprintln(w.w, "$version vrtlc $end")
	fmt.Fprintln(w.w, "$timescale 1ns $end")
	fmt.Fprintf(w.w, "$scope module %s $end\n", moduleName)
	for _, id := range w.order {
		fmt.Fprintf(w.w, "$var wire %d %s %s $end\n", signalWidth, w.ids[id], id.Name)
	}
	fmt.Fprintln(w.w, "$upscope $end")
	fmt.Fprintln(w.w, "$enddefinitions $end")

	fmt.Fprintln(w.w, "$dumpvars")
	if err := w.walkValues(tree, root); err != nil {
		return err
	}
	fmt.Fprintln(w.w, "$end")
	return nil
}

// collectSignals walks the chain assigning a VCD id to every distinct
// assignment target, in first-appearance order.
func (w *Writer) collectSignals(tree *ast.Tree, node ast.Handle) {
	for n := node; n != ast.Nil; n = tree.Next(n) {
		switch tree.Kind(n) {
		case ast.KindAssign:
			id, _ := tree.VarRef(tree.AssignLHS(n))
			w.registerSignal(id)
		case ast.KindBlock:
			_, _, body := tree.BlockInfo(n)
			w.collectSignals(tree, body)
		case ast.KindWhile, ast.KindGenFor, ast.KindOtherFor:
			w.collectSignals(tree, tree.ChildAt(n, ast.ChildBody))
		}
	}
}

func (w *Writer) registerSignal(id ast.VarIdentity) {
	if _, ok := w.ids[id]; ok {
		return
	}
	w.ids[id] = vcdIdentifier(w.nextID)
	w.nextID++
	w.order = append(w.order, id)
}

// vcdIdentifier renders n as a VCD-legal identifier code: printable ASCII
// starting at '!' (33), the scheme every VCD writer uses to keep
// declarations short.
func vcdIdentifier(n int) string {
	const first, count = 33, 94 // '!'..'~'
	var buf []byte
	for {
		buf = append([]byte{byte(first + n%count)}, buf...)
		n = n/count - 1
		if n < 0 {
			break
		}
	}
	return string(buf)
}

// signalWidth is every signal's declared VCD width. A real VCD would read
// this per-signal from the design's own declarations; this subset writer
// has no such declaration to read, so every signal is dumped at a fixed
// width wide enough for the int32-range constants pkg/unroll produces.
const signalWidth = 32

// walkValues emits one "#<tick>" timestamp plus value-change line per
// constant-valued assignment reached in source order.
func (w *Writer) walkValues(tree *ast.Tree, node ast.Handle) error {
	for n := node; n != ast.Nil; n = tree.Next(n) {
		switch tree.Kind(n) {
		case ast.KindAssign:
			id, _ := tree.VarRef(tree.AssignLHS(n))
			rhs := tree.AssignRHS(n)
			if tree.Kind(rhs) != ast.KindConst {
				continue
			}
			fmt.Fprintf(w.w, "#%d\n", w.tick)
			w.tick++
			fmt.Fprintf(w.w, "b%s %s\n", binaryString(tree.ConstValue(rhs), signalWidth), w.ids[id])
		case ast.KindBlock:
			_, _, body := tree.BlockInfo(n)
			if err := w.walkValues(tree, body); err != nil {
				return err
			}
		case ast.KindWhile, ast.KindGenFor, ast.KindOtherFor:
			if err := w.walkValues(tree, tree.ChildAt(n, ast.ChildBody)); err != nil {
				return err
			}
		}
	}
	return nil
}

// binaryString renders v as an unsigned two's-complement bit string at the
// given width, independent of v's own Type (a Value's width describes how
// it was computed, not how wide the signal it's written to is declared).
func binaryString(v numeric.Value, width int) string {
	n := v.Int
	if n == nil {
		n = big.NewInt(0)
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
	unsigned := new(big.Int).And(n, mask)
	s := unsigned.Text(2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
