// Package ast defines the AST node family the unroller operates on.
//
// Nodes live in an arena indexed by a stable Handle rather than behind
// pointers with intrusive parent/sibling links. A handle survives detach and
// relink, so passes can mutate the tree in place without invalidating
// references held elsewhere in the same pass.
package ast

import "github.com/vrtl-hdl/vrtlc/pkg/numeric"

// Handle identifies a node in a Tree's arena. The zero Handle is nil.
type Handle int32

// Nil is the handle that never refers to a live node.
const Nil Handle = 0

// Kind tags a node's variant.
type Kind int

const (
	KindInvalid Kind = iota
	KindGenFor       // generate-for loop (elaboration-time)
	KindWhile        // while loop (procedural)
	KindOtherFor     // any other for-loop variant; only legal in generate mode
	KindAssign       // assignment
	KindVarRef       // variable reference (lvalue or rvalue)
	KindConst        // constant
	KindBlock        // named compound ("begin" block); may be a generate-block
	KindBinary       // binary expression, consumed by fold/symeval
	KindUnary        // unary expression
)

func (k Kind) String() string {
	switch k {
	case KindGenFor:
		return "GenFor"
	case KindWhile:
		return "While"
	case KindOtherFor:
		return "OtherFor"
	case KindAssign:
		return "Assign"
	case KindVarRef:
		return "VarRef"
	case KindConst:
		return "Const"
	case KindBlock:
		return "Block"
	case KindBinary:
		return "Binary"
	case KindUnary:
		return "Unary"
	default:
		return "Invalid"
	}
}

// Pos is a source location, mirroring the teacher's lexer.Position.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Child slot indices. A node uses as many as its Kind needs.
const (
	ChildInit Child = iota
	ChildCond
	ChildIncr
	ChildBody
)

// Child identifies one of a node's four child slots.
type Child int

// VarIdentity names a variable: its declared identity plus, for procedural
// (non-generate) code, the scope it resolves in. ScopeID is zero for
// generate-mode genvars, which have no enclosing runtime scope.
type VarIdentity struct {
	Name    string
	ScopeID int
}

// BinOp enumerates the binary operators fold/symeval understand.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// UnOp enumerates the unary operators fold/symeval understand.
type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

type nodeRecord struct {
	kind   Kind
	pos    Pos
	parent Handle
	next   Handle
	child  [4]Handle
	live   bool
}

// payload holds kind-specific data too varied to fit the fixed node record.
type payload struct {
	// KindVarRef
	varID   VarIdentity
	isLval  bool
	usedIdx bool // marked "used as loop index" so later passes suppress unused diagnostics

	// KindConst
	val numeric.Value

	// KindAssign
	// LHS lives in ChildInit (slot 0), RHS in ChildCond (slot 1); see doc on Assign below.

	// KindBlock
	name       string
	isGenerate bool

	// KindBinary / KindUnary
	binOp BinOp
	unOp  UnOp

	// KindGenFor / KindWhile: whether a precondition slot is present
	hasPrecond bool
	precond    Handle
}

// Tree owns the node arena for one compilation unit (or one test fixture).
type Tree struct {
	nodes        []nodeRecord
	data         map[Handle]*payload
	free         []Handle // reclaimed slots available for reuse
	deferredFree []Handle // detached handles queued for release at Flush
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{
		nodes: make([]nodeRecord, 1), // index 0 reserved for Nil
		data:  make(map[Handle]*payload),
	}
}

func (t *Tree) alloc(kind Kind, pos Pos) Handle {
	if len(t.free) > 0 {
		h := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[h] = nodeRecord{kind: kind, pos: pos, live: true}
		return h
	}
	t.nodes = append(t.nodes, nodeRecord{kind: kind, pos: pos, live: true})
	return Handle(len(t.nodes) - 1)
}

func (t *Tree) rec(h Handle) *nodeRecord {
	if h == Nil || int(h) >= len(t.nodes) || !t.nodes[h].live {
		return nil
	}
	return &t.nodes[h]
}

func (t *Tree) pay(h Handle) *payload {
	p, ok := t.data[h]
	if !ok {
		p = &payload{}
		t.data[h] = p
	}
	return p
}

// Kind returns the node's variant tag, or KindInvalid for Nil/dead handles.
func (t *Tree) Kind(h Handle) Kind {
	if r := t.rec(h); r != nil {
		return r.kind
	}
	return KindInvalid
}

// Pos returns the node's source location.
func (t *Tree) Pos(h Handle) Pos {
	if r := t.rec(h); r != nil {
		return r.pos
	}
	return Pos{}
}

// Parent returns the node's parent handle, or Nil if detached or root.
func (t *Tree) Parent(h Handle) Handle {
	if r := t.rec(h); r != nil {
		return r.parent
	}
	return Nil
}

// Next returns the node's next-sibling handle.
func (t *Tree) Next(h Handle) Handle {
	if r := t.rec(h); r != nil {
		return r.next
	}
	return Nil
}

// SetNext sets the node's next-sibling link directly. Used when splicing
// substituted sequences together; callers are responsible for keeping the
// sibling chain well-formed.
func (t *Tree) SetNext(h, next Handle) {
	if r := t.rec(h); r != nil {
		r.next = next
	}
}

// ChildAt returns the handle in the given child slot.
func (t *Tree) ChildAt(h Handle, c Child) Handle {
	if r := t.rec(h); r != nil {
		return r.child[c]
	}
	return Nil
}

// SetChildAt sets the given child slot, updating the child's parent link.
func (t *Tree) SetChildAt(h Handle, c Child, child Handle) {
	r := t.rec(h)
	if r == nil {
		return
	}
	r.child[c] = child
	if cr := t.rec(child); cr != nil {
		cr.parent = h
	}
}

// Precond returns the loop node's precondition slot and whether it is present.
func (t *Tree) Precond(h Handle) (Handle, bool) {
	p := t.pay(h)
	return p.precond, p.hasPrecond
}

// SetPrecond sets the loop node's precondition slot.
func (t *Tree) SetPrecond(h, precond Handle) {
	p := t.pay(h)
	p.hasPrecond = precond != Nil
	p.precond = precond
	if cr := t.rec(precond); cr != nil {
		cr.parent = h
	}
}

// VarRef describes a KindVarRef node's identity and lvalue/rvalue flag.
func (t *Tree) VarRef(h Handle) (id VarIdentity, isLval bool) {
	p := t.pay(h)
	return p.varID, p.isLval
}

// NewVarRef creates a variable-reference node.
func (t *Tree) NewVarRef(pos Pos, id VarIdentity, isLval bool) Handle {
	h := t.alloc(KindVarRef, pos)
	p := t.pay(h)
	p.varID = id
	p.isLval = isLval
	return h
}

// MarkUsedAsIndex flags a variable reference (or, conventionally, any node
// tagged with a VarIdentity) as consumed by loop-index substitution so later
// passes don't flag it unused.
func (t *Tree) MarkUsedAsIndex(h Handle) {
	t.pay(h).usedIdx = true
}

// UsedAsIndex reports whether MarkUsedAsIndex was called on h.
func (t *Tree) UsedAsIndex(h Handle) bool {
	return t.pay(h).usedIdx
}

// ConstValue returns a KindConst node's numeric value.
func (t *Tree) ConstValue(h Handle) numeric.Value {
	return t.pay(h).val
}

// NewConst creates a constant node.
func (t *Tree) NewConst(pos Pos, v numeric.Value) Handle {
	h := t.alloc(KindConst, pos)
	t.pay(h).val = v
	return h
}

// NewAssign creates an assignment node: lhs = rhs.
func (t *Tree) NewAssign(pos Pos, lhs, rhs Handle) Handle {
	h := t.alloc(KindAssign, pos)
	t.SetChildAt(h, ChildInit, lhs)
	t.SetChildAt(h, ChildCond, rhs)
	return h
}

// AssignLHS returns an assignment node's left-hand side.
func (t *Tree) AssignLHS(h Handle) Handle { return t.ChildAt(h, ChildInit) }

// AssignRHS returns an assignment node's right-hand side.
func (t *Tree) AssignRHS(h Handle) Handle { return t.ChildAt(h, ChildCond) }

// SetAssignRHS replaces an assignment's right-hand side.
func (t *Tree) SetAssignRHS(h, rhs Handle) { t.SetChildAt(h, ChildCond, rhs) }

// NewBinary creates a binary-expression node.
func (t *Tree) NewBinary(pos Pos, op BinOp, l, r Handle) Handle {
	h := t.alloc(KindBinary, pos)
	t.pay(h).binOp = op
	t.SetChildAt(h, ChildInit, l)
	t.SetChildAt(h, ChildCond, r)
	return h
}

// BinaryOp returns a binary node's operator and operands.
func (t *Tree) BinaryOp(h Handle) (op BinOp, l, r Handle) {
	return t.pay(h).binOp, t.ChildAt(h, ChildInit), t.ChildAt(h, ChildCond)
}

// NewUnary creates a unary-expression node.
func (t *Tree) NewUnary(pos Pos, op UnOp, arg Handle) Handle {
	h := t.alloc(KindUnary, pos)
	t.pay(h).unOp = op
	t.SetChildAt(h, ChildInit, arg)
	return h
}

// UnaryOp returns a unary node's operator and operand.
func (t *Tree) UnaryOp(h Handle) (op UnOp, arg Handle) {
	return t.pay(h).unOp, t.ChildAt(h, ChildInit)
}

// Statement lists are represented directly as intrusive sibling chains
// (spec.md §3's "next-sibling link (forming intrusive sibling lists)"),
// not as a separate glue node: a container's ChildBody slot holds the
// chain's head, and every element in the chain shares the container as its
// Parent regardless of position.

// SetChain attaches stmts as owner's slot, linking them into a Next chain
// in order and setting every element's Parent to owner (not just the
// head's — membership in the chain is what "parent" means for a statement
// list member).
func (t *Tree) SetChain(owner Handle, slot Child, stmts []Handle) {
	for i, h := range stmts {
		r := t.rec(h)
		if r == nil {
			continue
		}
		r.parent = owner
		if i+1 < len(stmts) {
			r.next = stmts[i+1]
		} else {
			r.next = Nil
		}
	}
	or := t.rec(owner)
	if or == nil {
		return
	}
	if len(stmts) == 0 {
		or.child[slot] = Nil
		return
	}
	or.child[slot] = stmts[0]
}

// ChainSlice returns every node in the Next chain starting at head, in
// order.
func (t *Tree) ChainSlice(head Handle) []Handle {
	var out []Handle
	for h := head; h != Nil; h = t.Next(h) {
		out = append(out, h)
	}
	return out
}

// PrecedingInChain returns every element of owner's slot chain that
// precedes node, in order, or (nil, false) if node is not found in that
// chain (e.g. owner has no such slot, or node is detached).
func (t *Tree) PrecedingInChain(owner Handle, slot Child, node Handle) ([]Handle, bool) {
	head := t.ChildAt(owner, slot)
	var preceding []Handle
	for h := head; h != Nil; h = t.Next(h) {
		if h == node {
			return preceding, true
		}
		preceding = append(preceding, h)
	}
	return nil, false
}

// DetachFromChain splices node out of owner's slot chain, updating the
// predecessor's link (or owner's slot head, if node is first) and clearing
// node's own parent/next so it stands alone. Unlike Detach, this walks the
// chain to find node's predecessor instead of assuming node occupies a fixed
// child slot directly. A no-op if node is not found in the chain.
func (t *Tree) DetachFromChain(owner Handle, slot Child, node Handle) {
	head := t.ChildAt(owner, slot)
	if head == node {
		t.SetChildAt(owner, slot, t.Next(node))
	} else {
		prev := Nil
		cur := head
		for cur != Nil && cur != node {
			prev = cur
			cur = t.Next(cur)
		}
		if cur != node {
			return
		}
		t.SetNext(prev, t.Next(node))
	}
	if r := t.rec(node); r != nil {
		r.parent = Nil
		r.next = Nil
	}
}

// ReplaceInChain replaces old, wherever it sits in owner's slot chain, with
// the chain rooted at newHead (or removes old outright if newHead is Nil).
// old's predecessor and successor links are preserved around the
// replacement, and every node in the newHead chain has its parent set to
// owner. A no-op if old is not found in the chain.
func (t *Tree) ReplaceInChain(owner Handle, slot Child, old Handle, newHead Handle) {
	head := t.ChildAt(owner, slot)
	var prev Handle = Nil
	cur := head
	for cur != Nil && cur != old {
		prev = cur
		cur = t.Next(cur)
	}
	if cur != old {
		return
	}
	oldNext := t.Next(old)

	if newHead != Nil {
		tail := newHead
		for t.Next(tail) != Nil {
			tail = t.Next(tail)
		}
		t.SetNext(tail, oldNext)
		for h := newHead; h != Nil; h = t.Next(h) {
			if r := t.rec(h); r != nil {
				r.parent = owner
			}
		}
	}

	if prev == Nil {
		if newHead == Nil {
			t.SetChildAt(owner, slot, oldNext)
		} else {
			t.SetChildAt(owner, slot, newHead)
		}
	} else {
		if newHead == Nil {
			t.SetNext(prev, oldNext)
		} else {
			t.SetNext(prev, newHead)
		}
	}
}

// Splice replaces old with the chain rooted at newHead wherever old
// actually lives — a precondition slot, or one of the four child slots,
// whether old sits at the chain head or mid-chain. Callers that only have a
// node handle (fold.InPlace, REPLACE-mode substitution) use this instead of
// threading owner/slot through every call site. A no-op if old is
// detached (no parent).
func (t *Tree) Splice(old, newHead Handle) {
	parent := t.Parent(old)
	if parent == Nil {
		return
	}
	if pc, has := t.Precond(parent); has && pc == old {
		t.SetPrecond(parent, newHead)
		return
	}
	if slot, ok := t.ContainingSlot(parent, old); ok {
		t.ReplaceInChain(parent, slot, old, newHead)
	}
}

// ContainingSlot reports which of parent's four child slots holds a chain
// containing node, if any. Used to locate a node's position when only its
// parent (not its slot) is known — Splice, and passes that need to detach
// or replace a node whose slot they were not the ones to set.
func (t *Tree) ContainingSlot(parent, node Handle) (Child, bool) {
	for _, slot := range []Child{ChildInit, ChildCond, ChildIncr, ChildBody} {
		if _, ok := t.PrecedingInChain(parent, slot, node); ok {
			return slot, true
		}
	}
	return 0, false
}

// NewBlock creates a named compound node.
func (t *Tree) NewBlock(pos Pos, name string, isGenerate bool, body Handle) Handle {
	h := t.alloc(KindBlock, pos)
	p := t.pay(h)
	p.name = name
	p.isGenerate = isGenerate
	t.SetChildAt(h, ChildBody, body)
	return h
}

// BlockInfo returns a block node's name, generate-block flag, and body.
func (t *Tree) BlockInfo(h Handle) (name string, isGenerate bool, body Handle) {
	p := t.pay(h)
	return p.name, p.isGenerate, t.ChildAt(h, ChildBody)
}

// NewGenFor creates a generate-for loop node with a single init assignment,
// a condition, a single increment assignment, and a body.
func (t *Tree) NewGenFor(pos Pos, init, cond, incr, body Handle) Handle {
	h := t.alloc(KindGenFor, pos)
	t.SetChildAt(h, ChildInit, init)
	t.SetChildAt(h, ChildCond, cond)
	t.SetChildAt(h, ChildIncr, incr)
	t.SetChildAt(h, ChildBody, body)
	return h
}

// NewWhile creates a while loop node. Init/increment are not dedicated
// slots for While (spec.md §4.3): they are discovered from surrounding
// siblings / the body's tail by the header recognizer.
func (t *Tree) NewWhile(pos Pos, cond, body Handle) Handle {
	h := t.alloc(KindWhile, pos)
	t.SetChildAt(h, ChildCond, cond)
	t.SetChildAt(h, ChildBody, body)
	return h
}

// NewOtherFor creates a placeholder for a for-loop variant the unroller
// does not recognize directly (classic C-style for, say). Only legal to
// encounter in generate mode, where C8 descends into it; anywhere else it
// is a fatal internal error for a preceding pass to have left one behind.
func (t *Tree) NewOtherFor(pos Pos, body Handle) Handle {
	h := t.alloc(KindOtherFor, pos)
	t.SetChildAt(h, ChildBody, body)
	return h
}

// Detach clears h's parent link and any of its parent's child slots that
// point directly at h. Sibling links are not touched: h keeps its own next
// link and a predecessor in a chain keeps pointing at h (DetachFromChain
// handles chain members). The caller owns h from this point: relink it
// into the output or call QueueFree.
func (t *Tree) Detach(h Handle) {
	r := t.rec(h)
	if r == nil {
		return
	}
	parent := r.parent
	r.parent = Nil
	if pr := t.rec(parent); pr != nil {
		for i := range pr.child {
			if pr.child[i] == h {
				pr.child[i] = Nil
			}
		}
	}
}

// QueueFree marks a detached subtree root for reclamation at the next
// Flush. It must not still be reachable from any live node.
func (t *Tree) QueueFree(h Handle) {
	if h == Nil {
		return
	}
	t.deferredFree = append(t.deferredFree, h)
}

// Flush reclaims every handle queued by QueueFree since the last Flush.
// Called by the pass driver after each top-level unroll invocation returns.
func (t *Tree) Flush() {
	for _, h := range t.deferredFree {
		t.freeSubtree(h)
	}
	t.deferredFree = t.deferredFree[:0]
}

func (t *Tree) freeSubtree(h Handle) {
	r := t.rec(h)
	if r == nil {
		return
	}
	for _, c := range r.child {
		t.freeSubtreeSiblings(c)
	}
	if p := t.pay(h); p.hasPrecond {
		t.freeSubtreeSiblings(p.precond)
	}
	delete(t.data, h)
	r.live = false
	t.free = append(t.free, h)
}

func (t *Tree) freeSubtreeSiblings(h Handle) {
	for h != Nil {
		next := t.Next(h)
		t.freeSubtree(h)
		h = next
	}
}

// CloneSubtree deep-copies the subtree rooted at h: h itself, its
// precondition, and every chain held in its child slots. h's own next
// siblings are not cloned (CloneSiblingList does that). The clone is a
// fresh, detached subtree with no parent link; callers are responsible for
// relinking or queuing it for deletion.
func (t *Tree) CloneSubtree(h Handle) Handle {
	if h == Nil {
		return Nil
	}
	clone := t.cloneOne(h)
	return clone
}

// CloneSiblingList clones h and every sibling reachable from it, preserving
// the chain order, and returns the head of the cloned chain.
func (t *Tree) CloneSiblingList(h Handle) Handle {
	if h == Nil {
		return Nil
	}
	head := t.cloneOne(h)
	cur := head
	src := t.Next(h)
	for src != Nil {
		next := t.cloneOne(src)
		t.SetNext(cur, next)
		cur = next
		src = t.Next(src)
	}
	return head
}

func (t *Tree) cloneOne(h Handle) Handle {
	r := t.rec(h)
	if r == nil {
		return Nil
	}
	clone := t.alloc(r.kind, r.pos)
	if srcPay, ok := t.data[h]; ok {
		cp := *srcPay
		t.data[clone] = &cp
		if srcPay.hasPrecond {
			cp.precond = t.CloneSubtree(srcPay.precond)
			if cr := t.rec(cp.precond); cr != nil {
				cr.parent = clone
			}
		}
	}
	// Each child slot may hold a chain (statement lists live in ChildBody,
	// possibly other slots), not just a single node, so every member must be
	// cloned and re-parented to clone — not only the slot head.
	for i, c := range r.child {
		if c == Nil {
			continue
		}
		cc := t.CloneSiblingList(c)
		// Cloning may grow the arena and move its records, so clone's
		// record is looked up again after every nested clone.
		t.rec(clone).child[i] = cc
		for m := cc; m != Nil; m = t.Next(m) {
			if mr := t.rec(m); mr != nil {
				mr.parent = clone
			}
		}
	}
	return clone
}

// NodeCount returns the number of live nodes in the subtree rooted at h,
// following child slots and the sibling chain, short-circuiting once budget
// is exceeded (returns true, currentCount) without finishing the walk. A
// budget <= 0 is treated as 1 (never trivially "under budget").
func (t *Tree) NodeCount(h Handle, budget int) (exceeds bool, count int) {
	if budget <= 0 {
		budget = 1
	}
	return t.countWalk(h, budget, 0)
}

func (t *Tree) countWalk(h Handle, budget, count int) (bool, int) {
	for h != Nil {
		count++
		if count > budget {
			return true, count
		}
		r := t.rec(h)
		if r == nil {
			return false, count
		}
		if p, ok := t.data[h]; ok && p.hasPrecond {
			var exceeded bool
			exceeded, count = t.countWalk(p.precond, budget, count)
			if exceeded {
				return true, count
			}
		}
		for _, c := range r.child {
			var exceeded bool
			exceeded, count = t.countWalk(c, budget, count)
			if exceeded {
				return true, count
			}
		}
		h = r.next
	}
	return false, count
}
