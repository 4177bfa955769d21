// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ranges

import (
	"fmt"

	"golang.org/x/tools/go/ssa"
)

// OpKind tags which BasicOp variant an operation is (§3).
type OpKind uint8

const (
	UnaryOpKind OpKind = iota
	BinaryOpKind
	PhiOpKind
	SigmaOpKind
	// ControlDepOpKind is the transient pseudo-edge Nuutila's SCC pass installs from a SigmaOp's symbolic
	// bound into its sink, and removes once SCC discovery finishes (§4.D). It never contributes a value.
	ControlDepOpKind
)

// Opcode enumerates the arithmetic/bitwise/cast opcodes a UnaryOp or BinaryOp may carry (§3).
type Opcode uint8

const (
	OpTrunc Opcode = iota
	OpZExt
	OpSExt
	OpLoad
	OpNeg
	OpNot
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor
)

func (op Opcode) String() string {
	names := map[Opcode]string{
		OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext", OpLoad: "load", OpNeg: "neg", OpNot: "not",
		OpAdd: "add", OpSub: "sub", OpMul: "mul", OpUDiv: "udiv", OpSDiv: "sdiv", OpURem: "urem",
		OpSRem: "srem", OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr", OpAnd: "and", OpOr: "or", OpXor: "xor",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "?"
}

// Predicate is the comparison a SymbInterval carries (§3): the five relations the analysis can represent as
// a single bounded interval. Inequality (!=) cannot be expressed this way and is intentionally absent.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredSLE
	PredSLT
	PredSGE
	PredSGT
)

func (p Predicate) String() string {
	switch p {
	case PredEQ:
		return "=="
	case PredSLE:
		return "<="
	case PredSLT:
		return "<"
	case PredSGE:
		return ">="
	case PredSGT:
		return ">"
	default:
		return "?"
	}
}

// swapPredicate returns the predicate describing "b OP a" given p describes "a OP b".
func swapPredicate(p Predicate) Predicate {
	switch p {
	case PredSLT:
		return PredSGT
	case PredSLE:
		return PredSGE
	case PredSGE:
		return PredSLE
	case PredSGT:
		return PredSLT
	default:
		return p
	}
}

// InvertPredicate returns the predicate for the branch not taken, for the four ordering predicates. EQ has no
// representable inverse (its complement is not a single interval) and is returned unchanged; callers handle
// that case by falling back to the full range on the false edge.
func InvertPredicate(p Predicate) Predicate {
	switch p {
	case PredSLE:
		return PredSGT
	case PredSLT:
		return PredSGE
	case PredSGE:
		return PredSLT
	case PredSGT:
		return PredSLE
	default:
		return p
	}
}

// BasicInterval is an operation's intersect (§3): either a concrete Range, or a SymbInterval that must be
// resolved against its Bound's current range before use (FixIntersects).
type BasicInterval struct {
	Concrete Range
	Symbolic bool
	Pred     Predicate
	Bound    ssa.Value
}

func ConcreteInterval(r Range) BasicInterval { return BasicInterval{Concrete: r} }

func SymbolicInterval(pred Predicate, bound ssa.Value) BasicInterval {
	return BasicInterval{Symbolic: true, Pred: pred, Bound: bound}
}

func (b BasicInterval) String() string {
	if !b.Symbolic {
		return b.Concrete.String()
	}
	name := "b"
	if b.Bound != nil {
		name = b.Bound.Name()
	}
	switch b.Pred {
	case PredEQ:
		return fmt.Sprintf("[%s, %s]", name, name)
	case PredSLE:
		return fmt.Sprintf("[lb, ub(%s)]", name)
	case PredSLT:
		return fmt.Sprintf("[lb, ub(%s)-1]", name)
	case PredSGE:
		return fmt.Sprintf("[lb(%s), ub]", name)
	case PredSGT:
		return fmt.Sprintf("[lb(%s)+1, ub]", name)
	default:
		return "[?, ?]"
	}
}

// FixIntersects resolves a SymbInterval into a concrete Range, given the bound's current range and the sink's
// own current range (needed to seed whichever side the predicate alone does not determine), per the table in
// spec §4.C.
func (b BasicInterval) FixIntersects(w Width, boundRange, sinkRange Range) Range {
	if !b.Symbolic {
		return b.Concrete
	}
	if boundRange.Kind != Regular {
		return UnknownRange()
	}
	lb, ub := boundRange.Lo, boundRange.Hi
	sinkLo, sinkHi := w.Min, w.Max
	if sinkRange.Kind == Regular {
		sinkLo, sinkHi = sinkRange.Lo, sinkRange.Hi
	}
	switch b.Pred {
	case PredEQ:
		return RegularRange(lb, ub)
	case PredSLE:
		return RegularRange(sinkLo, ub)
	case PredSLT:
		if ub != w.Max {
			return RegularRange(sinkLo, ub-1)
		}
		return RegularRange(sinkLo, ub)
	case PredSGE:
		return RegularRange(lb, sinkHi)
	case PredSGT:
		if lb != w.Min {
			return RegularRange(lb+1, sinkHi)
		}
		return RegularRange(lb, sinkHi)
	default:
		return UnknownRange()
	}
}

// VarNode is one node of the constraint graph: identity is the ssa.Value it represents, attribute is its
// current computed interval (§3).
type VarNode struct {
	Value ssa.Value
	Range Range
	// AbstractState records '0'/'+'/'-'/'?' between the growth and crop phases of the CropDFS strategy (§4.E).
	AbstractState byte
}

// BasicOp is one hyperedge of the constraint graph (§3): a sink value defined in terms of zero or more source
// values, tagged by Kind to select its evaluation rule.
type BasicOp struct {
	Kind       OpKind
	Opcode     Opcode
	Sink       ssa.Value
	Sources    []ssa.Value
	Intersect  BasicInterval
	Unresolved bool
	Bits       int
}

// Eval computes the sink's new range from its sources' current ranges, via rangeOf.
func (op *BasicOp) Eval(w Width, rangeOf func(ssa.Value) Range) Range {
	switch op.Kind {
	case UnaryOpKind:
		return op.evalUnary(w, rangeOf)
	case BinaryOpKind:
		return op.evalBinary(w, rangeOf)
	case PhiOpKind:
		return op.evalPhi(rangeOf)
	case SigmaOpKind:
		return op.evalSigma(w, rangeOf)
	default:
		return UnknownRange()
	}
}

func (op *BasicOp) evalUnary(w Width, rangeOf func(ssa.Value) Range) Range {
	if len(op.Sources) != 1 {
		return UnknownRange()
	}
	src := rangeOf(op.Sources[0])
	var res Range
	switch op.Opcode {
	case OpTrunc:
		res = src.Truncate(w, op.Bits)
	case OpSExt:
		res = src.SExtOrTrunc(w, op.Bits)
	case OpZExt:
		res = src.ZExtOrTrunc(w, op.Bits)
	case OpNeg:
		res = Exact(0).Sub(w, src)
	case OpNot:
		res = Exact(-1).Sub(w, src)
	case OpLoad:
		res = src
	default:
		res = src
	}
	return PromoteIfInconsistent(res, w)
}

func (op *BasicOp) evalBinary(w Width, rangeOf func(ssa.Value) Range) Range {
	if len(op.Sources) != 2 {
		return UnknownRange()
	}
	a, b := rangeOf(op.Sources[0]), rangeOf(op.Sources[1])
	var res Range
	switch op.Opcode {
	case OpAdd:
		res = a.Add(w, b)
	case OpSub:
		res = a.Sub(w, b)
	case OpMul:
		res = a.Mul(w, b)
	case OpUDiv:
		res = a.UDiv(w, b)
	case OpSDiv:
		res = a.SDiv(w, b)
	case OpURem:
		res = a.URem(w, b)
	case OpSRem:
		res = a.SRem(w, b)
	case OpShl:
		res = a.Shl(w, b)
	case OpLShr:
		res = a.LShr(w, b)
	case OpAShr:
		res = a.AShr(w, b)
	case OpAnd:
		res = a.And(w, b)
	case OpOr:
		res = a.Or(w, b)
	case OpXor:
		res = a.Xor(w, b)
	default:
		res = UnknownRange()
	}
	return PromoteIfInconsistent(res, w)
}

func (op *BasicOp) evalPhi(rangeOf func(ssa.Value) Range) Range {
	if len(op.Sources) == 0 {
		return UnknownRange()
	}
	res := EmptyRange()
	for _, s := range op.Sources {
		res = res.UnionWith(rangeOf(s))
	}
	return res
}

func (op *BasicOp) evalSigma(w Width, rangeOf func(ssa.Value) Range) Range {
	if len(op.Sources) != 1 {
		return UnknownRange()
	}
	src := rangeOf(op.Sources[0])
	var boundRange Range
	if op.Intersect.Symbolic && op.Intersect.Bound != nil {
		boundRange = rangeOf(op.Intersect.Bound)
	}
	sinkRange := UnknownRange()
	if op.Sink != nil {
		sinkRange = rangeOf(op.Sink)
	}
	interval := op.Intersect.FixIntersects(w, boundRange, sinkRange)
	return PromoteIfInconsistent(src.IntersectWith(interval), w)
}

// ConstraintGraph is the e-SSA constraint graph (§3): VarNodes plus the def/use/symbolic indices the builder,
// SCC finder and solver operate over.
type ConstraintGraph struct {
	Width Width

	vars  map[ssa.Value]*VarNode
	order []ssa.Value

	defMap  map[ssa.Value]*BasicOp
	useMap  map[ssa.Value][]*BasicOp
	symbMap map[ssa.Value][]*BasicOp

	valuesBranchMap map[ssa.Value]map[*ssa.BasicBlock]BasicInterval
	valuesSwitchMap map[ssa.Value]map[*ssa.BasicBlock]BasicInterval

	ops             []*BasicOp
	controlDepEdges []*BasicOp
}

// NewConstraintGraph returns an empty graph for the given analysis width.
func NewConstraintGraph(w Width) *ConstraintGraph {
	return &ConstraintGraph{
		Width:           w,
		vars:            map[ssa.Value]*VarNode{},
		defMap:          map[ssa.Value]*BasicOp{},
		useMap:          map[ssa.Value][]*BasicOp{},
		symbMap:         map[ssa.Value][]*BasicOp{},
		valuesBranchMap: map[ssa.Value]map[*ssa.BasicBlock]BasicInterval{},
		valuesSwitchMap: map[ssa.Value]map[*ssa.BasicBlock]BasicInterval{},
	}
}

// AddVarNode is idempotent: it returns the existing node for v if one was already added (§4.B).
func (g *ConstraintGraph) AddVarNode(v ssa.Value) *VarNode {
	if n, ok := g.vars[v]; ok {
		return n
	}
	n := &VarNode{Value: v, Range: UnknownRange()}
	g.vars[v] = n
	g.order = append(g.order, v)
	return n
}

func (g *ConstraintGraph) addOp(op *BasicOp) {
	g.ops = append(g.ops, op)
	if op.Sink != nil {
		g.AddVarNode(op.Sink)
		g.defMap[op.Sink] = op
	}
	for _, s := range op.Sources {
		g.AddVarNode(s)
		g.useMap[s] = append(g.useMap[s], op)
	}
	if op.Kind == SigmaOpKind && op.Intersect.Symbolic && op.Intersect.Bound != nil {
		g.AddVarNode(op.Intersect.Bound)
		g.symbMap[op.Intersect.Bound] = append(g.symbMap[op.Intersect.Bound], op)
		op.Unresolved = true
	}
}

// AddUnaryOp adds a UnaryOp hyperedge (§4.B).
func (g *ConstraintGraph) AddUnaryOp(sink, source ssa.Value, opcode Opcode, bits int) *BasicOp {
	op := &BasicOp{Kind: UnaryOpKind, Opcode: opcode, Sink: sink, Sources: []ssa.Value{source}, Bits: bits}
	g.addOp(op)
	return op
}

// AddBinaryOp adds a BinaryOp hyperedge (§4.B).
func (g *ConstraintGraph) AddBinaryOp(sink, a, b ssa.Value, opcode Opcode) *BasicOp {
	op := &BasicOp{Kind: BinaryOpKind, Opcode: opcode, Sink: sink, Sources: []ssa.Value{a, b}}
	g.addOp(op)
	return op
}

// AddPhiOp adds a PhiOp hyperedge joining every source via UnionWith (§4.B).
func (g *ConstraintGraph) AddPhiOp(sink ssa.Value, sources []ssa.Value) *BasicOp {
	op := &BasicOp{Kind: PhiOpKind, Sink: sink, Sources: append([]ssa.Value(nil), sources...)}
	g.addOp(op)
	return op
}

// AddSigmaOp adds a SigmaOp hyperedge: a single source intersected with a (possibly symbolic) interval
// derived from the branch that dominates the sink's scope (§4.B).
func (g *ConstraintGraph) AddSigmaOp(sink, source ssa.Value, intersect BasicInterval) *BasicOp {
	op := &BasicOp{Kind: SigmaOpKind, Sink: sink, Sources: []ssa.Value{source}, Intersect: intersect}
	g.addOp(op)
	return op
}

func (g *ConstraintGraph) addBranchInterval(v ssa.Value, block *ssa.BasicBlock, bi BasicInterval) {
	m, ok := g.valuesBranchMap[v]
	if !ok {
		m = map[*ssa.BasicBlock]BasicInterval{}
		g.valuesBranchMap[v] = m
	}
	m[block] = bi
}

func (g *ConstraintGraph) lookupBranchInterval(v ssa.Value, block *ssa.BasicBlock) (BasicInterval, bool) {
	m, ok := g.valuesBranchMap[v]
	if !ok {
		return BasicInterval{}, false
	}
	bi, ok2 := m[block]
	return bi, ok2
}

// BuildVarNodes initializes every VarNode's range: integer constants start at their exact value; other inputs
// (no defMap entry) start at [Min, Max]; every other node starts Unknown (§4.B).
func (g *ConstraintGraph) BuildVarNodes() {
	for _, v := range g.order {
		n := g.vars[v]
		if iv, ok := constIntValue(v); ok {
			n.Range = Exact(iv)
		} else if _, defined := g.defMap[v]; !defined {
			n.Range = Full(g.Width)
		} else {
			n.Range = UnknownRange()
		}
	}
}

// GetRange returns v's current interval, or Unknown if v was never added to the graph (§4.B, §7).
func (g *ConstraintGraph) GetRange(v ssa.Value) Range {
	if n, ok := g.vars[v]; ok {
		return n.Range
	}
	return UnknownRange()
}

func (g *ConstraintGraph) rangeOf(v ssa.Value) Range {
	if n, ok := g.vars[v]; ok {
		return n.Range
	}
	if iv, ok := constIntValue(v); ok {
		return Exact(iv)
	}
	return UnknownRange()
}
