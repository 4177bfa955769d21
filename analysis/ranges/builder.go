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
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/ssarange/rangeview/analysis/lang"
	"github.com/ssarange/rangeview/analysis/ssaessa"
)

// BuildGraph builds the constraint graph for fn (§4.B/§4.C): it records every branch's induced interval
// (buildValueBranchMap), wires the e-SSA sigma pre-pass's pseudo-values into the graph, classifies every
// instruction into a UnaryOp/BinaryOp/PhiOp hyperedge via lang.InstrSwitch, and finally seeds every VarNode's
// starting range (buildVarNodes).
func (g *ConstraintGraph) BuildGraph(fn *ssa.Function) {
	g.BuildValueBranchMap(fn)
	g.BuildValueSwitchMap(fn)

	sigmas := ssaessa.Build(fn)
	b := &graphBuilder{g: g, sigmas: sigmas}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			b.block = block
			lang.InstrSwitch(b, instr)
		}
	}

	for block, bySigma := range sigmas {
		for orig, sv := range bySigma {
			interval, ok := g.lookupBranchInterval(orig, block)
			if !ok {
				interval = ConcreteInterval(Full(g.Width))
			}
			g.AddSigmaOp(sv, orig, interval)
		}
	}

	g.BuildVarNodes()
}

// BuildValueBranchMap walks every *ssa.If terminator in fn and records the BasicInterval each branch induces
// on its compared operand(s), keyed by the successor block the interval holds in (§4.B/§4.C).
func (g *ConstraintGraph) BuildValueBranchMap(fn *ssa.Function) {
	for _, block := range fn.Blocks {
		g.registerBranch(block)
	}
}

// BuildValueSwitchMap exists for API fidelity with the constraint-graph operation set. golang.org/x/tools/go/ssa
// lowers switch statements to a chain of *ssa.If comparisons, so switch-successor intervals are already
// produced by BuildValueBranchMap's constant-compare case; there is nothing additional to build here.
func (g *ConstraintGraph) BuildValueSwitchMap(*ssa.Function) {}

func (g *ConstraintGraph) registerBranch(block *ssa.BasicBlock) {
	ifInstr, ok := lang.LastInstr(block).(*ssa.If)
	if !ok || len(block.Succs) != 2 {
		return
	}
	cond, ok := ifInstr.Cond.(*ssa.BinOp)
	if !ok {
		return
	}
	if !lang.IsIntegerType(cond.X.Type()) || lang.IsErrorType(cond.X.Type()) {
		return
	}
	trueSucc, falseSucc := block.Succs[0], block.Succs[1]
	op0, op1 := cond.X, cond.Y

	if c, ok := op1.(*ssa.Const); ok {
		if cv, ok2 := constIntValue(c); ok2 {
			tr, fa := constCompareTrueFalse(g.Width, cond.Op, cv)
			g.addBranchInterval(op0, trueSucc, ConcreteInterval(tr))
			g.addBranchInterval(op0, falseSucc, ConcreteInterval(fa))
			return
		}
	}
	if c, ok := op0.(*ssa.Const); ok {
		if cv, ok2 := constIntValue(c); ok2 {
			mirrored := mirrorToken(cond.Op)
			tr, fa := constCompareTrueFalse(g.Width, mirrored, cv)
			g.addBranchInterval(op1, trueSucc, ConcreteInterval(tr))
			g.addBranchInterval(op1, falseSucc, ConcreteInterval(fa))
			return
		}
	}

	pred, ok := comparePredicate(cond.Op)
	if !ok {
		return // NEQ between two variables has no representable single-interval sigma; left unconstrained.
	}
	g.addBranchInterval(op0, trueSucc, SymbolicInterval(pred, op1))
	swapped := swapPredicate(pred)
	g.addBranchInterval(op1, trueSucc, SymbolicInterval(swapped, op0))
	if pred == PredEQ {
		// EQ has no single-interval inverse (see InvertPredicate): both operands keep the full range on the false edge.
		g.addBranchInterval(op0, falseSucc, ConcreteInterval(Full(g.Width)))
		g.addBranchInterval(op1, falseSucc, ConcreteInterval(Full(g.Width)))
		return
	}
	g.addBranchInterval(op0, falseSucc, SymbolicInterval(InvertPredicate(pred), op1))
	g.addBranchInterval(op1, falseSucc, SymbolicInterval(InvertPredicate(swapped), op0))
}

// mirrorToken returns the token describing "op1 TOK op0" given tok describes "op0 TOK op1", used when a
// constant appears on the left of the comparison.
func mirrorToken(tok token.Token) token.Token {
	switch tok {
	case token.LSS:
		return token.GTR
	case token.LEQ:
		return token.GEQ
	case token.GTR:
		return token.LSS
	case token.GEQ:
		return token.LEQ
	default:
		return tok
	}
}

func comparePredicate(tok token.Token) (Predicate, bool) {
	switch tok {
	case token.LSS:
		return PredSLT, true
	case token.LEQ:
		return PredSLE, true
	case token.GTR:
		return PredSGT, true
	case token.GEQ:
		return PredSGE, true
	case token.EQL:
		return PredEQ, true
	default:
		return 0, false
	}
}

// constCompareTrueFalse returns the (true-branch, false-branch) intervals a comparison against the constant c
// induces on its left operand (§4.C). EQL/NEQ's unrepresentable side falls back to Full, a sound loss of
// precision rather than an attempt at a disjoint-interval domain (explicitly out of scope).
func constCompareTrueFalse(w Width, tok token.Token, c int64) (Range, Range) {
	switch tok {
	case token.LSS:
		return RegularRange(w.Min, decSat(c, w)), RegularRange(c, w.Max)
	case token.LEQ:
		return RegularRange(w.Min, c), RegularRange(incSat(c, w), w.Max)
	case token.GTR:
		return RegularRange(incSat(c, w), w.Max), RegularRange(w.Min, c)
	case token.GEQ:
		return RegularRange(c, w.Max), RegularRange(w.Min, decSat(c, w))
	case token.EQL:
		return Exact(c), Full(w)
	case token.NEQ:
		return Full(w), Exact(c)
	default:
		return Full(w), Full(w)
	}
}

func decSat(v int64, w Width) int64 {
	if v <= w.Min {
		return w.Min
	}
	return v - 1
}

func incSat(v int64, w Width) int64 {
	if v >= w.Max {
		return w.Max
	}
	return v + 1
}

func constIntValue(v ssa.Value) (int64, bool) {
	c, ok := v.(*ssa.Const)
	if !ok || c.Value == nil || c.Value.Kind() != constant.Int {
		return 0, false
	}
	iv, exact := constant.Int64Val(c.Value)
	return iv, exact
}

// graphBuilder classifies each SSA instruction into a constraint-graph hyperedge (§4.B's "Instruction
// classification"). It embeds lang.InstrOpTemplate so only the opcodes the analysis understands need
// overriding; everything else (aggregates, channels, maps, closures -- all explicit non-goals) is silently
// skipped, per §7's "unsupported opcode: skipped silently" rule.
type graphBuilder struct {
	lang.InstrOpTemplate
	g      *ConstraintGraph
	sigmas map[*ssa.BasicBlock]map[ssa.Value]*ssaessa.SigmaValue
	block  *ssa.BasicBlock
}

// resolveSource substitutes the e-SSA sigma pseudo-value for v when the current block is the immediate
// successor a branch introduced one in (§4.G's single-block-scoped simplification).
func (b *graphBuilder) resolveSource(v ssa.Value) ssa.Value {
	if bySigma, ok := b.sigmas[b.block]; ok {
		if sv, ok2 := bySigma[v]; ok2 {
			return sv
		}
	}
	return v
}

func (b *graphBuilder) DoBinOp(instr *ssa.BinOp) {
	if !lang.IsIntegerType(instr.Type()) {
		return
	}
	opcode, ok := binOpcode(instr.Op, instr.X.Type())
	if !ok {
		return
	}
	b.g.AddBinaryOp(instr, b.resolveSource(instr.X), b.resolveSource(instr.Y), opcode)
}

func (b *graphBuilder) DoUnOp(instr *ssa.UnOp) {
	if !lang.IsIntegerType(instr.Type()) {
		return
	}
	switch instr.Op {
	case token.SUB:
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpNeg, 0)
	case token.XOR:
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpNot, 0)
	case token.MUL:
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpLoad, 0)
	}
}

func (b *graphBuilder) DoConvert(instr *ssa.Convert) {
	srcT, dstT := instr.X.Type(), instr.Type()
	if !lang.IsIntegerType(srcT) || !lang.IsIntegerType(dstT) {
		return
	}
	srcBits, dstBits := lang.IntegerBitSize(srcT), lang.IntegerBitSize(dstT)
	switch {
	case dstBits < srcBits:
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpTrunc, dstBits)
	case lang.IsSigned(srcT):
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpSExt, dstBits)
	default:
		b.g.AddUnaryOp(instr, b.resolveSource(instr.X), OpZExt, dstBits)
	}
}

func (b *graphBuilder) DoPhi(instr *ssa.Phi) {
	if !lang.IsIntegerType(instr.Type()) {
		return
	}
	sources := make([]ssa.Value, len(instr.Edges))
	for i, e := range instr.Edges {
		sources[i] = e
	}
	b.g.AddPhiOp(instr, sources)
}

func binOpcode(tok token.Token, operandType types.Type) (Opcode, bool) {
	signed := lang.IsSigned(operandType)
	switch tok {
	case token.ADD:
		return OpAdd, true
	case token.SUB:
		return OpSub, true
	case token.MUL:
		return OpMul, true
	case token.QUO:
		if signed {
			return OpSDiv, true
		}
		return OpUDiv, true
	case token.REM:
		if signed {
			return OpSRem, true
		}
		return OpURem, true
	case token.SHL:
		return OpShl, true
	case token.SHR:
		if signed {
			return OpAShr, true
		}
		return OpLShr, true
	case token.AND:
		return OpAnd, true
	case token.OR:
		return OpOr, true
	case token.XOR:
		return OpXor, true
	default:
		return 0, false
	}
}
