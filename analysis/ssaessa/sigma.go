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

// Package ssaessa builds the e-SSA (extended SSA) sigma pre-pass over golang.org/x/tools/go/ssa functions: for
// every comparison branch, it introduces a pseudo-value standing for the compared operand as it is known to be
// constrained on each successor block, so the constraint-graph builder can bind a SigmaOp to it instead of to
// the unconstrained original value.
package ssaessa

import (
	"fmt"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// SigmaValue is the pseudo-value e-SSA introduces at the head of a branch's successor block for an operand
// that branch compares. It implements ssa.Value by delegating identity/type queries to Orig and reporting no
// referrers of its own -- it exists only to be looked up by the graph builder, never to appear as an operand
// of a real instruction.
type SigmaValue struct {
	Orig  ssa.Value
	Block *ssa.BasicBlock
}

func (s *SigmaValue) String() string {
	return fmt.Sprintf("sigma(%s)@%s", s.Orig.Name(), s.Block)
}

func (s *SigmaValue) Name() string          { return s.Orig.Name() + ".sigma" }
func (s *SigmaValue) Type() types.Type      { return s.Orig.Type() }
func (s *SigmaValue) Parent() *ssa.Function { return s.Orig.Parent() }
func (s *SigmaValue) Pos() token.Pos        { return s.Orig.Pos() }
func (s *SigmaValue) Referrers() *[]ssa.Instruction {
	return nil
}

// Build computes, for every block that is the sole branch-successor of a comparison on integer operands (a
// successor whose only predecessor is the branching block), the set of sigma pseudo-values live in that block
// (§4.G). This is restricted to single-block granularity: a
// sigma introduced at a branch successor is visible only to instructions inside that immediate successor
// block, not propagated further down the dominator tree. A value used again many blocks later, past an
// intervening join, reverts to its original unconstrained SSA definition -- a documented precision loss
// relative to full e-SSA placement, traded for a pass that needs no dominance-frontier computation.
func Build(fn *ssa.Function) map[*ssa.BasicBlock]map[ssa.Value]*SigmaValue {
	out := map[*ssa.BasicBlock]map[ssa.Value]*SigmaValue{}
	for _, block := range fn.Blocks {
		ifInstr, ok := lastIf(block)
		if !ok || len(block.Succs) != 2 {
			continue
		}
		cond, ok := ifInstr.Cond.(*ssa.BinOp)
		if !ok || !isComparison(cond.Op) {
			continue
		}
		if basic, isBasic := cond.X.Type().Underlying().(*types.Basic); !isBasic || basic.Info()&types.IsInteger == 0 {
			continue
		}
		for _, succ := range block.Succs {
			if len(succ.Preds) != 1 {
				continue
			}
			addSigmaIfUsed(out, succ, cond.X)
			addSigmaIfUsed(out, succ, cond.Y)
		}
	}
	return out
}

func lastIf(block *ssa.BasicBlock) (*ssa.If, bool) {
	if len(block.Instrs) == 0 {
		return nil, false
	}
	ifInstr, ok := block.Instrs[len(block.Instrs)-1].(*ssa.If)
	return ifInstr, ok
}

func isComparison(tok token.Token) bool {
	switch tok {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	default:
		return false
	}
}

// addSigmaIfUsed installs a SigmaValue for v scoped to block, but only when v is actually a variable (not a
// constant -- constants need no sigma) and is referenced by some instruction inside block; a sigma nothing in
// the block reads would never be looked up by the builder and is not worth allocating.
func addSigmaIfUsed(out map[*ssa.BasicBlock]map[ssa.Value]*SigmaValue, block *ssa.BasicBlock, v ssa.Value) {
	if _, isConst := v.(*ssa.Const); isConst {
		return
	}
	if v == nil || !usedInBlock(block, v) {
		return
	}
	m, ok := out[block]
	if !ok {
		m = map[ssa.Value]*SigmaValue{}
		out[block] = m
	}
	if _, exists := m[v]; exists {
		return
	}
	m[v] = &SigmaValue{Orig: v, Block: block}
}

func usedInBlock(block *ssa.BasicBlock, v ssa.Value) bool {
	for _, instr := range block.Instrs {
		for _, operand := range instr.Operands(nil) {
			if operand != nil && *operand == v {
				return true
			}
		}
	}
	return false
}
