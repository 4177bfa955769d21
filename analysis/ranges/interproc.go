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
	"golang.org/x/tools/go/ssa"

	"github.com/ssarange/rangeview/analysis"
	"github.com/ssarange/rangeview/analysis/lang"
)

// ConnectCalls wires every direct, non-variadic call site's actual arguments to the callee's formal parameters,
// and the callee's returned values back to the call instruction's result, across every constraint graph in
// graphs (§4.F). It mutates each callee's and caller's graph in place by adding UnaryOp "copy" edges; it does
// not re-run BuildGraph or FindIntervals.
//
// Calls resolved through an interface method (invoke mode) or through a statically unresolvable callee are
// skipped: the matcher only connects call sites ResolveCallees can resolve to a concrete, known *ssa.Function
// whose graph was already built. Variadic callees are also skipped, since a variadic parameter's ssa.Parameter
// does not correspond 1:1 with any single actual argument.
func ConnectCalls(cache *analysis.Cache, graphs map[*ssa.Function]*ConstraintGraph) {
	for caller, callerGraph := range graphs {
		for _, block := range caller.Blocks {
			for _, instr := range block.Instrs {
				call, ok := instr.(ssa.CallInstruction)
				if !ok {
					continue
				}
				connectCallSite(cache, callerGraph, call, graphs)
			}
		}
	}
}

func connectCallSite(cache *analysis.Cache, callerGraph *ConstraintGraph, call ssa.CallInstruction, graphs map[*ssa.Function]*ConstraintGraph) {
	if call.Common().IsInvoke() || call.Common().StaticCallee() == nil {
		return
	}
	callees, err := cache.ResolveCallees(call)
	if err != nil || len(callees) == 0 {
		return
	}
	for _, callee := range callees {
		calleeGraph, ok := graphs[callee]
		if !ok || callee.Signature.Variadic() {
			continue
		}
		wireFormals(callerGraph, calleeGraph, call, callee)
		wireReturns(callerGraph, calleeGraph, call, callee)
	}
}

// wireFormals adds, in the callee's graph, a UnaryOp "copy" edge from each actual argument (evaluated in the
// caller's graph) to the corresponding formal parameter, so the callee's analysis is not stuck treating every
// parameter as a fully unconstrained input (§4.F).
func wireFormals(callerGraph, calleeGraph *ConstraintGraph, call ssa.CallInstruction, callee *ssa.Function) {
	args := call.Common().Args
	params := callee.Params
	n := len(args)
	if len(params) < n {
		n = len(params)
	}
	for i := 0; i < n; i++ {
		formal := params[i]
		if !lang.IsIntegerType(formal.Type()) {
			continue
		}
		actual := args[i]
		callerGraph.AddVarNode(actual)
		calleeGraph.AddVarNode(formal)
		calleeGraph.AddUnaryOp(formal, actual, OpLoad, 0)
	}
}

// wireReturns adds, in the caller's graph, a UnaryOp "copy" edge from the callee's returned value(s) to the
// call instruction's own result value (§4.F). Only return instructions with exactly one integer-typed result are
// wired; a function with multiple return values is not connected, and the ssa.Extract nodes reading its
// results get no copy edge from the callee.
func wireReturns(callerGraph, calleeGraph *ConstraintGraph, call ssa.CallInstruction, callee *ssa.Function) {
	callValue, ok := call.(ssa.Value)
	if !ok || !lang.IsIntegerType(callValue.Type()) {
		return
	}
	for _, block := range callee.Blocks {
		ret, ok := lastInstrReturn(block)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		result := ret.Results[0]
		if !lang.IsIntegerType(result.Type()) {
			continue
		}
		calleeGraph.AddVarNode(result)
		callerGraph.AddVarNode(callValue)
		callerGraph.AddUnaryOp(callValue, result, OpLoad, 0)
	}
}

func lastInstrReturn(block *ssa.BasicBlock) (*ssa.Return, bool) {
	if len(block.Instrs) == 0 {
		return nil, false
	}
	ret, ok := block.Instrs[len(block.Instrs)-1].(*ssa.Return)
	return ret, ok
}
