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

import "golang.org/x/tools/go/ssa"

// Strategy selects the solver's pre-update (widen/growth) and post-update (narrow/crop) meet operators
// (§4.E). Kept as a closed enum, mirroring how analysis/config.Options.Strategy only accepts the two named
// string values.
type Strategy int

const (
	Cousot Strategy = iota
	CropDFS
)

func (s Strategy) String() string {
	if s == CropDFS {
		return "cropdfs"
	}
	return "cousot"
}

// FindIntervals runs the fixpoint solver (§4.E) over g using the given strategy. Afterward GetRange reports a
// sound interval for every VarNode in the graph.
func (g *ConstraintGraph) FindIntervals(strategy Strategy) {
	sccs := g.ComputeSCCs()
	for _, scc := range sccs {
		g.solveSCC(scc, strategy)
		g.propagate(scc)
	}
}

type meetFunc func(w Width, old, new Range) Range

func meetFixed(_ Width, _, new Range) Range { return new }

// meetWiden is the Cousot strategy's pre-update operator: the first non-Unknown evaluation is accepted
// as-is; afterward, any growth on a side jumps that side straight to the sentinel (§4.E).
func meetWiden(w Width, old, new Range) Range {
	if old.Kind != Regular {
		return new
	}
	if new.Kind != Regular {
		return new
	}
	lo, hi := old.Lo, old.Hi
	if new.Lo < old.Lo {
		lo = w.Min
	}
	if new.Hi > old.Hi {
		hi = w.Max
	}
	return RegularRange(lo, hi)
}

// meetGrowth is the CropDFS strategy's pre-update operator: identical shape to widen, but it jumps straight
// to the sentinel on any side that is not already settled there, even on the first observed value (§4.E).
func meetGrowth(w Width, old, new Range) Range {
	if new.Kind != Regular {
		return new
	}
	if old.Kind != Regular {
		lo, hi := new.Lo, new.Hi
		if new.Lo != w.Min {
			lo = w.Min
		}
		if new.Hi != w.Max {
			hi = w.Max
		}
		return RegularRange(lo, hi)
	}
	lo, hi := old.Lo, old.Hi
	if new.Lo < old.Lo {
		lo = w.Min
	}
	if new.Hi > old.Hi {
		hi = w.Max
	}
	return RegularRange(lo, hi)
}

// meetNarrow is the Cousot strategy's post-update operator: replaces a sentinel bound with the newly
// evaluated finite bound when one is available, otherwise keeps the signed min/max of the two (§4.E).
func meetNarrow(w Width, old, new Range) Range {
	if new.Kind != Regular {
		return old
	}
	if old.Kind != Regular {
		return new
	}
	var lo, hi int64
	if old.Lo == w.Min && new.Lo != w.Min {
		lo = new.Lo
	} else {
		lo = minI64(old.Lo, new.Lo)
	}
	if old.Hi == w.Max && new.Hi != w.Max {
		hi = new.Hi
	} else {
		hi = maxI64(old.Hi, new.Hi)
	}
	return RegularRange(lo, hi)
}

func (g *ConstraintGraph) solveSCC(scc []ssa.Value, strategy Strategy) {
	if len(scc) == 1 {
		g.solveSingleton(scc[0])
		return
	}

	compUseMap := g.restrictUseMap(scc)

	// Bounded pre-iteration (§4.E): a non-widening warm-up capped at 2*|SCC| steps that lets simple
	// dependency chains inside the SCC settle before the (lossy) widen/growth pass runs.
	g.fixedIterate(compUseMap, g.entryPoints(scc), 2*len(scc), meetFixed)

	preMeet := meetWiden
	if strategy == CropDFS {
		preMeet = meetGrowth
	}
	g.update(compUseMap, g.entryPoints(scc), preMeet)

	g.resolveSymbolic(scc)
	for _, v := range scc {
		n := g.vars[v]
		if n.Range.IsUnknown() {
			n.Range = Full(g.Width)
		}
	}

	if strategy == Cousot {
		g.update(compUseMap, append([]ssa.Value(nil), scc...), meetNarrow)
		return
	}
	g.snapshotAbstractState(scc)
	g.cropSCC(compUseMap, scc)
}

func (g *ConstraintGraph) solveSingleton(v ssa.Value) {
	n := g.vars[v]
	if op := g.defMap[v]; op != nil {
		n.Range = PromoteIfInconsistent(op.Eval(g.Width, g.rangeOf), g.Width)
	}
	if n.Range.IsUnknown() {
		n.Range = Full(g.Width)
	}
}

// update runs the classic worklist loop (§4.E "Fixpoint loop"): pop a value from the active set, re-evaluate
// every op that uses it, and apply meet to decide whether the sink's range actually changed; if it did,
// enqueue the sink.
func (g *ConstraintGraph) update(useMap map[ssa.Value][]*BasicOp, active []ssa.Value, meet meetFunc) {
	inQueue := map[ssa.Value]bool{}
	queue := append([]ssa.Value(nil), active...)
	for _, v := range queue {
		inQueue[v] = true
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		inQueue[v] = false
		for _, op := range useMap[v] {
			g.stepOp(op, meet, &queue, inQueue)
		}
	}
}

func (g *ConstraintGraph) fixedIterate(useMap map[ssa.Value][]*BasicOp, active []ssa.Value, maxSteps int, meet meetFunc) {
	inQueue := map[ssa.Value]bool{}
	queue := append([]ssa.Value(nil), active...)
	for _, v := range queue {
		inQueue[v] = true
	}
	steps := 0
	for len(queue) > 0 && steps < maxSteps {
		v := queue[0]
		queue = queue[1:]
		inQueue[v] = false
		steps++
		for _, op := range useMap[v] {
			g.stepOp(op, meet, &queue, inQueue)
		}
	}
}

func (g *ConstraintGraph) stepOp(op *BasicOp, meet meetFunc, queue *[]ssa.Value, inQueue map[ssa.Value]bool) {
	sink := op.Sink
	if sink == nil {
		return
	}
	n := g.vars[sink]
	newRange := PromoteIfInconsistent(op.Eval(g.Width, g.rangeOf), g.Width)
	merged := meet(g.Width, n.Range, newRange)
	if merged.Equal(n.Range) {
		return
	}
	n.Range = merged
	if !inQueue[sink] {
		*queue = append(*queue, sink)
		inQueue[sink] = true
	}
}

func (g *ConstraintGraph) restrictUseMap(scc []ssa.Value) map[ssa.Value][]*BasicOp {
	inSCC := map[ssa.Value]bool{}
	for _, v := range scc {
		inSCC[v] = true
	}
	out := map[ssa.Value][]*BasicOp{}
	for _, v := range scc {
		for _, op := range g.useMap[v] {
			if op.Kind == ControlDepOpKind {
				continue
			}
			if op.Sink != nil && inSCC[op.Sink] {
				out[v] = append(out[v], op)
			}
		}
	}
	return out
}

func (g *ConstraintGraph) entryPoints(scc []ssa.Value) []ssa.Value {
	var out []ssa.Value
	for _, v := range scc {
		if !g.vars[v].Range.IsUnknown() {
			out = append(out, v)
		}
	}
	return out
}

func (g *ConstraintGraph) resolveSymbolic(scc []ssa.Value) {
	for _, v := range scc {
		op := g.defMap[v]
		if op == nil || op.Kind != SigmaOpKind || !op.Intersect.Symbolic {
			continue
		}
		n := g.vars[v]
		n.Range = PromoteIfInconsistent(op.Eval(g.Width, g.rangeOf), g.Width)
		op.Unresolved = n.Range.IsUnknown()
	}
}

// propagate pushes the SCC's final values out to uses outside the SCC (§4.E).
func (g *ConstraintGraph) propagate(scc []ssa.Value) {
	inSCC := map[ssa.Value]bool{}
	for _, v := range scc {
		inSCC[v] = true
	}
	for _, v := range scc {
		for _, op := range g.useMap[v] {
			if op.Kind == ControlDepOpKind {
				continue
			}
			sink := op.Sink
			if sink == nil || inSCC[sink] {
				continue
			}
			n := g.vars[sink]
			n.Range = PromoteIfInconsistent(op.Eval(g.Width, g.rangeOf), g.Width)
			if op.Kind == SigmaOpKind {
				op.Unresolved = n.Range.IsUnknown()
			}
		}
	}
}

func (g *ConstraintGraph) snapshotAbstractState(scc []ssa.Value) {
	for _, v := range scc {
		n := g.vars[v]
		state := byte('0')
		if n.Range.Kind == Regular {
			lowSat := n.Range.Lo == g.Width.Min
			hiSat := n.Range.Hi == g.Width.Max
			switch {
			case lowSat && hiSat:
				state = '?'
			case lowSat:
				state = '-'
			case hiSat:
				state = '+'
			}
		}
		n.AbstractState = state
	}
}

func (g *ConstraintGraph) cropSCC(compUseMap map[ssa.Value][]*BasicOp, scc []ssa.Value) {
	visited := map[ssa.Value]bool{}
	var worklist []ssa.Value
	for _, v := range scc {
		if op := g.defMap[v]; op != nil && op.Kind == UnaryOpKind && !g.vars[v].Range.isSentinel(g.Width) {
			worklist = append(worklist, v)
		}
	}
	for len(worklist) > 0 {
		v := worklist[0]
		worklist = worklist[1:]
		if visited[v] {
			continue
		}
		visited[v] = true
		for _, op := range compUseMap[v] {
			sink := op.Sink
			if sink == nil {
				continue
			}
			n := g.vars[sink]
			newRange := PromoteIfInconsistent(op.Eval(g.Width, g.rangeOf), g.Width)
			cropped := cropBySide(n.Range, newRange, n.AbstractState)
			if cropped.Equal(n.Range) {
				continue
			}
			n.Range = cropped
			if !visited[sink] {
				worklist = append(worklist, sink)
			}
		}
	}
}

func cropBySide(old, new Range, state byte) Range {
	if old.Kind != Regular || new.Kind != Regular {
		return old
	}
	lo, hi := old.Lo, old.Hi
	switch state {
	case '-':
		lo = new.Lo
	case '+':
		hi = new.Hi
	case '?':
		lo, hi = new.Lo, new.Hi
	}
	return RegularRange(lo, hi)
}

func (r Range) isSentinel(w Width) bool {
	return r.Kind == Regular && r.Lo == w.Min && r.Hi == w.Max
}
