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

// sccFinder runs Nuutila's one-pass SCC algorithm (a DFS tracking a discovery index and each node's current
// root candidate) over the constraint graph's useMap edges, restricted to the transient ControlDep-augmented
// graph installed by ComputeSCCs (§4.D).
type sccFinder struct {
	g        *ConstraintGraph
	index    map[ssa.Value]int
	root     map[ssa.Value]int
	onStack  map[ssa.Value]bool
	stack    []ssa.Value
	next     int
	worklist [][]ssa.Value
}

// ComputeSCCs partitions the graph's values into strongly connected components and returns them as a
// worklist ordered predecessors-first: every SCC in the result appears after all SCCs it depends on (§4.D).
//
// Before running, every (bound, sigmaOp) pair recorded in symbMap gets a transient ControlDep edge from bound
// to sigmaOp.Sink installed into useMap, so a SigmaOp's symbolic bound is guaranteed to land in the same or
// an earlier SCC than its sink even though the bound is not one of the SigmaOp's ordinary Sources. The edges
// are removed again once discovery finishes.
func (g *ConstraintGraph) ComputeSCCs() [][]ssa.Value {
	g.installControlDepEdges()
	defer g.removeControlDepEdges()

	f := &sccFinder{
		g:       g,
		index:   map[ssa.Value]int{},
		root:    map[ssa.Value]int{},
		onStack: map[ssa.Value]bool{},
	}
	for _, v := range g.order {
		if _, seen := f.index[v]; !seen {
			f.visit(v)
		}
	}

	// Raw DFS closes a node's component only once every successor reachable from it has already been closed,
	// so f.worklist is naturally successors-first ("reverse topological" relative to the source->sink edge
	// direction). Reverse it to get the predecessors-first order the solver needs.
	out := make([][]ssa.Value, len(f.worklist))
	for i, scc := range f.worklist {
		out[len(f.worklist)-1-i] = scc
	}
	return out
}

func (f *sccFinder) successorsOf(v ssa.Value) []ssa.Value {
	var out []ssa.Value
	for _, op := range f.g.useMap[v] {
		if op.Sink != nil {
			out = append(out, op.Sink)
		}
	}
	return out
}

func (f *sccFinder) visit(v ssa.Value) {
	idx := f.next
	f.index[v] = idx
	f.root[v] = idx
	f.next++
	f.stack = append(f.stack, v)
	f.onStack[v] = true

	for _, w := range f.successorsOf(v) {
		if _, seen := f.index[w]; !seen {
			f.visit(w)
			if f.root[w] < f.root[v] {
				f.root[v] = f.root[w]
			}
		} else if f.onStack[w] {
			if f.index[w] < f.root[v] {
				f.root[v] = f.index[w]
			}
		}
	}

	if f.root[v] != f.index[v] {
		return
	}
	var comp []ssa.Value
	for {
		n := len(f.stack) - 1
		w := f.stack[n]
		f.stack = f.stack[:n]
		f.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	f.worklist = append(f.worklist, comp)
}

func (g *ConstraintGraph) installControlDepEdges() {
	for bound, sigmaOps := range g.symbMap {
		for _, op := range sigmaOps {
			if op.Sink == nil {
				continue
			}
			cd := &BasicOp{Kind: ControlDepOpKind, Sink: op.Sink, Sources: []ssa.Value{bound}}
			g.controlDepEdges = append(g.controlDepEdges, cd)
			g.useMap[bound] = append(g.useMap[bound], cd)
		}
	}
}

func (g *ConstraintGraph) removeControlDepEdges() {
	for _, cd := range g.controlDepEdges {
		src := cd.Sources[0]
		ops := g.useMap[src]
		for i, op := range ops {
			if op == cd {
				g.useMap[src] = append(ops[:i], ops[i+1:]...)
				break
			}
		}
	}
	g.controlDepEdges = nil
}
