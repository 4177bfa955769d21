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
	"github.com/ssarange/rangeview/internal/graphutil"
	"golang.org/x/tools/go/ssa"
)

// CrossCheckSCCs recomputes the graph's partition into strongly connected components using the teacher's
// generic Tarjan implementation (internal/graphutil.StronglyConnectedComponents), independently of
// ComputeSCCs' Nuutila-with-ControlDep-edges pass, and reports whether the two agree on which values are
// grouped together. A mismatch points at a bug in the ControlDep bookkeeping, not at real imprecision in the
// analysis itself -- this is a consistency oracle, not a second source of truth (§2 Component M).
func (g *ConstraintGraph) CrossCheckSCCs(nuutila [][]ssa.Value) bool {
	tarjan := graphutil.StronglyConnectedComponents(g.order, func(v ssa.Value) []ssa.Value {
		var out []ssa.Value
		for _, op := range g.useMap[v] {
			if op.Kind != ControlDepOpKind && op.Sink != nil {
				out = append(out, op.Sink)
			}
		}
		return out
	})
	return sameCover(nuutila, tarjan)
}

func sameCover(a, b [][]ssa.Value) bool {
	seenA := map[ssa.Value]int{}
	for i, comp := range a {
		for _, v := range comp {
			seenA[v] = i
		}
	}
	seenB := map[ssa.Value]int{}
	for i, comp := range b {
		for _, v := range comp {
			seenB[v] = i
		}
	}
	if len(seenA) != len(seenB) {
		return false
	}
	// Two nodes in the same component under one partition must be in the same component under the other.
	groupOf := map[ssa.Value]int{}
	for v, gi := range seenA {
		bi, ok := seenB[v]
		if !ok {
			return false
		}
		if want, seen := groupOf[v]; seen && want != gi {
			return false
		}
		for w, wgi := range seenA {
			if wgi != gi {
				continue
			}
			if seenB[w] != bi {
				return false
			}
		}
	}
	return true
}
