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
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/ssarange/rangeview/analysis"
	"github.com/ssarange/rangeview/analysis/config"
	"github.com/ssarange/rangeview/analysis/lang"
	"github.com/ssarange/rangeview/internal/graphutil"
)

// Cache bundles the whole-program analysis.Cache (SSA program, call graph, callee resolution) with the
// configuration and logging the range analysis driver needs, plus the bit Width every constraint graph built
// from this cache shares (§4.H).
type Cache struct {
	*analysis.Cache
	Config *config.Config
	Log    *config.LogGroup
	Width  Width

	// RecursiveCycles holds the call-graph node IDs of every elementary cycle found in the whole-program call
	// graph, when cfg.Interprocedural is set. The inter-procedural matcher (ConnectCalls) wires actual/formal
	// parameters across a call graph that may contain recursion; a function on a cycle never reaches a
	// fixpoint from a single pass of ConnectCalls the way an acyclic callee does, so these are reported rather
	// than silently under-approximated.
	RecursiveCycles [][]int64
}

// NewCache builds a Cache for prog: it builds the whole-program call graph when cfg.Interprocedural is set
// (the intra-procedural-only driver has no use for one), and derives the analysis bit Width either from
// cfg.BitWidthOverride or from the widest integer type actually present in the program (§4.H).
func NewCache(prog *ssa.Program, cfg *config.Config) (*Cache, error) {
	c := &Cache{
		Cache:  analysis.NewCache(prog),
		Config: cfg,
		Log:    config.NewLogGroup(cfg),
	}
	if cfg.Interprocedural {
		if err := c.Cache.BuildCallGraph(); err != nil {
			return nil, err
		}
		it := graphutil.NewCallgraphIterator(c.Cache.CallGraph)
		c.RecursiveCycles = graphutil.FindAllElementaryCycles(it)
		for _, cycle := range c.RecursiveCycles {
			c.Log.Warnf("recursive call cycle of length %d in call graph, inter-procedural ranges on it may not reach a fixpoint in one pass", len(cycle))
		}
	}
	bits := cfg.BitWidthOverride
	if bits <= 0 {
		bits = maxIntegerBitWidth(prog)
	}
	c.Width = NewWidth(bits)
	return c, nil
}

// maxIntegerBitWidth scans every function in prog reachable from ssautil.AllFunctions for the widest integer
// type used in any instruction's value, falling back to 64 if the program uses no sized integer type at all.
func maxIntegerBitWidth(prog *ssa.Program) int {
	best := 0
	for fn := range ssautil.AllFunctions(prog) {
		for _, block := range fn.Blocks {
			for _, instr := range block.Instrs {
				if v, ok := instr.(ssa.Value); ok && lang.IsIntegerType(v.Type()) {
					if bits := lang.IntegerBitSize(v.Type()); bits > best {
						best = bits
					}
				}
			}
		}
		for _, p := range fn.Params {
			if lang.IsIntegerType(p.Type()) {
				if bits := lang.IntegerBitSize(p.Type()); bits > best {
					best = bits
				}
			}
		}
	}
	if best == 0 {
		best = 64
	}
	return best
}
