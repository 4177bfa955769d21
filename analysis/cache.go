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

package analysis

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
)

// Cache holds the whole-program information the range analysis needs but that is not owned by any single
// function's constraint graph: the SSA program, a call graph used to resolve callees for the inter-procedural
// matcher (§4.F), and a bag of non-fatal errors accumulated along the way.
//
// Range analysis never needs a points-to result: it only reasons about integer values, never aliasing, so
// unlike the teacher's Cache this one carries no PointerAnalysis field.
type Cache struct {
	// Program is the program to be analyzed. It should be a complete, built program (e.g. loaded by LoadProgram).
	Program *ssa.Program

	// CallGraph is a whole-program call graph (CHA), used to resolve the call sites of each function.
	CallGraph *callgraph.Graph

	// implementationsByType maps an interface method's signature string to its implementations, used as a
	// fallback when a call site is not present in CallGraph (e.g. pruned as unreachable).
	implementationsByType map[string]map[*ssa.Function]bool

	errors     map[error]bool
	errorMutex sync.Mutex
}

// NewCache returns a properly initialized cache for program p.
func NewCache(p *ssa.Program) *Cache {
	return &Cache{
		Program:               p,
		implementationsByType: map[string]map[*ssa.Function]bool{},
		errors:                map[error]bool{},
	}
}

// BuildCallGraph computes the cache's call graph using Class Hierarchy Analysis: a coarse over-approximation
// that is cheap enough to run on every analysis and is sufficient for the inter-procedural matcher, which only
// needs to know which functions may be called at a call site, not a precise points-to set.
func (c *Cache) BuildCallGraph() error {
	cg, err := ClassHierarchyAnalysis.ComputeCallgraph(c.Program)
	if err != nil {
		return fmt.Errorf("failed to build call graph: %w", err)
	}
	c.CallGraph = cg
	if err := ComputeMethodImplementations(c.Program, c.implementationsByType); err != nil {
		c.AddError(err)
	}
	return nil
}

// PrintImplementations writes the interface-method-to-implementation map to w, for debugging.
func (c *Cache) PrintImplementations(w io.Writer) {
	for typString, implems := range c.implementationsByType {
		fmt.Fprintf(w, "KEY: %s\n", typString)
		for function := range implems {
			fmt.Fprintf(w, "\tFUNCTION: %s\n", function.String())
		}
	}
}

// AddError records a non-fatal error encountered during analysis.
func (c *Cache) AddError(e error) {
	c.errorMutex.Lock()
	defer c.errorMutex.Unlock()
	if e != nil {
		c.errors[e] = true
	}
}

// CheckError pops one recorded error, or returns nil if there are none left.
func (c *Cache) CheckError() error {
	c.errorMutex.Lock()
	defer c.errorMutex.Unlock()
	for e := range c.errors {
		delete(c.errors, e)
		return e
	}
	return nil
}

// ResolveCallees resolves the functions that may be called at instr.
//
// If the callee is statically resolvable (a direct call, no dynamic dispatch), it returns a single callee.
// Otherwise it consults the call graph built by BuildCallGraph; if the call site does not appear there (e.g.
// CHA failed to connect it), it falls back to the interface-implementation map.
func (c *Cache) ResolveCallees(instr ssa.CallInstruction) ([]*ssa.Function, error) {
	if callee := instr.Common().StaticCallee(); callee != nil {
		return []*ssa.Function{callee}, nil
	}

	if c.CallGraph == nil {
		return nil, fmt.Errorf("cannot resolve non-static callee without a call graph")
	}

	var callees []*ssa.Function
	if node, ok := c.CallGraph.Nodes[instr.Parent()]; ok {
		for _, callEdge := range node.Out {
			if callEdge.Site == instr && callEdge.Callee != nil {
				callees = append(callees, callEdge.Callee.Func)
			}
		}
	}
	if len(callees) > 0 {
		return callees, nil
	}

	methodFunc := instr.Common().Method
	if methodFunc != nil {
		mInterface := instr.Common().Value
		key := mInterface.Type().String() + "." + methodFunc.Name()
		if implementations, ok := c.implementationsByType[key]; ok {
			for implementation := range implementations {
				callees = append(callees, implementation)
			}
		}
	}
	return callees, nil
}
