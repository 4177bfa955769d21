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
	"go/types"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/ssa"
)

// CallgraphAnalysisMode selects how the whole-program call graph consumed by the inter-procedural matcher
// (§4.F) is built. Range analysis never needs a points-to-precise graph, so unlike the teacher only the two
// cheap modes are kept: static call edges only, and CHA.
type CallgraphAnalysisMode uint64

const (
	// StaticAnalysis builds the callgraph using only static call edges (under-approximating, fast).
	StaticAnalysis CallgraphAnalysisMode = iota
	// ClassHierarchyAnalysis builds the callgraph using Class Hierarchy Analysis, a coarse over-approximation.
	// See "Optimization of Object-Oriented Programs Using Static Class Hierarchy Analysis", J. Dean, D. Grove,
	// and C. Chambers, ECOOP'95.
	ClassHierarchyAnalysis
)

// ComputeCallgraph computes the call graph of prog using the provided mode.
func (mode CallgraphAnalysisMode) ComputeCallgraph(prog *ssa.Program) (*callgraph.Graph, error) {
	switch mode {
	case StaticAnalysis:
		return static.CallGraph(prog), nil
	case ClassHierarchyAnalysis:
		return cha.CallGraph(prog), nil
	default:
		return nil, fmt.Errorf("unsupported callgraph analysis mode %d", mode)
	}
}

// ComputeMethodImplementations populates a map from interface-method signature string to the functions that
// implement it. The map can be indexed with an interface method's signature string.
func ComputeMethodImplementations(p *ssa.Program, implementations map[string]map[*ssa.Function]bool) error {
	interfaceTypes := map[*types.Interface]map[string]*types.Selection{}
	for _, pkg := range p.AllPackages() {
		for _, mem := range pkg.Members {
			if memType, ok := mem.(*ssa.Type); ok {
				if iType, ok := memType.Type().Underlying().(*types.Interface); ok {
					interfaceTypes[iType] = methodSetToNameMap(p.MethodSets.MethodSet(memType.Type()))
				}
			}
		}
	}

	for _, typ := range p.RuntimeTypes() {
		for interfaceType, interfaceMethods := range interfaceTypes {
			if !types.Implements(typ.Underlying(), interfaceType) {
				continue
			}
			set := p.MethodSets.MethodSet(typ)
			for i := 0; i < set.Len(); i++ {
				method := set.At(i)
				methodValue := p.MethodValue(method)
				matchingInterfaceMethod := interfaceMethods[methodValue.Name()]
				if methodValue != nil && matchingInterfaceMethod != nil {
					key := matchingInterfaceMethod.Recv().String() + "." + methodValue.Name()
					addImplementation(implementations, key, methodValue)
				}
			}
		}
	}
	return nil
}

func addImplementation(implementationMap map[string]map[*ssa.Function]bool, key string, function *ssa.Function) {
	if implementations, ok := implementationMap[key]; ok {
		implementations[function] = true
	} else {
		implementationMap[key] = map[*ssa.Function]bool{function: true}
	}
}

func methodSetToNameMap(methodSet *types.MethodSet) map[string]*types.Selection {
	nameMap := map[string]*types.Selection{}
	for i := 0; i < methodSet.Len(); i++ {
		method := methodSet.At(i)
		nameMap[method.Obj().Name()] = method
	}
	return nameMap
}
