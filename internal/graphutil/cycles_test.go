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

package graphutil_test

import (
	"sort"
	"testing"

	"github.com/ssarange/rangeview/analysis"
	"github.com/ssarange/rangeview/internal/graphutil"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// buildCallgraph loads src as a single-file main package and returns its whole-program
// call graph, built with the same Class Hierarchy Analysis the inter-procedural matcher uses.
func buildCallgraph(t *testing.T, src string) *graphutil.CGraph {
	t.Helper()
	dir := t.TempDir()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedSyntax | packages.NeedTypesInfo,
		Dir: dir,
		Overlay: map[string][]byte{
			dir + "/main.go": []byte(src),
		},
	}
	pkgs, err := packages.Load(cfg, "file="+dir+"/main.go")
	if err != nil {
		t.Fatalf("failed to load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("errors while loading test package")
	}
	prog, _ := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()

	cg, err := analysis.ClassHierarchyAnalysis.ComputeCallgraph(prog)
	if err != nil {
		t.Fatalf("failed to compute callgraph: %v", err)
	}
	iterator := graphutil.NewCallgraphIterator(cg)
	return &iterator
}

// cycleFunctionNames maps a cycle's node ids back to function names, dropping the
// duplicated closing node that FindAllElementaryCycles appends to mark the loop back edge.
func cycleFunctionNames(cg *graphutil.CGraph, cycle []int64) []string {
	names := make([]string, 0, len(cycle)-1)
	for _, id := range cycle[:len(cycle)-1] {
		node := cg.IDMap[id]
		if node.Node != nil && node.Node.Func != nil {
			names = append(names, node.Node.Func.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestFindAllElementaryCycles(t *testing.T) {
	src := `package main

func ping(n int) int {
	if n <= 0 {
		return 0
	}
	return pong(n - 1)
}

func pong(n int) int {
	if n <= 0 {
		return 0
	}
	return ping(n - 1)
}

func a() int { return b() }
func b() int { return c() }
func c() int { return a() }

func leaf() int { return 42 }

func main() {
	_ = ping(3)
	_ = a()
	_ = leaf()
}
`
	cg := buildCallgraph(t, src)
	cycles := graphutil.FindAllElementaryCycles(*cg)

	if len(cycles) != 2 {
		t.Fatalf("expected 2 elementary cycles, got %d: %v", len(cycles), cycles)
	}

	found := make(map[string]bool, len(cycles))
	for _, cycle := range cycles {
		names := cycleFunctionNames(cg, cycle)
		key := ""
		for _, n := range names {
			key += n + ","
		}
		found[key] = true
	}

	if !found["a,b,c,"] {
		t.Errorf("expected a cycle among a/b/c, found cycles: %v", found)
	}
	if !found["ping,pong,"] {
		t.Errorf("expected a cycle among ping/pong, found cycles: %v", found)
	}
}
