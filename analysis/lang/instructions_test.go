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

package lang

import (
	"testing"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// InstructionCountingOp is a simple instruction counter, used to exercise RunDFS/RunAllPaths over every
// kind of SSA instruction without having to enumerate instruction kinds in the test itself.
type InstructionCountingOp struct {
	InstrOpTemplate
	count int
}

func (v *InstructionCountingOp) DoUnOp(*ssa.UnOp)     { v.count++ }
func (v *InstructionCountingOp) DoBinOp(*ssa.BinOp)   { v.count++ }
func (v *InstructionCountingOp) DoCall(*ssa.Call)     { v.count++ }
func (v *InstructionCountingOp) DoReturn(*ssa.Return) { v.count++ }
func (v *InstructionCountingOp) DoIf(*ssa.If)         { v.count++ }
func (v *InstructionCountingOp) DoJump(*ssa.Jump)     { v.count++ }
func (v *InstructionCountingOp) DoPhi(*ssa.Phi)       { v.count++ }

func loadTestFunction(t *testing.T, src string, fnName string) *ssa.Function {
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
	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()
	for _, mem := range ssaPkgs[0].Members {
		if f, ok := mem.(*ssa.Function); ok && f.Name() == fnName {
			return f
		}
	}
	t.Fatalf("function %s not found", fnName)
	return nil
}

func TestRunDFSCountsEveryBlock(t *testing.T) {
	src := `package main

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
`
	f := loadTestFunction(t, src, "abs")
	op := &InstructionCountingOp{}
	RunDFS(op, f)
	if op.count == 0 {
		t.Errorf("expected RunDFS to visit at least one counted instruction")
	}
}

func TestRunAllPathsVisitsEveryPath(t *testing.T) {
	src := `package main

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
`
	f := loadTestFunction(t, src, "abs")
	op := &InstructionCountingOp{}
	RunAllPaths(op, f)
	if op.count == 0 {
		t.Errorf("expected RunAllPaths to visit at least one counted instruction")
	}
}
