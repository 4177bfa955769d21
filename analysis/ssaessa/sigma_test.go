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

package ssaessa_test

import (
	"testing"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/ssarange/rangeview/analysis/ssaessa"
)

func loadFunc(t *testing.T, src, fnName string) *ssa.Function {
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
	for _, pkg := range ssaPkgs {
		if pkg == nil {
			continue
		}
		if fn := pkg.Func(fnName); fn != nil {
			return fn
		}
	}
	t.Fatalf("function %s not found", fnName)
	return nil
}

func TestBuildInstallsSigmaOnBothBranches(t *testing.T) {
	src := `package main

func use(int) {}

func f(a int) {
	if a > 0 {
		use(a)
	} else {
		use(a)
	}
}

func main() { f(1) }
`
	fn := loadFunc(t, src, "f")
	sigmas := ssaessa.Build(fn)

	total := 0
	for _, m := range sigmas {
		total += len(m)
	}
	if total == 0 {
		t.Fatal("expected at least one sigma to be installed for the branch condition's operand")
	}
}

func TestBuildSkipsUnusedOperand(t *testing.T) {
	src := `package main

func f(a, b int) int {
	if a > 0 {
		return 1
	}
	return 0
}

func main() { _ = f(1, 2) }
`
	fn := loadFunc(t, src, "f")
	sigmas := ssaessa.Build(fn)

	for _, m := range sigmas {
		for orig := range m {
			if orig.Name() == "a" {
				t.Errorf("a is compared but used in neither successor, should not get a sigma")
			}
			if orig.Name() == "b" {
				t.Errorf("b is never compared, should not get a sigma")
			}
		}
	}
}

func TestBuildSkipsConstantOperand(t *testing.T) {
	src := `package main

func use(int) {}

func f(a int) {
	if a > 10 {
		use(a)
	}
}

func main() { f(1) }
`
	fn := loadFunc(t, src, "f")
	sigmas := ssaessa.Build(fn)

	for _, m := range sigmas {
		for orig := range m {
			if _, isConst := orig.(*ssa.Const); isConst {
				t.Errorf("constants should never get a sigma pseudo-value")
			}
		}
	}
}
