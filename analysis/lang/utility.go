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
	"go/token"
	"go/types"
	"strings"

	fn "github.com/ssarange/rangeview/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// at this point, the f.String contains something like this:
// (*net/http.requestBodyReadError).Error
// (encoding/json.jsonError).Error

func packageFromErrorName(name string) string {
	if !strings.HasSuffix(name, ").Error") {
		return ""
	}
	name = name[:len(name)-7]
	if !strings.HasPrefix(name, "(") {
		return ""
	}
	name = name[1:]
	if strings.HasPrefix(name, "*") {
		name = name[1:]
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[:i]
}

// PackageTypeFromFunction returns the package associated with a function.
// If the function has a package, return that.
// If the function is a method, return the package of its object.
func PackageTypeFromFunction(f *ssa.Function) *types.Package {
	pkg := f.Package()
	if pkg != nil {
		return pkg.Pkg
	}

	// f.Object can happen with some generics
	if f.Object() == nil {
		return nil
	}

	return f.Object().Pkg()
}

// PackageNameFromFunction returns the best possible package name for a ssa.Function.
// If the Function has a package, use that.
// If the function doesn't have a package, check if it's a method and use
// the package associated with its object.
// If none of those are true, it must be an error, so try to extract the package
// name from the various error formats.
func PackageNameFromFunction(f *ssa.Function) string {
	if f == nil {
		return ""
	}

	pkg := f.Package()
	if pkg != nil {
		return pkg.Pkg.Path()
	}

	// this is a method, so need to get its Object first
	if f.Object() != nil {
		obj := f.Object().Pkg()
		if obj != nil {
			return obj.Path()
		}

		if name := packageFromErrorName(f.String()); name != "" {
			return name
		}
	}

	return ""
}

// DummyPos is a dummy position returned to indicate that no position could be found.
var DummyPos = token.Position{
	Filename: "unknown",
	Offset:   -1,
	Line:     -1,
	Column:   -1,
}

// SafeFunctionPos returns the position of the function without panicking.
func SafeFunctionPos(function *ssa.Function) fn.Optional[token.Position] {
	if function.Prog != nil && function.Prog.Fset != nil {
		return fn.Some(function.Prog.Fset.Position(function.Pos()))
	}
	return fn.None[token.Position]()
}
