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
	"go/types"
)

// IsIntegerType returns true if t is one of the signed or unsigned fixed-width integer basic types, or an
// integer-kinded named type (e.g. `type Flags uint32`). Range analysis is only defined over these types:
// floats, complex numbers, and untyped constants are out of scope.
func IsIntegerType(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return false
	}
	switch basic.Kind() {
	case types.Int, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64, types.Uintptr:
		return true
	default:
		return false
	}
}

// IsSigned returns true if t is a signed integer basic type. Only meaningful when IsIntegerType(t) is true.
func IsSigned(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return false
	}
	switch basic.Kind() {
	case types.Int, types.Int8, types.Int16, types.Int32, types.Int64:
		return true
	default:
		return false
	}
}

// IntegerBitSize returns the bit width of the integer type t (64 for the platform-sized int/uint/uintptr,
// matching go/types.Sizes on a 64-bit target), or 0 if t is not an integer type.
func IntegerBitSize(t types.Type) int {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return 0
	}
	switch basic.Kind() {
	case types.Int8, types.Uint8:
		return 8
	case types.Int16, types.Uint16:
		return 16
	case types.Int32, types.Uint32:
		return 32
	case types.Int64, types.Uint64:
		return 64
	case types.Int, types.Uint, types.Uintptr:
		return 64
	default:
		return 0
	}
}

// IsErrorType returns true if t is the error type. Used by the constraint-graph builder to skip branch intervals
// on error-typed comparisons (`err != nil`), which are not integer range facts.
func IsErrorType(t types.Type) bool {
	if t.String() == "error" {
		return true
	}
	interfaceTyp, ok := t.(*types.Interface)
	if !ok {
		return false
	}
	return interfaceTyp.NumMethods() == 1 && interfaceTyp.ExplicitMethod(0).Name() == "Error"
}
