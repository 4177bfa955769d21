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

	"golang.org/x/tools/go/ssa"
)

// A ValueOp contains the methods necessary to implement an exhaustive switch on ssa.Value.
type ValueOp interface {
	DoFunction(*ssa.Function)
	DoFreeVar(*ssa.FreeVar)
	DoParameter(*ssa.Parameter)
	DoConst(*ssa.Const)
	DoGlobal(*ssa.Global)
	DoBuiltin(*ssa.Builtin)
	DoAlloc(*ssa.Alloc)
	DoPhi(*ssa.Phi)
	DoCall(*ssa.Call)
	DoBinOp(*ssa.BinOp)
	DoUnOp(*ssa.UnOp)
	DoChangeType(*ssa.ChangeType)
	DoSliceToArrayPointer(*ssa.SliceToArrayPointer)
	DoMakeInterface(*ssa.MakeInterface)
	DoMakeClosure(*ssa.MakeClosure)
	DoMakeMap(*ssa.MakeMap)
	DoMakeChan(*ssa.MakeChan)
	DoMakeSlice(*ssa.MakeSlice)
	DoSlice(*ssa.Slice)
	DoFieldAddr(*ssa.FieldAddr)
	DoField(*ssa.Field)
	DoIndexAddr(*ssa.IndexAddr)
	DoIndex(*ssa.Index)
	DoLookup(*ssa.Lookup)
	DoSelect(*ssa.Select)
	DoRange(*ssa.Range)
	DoNext(*ssa.Next)
	DoTypeAssert(*ssa.TypeAssert)
	DoExtract(*ssa.Extract)
}

// ValueSwitch implements a simple switch on ssa.Value that applies the correct function from the ValueOp in
// each case.
//
//gocyclo:ignore
func ValueSwitch(vmap ValueOp, v *ssa.Value) {
	switch val := (*v).(type) {
	case *ssa.Function:
		vmap.DoFunction(val)
	case *ssa.FreeVar:
		vmap.DoFreeVar(val)
	case *ssa.Parameter:
		vmap.DoParameter(val)
	case *ssa.Const:
		vmap.DoConst(val)
	case *ssa.Global:
		vmap.DoGlobal(val)
	case *ssa.Builtin:
		vmap.DoBuiltin(val)
	case *ssa.Alloc:
		vmap.DoAlloc(val)
	case *ssa.Phi:
		vmap.DoPhi(val)
	case *ssa.Call:
		vmap.DoCall(val)
	case *ssa.BinOp:
		vmap.DoBinOp(val)
	case *ssa.UnOp:
		vmap.DoUnOp(val)
	case *ssa.ChangeType:
		vmap.DoChangeType(val)
	case *ssa.SliceToArrayPointer:
		vmap.DoSliceToArrayPointer(val)
	case *ssa.MakeInterface:
		vmap.DoMakeInterface(val)
	case *ssa.MakeClosure:
		vmap.DoMakeClosure(val)
	case *ssa.MakeMap:
		vmap.DoMakeMap(val)
	case *ssa.MakeChan:
		vmap.DoMakeChan(val)
	case *ssa.MakeSlice:
		vmap.DoMakeSlice(val)
	case *ssa.Slice:
		vmap.DoSlice(val)
	case *ssa.FieldAddr:
		vmap.DoFieldAddr(val)
	case *ssa.Field:
		vmap.DoField(val)
	case *ssa.IndexAddr:
		vmap.DoIndexAddr(val)
	case *ssa.Index:
		vmap.DoIndex(val)
	case *ssa.Lookup:
		vmap.DoLookup(val)
	case *ssa.Select:
		vmap.DoSelect(val)
	case *ssa.Range:
		vmap.DoRange(val)
	case *ssa.Next:
		vmap.DoNext(val)
	case *ssa.TypeAssert:
		vmap.DoTypeAssert(val)
	case *ssa.Extract:
		vmap.DoExtract(val)
	}
}

// MatchExtract matches x being an extraction of a tuple element (x = extract y #i) and returns the tuple
// value y. Used to trace an integer result back through a multi-return call or BinOp with a carry bit.
func MatchExtract(x ssa.Value) ssa.Value {
	if v, ok := x.(*ssa.Extract); ok {
		return v.Tuple
	}
	return nil
}

// TryTupleIndexType extracts the type of element i in tuple type v, or returns v itself if it's not a tuple
// type.
func TryTupleIndexType(v types.Type, i int) types.Type {
	tupleType, ok := v.(*types.Tuple)
	if !ok {
		return v
	}
	return tupleType.At(i).Type()
}

// CanType checks some properties to ensure calling the Type() method on the value won't cause a segfault.
// This seems to be a problem in the SSA.
func CanType(v ssa.Value) (res bool) {
	defer func() {
		if r := recover(); r != nil {
			res = false
		}
	}()
	if v == nil {
		res = false
	} else {
		typ := v.Type()
		res = typ != nil
	}
	return res
}
