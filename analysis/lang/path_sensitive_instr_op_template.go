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
	"golang.org/x/tools/go/ssa"
)

// InstrOpTemplate is a no-op PathSensitiveInstrOp. Embed it in a visitor struct and override only the Do*
// methods that matter to the visitor; every other SSA instruction is silently ignored instead of forcing
// the embedder to enumerate the entire InstrOp interface.
type InstrOpTemplate struct{}

func (v *InstrOpTemplate) DoDebugRef(*ssa.DebugRef)                       {}
func (v *InstrOpTemplate) DoUnOp(*ssa.UnOp)                               {}
func (v *InstrOpTemplate) DoBinOp(*ssa.BinOp)                             {}
func (v *InstrOpTemplate) DoCall(*ssa.Call)                               {}
func (v *InstrOpTemplate) DoChangeInterface(*ssa.ChangeInterface)         {}
func (v *InstrOpTemplate) DoChangeType(*ssa.ChangeType)                   {}
func (v *InstrOpTemplate) DoConvert(*ssa.Convert)                         {}
func (v *InstrOpTemplate) DoSliceArrayToPointer(*ssa.SliceToArrayPointer) {}
func (v *InstrOpTemplate) DoMakeInterface(*ssa.MakeInterface)             {}
func (v *InstrOpTemplate) DoExtract(*ssa.Extract)                         {}
func (v *InstrOpTemplate) DoSlice(*ssa.Slice)                             {}
func (v *InstrOpTemplate) DoReturn(*ssa.Return)                           {}
func (v *InstrOpTemplate) DoRunDefers(*ssa.RunDefers)                     {}
func (v *InstrOpTemplate) DoPanic(*ssa.Panic)                             {}
func (v *InstrOpTemplate) DoSend(*ssa.Send)                               {}
func (v *InstrOpTemplate) DoStore(*ssa.Store)                             {}
func (v *InstrOpTemplate) DoIf(*ssa.If)                                   {}
func (v *InstrOpTemplate) DoJump(*ssa.Jump)                               {}
func (v *InstrOpTemplate) DoDefer(*ssa.Defer)                             {}
func (v *InstrOpTemplate) DoGo(*ssa.Go)                                   {}
func (v *InstrOpTemplate) DoMakeChan(*ssa.MakeChan)                       {}
func (v *InstrOpTemplate) DoAlloc(*ssa.Alloc)                             {}
func (v *InstrOpTemplate) DoMakeSlice(*ssa.MakeSlice)                     {}
func (v *InstrOpTemplate) DoMakeMap(*ssa.MakeMap)                         {}
func (v *InstrOpTemplate) DoRange(*ssa.Range)                             {}
func (v *InstrOpTemplate) DoNext(*ssa.Next)                               {}
func (v *InstrOpTemplate) DoFieldAddr(*ssa.FieldAddr)                     {}
func (v *InstrOpTemplate) DoField(*ssa.Field)                             {}
func (v *InstrOpTemplate) DoIndexAddr(*ssa.IndexAddr)                     {}
func (v *InstrOpTemplate) DoIndex(*ssa.Index)                             {}
func (v *InstrOpTemplate) DoLookup(*ssa.Lookup)                           {}
func (v *InstrOpTemplate) DoMapUpdate(*ssa.MapUpdate)                     {}
func (v *InstrOpTemplate) DoTypeAssert(*ssa.TypeAssert)                   {}
func (v *InstrOpTemplate) DoMakeClosure(*ssa.MakeClosure)                 {}
func (v *InstrOpTemplate) DoPhi(*ssa.Phi)                                 {}
func (v *InstrOpTemplate) DoSelect(*ssa.Select)                           {}

// Path-sensitivity hooks - no-op by default, override if the visitor needs to track path state.

func (v *InstrOpTemplate) NewPath()                 {}
func (v *InstrOpTemplate) EndPath()                 {}
func (v *InstrOpTemplate) NewBlock(*ssa.BasicBlock) {}
