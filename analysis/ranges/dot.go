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
	"fmt"

	"golang.org/x/tools/go/ssa"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// DumpDot renders the constraint graph's current state (VarNodes and the hyperedges connecting them) to DOT
// format, for visual debugging via graphviz (§4.L). ControlDep edges are omitted since they are a transient
// SCC-discovery artifact, not part of the value-flow graph a reader wants to see.
func (g *ConstraintGraph) DumpDot(name string) ([]byte, error) {
	dg := simple.NewDirectedGraph()
	ids := map[ssa.Value]int64{}
	var next int64
	nodeFor := func(v ssa.Value) simple.Node {
		id, ok := ids[v]
		if !ok {
			id = next
			next++
			ids[v] = id
			dg.AddNode(dotValueNode{id: id, label: nodeLabel(g, v)})
		}
		return simple.Node(id)
	}

	for _, v := range g.order {
		nodeFor(v)
	}
	for _, op := range g.ops {
		if op.Kind == ControlDepOpKind || op.Sink == nil {
			continue
		}
		sinkNode := nodeFor(op.Sink)
		for _, src := range op.Sources {
			srcNode := nodeFor(src)
			dg.SetEdge(dotEdge{Edge: simple.Edge{F: srcNode, T: sinkNode}, label: opLabel(op)})
		}
	}

	return dot.Marshal(dg, name, "", "  ")
}

// dotEdge is a simple.Edge carrying the defining BasicOp's opcode as a DOT "label" attribute, so a rendered
// graph shows what operation connects two values, not just that one flows into the other (§4.L).
type dotEdge struct {
	simple.Edge
	label string
}

func (e dotEdge) Attributes() []encoding.Attribute {
	if e.label == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: e.label}}
}

// dotValueNode is the concrete gonum graph.Node/dot.Node this package installs into the simple.DirectedGraph.
type dotValueNode struct {
	id    int64
	label string
}

func (n dotValueNode) ID() int64     { return n.id }
func (n dotValueNode) DOTID() string { return n.label }
func (n dotValueNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "shape", Value: "box"}}
}

func nodeLabel(g *ConstraintGraph, v ssa.Value) string {
	name := v.Name()
	if name == "" {
		name = v.String()
	}
	return fmt.Sprintf("%s %s", name, g.GetRange(v).String())
}

func opLabel(op *BasicOp) string {
	switch op.Kind {
	case UnaryOpKind, BinaryOpKind:
		return op.Opcode.String()
	case PhiOpKind:
		return "phi"
	case SigmaOpKind:
		return "sigma"
	default:
		return ""
	}
}
