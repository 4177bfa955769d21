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
	"io"
	"time"
)

// Stats records phase timings and per-kind VarNode counters for one constraint graph's analysis run, written
// out when config.Options.ReportStats is set (§4.K).
type Stats struct {
	FunctionName string

	BuildDuration  time.Duration
	SolveDuration  time.Duration
	TotalDuration  time.Duration

	NumVarNodes    int
	NumUnaryOps    int
	NumBinaryOps   int
	NumPhiOps      int
	NumSigmaOps    int
	NumUnresolved  int

	// BitsBefore/BitsAfter are the widest sentinel bit width needed to represent the graph's ranges before and
	// after solving, used to compute ReductionPercent.
	BitsBefore int
	BitsAfter  int
}

// CollectStats walks g after FindIntervals has run and fills in the per-kind op counts and the narrowest bit
// width each VarNode's final range actually needs.
func CollectStats(g *ConstraintGraph, fnName string, buildDur, solveDur time.Duration) *Stats {
	s := &Stats{
		FunctionName:  fnName,
		BuildDuration: buildDur,
		SolveDuration: solveDur,
		TotalDuration: buildDur + solveDur,
		NumVarNodes:   len(g.order),
		BitsBefore:    g.Width.Bits,
	}
	maxBits := 0
	for _, op := range g.ops {
		switch op.Kind {
		case UnaryOpKind:
			s.NumUnaryOps++
		case BinaryOpKind:
			s.NumBinaryOps++
		case PhiOpKind:
			s.NumPhiOps++
		case SigmaOpKind:
			s.NumSigmaOps++
			if op.Unresolved {
				s.NumUnresolved++
			}
		}
	}
	for _, v := range g.order {
		if bits := bitsNeededFor(g.GetRange(v), g.Width); bits > maxBits {
			maxBits = bits
		}
	}
	s.BitsAfter = maxBits
	return s
}

// bitsNeededFor returns the smallest power-of-two bit width (8, 16, 32, 64) that can represent r's concrete
// bounds, or w.Bits if r is not Regular.
func bitsNeededFor(r Range, w Width) int {
	if r.Kind != Regular {
		return w.Bits
	}
	for _, bits := range []int{8, 16, 32, 64} {
		if bits >= w.Bits {
			return w.Bits
		}
		candidate := NewWidth(bits)
		if r.Lo >= candidate.Min && r.Hi <= candidate.Max {
			return bits
		}
	}
	return w.Bits
}

// ReductionPercent reports how much narrower the analysis's bit-width requirement became relative to the
// width it started from, as a percentage (0 when no reduction occurred).
func (s *Stats) ReductionPercent() float64 {
	if s.BitsBefore == 0 {
		return 0
	}
	return 100 * float64(s.BitsBefore-s.BitsAfter) / float64(s.BitsBefore)
}

// WriteReport writes a human-readable summary of s to w.
func (s *Stats) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "function: %s\n", s.FunctionName)
	fmt.Fprintf(w, "  build: %s  solve: %s  total: %s\n", s.BuildDuration, s.SolveDuration, s.TotalDuration)
	fmt.Fprintf(w, "  varnodes: %d  unary: %d  binary: %d  phi: %d  sigma: %d  unresolved-sigma: %d\n",
		s.NumVarNodes, s.NumUnaryOps, s.NumBinaryOps, s.NumPhiOps, s.NumSigmaOps, s.NumUnresolved)
	fmt.Fprintf(w, "  bit width: %d -> %d (%.1f%% reduction)\n", s.BitsBefore, s.BitsAfter, s.ReductionPercent())
}
