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

import "testing"

func w8() Width { return NewWidth(8) }

func TestNewWidth(t *testing.T) {
	tests := []struct {
		bits     int
		min, max int64
	}{
		{8, -128, 127},
		{16, -32768, 32767},
		{32, -2147483648, 2147483647},
		{0, -1 << 63, 1<<63 - 1},
		{65, -1 << 63, 1<<63 - 1},
	}
	for _, tc := range tests {
		got := NewWidth(tc.bits)
		if got.Min != tc.min || got.Max != tc.max {
			t.Errorf("NewWidth(%d) = [%d, %d], want [%d, %d]", tc.bits, got.Min, got.Max, tc.min, tc.max)
		}
	}
}

func TestIntersectWithAndPromote(t *testing.T) {
	w := w8()
	a := RegularRange(0, 10)
	b := RegularRange(20, 30)
	got := PromoteIfInconsistent(a.IntersectWith(b), w)
	if !got.Equal(Full(w)) {
		t.Errorf("disjoint intersect should promote to Full, got %s", got)
	}
}

func TestUnionWith(t *testing.T) {
	a := RegularRange(-5, 5)
	b := RegularRange(10, 20)
	got := a.UnionWith(b)
	want := RegularRange(-5, 20)
	if !got.Equal(want) {
		t.Errorf("UnionWith = %s, want %s", got, want)
	}
}

func TestAddSaturates(t *testing.T) {
	w := w8()
	got := RegularRange(100, 127).Add(w, RegularRange(10, 10))
	if got.Hi != 127 {
		t.Errorf("Add should saturate Hi at 127, got %d", got.Hi)
	}
}

func TestSubSaturates(t *testing.T) {
	w := w8()
	got := RegularRange(-128, -120).Sub(w, RegularRange(10, 10))
	if got.Lo != -128 {
		t.Errorf("Sub should saturate Lo at -128, got %d", got.Lo)
	}
}

func TestMulCornerCases(t *testing.T) {
	w := w8()
	got := RegularRange(-2, 3).Mul(w, RegularRange(-4, 5))
	// Corners: -2*-4=8, -2*5=-10, 3*-4=-12, 3*5=15 -> [-12, 15]
	want := RegularRange(-12, 15)
	if !got.Equal(want) {
		t.Errorf("Mul = %s, want %s", got, want)
	}
}

func TestSDivByRangeContainingZero(t *testing.T) {
	w := w8()
	got := RegularRange(1, 100).SDiv(w, RegularRange(-1, 1))
	if !got.Equal(Full(w)) {
		t.Errorf("SDiv by a divisor spanning zero should be Full, got %s", got)
	}
}

func TestSRemExactZeroDivisorIsEmpty(t *testing.T) {
	w := w8()
	got := RegularRange(1, 10).SRem(w, Exact(0))
	if !got.IsEmpty() {
		t.Errorf("SRem by exact-zero divisor should be Empty, got %s", got)
	}
}

func TestSRemBoundedByDivisorMagnitude(t *testing.T) {
	w := w8()
	got := RegularRange(0, 100).SRem(w, Exact(10))
	want := RegularRange(0, 9)
	if !got.Equal(want) {
		t.Errorf("SRem(non-negative dividend, 10) = %s, want %s", got, want)
	}
}

// TestAndWithMask exercises spec scenario 5: m = input() & 0xFF should yield exactly [0, 255].
func TestAndWithMask(t *testing.T) {
	w := NewWidth(32)
	input := Full(w)
	mask := Exact(0xFF)
	got := input.And(w, mask)
	want := RegularRange(0, 255)
	if !got.Equal(want) {
		t.Errorf("input() & 0xFF = %s, want %s", got, want)
	}
}

func TestShlSaturates(t *testing.T) {
	w := w8()
	got := Exact(100).Shl(w, Exact(2))
	if got.Hi != w.Max {
		t.Errorf("Shl should saturate at Max, got %s", got)
	}
}

func TestLShrNegativeDividendIsConservative(t *testing.T) {
	w := w8()
	got := RegularRange(-10, -1).LShr(w, Exact(1))
	want := RegularRange(0, w.Max)
	if !got.Equal(want) {
		t.Errorf("LShr of an entirely-negative range = %s, want %s", got, want)
	}
}

func TestTruncateFitsUnchanged(t *testing.T) {
	w := NewWidth(32)
	r := RegularRange(0, 100)
	got := r.Truncate(w, 8)
	if !got.Equal(r) {
		t.Errorf("Truncate of an already-fitting range should be unchanged, got %s", got)
	}
}

func TestZExtOrTruncLosesSign(t *testing.T) {
	w := NewWidth(32)
	got := RegularRange(-1, -1).ZExtOrTrunc(w, 32)
	if !got.Equal(Full(w)) {
		t.Errorf("ZExtOrTrunc of a possibly-negative value should be Full, got %s", got)
	}
}

func TestPropagateKindDominance(t *testing.T) {
	w := w8()
	got := EmptyRange().Add(w, RegularRange(0, 10))
	if !got.IsEmpty() {
		t.Errorf("Empty should dominate Add, got %s", got)
	}
	got = UnknownRange().Add(w, RegularRange(0, 10))
	if !got.IsUnknown() {
		t.Errorf("Unknown should dominate Add over Regular, got %s", got)
	}
}

func TestEqual(t *testing.T) {
	if !RegularRange(1, 2).Equal(RegularRange(1, 2)) {
		t.Error("identical regular ranges should be Equal")
	}
	if RegularRange(1, 2).Equal(RegularRange(1, 3)) {
		t.Error("different regular ranges should not be Equal")
	}
	if !UnknownRange().Equal(UnknownRange()) {
		t.Error("Unknown should equal Unknown regardless of bounds")
	}
}
