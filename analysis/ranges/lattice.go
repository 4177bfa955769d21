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

// Package ranges implements the integer range analysis: an interval-lattice abstract interpretation over a
// whole program's SSA form, following the e-SSA constraint-graph formulation (Campos et al., "Speed and
// Precision in Range Analysis").
package ranges

import (
	"fmt"
	"math"
	"math/big"
)

// Kind tags which of the three lattice states a Range is in.
type Kind uint8

const (
	// Regular is a concrete, possibly-singleton interval [Lo, Hi].
	Regular Kind = iota
	// Unknown is the lattice bottom: no information has reached this node yet.
	Unknown
	// Empty is the lattice element for a provably unreachable / contradictory interval.
	Empty
)

func (k Kind) String() string {
	switch k {
	case Regular:
		return "Regular"
	case Unknown:
		return "Unknown"
	case Empty:
		return "Empty"
	default:
		return "?"
	}
}

// Width fixes the saturating sentinels for one analysis run's maximum integer bit size (§5: process-wide, but
// owned per Cache rather than as package globals).
type Width struct {
	Bits     int
	Min, Max int64
}

// NewWidth returns the Min/Max sentinels for a bits-wide two's complement signed range, clamped to 64 (the
// widest integer type go/types reports on a 64-bit target).
func NewWidth(bits int) Width {
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	if bits == 64 {
		return Width{Bits: 64, Min: math.MinInt64, Max: math.MaxInt64}
	}
	return Width{Bits: bits, Min: -(int64(1) << uint(bits-1)), Max: (int64(1) << uint(bits-1)) - 1}
}

// Range is the abstract value the analysis tracks for one VarNode: a tagged triple (Lo, Hi, Kind) per §3.
type Range struct {
	Lo, Hi int64
	Kind   Kind
}

// RegularRange builds a concrete interval. Callers that cannot guarantee lo <= hi should route the result
// through PromoteIfInconsistent (§9: uniform lo > hi promotion in every eval path).
func RegularRange(lo, hi int64) Range { return Range{Lo: lo, Hi: hi, Kind: Regular} }

// Exact builds the singleton interval [v, v].
func Exact(v int64) Range { return RegularRange(v, v) }

// UnknownRange is the lattice bottom element.
func UnknownRange() Range { return Range{Kind: Unknown} }

// EmptyRange is the unreachable/contradictory lattice element.
func EmptyRange() Range { return Range{Kind: Empty} }

// Full returns [w.Min, w.Max], the least precise non-bottom interval at width w.
func Full(w Width) Range { return RegularRange(w.Min, w.Max) }

func (r Range) IsRegular() bool { return r.Kind == Regular }
func (r Range) IsUnknown() bool { return r.Kind == Unknown }
func (r Range) IsEmpty() bool   { return r.Kind == Empty }

func (r Range) String() string {
	switch r.Kind {
	case Unknown:
		return "Unknown"
	case Empty:
		return "Empty"
	default:
		return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
	}
}

// Equal implements the lattice's equal operation (§4.A): same Kind, and for Regular, same bounds.
func (r Range) Equal(o Range) bool {
	if r.Kind != o.Kind {
		return false
	}
	if r.Kind != Regular {
		return true
	}
	return r.Lo == o.Lo && r.Hi == o.Hi
}

// PromoteIfInconsistent turns an inconsistent Regular range (Lo > Hi) produced by IntersectWith into the full
// range at width w, the uniform promotion rule every BinaryOp/UnaryOp/SigmaOp eval routes its result through
// (§9 design note; resolves spec.md's open question the same way for every operator, not just some).
func PromoteIfInconsistent(r Range, w Width) Range {
	if r.Kind == Regular && r.Lo > r.Hi {
		return Full(w)
	}
	return r
}

// IntersectWith implements the lattice meet (§4.A). The result may be inconsistent (Lo > Hi); callers apply
// PromoteIfInconsistent.
func (r Range) IntersectWith(o Range) Range {
	if r.Kind == Empty || o.Kind == Empty {
		return EmptyRange()
	}
	if r.Kind == Unknown {
		return o
	}
	if o.Kind == Unknown {
		return r
	}
	return Range{Lo: maxI64(r.Lo, o.Lo), Hi: minI64(r.Hi, o.Hi), Kind: Regular}
}

// UnionWith implements the lattice join (§4.A), used to evaluate PhiOps.
func (r Range) UnionWith(o Range) Range {
	if r.Kind == Empty {
		return o
	}
	if o.Kind == Empty {
		return r
	}
	if r.Kind == Unknown {
		return o
	}
	if o.Kind == Unknown {
		return r
	}
	return RegularRange(minI64(r.Lo, o.Lo), maxI64(r.Hi, o.Hi))
}

func propagateKind(r, o Range) (Range, bool) {
	if r.Kind == Empty || o.Kind == Empty {
		return EmptyRange(), true
	}
	if r.Kind == Unknown || o.Kind == Unknown {
		return UnknownRange(), true
	}
	return Range{}, false
}

// Add is the saturating interval sum (§4.A).
func (r Range) Add(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	lo := addBoundSat(r.Lo, o.Lo, w, true)
	hi := addBoundSat(r.Hi, o.Hi, w, false)
	return RegularRange(lo, hi)
}

func addBoundSat(a, b int64, w Width, lower bool) int64 {
	if lower {
		if a == w.Min || b == w.Min {
			return w.Min
		}
	} else {
		if a == w.Max || b == w.Max {
			return w.Max
		}
	}
	return clampBig(new(big.Int).Add(big.NewInt(a), big.NewInt(b)), w)
}

// Sub is the saturating interval difference: [a,b] - [c,d] = [a-d, b-c].
func (r Range) Sub(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	lo := subBoundSat(r.Lo, o.Hi, w, true)
	hi := subBoundSat(r.Hi, o.Lo, w, false)
	return RegularRange(lo, hi)
}

func subBoundSat(a, b int64, w Width, lower bool) int64 {
	if lower {
		if a == w.Min || b == w.Max {
			return w.Min
		}
	} else {
		if a == w.Max || b == w.Min {
			return w.Max
		}
	}
	return clampBig(new(big.Int).Sub(big.NewInt(a), big.NewInt(b)), w)
}

// Mul is the saturating interval product, taken as the min/max of the four corner products (§4.A).
func (r Range) Mul(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if (r.Lo == w.Min && r.Hi == w.Max) || (o.Lo == w.Min && o.Hi == w.Max) {
		return Full(w)
	}
	c1 := satMul(r.Lo, o.Lo, w)
	c2 := satMul(r.Lo, o.Hi, w)
	c3 := satMul(r.Hi, o.Lo, w)
	c4 := satMul(r.Hi, o.Hi, w)
	return RegularRange(min4(c1, c2, c3, c4), max4(c1, c2, c3, c4))
}

// satMul saturates per the corner rule in §4.A: Max*negative=Min, Max*0=0, Max*positive=Max, symmetrically
// for Min.
func satMul(a, b int64, w Width) int64 {
	if res, ok := satMulSentinel(a, b, w); ok {
		return res
	}
	if res, ok := satMulSentinel(b, a, w); ok {
		return res
	}
	return clampBig(new(big.Int).Mul(big.NewInt(a), big.NewInt(b)), w)
}

func satMulSentinel(a, b int64, w Width) (int64, bool) {
	switch a {
	case w.Max:
		switch {
		case b > 0:
			return w.Max, true
		case b < 0:
			return w.Min, true
		default:
			return 0, true
		}
	case w.Min:
		switch {
		case b > 0:
			return w.Min, true
		case b < 0:
			return w.Max, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// SDiv is the signed interval division. A divisor interval that contains zero (at a bound or inside) saturates
// to the full range (§4.A/§7: total, never divides by zero).
func (r Range) SDiv(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if o.Lo <= 0 && o.Hi >= 0 {
		return Full(w)
	}
	c1 := satQuo(r.Lo, o.Lo, w)
	c2 := satQuo(r.Lo, o.Hi, w)
	c3 := satQuo(r.Hi, o.Lo, w)
	c4 := satQuo(r.Hi, o.Hi, w)
	return RegularRange(min4(c1, c2, c3, c4), max4(c1, c2, c3, c4))
}

func satQuo(a, b int64, w Width) int64 {
	if b == 0 {
		return w.Max
	}
	return clampBig(new(big.Int).Quo(big.NewInt(a), big.NewInt(b)), w)
}

// UDiv is the unsigned interval division, approximated by clamping the unsigned quotient into the analysis's
// signed representation (documented approximation: see DESIGN.md).
func (r Range) UDiv(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if o.Lo <= 0 && o.Hi >= 0 {
		return Full(w)
	}
	ua, ub := toUnsigned(r, w), toUnsigned(o, w)
	c1 := new(big.Int).Quo(ua.lo, ub.lo)
	c2 := new(big.Int).Quo(ua.lo, ub.hi)
	c3 := new(big.Int).Quo(ua.hi, ub.lo)
	c4 := new(big.Int).Quo(ua.hi, ub.hi)
	lo, hi := minBig(c1, c2, c3, c4), maxBig(c1, c2, c3, c4)
	return RegularRange(clampBig(lo, w), clampBig(hi, w))
}

// SRem is the signed remainder. A divisor straddling or touching zero saturates to Full; an exactly-zero
// divisor is Empty (unreachable, per §7).
func (r Range) SRem(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if o.Kind == Regular && o.Lo == 0 && o.Hi == 0 {
		return EmptyRange()
	}
	if o.Lo <= 0 && o.Hi >= 0 {
		return Full(w)
	}
	bound := absI64(o.Hi)
	if absI64(o.Lo) > bound {
		bound = absI64(o.Lo)
	}
	lo, hi := -(bound - 1), bound-1
	if r.Lo >= 0 {
		lo = 0
	}
	if r.Hi < 0 {
		hi = 0
	}
	return RegularRange(lo, hi)
}

// URem is the unsigned remainder, bounded by the divisor's magnitude (documented approximation).
func (r Range) URem(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if o.Lo <= 0 && o.Hi >= 0 {
		return Full(w)
	}
	bound := absI64(o.Hi)
	if absI64(o.Lo) > bound {
		bound = absI64(o.Lo)
	}
	return RegularRange(0, bound-1)
}

// Shl is the saturating left shift, corner-wise over the shift-amount interval clamped to [0, Bits-1].
func (r Range) Shl(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	sLo, sHi := clampShift(o.Lo, w), clampShift(o.Hi, w)
	c1 := satShl(r.Lo, sLo, w)
	c2 := satShl(r.Lo, sHi, w)
	c3 := satShl(r.Hi, sLo, w)
	c4 := satShl(r.Hi, sHi, w)
	return RegularRange(min4(c1, c2, c3, c4), max4(c1, c2, c3, c4))
}

func satShl(v int64, shift int, w Width) int64 {
	b := new(big.Int).Lsh(big.NewInt(v), uint(shift))
	return clampBig(b, w)
}

func clampShift(s int64, w Width) int {
	if s < 0 {
		return 0
	}
	if s > int64(w.Bits-1) {
		return w.Bits - 1
	}
	return int(s)
}

// LShr is the logical (unsigned) right shift. A dividend that may be negative (Lo < 0) conservatively yields
// [0, Max] (§4.A's explicit special case); otherwise it behaves like a normal right shift on the non-negative range.
func (r Range) LShr(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if r.Hi < 0 {
		return RegularRange(0, w.Max)
	}
	if r.Lo < 0 {
		return RegularRange(0, w.Max)
	}
	sLo, sHi := clampShift(o.Lo, w), clampShift(o.Hi, w)
	lo := new(big.Int).Rsh(big.NewInt(r.Lo), uint(sHi))
	hi := new(big.Int).Rsh(big.NewInt(r.Hi), uint(sLo))
	return RegularRange(clampBig(lo, w), clampBig(hi, w))
}

// AShr is the arithmetic (sign-preserving) right shift, corner-wise over value and shift-amount bounds.
func (r Range) AShr(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	sLo, sHi := clampShift(o.Lo, w), clampShift(o.Hi, w)
	c1 := new(big.Int).Rsh(big.NewInt(r.Lo), uint(sLo))
	c2 := new(big.Int).Rsh(big.NewInt(r.Lo), uint(sHi))
	c3 := new(big.Int).Rsh(big.NewInt(r.Hi), uint(sLo))
	c4 := new(big.Int).Rsh(big.NewInt(r.Hi), uint(sHi))
	lo, hi := minBig(c1, c2, c3, c4), maxBig(c1, c2, c3, c4)
	return RegularRange(clampBig(lo, w), clampBig(hi, w))
}

// And computes a sound approximation of bitwise AND (§4.A): ANDing with a non-negative operand can only clear
// bits, so the result is bounded above by that operand's upper bound and below by zero.
func (r Range) And(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	rNonNeg, oNonNeg := r.Lo >= 0, o.Lo >= 0
	switch {
	case rNonNeg && oNonNeg:
		return RegularRange(0, minI64(r.Hi, o.Hi))
	case rNonNeg:
		return RegularRange(0, r.Hi)
	case oNonNeg:
		return RegularRange(0, o.Hi)
	default:
		return Full(w)
	}
}

// Or computes a sound approximation of bitwise OR: for non-negative operands, no bit beyond the highest bit
// set in either operand's upper bound can be set in the result.
func (r Range) Or(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if r.Lo < 0 || o.Lo < 0 {
		return Full(w)
	}
	return RegularRange(0, clampBig(big.NewInt(nextPow2Minus1(maxI64(r.Hi, o.Hi))), w))
}

// Xor computes the same sound upper-bound approximation as Or (both are bounded by the highest bit reachable
// in either operand); precision beyond that bound is not tracked (documented approximation).
func (r Range) Xor(w Width, o Range) Range {
	if res, done := propagateKind(r, o); done {
		return res
	}
	if r.Lo < 0 || o.Lo < 0 {
		return Full(w)
	}
	return RegularRange(0, clampBig(big.NewInt(nextPow2Minus1(maxI64(r.Hi, o.Hi))), w))
}

func nextPow2Minus1(x int64) int64 {
	if x <= 0 {
		return 0
	}
	v := uint64(x)
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Truncate clips a range to the signed bounds of a bits-wide type; a range that already fits is returned
// unchanged (§4.A).
func (r Range) Truncate(w Width, bits int) Range {
	if r.Kind != Regular {
		return r
	}
	lo, hi := smin(bits), smax(bits)
	if r.Lo >= lo && r.Hi <= hi {
		return r
	}
	return PromoteIfInconsistent(RegularRange(lo, hi), w)
}

// SExtOrTrunc behaves as Truncate (§4.A): a sign-extending cast cannot widen the value set, only the
// representation, so the tracked bound is unaffected beyond re-clipping to the (wider) target width.
func (r Range) SExtOrTrunc(w Width, bits int) Range { return r.Truncate(w, bits) }

// ZExtOrTrunc yields the full signed range at width w (§4.A): zero-extending a value whose sign bit is
// unknown can change its signed interpretation arbitrarily, so no useful bound survives the cast.
func (r Range) ZExtOrTrunc(w Width, bits int) Range {
	_ = bits
	if r.Kind != Regular {
		return r
	}
	return Full(w)
}

func smin(bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return math.MinInt64
	}
	return -(int64(1) << uint(bits-1))
}

func smax(bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return math.MaxInt64
	}
	return (int64(1) << uint(bits-1)) - 1
}

func clampBig(b *big.Int, w Width) int64 {
	max := big.NewInt(w.Max)
	min := big.NewInt(w.Min)
	if b.Cmp(max) >= 0 {
		return w.Max
	}
	if b.Cmp(min) <= 0 {
		return w.Min
	}
	return b.Int64()
}

type unsignedRange struct{ lo, hi *big.Int }

// toUnsigned reinterprets a signed range as its unsigned bit pattern at width w, used only by UDiv's
// approximation of unsigned division over the analysis's signed Range representation.
func toUnsigned(r Range, w Width) unsignedRange {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(w.Bits))
	toU := func(v int64) *big.Int {
		b := big.NewInt(v)
		if b.Sign() < 0 {
			b = new(big.Int).Add(b, mod)
		}
		return b
	}
	if r.Lo < 0 && r.Hi >= 0 {
		// Straddles the signed/unsigned wraparound point; conservatively spans the whole unsigned range.
		return unsignedRange{lo: big.NewInt(0), hi: new(big.Int).Sub(mod, big.NewInt(1))}
	}
	return unsignedRange{lo: toU(r.Lo), hi: toU(r.Hi)}
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min4(a, b, c, d int64) int64 { return minI64(minI64(a, b), minI64(c, d)) }
func max4(a, b, c, d int64) int64 { return maxI64(maxI64(a, b), maxI64(c, d)) }

func minBig(vals ...*big.Int) *big.Int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.Cmp(m) < 0 {
			m = v
		}
	}
	return m
}

func maxBig(vals ...*big.Int) *big.Int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.Cmp(m) > 0 {
			m = v
		}
	}
	return m
}
