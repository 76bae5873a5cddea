package srp

import (
	"runtime"

	"github.com/cronokirby/saferith"
)

// Int is a 4096-bit natural number.
// Arithmetic on Int runs in time independent of the operand values.
type Int struct {
	nat *saferith.Nat
}

// NewInt returns x as a group-width Int.
func NewInt(x uint64) *Int {
	return newInt(new(saferith.Nat).SetUint64(x))
}

// IntFromBytes decodes a 512-byte big-endian value.
func IntFromBytes(b [Size]byte) *Int {
	return intFromSlice(b[:])
}

// IntFromLEBytes decodes a 512-byte little-endian value.
func IntFromLEBytes(b [Size]byte) *Int {
	reverse(b[:])
	return intFromSlice(b[:])
}

// Bytes returns x as 512 big-endian bytes, zero-padded on the left.
// This is the padded form hashed into u, k, M1 and M2.
func (x *Int) Bytes() [Size]byte {
	var out [Size]byte
	x.nat.FillBytes(out[:])
	return out
}

// LEBytes returns x as 512 little-endian bytes, the layout used on the wire.
func (x *Int) LEBytes() [Size]byte {
	out := x.Bytes()
	reverse(out[:])
	return out
}

// Equal reports whether x == y without branching on their contents.
func (x *Int) Equal(y *Int) bool {
	return x.nat.Eq(y.nat) == 1
}

// IsZeroModN reports whether x ≡ 0 (mod N).
func (x *Int) IsZeroModN() bool {
	return reduce(x.nat).EqZero() == 1
}

// Reduce returns x mod N.
func (x *Int) Reduce() *Int {
	return newInt(reduce(x.nat))
}

// ModAdd returns x + y mod N.
func ModAdd(x, y *Int) *Int {
	return newInt(modAdd(x.nat, y.nat))
}

// ModSub returns x - y mod N. The result is in [0, N) even when y > x.
func ModSub(x, y *Int) *Int {
	return newInt(modSub(x.nat, y.nat))
}

// ModMul returns x * y mod N.
func ModMul(x, y *Int) *Int {
	return newInt(modMul(x.nat, y.nat))
}

// ModExp returns base^exp mod N.
func ModExp(base, exp *Int) *Int {
	return newInt(modExp(base.nat, exp.nat))
}

// The helpers below reduce every operand into [0, N) before handing it to the
// Montgomery routines, so callers may pass wire values that exceed N.

func reduce(x *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Mod(x, modN)
}

func modAdd(x, y *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModAdd(reduce(x), reduce(y), modN)
}

func modSub(x, y *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModSub(reduce(x), reduce(y), modN)
}

func modMul(x, y *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModMul(reduce(x), reduce(y), modN)
}

// modExp leaks only the announced length of exp, never its value.
func modExp(base, exp *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Exp(reduce(base), exp, modN)
}

func newInt(n *saferith.Nat) *Int {
	return &Int{nat: new(saferith.Nat).SetNat(n).Resize(Bits)}
}

func intFromSlice(b []byte) *Int {
	return newInt(new(saferith.Nat).SetBytes(b))
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// wipe zeroes b. Best-effort: it keeps b live so the stores are not elided.
//
//go:noinline
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
