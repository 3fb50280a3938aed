// Copyright © 2020 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bigint holds the arithmetic core shared by every other package
// in this module: extended gcd, modular inverse, signed modular
// exponentiation and the Jacobi symbol, all built on math/big.
package bigint

import (
	"errors"
	"math/big"
)

var (
	// ErrNotInvertible is returned when gcd(g, n) != 1, so no modular
	// inverse exists.
	ErrNotInvertible = errors.New("bigint: element has no modular inverse")
	// ErrEvenModulus is returned by Jacobi when y is even.
	ErrEvenModulus = errors.New("bigint: jacobi modulus must be odd")
	// ErrNonPositiveModulus is returned when a non-positive modulus is
	// supplied where a positive one is required.
	ErrNonPositiveModulus = errors.New("bigint: modulus must be positive")

	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
)

// ExtGCD computes d = gcd(a, b) together with Bezout coefficients s, t
// such that a*s + b*t = d. a and b may be zero or positive; the
// accumulator and group code never call it with negative operands.
func ExtGCD(a, b *big.Int) (d, s, t *big.Int) {
	d = new(big.Int)
	s = new(big.Int)
	t = new(big.Int)
	d.GCD(s, t, a, b)
	return d, s, t
}

// ModInverse computes the modular multiplicative inverse of g modulo n.
// Following spec: a negative n is reduced to |n|, a negative g is first
// reduced mod n. Returns ErrNotInvertible when gcd(g, n) != 1.
func ModInverse(g, n *big.Int) (*big.Int, error) {
	nAbs := new(big.Int).Abs(n)

	gNorm := new(big.Int).Set(g)
	if gNorm.Sign() < 0 {
		gNorm.Mod(gNorm, nAbs)
	}

	d, x, _ := ExtGCD(gNorm, nAbs)
	if d.Cmp(big1) != 0 {
		return nil, ErrNotInvertible
	}

	if x.Sign() < 0 {
		x.Add(x, nAbs)
	}
	return x.Mod(x, nAbs), nil
}

// ModPowSigned computes a^e mod n for a signed exponent e. e == 0 yields
// 1; e > 0 is the ordinary modpow; e < 0 inverts a mod n first and raises
// the inverse to |e|. Returns ErrNotInvertible if e < 0 and a has no
// inverse mod n.
func ModPowSigned(a *big.Int, e *big.Int, n *big.Int) (*big.Int, error) {
	switch e.Sign() {
	case 0:
		return big.NewInt(1), nil
	case 1:
		return new(big.Int).Exp(a, e, n), nil
	default:
		aInv, err := ModInverse(a, n)
		if err != nil {
			return nil, err
		}
		eAbs := new(big.Int).Abs(e)
		return new(big.Int).Exp(aInv, eAbs, n), nil
	}
}

// Jacobi returns the Jacobi symbol (x/y) as -1, 0 or +1. y must be odd.
func Jacobi(x, y *big.Int) (int, error) {
	if y.Bit(0) == 0 {
		return 0, ErrEvenModulus
	}

	a := new(big.Int).Set(x)
	b := new(big.Int).Set(y)
	j := 1

	if b.Sign() < 0 {
		if a.Sign() < 0 {
			j = -1
		}
		b.Neg(b)
	}

	for {
		if b.Cmp(big1) == 0 {
			return j, nil
		}
		if a.Sign() == 0 {
			return 0, nil
		}

		a.Mod(a, b)
		if a.Sign() == 0 {
			return 0, nil
		}

		// a > 0 here; peel off factors of two.
		s := trailingZeros(a)
		if s&1 != 0 {
			bMod8 := new(big.Int).And(b, big.NewInt(7)).Int64()
			if bMod8 == 3 || bMod8 == 5 {
				j = -j
			}
		}

		c := new(big.Int).Rsh(a, uint(s))

		bMod4 := new(big.Int).And(b, big.NewInt(3)).Int64()
		cMod4 := new(big.Int).And(c, big.NewInt(3)).Int64()
		if bMod4 == 3 && cMod4 == 3 {
			j = -j
		}

		a = b
		b = c
	}
}

func trailingZeros(x *big.Int) int {
	if x.Sign() == 0 {
		return 0
	}
	n := 0
	for x.Bit(n) == 0 {
		n++
	}
	return n
}

// EncodeUnsigned returns the minimal-length big-endian encoding of a
// non-negative integer, per the module's wire format.
func EncodeUnsigned(x *big.Int) []byte {
	return x.Bytes()
}

// DecodeUnsigned parses a minimal-length big-endian unsigned integer.
func DecodeUnsigned(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// EncodeSigned prefixes the magnitude with a sign byte: 0x00 for
// non-negative, 0x01 for negative.
func EncodeSigned(x *big.Int) []byte {
	sign := byte(0x00)
	if x.Sign() < 0 {
		sign = 0x01
	}
	mag := new(big.Int).Abs(x).Bytes()
	out := make([]byte, 0, len(mag)+1)
	out = append(out, sign)
	out = append(out, mag...)
	return out
}

// DecodeSigned parses the EncodeSigned wire format.
func DecodeSigned(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, errors.New("bigint: empty signed encoding")
	}
	mag := new(big.Int).SetBytes(b[1:])
	if b[0] == 0x01 {
		mag.Neg(mag)
	}
	return mag, nil
}
