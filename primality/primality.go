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

// Package primality implements the Baillie-PSW composite test used to
// sample and validate the primes accumulated throughout this module: a
// small-prime trial division sieve, a fixed base-2 Miller-Rabin round, a
// strong Lucas probable-prime round with Selfridge parameter selection,
// and n extra random-base Miller-Rabin rounds for the caller's chosen
// confidence level.
package primality

import (
	"crypto/rand"
	"io"
	"math/big"
)

// smallPrimes is the trial-division sieve: composites with a factor this
// small are rejected without ever reaching Miller-Rabin or Lucas.
var smallPrimes = []int64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67,
	71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139,
	149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283, 293,
	307, 311, 313, 317, 331, 337, 347, 349, 353, 359, 367, 373, 379, 383,
	389, 397, 401, 409, 419, 421, 431, 433, 439, 443, 449, 457, 461, 463,
	467, 479, 487, 491, 499, 503, 509, 521, 523, 541,
}

var (
	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
)

// trialDivide reports whether n is divisible by any prime in
// smallPrimes, short-circuiting the case n itself equals one of them.
func trialDivide(n *big.Int) (divides bool, isSmallPrime bool) {
	for _, p := range smallPrimes {
		bp := big.NewInt(p)
		if n.Cmp(bp) == 0 {
			return false, true
		}
		mod := new(big.Int).Mod(n, bp)
		if mod.Sign() == 0 {
			return true, false
		}
	}
	return false, false
}

// ProbablyPrimeMillerRabin runs one Miller-Rabin round with the given
// base a against an odd n > 2.
func ProbablyPrimeMillerRabin(n, a *big.Int) bool {
	nMinus1 := new(big.Int).Sub(n, big1)

	d := new(big.Int).Set(nMinus1)
	r := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		r++
	}

	x := new(big.Int).Exp(a, d, n)
	if x.Cmp(big1) == 0 || x.Cmp(nMinus1) == 0 {
		return true
	}

	for i := 0; i < r-1; i++ {
		x.Exp(x, big2, n)
		if x.Cmp(nMinus1) == 0 {
			return true
		}
		if x.Cmp(big1) == 0 {
			return false
		}
	}
	return false
}

// jacobiSymbol computes (a/n) for odd n, matching the convention used by
// the strong Lucas test below (n here always odd and positive).
func jacobiSymbol(a, n *big.Int) int {
	aa := new(big.Int).Mod(a, n)
	nn := new(big.Int).Set(n)
	j := 1

	for aa.Sign() != 0 {
		for aa.Bit(0) == 0 {
			aa.Rsh(aa, 1)
			r := new(big.Int).And(nn, big.NewInt(7)).Int64()
			if r == 3 || r == 5 {
				j = -j
			}
		}
		aa, nn = nn, aa
		if new(big.Int).And(aa, big2).Sign() != 0 && new(big.Int).And(nn, big2).Sign() != 0 {
			j = -j
		}
		aa.Mod(aa, nn)
	}
	if nn.Cmp(big1) == 0 {
		return j
	}
	return 0
}

// selfridgeParams finds the first D in the sequence 5, -7, 9, -11, ...
// with Jacobi symbol (D/n) == -1, then derives P = 1, Q = (1-D)/4 per
// Selfridge's method. ok is false if n is a perfect square (no such D
// exists within a sane bound).
func selfridgeParams(n *big.Int) (d, p, q *big.Int, ok bool) {
	dVal := int64(5)
	for i := 0; i < 1000; i++ {
		dBig := big.NewInt(dVal)
		g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(dBig), n)
		if g.Cmp(big1) != 0 && g.Cmp(n) != 0 {
			return nil, nil, nil, false
		}
		j := jacobiSymbol(dBig, n)
		if j == -1 {
			d = dBig
			p = big.NewInt(1)
			q = new(big.Int).Div(new(big.Int).Sub(big1, d), big.NewInt(4))
			return d, p, q, true
		}
		if dVal > 0 {
			dVal = -(dVal + 2)
		} else {
			dVal = -dVal + 2
		}
	}
	return nil, nil, nil, false
}

// ProbablyPrimeLucas runs the strong Lucas probable-prime test on odd
// n > 2 using Selfridge's parameter selection.
func ProbablyPrimeLucas(n *big.Int) bool {
	d, p, q, ok := selfridgeParams(n)
	if !ok {
		return false
	}

	nPlus1 := new(big.Int).Add(n, big1)
	s := 0
	dd := new(big.Int).Set(nPlus1)
	for dd.Bit(0) == 0 {
		dd.Rsh(dd, 1)
		s++
	}

	u := big.NewInt(0)
	v := big.NewInt(2)
	qk := big.NewInt(1)

	bitLen := dd.BitLen()
	for i := bitLen - 1; i >= 0; i-- {
		u.Mul(u, v)
		u.Mod(u, n)

		v2 := new(big.Int).Mul(v, v)
		v.Sub(v2, new(big.Int).Mul(big2, qk))
		v.Mod(v, n)

		qk.Mul(qk, qk)
		qk.Mod(qk, n)

		if dd.Bit(i) == 1 {
			u2 := new(big.Int).Add(new(big.Int).Mul(p, u), v)
			v2 := new(big.Int).Add(new(big.Int).Mul(d, u), new(big.Int).Mul(p, v))
			u.Set(u2)
			if u.Bit(0) == 1 {
				u.Add(u, n)
			}
			u.Rsh(u, 1)
			u.Mod(u, n)
			v.Set(v2)
			if v.Bit(0) == 1 {
				v.Add(v, n)
			}
			v.Rsh(v, 1)
			v.Mod(v, n)

			qk.Mul(qk, q)
			qk.Mod(qk, n)
		}
	}

	if u.Sign() == 0 || v.Sign() == 0 {
		return true
	}

	for r := 1; r < s; r++ {
		v2 := new(big.Int).Mul(v, v)
		v.Sub(v2, new(big.Int).Mul(big2, qk))
		v.Mod(v, n)
		if v.Sign() == 0 {
			return true
		}
		qk.Mul(qk, qk)
		qk.Mod(qk, n)
	}
	return false
}

// ProbablyPrime runs the Baillie-PSW composite test on n: trial
// division by small primes, a fixed base-2 Miller-Rabin round, a strong
// Lucas round, then extraRounds further Miller-Rabin rounds with bases
// drawn from rand. extraRounds == 0 gives the plain Baillie-PSW test.
func ProbablyPrime(n *big.Int, extraRounds int, rand io.Reader) (bool, error) {
	if n.Sign() <= 0 {
		return false, nil
	}
	if n.Cmp(big2) == 0 {
		return true, nil
	}
	if n.Bit(0) == 0 {
		return false, nil
	}
	if n.Cmp(big1) == 0 {
		return false, nil
	}

	if divides, isSmall := trialDivide(n); isSmall {
		return true, nil
	} else if divides {
		return false, nil
	}

	if !ProbablyPrimeMillerRabin(n, big2) {
		return false, nil
	}
	if !ProbablyPrimeLucas(n) {
		return false, nil
	}

	nMinus1 := new(big.Int).Sub(n, big1)
	nMinus3 := new(big.Int).Sub(n, big.NewInt(3))
	for i := 0; i < extraRounds; i++ {
		a, err := randomBase(nMinus3, rand)
		if err != nil {
			return false, err
		}
		a.Add(a, big2)
		if a.Cmp(nMinus1) >= 0 {
			a.Set(big2)
		}
		if !ProbablyPrimeMillerRabin(n, a) {
			return false, nil
		}
	}
	return true, nil
}

// randomBase draws a uniform value in [0, max) from src.
func randomBase(max *big.Int, src io.Reader) (*big.Int, error) {
	if max.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	return rand.Int(src, max)
}
