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

// Package primesample draws uniformly random primes of a chosen bit
// length, for use by the group package's RSA and class-group setup
// routines. The caller's io.Reader is threaded all the way down to
// math/big, so tests can substitute a seeded deterministic source.
package primesample

import (
	"errors"
	"io"
	"math/big"

	"github.com/amistech/accum/primality"
)

// ErrInvalidBitLength is returned when bits is too small to hold an odd
// number with the top bit set.
var ErrInvalidBitLength = errors.New("primesample: bits must be >= 2")

// GenPrime draws a uniformly random odd number of the given bit length
// (top two bits forced to 1) and retries until probably_prime with the
// given number of extra Miller-Rabin rounds accepts it.
func GenPrime(bits int, extraRounds int, rand io.Reader) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrInvalidBitLength
	}

	for {
		n, err := randomOddCandidate(bits, rand)
		if err != nil {
			return nil, err
		}
		ok, err := primality.ProbablyPrime(n, extraRounds, rand)
		if err != nil {
			return nil, err
		}
		if ok {
			return n, nil
		}
	}
}

// GenSafePrime draws a prime p of the given bit length such that
// (p-1)/2 is also prime, by the direct generate-and-test method: sample
// a candidate q, form p = 2q+1, accept if both are probably prime. This
// trades the combined-sieve speedup for a simpler, easily audited loop.
func GenSafePrime(bits int, extraRounds int, rand io.Reader) (p, q *big.Int, err error) {
	if bits < 3 {
		return nil, nil, ErrInvalidBitLength
	}

	for {
		q, err = randomOddCandidate(bits-1, rand)
		if err != nil {
			return nil, nil, err
		}
		okQ, err := primality.ProbablyPrime(q, extraRounds, rand)
		if err != nil {
			return nil, nil, err
		}
		if !okQ {
			continue
		}

		p = new(big.Int).Lsh(q, 1)
		p.Add(p, big.NewInt(1))
		if p.BitLen() != bits {
			continue
		}
		okP, err := primality.ProbablyPrime(p, extraRounds, rand)
		if err != nil {
			return nil, nil, err
		}
		if okP {
			return p, q, nil
		}
	}
}

// randomOddCandidate draws a uniform random integer of exactly the
// given bit length with the top two bits and the bottom bit set. Two
// top bits guarantee that the product of any two such candidates has
// the full 2*bits length, which RSA modulus setup relies on.
func randomOddCandidate(bits int, rand io.Reader) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrInvalidBitLength
	}

	byteLen := (bits + 7) / 8
	buf := make([]byte, byteLen)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(buf)

	// Clear any bits above the requested length introduced by the
	// byte-aligned buffer, then force bit length and oddness.
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	n.And(n, mask)
	n.SetBit(n, bits-1, 1)
	n.SetBit(n, bits-2, 1)
	n.SetBit(n, 0, 1)

	return n, nil
}
