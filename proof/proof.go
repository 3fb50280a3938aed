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

// Package proof implements the two non-interactive proofs the
// accumulator relies on: NI-PoE (proof of exponentiation, used by batch
// addition and deletion, witness aggregation and the membership star
// bundle) and NI-PoKE2 (proof of knowledge of exponent, used where the
// exponent itself must stay hidden, i.e. the non-membership star
// bundle). Both are generic over group.Backend so they work unmodified
// against the RSA and class-group setups.
package proof

import (
	"io"
	"math/big"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/bigint"
	"github.com/amistech/accum/group"
)

// Debug gates the prove-side precondition checks (u^x == w) that the
// original carried as debug_assert!; left off by default so release
// builds don't redo the exponentiation they're about to prove.
var Debug = false

// PoE is a proof that u^x = w for a publicly known x.
type PoE struct {
	Q *big.Int
}

// PoKE2 is a proof of knowledge of x such that u^x = w, without
// revealing x.
type PoKE2 struct {
	Z *big.Int
	Q *big.Int
	R *big.Int // signed
}

func transcript(parts ...*big.Int) []byte {
	var buf []byte
	for _, p := range parts {
		buf = append(buf, bigint.EncodeUnsigned(p)...)
	}
	return buf
}

// ProvePoE builds a proof that u^x = w mod the backend's group law,
// given the prover already knows x. bits/extraRounds/rng parameterize
// the Fiat-Shamir challenge prime derivation (acchash.HashToPrime).
func ProvePoE(backend group.Backend, h acchash.Hash, x, u, w *big.Int, bits, extraRounds int, rng io.Reader) (*PoE, error) {
	if Debug {
		got, err := backend.ExpInt(u, x)
		if err != nil {
			return nil, err
		}
		if !backend.Equal(got, w) {
			panic("proof: ProvePoE precondition violated: u^x != w")
		}
	}

	l, _, err := acchash.HashToPrime(h, transcript(x, u, w), bits, extraRounds, rng)
	if err != nil {
		return nil, err
	}

	q := new(big.Int).Div(x, l)
	return &PoE{Q: backend.ExpUint(u, q)}, nil
}

// VerifyPoE checks a PoE proof that u^x = w.
func VerifyPoE(backend group.Backend, h acchash.Hash, x, u, w *big.Int, pi *PoE, bits, extraRounds int, rng io.Reader) (bool, error) {
	l, _, err := acchash.HashToPrime(h, transcript(x, u, w), bits, extraRounds, rng)
	if err != nil {
		return false, err
	}

	r := new(big.Int).Mod(x, l)
	lhs := backend.Mul(backend.ExpUint(pi.Q, l), backend.ExpUint(u, r))
	return backend.Equal(lhs, w), nil
}

// ProvePoKE2 builds a proof of knowledge of the signed exponent x with
// u^x = w, without revealing x. The Fiat-Shamir challenge element g is
// derived via backend.HashToElement rather than from any known
// generator, since a g with a known discrete log relation would leak
// knowledge-soundness (the entire reason PoKE2 hashes into the group
// instead of raising a generator to a hashed exponent).
func ProvePoKE2(backend group.Backend, h acchash.Hash, x, u, w *big.Int, bits, extraRounds int, rng io.Reader) (*PoKE2, error) {
	if Debug {
		got, err := backend.ExpInt(u, x)
		if err != nil {
			return nil, err
		}
		if !backend.Equal(got, w) {
			panic("proof: ProvePoKE2 precondition violated: u^x != w")
		}
	}

	g, err := backend.HashToElement(h, transcript(u, w), extraRounds, rng)
	if err != nil {
		return nil, err
	}

	z, err := backend.ExpInt(g, x)
	if err != nil {
		return nil, err
	}

	l, _, err := acchash.HashToPrime(h, transcript(u, w, z), bits, extraRounds, rng)
	if err != nil {
		return nil, err
	}

	alphaDigest := h.Sum(transcript(u, w, z, l))
	alpha := new(big.Int).SetBytes(alphaDigest)

	q := new(big.Int).Div(x, l)
	r := new(big.Int).Mod(x, l)
	// Go's Div/Mod are Euclidean (r always >= 0), matching the
	// original's BigInt div_rem on a BigUint-derived l > 0.

	base := backend.Mul(u, backend.ExpUint(g, alpha))
	qElem, err := backend.ExpInt(base, q)
	if err != nil {
		return nil, err
	}

	return &PoKE2{Z: z, Q: qElem, R: r}, nil
}

// VerifyPoKE2 checks a PoKE2 proof.
func VerifyPoKE2(backend group.Backend, h acchash.Hash, u, w *big.Int, pi *PoKE2, bits, extraRounds int, rng io.Reader) (bool, error) {
	g, err := backend.HashToElement(h, transcript(u, w), extraRounds, rng)
	if err != nil {
		return false, err
	}

	l, _, err := acchash.HashToPrime(h, transcript(u, w, pi.Z), bits, extraRounds, rng)
	if err != nil {
		return false, err
	}

	alphaDigest := h.Sum(transcript(u, w, pi.Z, l))
	alpha := new(big.Int).SetBytes(alphaDigest)

	base := backend.Mul(u, backend.ExpUint(g, alpha))
	rTerm, err := backend.ExpInt(base, pi.R)
	if err != nil {
		return false, err
	}
	lhs := backend.Mul(backend.ExpUint(pi.Q, l), rTerm)

	zAlpha := backend.ExpUint(pi.Z, alpha)
	rhs := backend.Mul(w, zAlpha)

	return backend.Equal(lhs, rhs), nil
}
