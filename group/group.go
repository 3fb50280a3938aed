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

// Package group abstracts over the two "group of unknown order"
// backends this module supports: an RSA modulus group (trusted setup,
// discarded trapdoor) and an imaginary-quadratic class group (no
// trusted setup). Every element, regardless of backend, is exposed to
// callers as a plain *big.Int so the accumulator and vector-commitment
// packages stay backend-agnostic.
package group

import (
	"errors"
	"io"
	"math/big"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
)

// ErrBackendMismatch names a mismatch between Params from different
// setups (or different backends). No function in this module returns it.
var ErrBackendMismatch = errors.New("group: params belong to different setups")

// Backend is the capability set every group of unknown order must
// provide. All methods are pure: they return fresh *big.Int values and
// never mutate their arguments.
type Backend interface {
	// Mul returns x*y in the group.
	Mul(x, y *big.Int) *big.Int
	// Square returns x*x in the group.
	Square(x *big.Int) *big.Int
	// ExpUint returns x^e in the group for e >= 0.
	ExpUint(x, e *big.Int) *big.Int
	// ExpInt returns x^e in the group for a signed e, inverting x first
	// when e < 0. Fails only if x has no inverse (RSA backend only; the
	// class group backend never fails since every element is
	// invertible).
	ExpInt(x, e *big.Int) (*big.Int, error)
	// Equal reports whether x and y name the same group element.
	Equal(x, y *big.Int) bool
	// Identity returns the group identity element.
	Identity() *big.Int
	// BitLen reports the bit length of the group's defining modulus or
	// discriminant.
	BitLen() int
	// HashToElement derives a pseudorandom element of the group from
	// data, suitable as a Fiat-Shamir challenge base (NI-PoKE2's g):
	// its discrete log to any fixed generator must stay unknown to the
	// prover. extraRounds/rng size and seed whatever internal primality
	// search the backend needs to land inside the group.
	HashToElement(h acchash.Hash, data []byte, extraRounds int, rng io.Reader) (*big.Int, error)
}

// Params bundles an immutable group setup: its generator and the
// concrete Backend implementing arithmetic over it. Kind records which
// backend produced it, mostly for logging/diagnostics.
type Params struct {
	Kind    accconfig.Backend
	Backend Backend
	G       *big.Int
}

// Identity returns the accumulator's starting value, A0 = G.
func (p *Params) Identity() *big.Int {
	return new(big.Int).Set(p.G)
}
