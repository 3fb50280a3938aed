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

// Package binary implements the bit-indexed vector commitment: logical
// index i is "set" iff the prime p(i) = hash-to-prime(be64(i)) has been
// added to an underlying accumulator. Position proofs are ordinary
// accumulator membership/non-membership witnesses; BatchOpen/BatchVerify
// aggregate many positions into the accumulator's star-style bundles.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accumulator"
	"github.com/amistech/accum/acclog"
	"github.com/amistech/accum/group"
	"github.com/amistech/accum/proof"
)

// ErrLengthMismatch is returned when a bits slice and an indices slice
// supplied together to BatchOpen/BatchVerify disagree in length.
var ErrLengthMismatch = errors.New("binary: indices and bits must have equal length")

// VC is a bit-indexed vector commitment layered over acc: Pos is the
// first never-yet-committed index.
type VC struct {
	Acc         *accumulator.Accumulator
	Pos         uint64
	ElementBits int
	ExtraRounds int
}

// New wraps an already set-up accumulator as an empty binary vector
// commitment. elementBits/extraRounds parameterize the hash-to-prime
// search used to derive p(i).
func New(acc *accumulator.Accumulator, elementBits, extraRounds int) *VC {
	return &VC{Acc: acc, ElementBits: elementBits, ExtraRounds: extraRounds}
}

// PrimeAt derives the fixed bit-to-prime mapping p(i) = hash-to-prime(be64(i)).
func PrimeAt(h acchash.Hash, i uint64, bits, extraRounds int, rng io.Reader) (*big.Int, error) {
	p, _, err := acchash.HashToPrime(h, be64(i), bits, extraRounds, rng)
	return p, err
}

func be64(i uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	return buf[:]
}

func (v *VC) primeAt(i uint64, rng io.Reader) (*big.Int, error) {
	return PrimeAt(v.Acc.Hash, i, v.ElementBits, v.ExtraRounds, rng)
}

// Commit adds p(pos+j) to the accumulator for every set bit in bits,
// then advances Pos by len(bits) regardless of how many bits were set.
func (v *VC) Commit(bits []bool, rng io.Reader) error {
	for j, b := range bits {
		if !b {
			continue
		}
		p, err := v.primeAt(v.Pos+uint64(j), rng)
		if err != nil {
			return err
		}
		v.Acc.Add(p)
	}
	v.Pos += uint64(len(bits))
	acclog.Logger().Debug("binary vc commit", "new_bits", len(bits), "pos", v.Pos)
	return nil
}

// Proof is a position proof for a single index: a membership witness
// when the bit is set, a non-membership witness otherwise.
type Proof struct {
	Bit    bool
	Mem    *big.Int
	NonMem *accumulator.NonMembershipWitness
}

// Open returns a position proof for index i given its claimed bit value.
func (v *VC) Open(bit bool, i uint64, rng io.Reader) (*Proof, error) {
	p, err := v.primeAt(i, rng)
	if err != nil {
		return nil, err
	}
	if bit {
		w, err := v.Acc.MemWitCreate(p)
		if err != nil {
			return nil, err
		}
		return &Proof{Bit: true, Mem: w}, nil
	}
	w, err := v.Acc.NonMemWitCreate(p)
	if err != nil {
		return nil, err
	}
	return &Proof{Bit: false, NonMem: w}, nil
}

// Verify checks a position proof against the current accumulator state.
func (v *VC) Verify(pf *Proof, i uint64, rng io.Reader) (bool, error) {
	p, err := v.primeAt(i, rng)
	if err != nil {
		return false, err
	}
	if pf.Bit {
		return v.Acc.VerMem(pf.Mem, p), nil
	}
	return v.Acc.VerNonMem(pf.NonMem, p)
}

// Update transitions position i from oldBit to newBit: 0->1 adds p(i),
// 1->0 deletes it via a freshly computed membership witness, and an
// unchanged bit is a no-op.
func (v *VC) Update(oldBit, newBit bool, i uint64, rng io.Reader) error {
	if oldBit == newBit {
		return nil
	}
	p, err := v.primeAt(i, rng)
	if err != nil {
		return err
	}
	if newBit {
		v.Acc.Add(p)
		return nil
	}
	w, err := v.Acc.MemWitCreate(p)
	if err != nil {
		return err
	}
	return v.Acc.DelWMem(w, p)
}

// BatchProof bundles the two star-style aggregate proofs produced by
// BatchOpen: one for the positions claimed set, one for the positions
// claimed clear. Either half is nil if no index of that bit value was
// requested.
type BatchProof struct {
	OneWitness *big.Int
	OneProof   *big.Int
	ZeroStar   *accumulator.NonMembershipStarProof
}

// BatchOpen splits indices by their claimed bit value, forms the
// product of each group's primes, and bundles one aggregated
// membership-star proof for the set positions and one aggregated
// non-membership-star proof for the clear positions.
func (v *VC) BatchOpen(indices []uint64, bits []bool, rng io.Reader) (*BatchProof, error) {
	if len(indices) != len(bits) {
		return nil, ErrLengthMismatch
	}

	var onePrimes, oneWits []*big.Int
	var zeroPrimes []*big.Int

	for k, i := range indices {
		p, err := v.primeAt(i, rng)
		if err != nil {
			return nil, err
		}
		if bits[k] {
			w, err := v.Acc.MemWitCreate(p)
			if err != nil {
				return nil, err
			}
			onePrimes = append(onePrimes, p)
			oneWits = append(oneWits, w)
		} else {
			zeroPrimes = append(zeroPrimes, p)
		}
	}

	out := &BatchProof{}

	if len(onePrimes) > 0 {
		aggW, aggX, err := aggregateMemberWitnesses(v.Acc.Params.Backend, oneWits, onePrimes)
		if err != nil {
			return nil, err
		}
		pi, err := proof.ProvePoE(v.Acc.Params.Backend, v.Acc.Hash, aggX, aggW, v.Acc.A, v.Acc.ChallengeBits, v.Acc.ExtraRounds, rng)
		if err != nil {
			return nil, err
		}
		out.OneWitness = aggW
		out.OneProof = pi.Q
	}

	if len(zeroPrimes) > 0 {
		zeroProduct := big.NewInt(1)
		for _, p := range zeroPrimes {
			zeroProduct.Mul(zeroProduct, p)
		}
		star, err := v.Acc.NonMemWitCreateStar(zeroProduct, rng)
		if err != nil {
			return nil, err
		}
		out.ZeroStar = star
	}

	return out, nil
}

// BatchVerify checks a BatchProof against the claimed bit values for
// the same indices originally passed to BatchOpen.
func (v *VC) BatchVerify(indices []uint64, bits []bool, bp *BatchProof, rng io.Reader) (bool, error) {
	if len(indices) != len(bits) {
		return false, ErrLengthMismatch
	}

	var onePrimes, zeroPrimes []*big.Int
	for k, i := range indices {
		p, err := v.primeAt(i, rng)
		if err != nil {
			return false, err
		}
		if bits[k] {
			onePrimes = append(onePrimes, p)
		} else {
			zeroPrimes = append(zeroPrimes, p)
		}
	}

	if len(onePrimes) > 0 {
		if bp.OneWitness == nil || bp.OneProof == nil {
			return false, nil
		}
		oneProduct := big.NewInt(1)
		for _, p := range onePrimes {
			oneProduct.Mul(oneProduct, p)
		}
		ok, err := proof.VerifyPoE(v.Acc.Params.Backend, v.Acc.Hash, oneProduct, bp.OneWitness, v.Acc.A, &proof.PoE{Q: bp.OneProof}, v.Acc.ChallengeBits, v.Acc.ExtraRounds, rng)
		if err != nil || !ok {
			return false, err
		}
	}

	if len(zeroPrimes) > 0 {
		if bp.ZeroStar == nil {
			return false, nil
		}
		zeroProduct := big.NewInt(1)
		for _, p := range zeroPrimes {
			zeroProduct.Mul(zeroProduct, p)
		}
		ok, err := v.Acc.VerNonMemStar(zeroProduct, bp.ZeroStar, rng)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// aggregateMemberWitnesses folds pairwise Shamir-trick combination over
// a list of membership witnesses for pairwise-coprime elements (always
// true here: distinct bit-to-prime outputs), returning the single
// witness for their product together with that product.
func aggregateMemberWitnesses(backend group.Backend, witnesses, elems []*big.Int) (aggW, aggX *big.Int, err error) {
	aggW = witnesses[0]
	aggX = new(big.Int).Set(elems[0])
	for i := 1; i < len(witnesses); i++ {
		aggW, err = accumulator.ShamirTrick(backend, aggW, witnesses[i], aggX, elems[i])
		if err != nil {
			return nil, nil, err
		}
		aggX.Mul(aggX, elems[i])
	}
	return aggW, aggX, nil
}
