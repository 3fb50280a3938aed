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

// Package general implements the byte-string vector commitment: each
// logical index i is hashed to a lambda-bit string and committed at
// offset i*lambda of an underlying binary vector commitment. Open and
// Verify are thin positional adapters over binary.VC's batch
// operations across the lambda contiguous bit positions that back one
// logical element; Update calls binary.VC's single-position Update for
// each of those bits that changes.
package general

import (
	"errors"
	"io"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/vc/binary"
)

// ErrNotAligned is returned when the underlying binary VC's committed
// length is not a whole multiple of Lambda, which would mean a prior
// Commit call bypassed this package.
var ErrNotAligned = errors.New("general: underlying binary vc is not lambda-aligned")

// VC commits an indexed sequence of byte strings on top of bin, each
// occupying Lambda consecutive bit positions.
type VC struct {
	Bin    *binary.VC
	Lambda int
	Hash   acchash.Hash
}

// New wraps an empty (or already lambda-aligned) binary.VC.
func New(bin *binary.VC, lambda int, h acchash.Hash) (*VC, error) {
	if bin.Pos%uint64(lambda) != 0 {
		return nil, ErrNotAligned
	}
	return &VC{Bin: bin, Lambda: lambda, Hash: h}, nil
}

// hashToBits expands value into exactly lambda bits via H, most
// significant bit first, per the general VC's hash-to-bitstring layering.
func hashToBits(h acchash.Hash, value []byte, lambda int) []bool {
	digest := h.Sum(value)
	bits := make([]bool, lambda)
	for i := 0; i < lambda; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		if byteIdx >= len(digest) {
			break
		}
		bits[i] = (digest[byteIdx]>>uint(bitIdx))&1 == 1
	}
	return bits
}

func (v *VC) indicesFor(i uint64) []uint64 {
	base := i * uint64(v.Lambda)
	idx := make([]uint64, v.Lambda)
	for k := range idx {
		idx[k] = base + uint64(k)
	}
	return idx
}

// Commit expands every value to Lambda bits and appends them to the
// underlying binary VC, one logical index per value, in order.
func (v *VC) Commit(values [][]byte, rng io.Reader) error {
	for _, val := range values {
		bits := hashToBits(v.Hash, val, v.Lambda)
		if err := v.Bin.Commit(bits, rng); err != nil {
			return err
		}
	}
	return nil
}

// Open returns a batch position proof for logical index i's claimed
// value, covering all Lambda of its backing bit positions at once.
func (v *VC) Open(value []byte, i uint64, rng io.Reader) (*binary.BatchProof, error) {
	bits := hashToBits(v.Hash, value, v.Lambda)
	return v.Bin.BatchOpen(v.indicesFor(i), bits, rng)
}

// Verify checks a batch position proof for logical index i's claimed
// value.
func (v *VC) Verify(value []byte, i uint64, bp *binary.BatchProof, rng io.Reader) (bool, error) {
	bits := hashToBits(v.Hash, value, v.Lambda)
	return v.Bin.BatchVerify(v.indicesFor(i), bits, bp, rng)
}

// Update transitions logical index i from oldValue to newValue,
// touching only the bit positions that actually change between the
// two values' hash expansions.
func (v *VC) Update(oldValue, newValue []byte, i uint64, rng io.Reader) error {
	oldBits := hashToBits(v.Hash, oldValue, v.Lambda)
	newBits := hashToBits(v.Hash, newValue, v.Lambda)
	base := i * uint64(v.Lambda)
	for k := 0; k < v.Lambda; k++ {
		if oldBits[k] == newBits[k] {
			continue
		}
		if err := v.Bin.Update(oldBits[k], newBits[k], base+uint64(k), rng); err != nil {
			return err
		}
	}
	return nil
}
