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

// Package acchash turns arbitrary byte strings into accumulator
// elements: a retrying hash-to-prime used internally everywhere, a
// hash-to-group-element reduction used by NI-PoKE2's Fiat-Shamir
// challenge, and a nonce-search variant that lets a prover publish a
// single nonce so a verifier checks primality with one hash instead of
// repeating the prover's search.
package acchash

import (
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/amistech/accum/primality"
	"golang.org/x/crypto/blake2b"
)

// Hash is the injected digest contract: a fixed-size output function.
// acchash.Blake2b512 is the default instance.
type Hash interface {
	Sum(data []byte) []byte
	Size() int
}

// ErrHashTooSmall is returned when the configured Hash can't cover the
// requested candidate bit length.
var ErrHashTooSmall = errors.New("acchash: hash output too small for requested bit length")

// ErrNonceExhausted is returned when no nonce was found within the
// search bound.
var ErrNonceExhausted = errors.New("acchash: exhausted nonce search space")

// maxNonceAttempts bounds both HashToPrime's internal retry loop and
// NonceHashToPrime's search; 2^20 tries is astronomically more than
// needed (a random 256-bit candidate is prime with probability
// ~1/ln(2^256), so a few hundred tries suffice almost always).
const maxNonceAttempts = 1 << 20

// blake2b512 implements Hash over blake2b.Sum512.
type blake2b512 struct{}

// Blake2b512 is the default Hash: a 512-bit digest, covering any
// modulus this module is tested against (>= max(256, bitlen(n))).
var Blake2b512 Hash = blake2b512{}

func (blake2b512) Sum(data []byte) []byte {
	sum := blake2b.Sum512(data)
	return sum[:]
}

func (blake2b512) Size() int { return 64 }

func candidateFromDigest(digest []byte, bits int) *big.Int {
	byteLen := (bits + 7) / 8
	if byteLen > len(digest) {
		byteLen = len(digest)
	}
	n := new(big.Int).SetBytes(digest[:byteLen])

	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	n.And(n, mask)
	if bits > 0 {
		n.SetBit(n, bits-1, 1)
	}
	n.SetBit(n, 0, 1)
	return n
}

func withNonce(data []byte, nonce uint64) []byte {
	buf := make([]byte, len(data)+8)
	copy(buf, data)
	binary.BigEndian.PutUint64(buf[len(data):], nonce)
	return buf
}

// HashToPrime deterministically derives a prime of the given bit length
// from data, by hashing data||nonce for nonce = 0, 1, 2, ... until the
// candidate passes probably_prime. Returns the prime and the nonce that
// produced it (the nonce is not secret; re-deriving with the same data
// always finds the same prime first).
func HashToPrime(h Hash, data []byte, bits int, extraRounds int, rng io.Reader) (*big.Int, uint64, error) {
	if (bits+7)/8 > h.Size() {
		return nil, 0, ErrHashTooSmall
	}
	for nonce := uint64(0); nonce < maxNonceAttempts; nonce++ {
		digest := h.Sum(withNonce(data, nonce))
		candidate := candidateFromDigest(digest, bits)
		ok, err := primality.ProbablyPrime(candidate, extraRounds, rng)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			return candidate, nonce, nil
		}
	}
	return nil, 0, ErrNonceExhausted
}

// HashToGroup reduces data to an element of (Z/nZ), for use as a
// Fiat-Shamir challenge base (NI-PoKE2's g) or any other context that
// needs a pseudorandom group element rather than a prime.
func HashToGroup(h Hash, data []byte, n *big.Int) *big.Int {
	digest := h.Sum(data)
	return new(big.Int).Mod(new(big.Int).SetBytes(digest), n)
}

// NonceHashToPrime is the prover-side half of the nonce-hash protocol:
// it searches for a nonce exactly like HashToPrime, optionally binding
// the accumulator's current root (nil to omit), and returns both the
// prime and the nonce that produced it so the verifier can redo the
// single hash instead of the whole search.
func NonceHashToPrime(h Hash, data []byte, root *big.Int, bits int, extraRounds int, rng io.Reader) (prime *big.Int, nonce uint64, err error) {
	return HashToPrime(h, bindRoot(data, root), bits, extraRounds, rng)
}

// VerifyNonceHash recomputes the digest of data||len(root)||root||nonce
// (data||nonce when root is nil) and checks both
// that it reproduces claimedPrime and that claimedPrime is prime; a
// dishonest prover cannot have found a nonce for a non-prime candidate
// and claimed otherwise, since the verifier redoes the derivation
// itself rather than trusting the prover's search.
func VerifyNonceHash(h Hash, data []byte, root *big.Int, nonce uint64, claimedPrime *big.Int, bits int, extraRounds int, rng io.Reader) (bool, error) {
	digest := h.Sum(withNonce(bindRoot(data, root), nonce))
	candidate := candidateFromDigest(digest, bits)
	if candidate.Cmp(claimedPrime) != 0 {
		return false, nil
	}
	return primality.ProbablyPrime(claimedPrime, extraRounds, rng)
}

func bindRoot(data []byte, root *big.Int) []byte {
	if root == nil {
		return data
	}
	rootBytes := root.Bytes()
	buf := make([]byte, 0, len(data)+4+len(rootBytes))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(rootBytes)))
	buf = append(buf, data...)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, rootBytes...)
	return buf
}
