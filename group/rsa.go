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

package group

import (
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
	"github.com/amistech/accum/acclog"
	"github.com/amistech/accum/bigint"
	"github.com/amistech/accum/primesample"
)

// RSABackend implements Backend over (Z/nZ)*, n = pq for two safe
// primes of equal bit length. The factorization is a trusted-setup
// trapdoor: SetupRSA discards it before returning.
type RSABackend struct {
	N *big.Int
}

// maxGenRetries bounds the number of candidate generators tried before
// SetupRSA gives up; a random quadratic residue mod n is essentially
// always a valid generator of unknown order, so one retry in practice
// never happens.
const maxGenRetries = 64

// SetupRSA runs the trusted setup: sample two safe primes of bits/2
// each, form n = pq, and pick a generator as a random element's square
// in (Z/nZ)*, which lands in the quadratic-residue subgroup and avoids
// the order-2 element -1. The factorization (p, q) is explicitly zeroed
// before returning, per the no-trapdoor-retention requirement.
func SetupRSA(bits int, extraRounds int, rand io.Reader) (*Params, error) {
	if bits < 16 {
		return nil, fmt.Errorf("group: rsa modulus bit length too small: %d", bits)
	}

	half := bits / 2
	p, _, err := primesample.GenSafePrime(half, extraRounds, rand)
	if err != nil {
		return nil, fmt.Errorf("group: generating first safe prime: %w", err)
	}
	q, _, err := primesample.GenSafePrime(bits-half, extraRounds, rand)
	if err != nil {
		return nil, fmt.Errorf("group: generating second safe prime: %w", err)
	}

	n := new(big.Int).Mul(p, q)

	// Trapdoor discard: this is a trusted setup whose secret factors
	// must not outlive this function.
	p.SetInt64(0)
	q.SetInt64(0)

	backend := &RSABackend{N: n}

	var g *big.Int
	for i := 0; i < maxGenRetries; i++ {
		r, err := cryptorand.Int(rand, n)
		if err != nil {
			return nil, fmt.Errorf("group: sampling rsa generator: %w", err)
		}
		if r.Sign() == 0 {
			continue
		}
		g = backend.Square(r)
		if g.Sign() != 0 {
			break
		}
	}
	if g == nil || g.Sign() == 0 {
		return nil, fmt.Errorf("group: failed to sample a nonzero rsa generator")
	}

	acclog.Logger().Debug("rsa group setup complete", "bits", n.BitLen())

	return &Params{
		Kind:    accconfig.RSA,
		Backend: backend,
		G:       g,
	}, nil
}

func (b *RSABackend) Mul(x, y *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Mul(x, y), b.N)
}

func (b *RSABackend) Square(x *big.Int) *big.Int {
	return new(big.Int).Exp(x, big.NewInt(2), b.N)
}

func (b *RSABackend) ExpUint(x, e *big.Int) *big.Int {
	return new(big.Int).Exp(x, e, b.N)
}

func (b *RSABackend) ExpInt(x, e *big.Int) (*big.Int, error) {
	return bigint.ModPowSigned(x, e, b.N)
}

func (b *RSABackend) Equal(x, y *big.Int) bool {
	xm := new(big.Int).Mod(x, b.N)
	ym := new(big.Int).Mod(y, b.N)
	return xm.Cmp(ym) == 0
}

func (b *RSABackend) Identity() *big.Int {
	return big.NewInt(1)
}

func (b *RSABackend) BitLen() int {
	return b.N.BitLen()
}

// HashToElement reduces data into (Z/NZ) directly, per acchash.HashToGroup;
// no retry loop is needed since every residue mod N is a valid group
// element.
func (b *RSABackend) HashToElement(h acchash.Hash, data []byte, extraRounds int, rng io.Reader) (*big.Int, error) {
	return acchash.HashToGroup(h, data, b.N), nil
}
