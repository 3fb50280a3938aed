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

package accumulator

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

func TestAccumulator(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Accumulator Test")
}

// samplePrimes wraps the given small, distinct odd primes as *big.Int
// values, large enough to exercise the accumulator arithmetic without paying
// for full 256-bit sampling in every spec.
func samplePrimes(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func newTestAccumulator() *Accumulator {
	acc, err := Setup(accconfig.RSA, 96, acchash.Blake2b512, 48, 5, rand.Reader)
	gomega.Expect(err).Should(gomega.BeNil())
	return acc
}

var _ = ginkgo.Describe("Accumulator membership", func() {
	ginkgo.It("verifies a membership witness after Add", func() {
		acc := newTestAccumulator()
		x := samplePrimes(104729)[0]
		acc.Add(x)

		w, err := acc.MemWitCreate(x)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(acc.VerMem(w, x)).Should(gomega.BeTrue())
	})

	ginkgo.It("computes A = g^x after a single Add", func() {
		acc := newTestAccumulator()
		x := samplePrimes(104729)[0]
		expected := acc.Params.Backend.ExpUint(acc.Params.G, x)
		acc.Add(x)
		gomega.Expect(acc.Params.Backend.Equal(acc.A, expected)).Should(gomega.BeTrue())
	})

	ginkgo.It("fails MemWitCreate for a non-member", func() {
		acc := newTestAccumulator()
		_, err := acc.MemWitCreate(big.NewInt(104729))
		gomega.Expect(err).Should(gomega.Equal(ErrNotMember))
	})

	ginkgo.It("verifies non-membership for an element never added", func() {
		acc := newTestAccumulator()
		x, y := samplePrimes(104729, 104717)[0], samplePrimes(104729, 104717)[1]
		acc.Add(x)

		w, err := acc.NonMemWitCreate(y)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerNonMem(w, y)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})

	ginkgo.It("rejects NonMemWitCreate for an actual member", func() {
		acc := newTestAccumulator()
		x := samplePrimes(104729)[0]
		acc.Add(x)
		_, err := acc.NonMemWitCreate(x)
		gomega.Expect(err).Should(gomega.Equal(ErrIsMember))
	})

	ginkgo.It("Add then Del returns to the A from before the Add", func() {
		acc := newTestAccumulator()
		x, y := samplePrimes(104729, 104717)[0], samplePrimes(104729, 104717)[1]
		acc.Add(x)
		beforeY := new(big.Int).Set(acc.A)
		acc.Add(y)

		gomega.Expect(acc.Del(y)).Should(gomega.BeNil())
		gomega.Expect(acc.Params.Backend.Equal(acc.A, beforeY)).Should(gomega.BeTrue())
	})

	ginkgo.It("DelWMem removes a member given its witness", func() {
		acc := newTestAccumulator()
		x, y := samplePrimes(104729, 104717)[0], samplePrimes(104729, 104717)[1]
		acc.Add(x)
		acc.Add(y)

		w, err := acc.MemWitCreate(y)
		gomega.Expect(err).Should(gomega.BeNil())

		gomega.Expect(acc.DelWMem(w, y)).Should(gomega.BeNil())
		gomega.Expect(acc.Params.Backend.Equal(acc.A, w)).Should(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("Batch operations", func() {
	ginkgo.It("verifies a BatchAdd proof", func() {
		acc := newTestAccumulator()
		xs := samplePrimes(104729, 104717, 104723)
		aBefore := new(big.Int).Set(acc.A)

		q, err := acc.BatchAdd(xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerBatchAdd(q, aBefore, xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})

	ginkgo.It("treats an empty batch as a no-op with Q = identity", func() {
		acc := newTestAccumulator()
		aBefore := new(big.Int).Set(acc.A)

		q, err := acc.BatchAdd(nil, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(acc.Params.Backend.Equal(acc.A, aBefore)).Should(gomega.BeTrue())
		gomega.Expect(acc.Params.Backend.Equal(q, acc.Params.Backend.Identity())).Should(gomega.BeTrue())
	})

	ginkgo.It("verifies a BatchDel proof built from membership witnesses", func() {
		acc := newTestAccumulator()
		xs := samplePrimes(104729, 104717, 104723)
		_, err := acc.BatchAdd(xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		aBefore := new(big.Int).Set(acc.A)

		pairs := make([]WitMemberPair, len(xs))
		for i, x := range xs {
			w, err := acc.MemWitCreate(x)
			gomega.Expect(err).Should(gomega.BeNil())
			pairs[i] = WitMemberPair{W: w, X: x}
		}

		q, err := acc.BatchDel(pairs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerBatchDel(q, aBefore, xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("Witness aggregation and star proofs", func() {
	ginkgo.It("aggregates two membership witnesses via the Shamir trick", func() {
		acc := newTestAccumulator()
		xs := samplePrimes(104729, 104717, 104723)
		_, err := acc.BatchAdd(xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		wx, err := acc.MemWitCreate(xs[0])
		gomega.Expect(err).Should(gomega.BeNil())
		wy, err := acc.MemWitCreate(xs[1])
		gomega.Expect(err).Should(gomega.BeNil())

		wxy, q, err := acc.AggMemWit(wx, wy, xs[0], xs[1], rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerAggMemWit(wxy, q, xs[0], xs[1], rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})

	ginkgo.It("verifies a MemWitCreateStar bundle", func() {
		acc := newTestAccumulator()
		x := samplePrimes(104729)[0]
		acc.Add(x)

		w, q, err := acc.MemWitCreateStar(x, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerMemStar(x, w, q, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})

	ginkgo.It("verifies a NonMemWitCreateStar bundle", func() {
		acc := newTestAccumulator()
		x, y := samplePrimes(104729, 104717)[0], samplePrimes(104729, 104717)[1]
		acc.Add(x)

		star, err := acc.NonMemWitCreateStar(y, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := acc.VerNonMemStar(y, star, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("ShamirTrick", func() {
	ginkgo.It("combines an x-th and y-th root of a common element into an xy-th root", func() {
		acc := newTestAccumulator()
		x, y, z := big.NewInt(104729), big.NewInt(104717), big.NewInt(104723)

		xyz := new(big.Int).Mul(new(big.Int).Mul(x, y), z)
		base := acc.Params.Backend.ExpUint(acc.Params.G, xyz)

		yz := new(big.Int).Mul(y, z)
		xz := new(big.Int).Mul(x, z)
		rx := acc.Params.Backend.ExpUint(acc.Params.G, yz)
		ry := acc.Params.Backend.ExpUint(acc.Params.G, xz)

		rxy, err := ShamirTrick(acc.Params.Backend, rx, ry, x, y)
		gomega.Expect(err).Should(gomega.BeNil())

		xy := new(big.Int).Mul(x, y)
		got := acc.Params.Backend.ExpUint(rxy, xy)
		gomega.Expect(acc.Params.Backend.Equal(got, base)).Should(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("RootFactor", func() {
	ginkgo.It("returns a root_i with root_i^x_i = g^(prod xs) for every i", func() {
		acc := newTestAccumulator()
		xs := samplePrimes(104729, 104717, 104723, 104681)
		prod := big.NewInt(1)
		for _, x := range xs {
			prod.Mul(prod, x)
		}
		base := acc.Params.Backend.ExpUint(acc.Params.G, prod)

		roots, err := RootFactor(acc.Params.Backend, acc.Params.G, xs)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(len(roots)).Should(gomega.Equal(len(xs)))

		for i, r := range roots {
			got := acc.Params.Backend.ExpUint(r, xs[i])
			gomega.Expect(acc.Params.Backend.Equal(got, base)).Should(gomega.BeTrue())
		}
	})

	ginkgo.It("CreateAllMemWit agrees with individually-computed witnesses", func() {
		acc := newTestAccumulator()
		xs := samplePrimes(104729, 104717, 104723)
		_, err := acc.BatchAdd(xs, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		wits, err := acc.CreateAllMemWit(xs)
		gomega.Expect(err).Should(gomega.BeNil())

		for i, x := range xs {
			gomega.Expect(acc.VerMem(wits[i], x)).Should(gomega.BeTrue())
		}
	})
})
