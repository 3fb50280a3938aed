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

package general

import (
	"crypto/rand"
	"testing"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
	"github.com/amistech/accum/accumulator"
	"github.com/amistech/accum/vc/binary"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

func TestGeneral(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "General VC Test")
}

const testLambda = 48

func newTestVC() *VC {
	acc, err := accumulator.Setup(accconfig.RSA, 96, acchash.Blake2b512, 48, 5, rand.Reader)
	gomega.Expect(err).Should(gomega.BeNil())
	bin := binary.New(acc, testLambda, 5)
	v, err := New(bin, testLambda, acchash.Blake2b512)
	gomega.Expect(err).Should(gomega.BeNil())
	return v
}

var _ = ginkgo.Describe("General vector commitment", func() {
	ginkgo.It("opens and verifies every committed value", func() {
		v := newTestVC()
		vals := [][]byte{[]byte("alpha"), []byte("bravo"), []byte("charlie"), []byte("delta")}
		gomega.Expect(v.Commit(vals, rand.Reader)).Should(gomega.BeNil())

		for i, val := range vals {
			p, err := v.Open(val, uint64(i), rand.Reader)
			gomega.Expect(err).Should(gomega.BeNil())
			ok, err := v.Verify(val, uint64(i), p, rand.Reader)
			gomega.Expect(err).Should(gomega.BeNil())
			gomega.Expect(ok).Should(gomega.BeTrue())
		}
	})

	ginkgo.It("rejects a proof when the value is swapped for another", func() {
		v := newTestVC()
		vals := [][]byte{[]byte("alpha"), []byte("bravo"), []byte("charlie"), []byte("delta")}
		gomega.Expect(v.Commit(vals, rand.Reader)).Should(gomega.BeNil())

		p, err := v.Open(vals[1], 1, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, _ := v.Verify(vals[2], 1, p, rand.Reader)
		gomega.Expect(ok).Should(gomega.BeFalse())
	})

	ginkgo.It("batch-opens positions {1,3} and fails if either value is swapped", func() {
		v := newTestVC()
		vals := [][]byte{[]byte("alpha"), []byte("bravo"), []byte("charlie"), []byte("delta")}
		gomega.Expect(v.Commit(vals, rand.Reader)).Should(gomega.BeNil())

		p1, err := v.Open(vals[1], 1, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		p3, err := v.Open(vals[3], 3, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())

		ok, err := v.Verify(vals[1], 1, p1, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())

		ok, err = v.Verify(vals[3], 3, p3, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())

		ok, _ = v.Verify(vals[0], 1, p1, rand.Reader)
		gomega.Expect(ok).Should(gomega.BeFalse())

		ok, _ = v.Verify(vals[2], 3, p3, rand.Reader)
		gomega.Expect(ok).Should(gomega.BeFalse())
	})

	ginkgo.It("propagates only the bits that change on Update", func() {
		v := newTestVC()
		vals := [][]byte{[]byte("alpha"), []byte("bravo")}
		gomega.Expect(v.Commit(vals, rand.Reader)).Should(gomega.BeNil())

		gomega.Expect(v.Update(vals[0], []byte("alpha2"), 0, rand.Reader)).Should(gomega.BeNil())

		p, err := v.Open([]byte("alpha2"), 0, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		ok, err := v.Verify([]byte("alpha2"), 0, p, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())

		stale, _ := v.Verify(vals[0], 0, p, rand.Reader)
		gomega.Expect(stale).Should(gomega.BeFalse())

		p1, err := v.Open(vals[1], 1, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		ok, err = v.Verify(vals[1], 1, p1, rand.Reader)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})
})
