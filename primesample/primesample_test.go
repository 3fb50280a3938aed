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

package primesample

import (
	"crypto/rand"
	"testing"

	"github.com/amistech/accum/primality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenPrimeBitLengthAndPrimality(t *testing.T) {
	for _, bits := range []int{16, 64, 128} {
		p, err := GenPrime(bits, 10, rand.Reader)
		require.NoError(t, err)
		assert.Equal(t, bits, p.BitLen())
		assert.Equal(t, uint(1), p.Bit(0))

		ok, err := primality.ProbablyPrime(p, 10, rand.Reader)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGenPrimeRejectsTinyBitLength(t *testing.T) {
	_, err := GenPrime(1, 5, rand.Reader)
	assert.ErrorIs(t, err, ErrInvalidBitLength)
}

func TestGenSafePrime(t *testing.T) {
	p, q, err := GenSafePrime(32, 10, rand.Reader)
	require.NoError(t, err)
	assert.Equal(t, 32, p.BitLen())

	okP, err := primality.ProbablyPrime(p, 10, rand.Reader)
	require.NoError(t, err)
	assert.True(t, okP)

	okQ, err := primality.ProbablyPrime(q, 10, rand.Reader)
	require.NoError(t, err)
	assert.True(t, okQ)
}
