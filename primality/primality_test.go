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

package primality

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbablyPrimeKnownPrimes(t *testing.T) {
	primes := []int64{2, 3, 5, 7, 101, 1009, 7919, 104729}
	for _, p := range primes {
		ok, err := ProbablyPrime(big.NewInt(p), 5, rand.Reader)
		require.NoError(t, err)
		assert.True(t, ok, "expected %d to be prime", p)
	}
}

func TestProbablyPrimeKnownComposites(t *testing.T) {
	composites := []int64{1, 4, 6, 8, 9, 15, 100, 1001, 104730}
	for _, c := range composites {
		ok, err := ProbablyPrime(big.NewInt(c), 5, rand.Reader)
		require.NoError(t, err)
		assert.False(t, ok, "expected %d to be composite", c)
	}
}

func TestProbablyPrimeLargePrime(t *testing.T) {
	// 2^127 - 1, a Mersenne prime.
	n := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	ok, err := ProbablyPrime(n, 10, rand.Reader)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProbablyPrimeRejectsEvenAndSmall(t *testing.T) {
	ok, err := ProbablyPrime(big.NewInt(0), 5, rand.Reader)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ProbablyPrime(big.NewInt(-7), 5, rand.Reader)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProbablyPrimeMillerRabinDirect(t *testing.T) {
	assert.True(t, ProbablyPrimeMillerRabin(big.NewInt(13), big.NewInt(2)))
	assert.False(t, ProbablyPrimeMillerRabin(big.NewInt(9), big.NewInt(2)))
}
