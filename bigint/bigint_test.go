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

package bigint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtGCD(t *testing.T) {
	tests := []struct {
		a, b int64
	}{
		{240, 46},
		{0, 5},
		{5, 0},
		{17, 13},
		{1, 1},
	}
	for _, tc := range tests {
		a := big.NewInt(tc.a)
		b := big.NewInt(tc.b)
		d, s, tt := ExtGCD(a, b)

		expected := new(big.Int).GCD(nil, nil, a, b)
		assert.Equal(t, expected, d)

		lhs := new(big.Int).Add(
			new(big.Int).Mul(a, s),
			new(big.Int).Mul(b, tt),
		)
		assert.Equal(t, d, lhs)
	}
}

func TestModInverse(t *testing.T) {
	n := big.NewInt(3233)
	g := big.NewInt(7)

	inv, err := ModInverse(g, n)
	require.NoError(t, err)

	prod := new(big.Int).Mod(new(big.Int).Mul(g, inv), n)
	assert.Equal(t, big.NewInt(1), prod)
}

func TestModInverseNegativeG(t *testing.T) {
	n := big.NewInt(11)
	g := big.NewInt(-3)

	inv, err := ModInverse(g, n)
	require.NoError(t, err)
	assert.True(t, inv.Sign() >= 0)

	prod := new(big.Int).Mod(new(big.Int).Mul(g, inv), n)
	assert.Equal(t, big.NewInt(0), new(big.Int).Mod(new(big.Int).Sub(prod, big.NewInt(1)), n))
}

func TestModInverseNotInvertible(t *testing.T) {
	n := big.NewInt(12)
	g := big.NewInt(8)

	_, err := ModInverse(g, n)
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestModPowSigned(t *testing.T) {
	n := big.NewInt(3233)
	a := big.NewInt(5)

	r, err := ModPowSigned(a, big.NewInt(0), n)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), r)

	r, err = ModPowSigned(a, big.NewInt(3), n)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Exp(a, big.NewInt(3), n), r)

	r, err = ModPowSigned(a, big.NewInt(-3), n)
	require.NoError(t, err)

	forward := new(big.Int).Exp(a, big.NewInt(3), n)
	check := new(big.Int).Mod(new(big.Int).Mul(forward, r), n)
	assert.Equal(t, big.NewInt(1), check)
}

func TestModPowSignedNotInvertible(t *testing.T) {
	_, err := ModPowSigned(big.NewInt(8), big.NewInt(-1), big.NewInt(12))
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestJacobi(t *testing.T) {
	tests := []struct {
		x, y     int64
		expected int
	}{
		{1001, 9907, -1},
		{19, 45, 1},
		{8, 21, -1},
		{5, 21, 1},
		{0, 9, 0},
		{2, 3, -1},
	}
	for _, tc := range tests {
		j, err := Jacobi(big.NewInt(tc.x), big.NewInt(tc.y))
		require.NoError(t, err)
		assert.Equal(t, tc.expected, j)
	}
}

func TestJacobiEvenModulus(t *testing.T) {
	_, err := Jacobi(big.NewInt(3), big.NewInt(8))
	assert.ErrorIs(t, err, ErrEvenModulus)
}

func TestEncodeDecodeUnsigned(t *testing.T) {
	x := big.NewInt(123456789)
	b := EncodeUnsigned(x)
	assert.Equal(t, x, DecodeUnsigned(b))
}

func TestEncodeDecodeSigned(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 123456789, -123456789} {
		x := big.NewInt(v)
		b := EncodeSigned(x)
		got, err := DecodeSigned(b)
		require.NoError(t, err)
		assert.Equal(t, x, got)
	}
}

func TestDecodeSignedEmpty(t *testing.T) {
	_, err := DecodeSigned(nil)
	assert.Error(t, err)
}
