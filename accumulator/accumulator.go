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

// Package accumulator implements the static, dynamic, universal and
// batched cryptographic accumulator over a group of unknown order
// (RSA or class-group, via package group), together with the witness
// aggregation and root-factor machinery that makes batch operations
// efficient.
package accumulator

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
	"github.com/amistech/accum/acclog"
	"github.com/amistech/accum/bigint"
	"github.com/amistech/accum/group"
	"github.com/amistech/accum/proof"
)

var (
	// ErrNotMember is returned when an operation needs x to already be
	// accumulated and it is not.
	ErrNotMember = errors.New("accumulator: element is not a member")
	// ErrIsMember is returned by non-membership operations given a
	// member.
	ErrIsMember = errors.New("accumulator: element is already a member")
	// ErrNotCoprime is returned when witness aggregation is attempted
	// on two elements that share a factor (should never happen for
	// distinct accumulator primes; guards against misuse).
	ErrNotCoprime = errors.New("accumulator: elements are not coprime")
	// ErrInvalidWitness is returned when a supplied witness fails
	// verification before being trusted for a follow-up mutation.
	ErrInvalidWitness = errors.New("accumulator: witness does not verify")
)

// NonMembershipWitness is the pair (U, V) proving x is not accumulated:
// U^x * A^V == G, with V signed.
type NonMembershipWitness struct {
	U *big.Int
	V *big.Int
}

// NonMembershipStarProof bundles a NonMembershipWitness without
// publishing its (potentially huge) V exponent: D stands in for A^V,
// and a NI-PoKE2 proves the prover knows a V consistent with D without
// revealing it.
type NonMembershipStarProof struct {
	U    *big.Int
	D    *big.Int
	PoKE *proof.PoKE2
}

// Accumulator holds one accumulator's group setup, current value, and
// the explicit set of currently-accumulated elements. Tracking the set
// directly (rather than retaining the RSA trapdoor) is this module's
// chosen resolution for witness creation without a trapdoor; see
// DESIGN.md.
type Accumulator struct {
	Params      *group.Params
	Hash        acchash.Hash
	ChallengeBits int
	ExtraRounds int
	A           *big.Int
	elements    []*big.Int
}

// Setup runs group setup for the requested backend and bit length and
// initializes an empty accumulator at A0 = G.
func Setup(backend accconfig.Backend, bits int, h acchash.Hash, challengeBits, extraRounds int, rng io.Reader) (*Accumulator, error) {
	var params *group.Params
	var err error
	switch backend {
	case accconfig.RSA:
		params, err = group.SetupRSA(bits, extraRounds, rng)
	case accconfig.ClassGroup:
		params, err = group.SetupClassGroup(bits, extraRounds, rng)
	default:
		return nil, fmt.Errorf("accumulator: unknown backend %v", backend)
	}
	if err != nil {
		return nil, err
	}
	acclog.Logger().Debug("accumulator setup complete", "backend", backend.String())
	return &Accumulator{
		Params:        params,
		Hash:          h,
		ChallengeBits: challengeBits,
		ExtraRounds:   extraRounds,
		A:             params.Identity(),
	}, nil
}

func (a *Accumulator) indexOf(x *big.Int) int {
	for i, e := range a.elements {
		if e.Cmp(x) == 0 {
			return i
		}
	}
	return -1
}

func (a *Accumulator) removeAt(i int) {
	a.elements = append(a.elements[:i], a.elements[i+1:]...)
}

func product(xs []*big.Int) *big.Int {
	p := big.NewInt(1)
	for _, x := range xs {
		p.Mul(p, x)
	}
	return p
}

func (a *Accumulator) productExcept(skip int) *big.Int {
	p := big.NewInt(1)
	for i, x := range a.elements {
		if i == skip {
			continue
		}
		p.Mul(p, x)
	}
	return p
}

// Add accumulates x: A <- A^x.
func (a *Accumulator) Add(x *big.Int) {
	a.A = a.Params.Backend.ExpUint(a.A, x)
	a.elements = append(a.elements, new(big.Int).Set(x))
}

// MemWitCreate returns a membership witness w with w^x == A, or
// ErrNotMember if x was never added.
func (a *Accumulator) MemWitCreate(x *big.Int) (*big.Int, error) {
	idx := a.indexOf(x)
	if idx < 0 {
		return nil, ErrNotMember
	}
	return a.Params.Backend.ExpUint(a.Params.G, a.productExcept(idx)), nil
}

// VerMem checks a membership witness.
func (a *Accumulator) VerMem(w, x *big.Int) bool {
	return a.Params.Backend.Equal(a.Params.Backend.ExpUint(w, x), a.A)
}

// Del removes x, rolling A back to the accumulator value it would have
// had without x. Returns ErrNotMember if x is not currently a member.
func (a *Accumulator) Del(x *big.Int) error {
	idx := a.indexOf(x)
	if idx < 0 {
		return ErrNotMember
	}
	newA := a.Params.Backend.ExpUint(a.Params.G, a.productExcept(idx))
	a.removeAt(idx)
	a.A = newA
	return nil
}

// NonMemWitCreate returns a non-membership witness for x, or
// ErrIsMember if x is currently accumulated.
func (a *Accumulator) NonMemWitCreate(x *big.Int) (*NonMembershipWitness, error) {
	if a.indexOf(x) >= 0 {
		return nil, ErrIsMember
	}
	s := product(a.elements)
	d, aCoef, bCoef := bigint.ExtGCD(x, s)
	if d.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrNotCoprime
	}
	u, err := a.Params.Backend.ExpInt(a.Params.G, aCoef)
	if err != nil {
		return nil, err
	}
	return &NonMembershipWitness{U: u, V: bCoef}, nil
}

// VerNonMem checks a non-membership witness: U^x * A^V == G.
func (a *Accumulator) VerNonMem(w *NonMembershipWitness, x *big.Int) (bool, error) {
	av, err := a.Params.Backend.ExpInt(a.A, w.V)
	if err != nil {
		return false, err
	}
	lhs := a.Params.Backend.Mul(av, a.Params.Backend.ExpUint(w.U, x))
	return a.Params.Backend.Equal(lhs, a.Params.G), nil
}

// BatchAdd accumulates every element of xs in one step and returns a
// PoE proof Q that the resulting A was derived correctly from the
// accumulator's prior value.
func (a *Accumulator) BatchAdd(xs []*big.Int, rng io.Reader) (*big.Int, error) {
	x := product(xs)
	oldA := a.A
	newA := a.Params.Backend.ExpUint(oldA, x)
	pi, err := proof.ProvePoE(a.Params.Backend, a.Hash, x, oldA, newA, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil {
		return nil, err
	}
	a.A = newA
	for _, x := range xs {
		a.elements = append(a.elements, new(big.Int).Set(x))
	}
	return pi.Q, nil
}

// VerBatchAdd checks a BatchAdd proof against the state a_t the batch
// was supposedly applied to.
func (a *Accumulator) VerBatchAdd(q, aT *big.Int, xs []*big.Int, rng io.Reader) (bool, error) {
	x := product(xs)
	return proof.VerifyPoE(a.Params.Backend, a.Hash, x, aT, a.A, &proof.PoE{Q: q}, a.ChallengeBits, a.ExtraRounds, rng)
}

// WitMemberPair is a (witness, member) pair supplied to BatchDel; the
// witness must verify against the accumulator's current state before
// the member is removed.
type WitMemberPair struct {
	W *big.Int
	X *big.Int
}

// BatchDel verifies every supplied witness against the current state,
// then removes all of their members at once and returns a PoE proof Q
// that the new, smaller A derives the old one by raising to prod(xs).
func (a *Accumulator) BatchDel(pairs []WitMemberPair, rng io.Reader) (*big.Int, error) {
	for _, p := range pairs {
		if !a.VerMem(p.W, p.X) {
			return nil, ErrInvalidWitness
		}
	}

	xs := make([]*big.Int, len(pairs))
	for i, p := range pairs {
		xs[i] = p.X
	}
	x := product(xs)
	oldA := a.A

	for _, p := range pairs {
		idx := a.indexOf(p.X)
		if idx < 0 {
			return nil, ErrNotMember
		}
		a.removeAt(idx)
	}
	newA := a.Params.Backend.ExpUint(a.Params.G, product(a.elements))

	pi, err := proof.ProvePoE(a.Params.Backend, a.Hash, x, newA, oldA, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil {
		return nil, err
	}
	a.A = newA
	return pi.Q, nil
}

// VerBatchDel checks a BatchDel proof: self.A^prod(xs) == a_t.
func (a *Accumulator) VerBatchDel(q, aT *big.Int, xs []*big.Int, rng io.Reader) (bool, error) {
	x := product(xs)
	return proof.VerifyPoE(a.Params.Backend, a.Hash, x, a.A, aT, &proof.PoE{Q: q}, a.ChallengeBits, a.ExtraRounds, rng)
}

// DelWMem deletes x using a caller-supplied membership witness instead
// of an internally recomputed one (cheaper when the caller already has
// w, e.g. forwarded from a prior MemWitCreate).
func (a *Accumulator) DelWMem(w, x *big.Int) error {
	if !a.VerMem(w, x) {
		return ErrInvalidWitness
	}
	idx := a.indexOf(x)
	if idx < 0 {
		return ErrNotMember
	}
	a.removeAt(idx)
	a.A = w
	return nil
}

// CreateAllMemWit computes a membership witness for every element of s
// in one O(n log n) pass via RootFactor, rather than n separate
// O(n)-multiplication calls to MemWitCreate. s is supplied explicitly
// by the caller (this module keeps no hidden global set beyond the one
// accumulated via Add/BatchAdd).
func (a *Accumulator) CreateAllMemWit(s []*big.Int) ([]*big.Int, error) {
	return RootFactor(a.Params.Backend, a.Params.G, s)
}

// RootFactor computes, for every x_i in xs, g^(prod_{j != i} x_j), via
// divide and conquer: O(n log n) big multiplications instead of the
// naive O(n^2). The two recursive halves touch disjoint output slices
// and only read immutable inputs, so they run as separate goroutines.
func RootFactor(backend group.Backend, g *big.Int, xs []*big.Int) ([]*big.Int, error) {
	n := len(xs)
	if n == 0 {
		return nil, nil
	}
	if n == 1 {
		return []*big.Int{new(big.Int).Set(g)}, nil
	}

	mid := n / 2
	left, right := xs[:mid], xs[mid:]
	gLeft := backend.ExpUint(g, product(right))
	gRight := backend.ExpUint(g, product(left))

	var wg sync.WaitGroup
	var leftWits, rightWits []*big.Int
	var leftErr, rightErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		leftWits, leftErr = RootFactor(backend, gLeft, left)
	}()
	go func() {
		defer wg.Done()
		rightWits, rightErr = RootFactor(backend, gRight, right)
	}()
	wg.Wait()

	if leftErr != nil {
		return nil, leftErr
	}
	if rightErr != nil {
		return nil, rightErr
	}
	return append(leftWits, rightWits...), nil
}

// ShamirTrick combines two membership witnesses w_x (w_x^x == A) and
// w_y (w_y^y == A) for coprime x, y into a single witness for x*y.
func ShamirTrick(backend group.Backend, wx, wy, x, y *big.Int) (*big.Int, error) {
	d, a, b := bigint.ExtGCD(x, y)
	if d.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrNotCoprime
	}
	left, err := backend.ExpInt(wx, b)
	if err != nil {
		return nil, err
	}
	right, err := backend.ExpInt(wy, a)
	if err != nil {
		return nil, err
	}
	return backend.Mul(left, right), nil
}

// AggMemWit aggregates two membership witnesses for coprime x, y from
// this accumulator into a single witness for x*y, plus a PoE proof Q
// that the aggregation is correct.
func (a *Accumulator) AggMemWit(wx, wy, x, y *big.Int, rng io.Reader) (wxy *big.Int, q *big.Int, err error) {
	wxy, err = ShamirTrick(a.Params.Backend, wx, wy, x, y)
	if err != nil {
		return nil, nil, err
	}
	xy := new(big.Int).Mul(x, y)
	pi, err := proof.ProvePoE(a.Params.Backend, a.Hash, xy, wxy, a.A, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil {
		return nil, nil, err
	}
	return wxy, pi.Q, nil
}

// VerAggMemWit verifies an aggregated membership witness for x*y.
func (a *Accumulator) VerAggMemWit(wxy, q, x, y *big.Int, rng io.Reader) (bool, error) {
	xy := new(big.Int).Mul(x, y)
	return proof.VerifyPoE(a.Params.Backend, a.Hash, xy, wxy, a.A, &proof.PoE{Q: q}, a.ChallengeBits, a.ExtraRounds, rng)
}

// MemWitCreateStar bundles a membership witness for x with a PoE proof
// that it verifies, so a verifier can use the cheaper ver_mem_star
// check instead of repeating the w^x exponentiation itself.
func (a *Accumulator) MemWitCreateStar(x *big.Int, rng io.Reader) (w *big.Int, q *big.Int, err error) {
	w, err = a.MemWitCreate(x)
	if err != nil {
		return nil, nil, err
	}
	pi, err := proof.ProvePoE(a.Params.Backend, a.Hash, x, w, a.A, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil {
		return nil, nil, err
	}
	return w, pi.Q, nil
}

// VerMemStar verifies a MemWitCreateStar bundle.
func (a *Accumulator) VerMemStar(x, w, q *big.Int, rng io.Reader) (bool, error) {
	return proof.VerifyPoE(a.Params.Backend, a.Hash, x, w, a.A, &proof.PoE{Q: q}, a.ChallengeBits, a.ExtraRounds, rng)
}

// MemWitX combines a witness w_x for x against this accumulator (A1)
// with a witness w_y for y against a different accumulator's value
// other (A2), into a single witness verifiable with VerMemX, without
// either party learning the other's accumulated set.
func (a *Accumulator) MemWitX(other, wx, wy, x, y *big.Int) (*big.Int, error) {
	d, aCoef, bCoef := bigint.ExtGCD(x, y)
	if d.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrNotCoprime
	}
	left, err := a.Params.Backend.ExpInt(wx, bCoef)
	if err != nil {
		return nil, err
	}
	right, err := a.Params.Backend.ExpInt(wy, aCoef)
	if err != nil {
		return nil, err
	}
	return a.Params.Backend.Mul(left, right), nil
}

// VerMemX verifies a MemWitX proof: pi^(xy) == A1^(b*y) * A2^(a*x),
// for (a, b) the Bezout coefficients of (x, y). Both sides are
// computable from public values only (x, y, A1, A2): the accumulators'
// hidden exponents never enter the check.
func (a *Accumulator) VerMemX(other, pi, x, y *big.Int) (bool, error) {
	d, aCoef, bCoef := bigint.ExtGCD(x, y)
	if d.Cmp(big.NewInt(1)) != 0 {
		return false, ErrNotCoprime
	}
	xy := new(big.Int).Mul(x, y)
	lhs := a.Params.Backend.ExpUint(pi, xy)

	by := new(big.Int).Mul(bCoef, y)
	ax := new(big.Int).Mul(aCoef, x)
	left, err := a.Params.Backend.ExpInt(a.A, by)
	if err != nil {
		return false, err
	}
	right, err := a.Params.Backend.ExpInt(other, ax)
	if err != nil {
		return false, err
	}
	rhs := a.Params.Backend.Mul(left, right)
	return a.Params.Backend.Equal(lhs, rhs), nil
}

// NonMemWitCreateStar bundles a non-membership witness with a NI-PoKE2
// proving knowledge of V (D = A^V) in place of publishing V itself,
// which otherwise grows with the bit length of the full accumulated
// product.
func (a *Accumulator) NonMemWitCreateStar(x *big.Int, rng io.Reader) (*NonMembershipStarProof, error) {
	w, err := a.NonMemWitCreate(x)
	if err != nil {
		return nil, err
	}
	d, err := a.Params.Backend.ExpInt(a.A, w.V)
	if err != nil {
		return nil, err
	}
	poke, err := proof.ProvePoKE2(a.Params.Backend, a.Hash, w.V, a.A, d, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil {
		return nil, err
	}
	return &NonMembershipStarProof{U: w.U, D: d, PoKE: poke}, nil
}

// VerNonMemStar verifies a NonMemWitCreateStar bundle: the PoKE2 checks
// the prover knows a V with A^V = D, and U^x * D == G then stands in
// for the non-membership equation U^x * A^V == G without either side
// ever learning V.
func (a *Accumulator) VerNonMemStar(x *big.Int, star *NonMembershipStarProof, rng io.Reader) (bool, error) {
	ok, err := proof.VerifyPoKE2(a.Params.Backend, a.Hash, a.A, star.D, star.PoKE, a.ChallengeBits, a.ExtraRounds, rng)
	if err != nil || !ok {
		return false, err
	}

	lhs := a.Params.Backend.Mul(a.Params.Backend.ExpUint(star.U, x), star.D)
	return a.Params.Backend.Equal(lhs, a.Params.G), nil
}
