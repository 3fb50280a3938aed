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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/amistech/accum/acchash"
	"github.com/amistech/accum/accconfig"
	"github.com/amistech/accum/acclog"
	"github.com/amistech/accum/bigint"
	"github.com/amistech/accum/primesample"
)

var (
	cgBig0 = big.NewInt(0)
	cgBig1 = big.NewInt(1)
	cgBig2 = big.NewInt(2)

	gmbLimbBits = 64

	// ErrPositiveDiscriminant is returned if a discriminant isn't negative.
	ErrPositiveDiscriminant = errors.New("group: discriminant must be negative")
	// ErrDifferentDiscriminant is returned composing forms of differing discriminant.
	ErrDifferentDiscriminant = errors.New("group: forms have different discriminants")
	// ErrMalformedElement is returned when decoding a class-group element fails.
	ErrMalformedElement = errors.New("group: malformed class-group element encoding")
)

// form is a reduced, primitive, positive-definite binary quadratic form
// (a, b, c) of negative discriminant D = b^2 - 4ac, representing an
// ideal class in an imaginary quadratic order. This is the unit of
// computation for ClassGroupBackend; it never appears outside this
// file, since group.Backend always speaks in packed *big.Int elements.
//
// Composition, squaring, and reduction below are adapted from the
// quadratic-form arithmetic used for the teacher module's class-group
// homomorphic scheme; the double-base-chain exponentiation and ideal
// cubing the teacher used to speed up Exp are intentionally dropped in
// favor of plain binary square-and-multiply (see DESIGN.md).
type form struct {
	a, b, c      *big.Int
	shanksBound  *big.Int
	discriminant *big.Int
}

func computeDiscriminant(a, b, c *big.Int) (*big.Int, error) {
	d := new(big.Int).Mul(b, b)
	ac := new(big.Int).Mul(a, c)
	d.Sub(d, ac.Lsh(ac, 2))
	if d.Sign() > -1 {
		return nil, ErrPositiveDiscriminant
	}
	return d, nil
}

func computeRoot4thOver4(value *big.Int) *big.Int {
	absValue := new(big.Int).Abs(value)
	q := new(big.Int).Rsh(absValue, 2)
	q.Sqrt(q)
	return q.Sqrt(q)
}

func newForm(a, b, c *big.Int) (*form, error) {
	d, err := computeDiscriminant(a, b, c)
	if err != nil {
		return nil, err
	}
	f := &form{
		a: new(big.Int).Set(a), b: new(big.Int).Set(b), c: new(big.Int).Set(c),
		shanksBound:  computeRoot4thOver4(d),
		discriminant: d,
	}
	f.reduction()
	return f, nil
}

func newFormByDiscriminant(a, b, d, shanksBound *big.Int) *form {
	bSquare := new(big.Int).Mul(b, b)
	c := new(big.Int).Sub(bSquare, d)
	c.Div(c, a)
	c.Rsh(c, 2)
	f := &form{
		a: new(big.Int).Set(a), b: new(big.Int).Set(b), c: c,
		shanksBound:  new(big.Int).Set(shanksBound),
		discriminant: new(big.Int).Set(d),
	}
	f.reduction()
	return f
}

// reduction reduces f in place, per Algorithm 5.4.2, Cohen's "A Course
// in Computational Algebraic Number Theory".
func (f *form) reduction() {
	negA := new(big.Int).Neg(f.a)
	if f.b.Cmp(negA) == 1 && f.b.Cmp(f.a) <= 0 {
		f.reductionMainStep()
		return
	}
	f.euclideanStep()
	f.reductionMainStep()
}

func (f *form) isReduced() bool {
	absB := new(big.Int).Abs(f.b)
	if f.a.Cmp(absB) > 0 && f.c.Cmp(f.a) > 0 {
		return true
	}
	if f.a.Cmp(absB) == 0 && f.b.Sign() >= 0 {
		return true
	}
	if f.a.Cmp(f.c) == 0 && f.b.Sign() >= 0 {
		return true
	}
	return false
}

func (f *form) reductionMainStep() {
	for !f.isReduced() {
		if f.a.Cmp(f.c) > 0 {
			f.b.Neg(f.b)
			f.a, f.c = f.c, f.a
		} else if f.a.Cmp(f.c) == 0 && f.b.Sign() < 0 {
			f.b.Neg(f.b)
		}
		f.euclideanStep()
	}
}

func (f *form) euclideanStep() {
	r := big.NewInt(0)
	twiceA := new(big.Int).Lsh(f.a, 1)
	q, r := new(big.Int).DivMod(f.b, twiceA, r)
	if r.Cmp(f.a) > 0 {
		r.Sub(r, twiceA)
		q.Add(q, cgBig1)
	}
	bPlusRQ := new(big.Int).Add(f.b, r)
	bPlusRQ.Mul(bPlusRQ, q)
	half := new(big.Int).Rsh(bPlusRQ, 1)
	f.c.Sub(f.c, half)
	f.b = r
}

func (f *form) copy() *form {
	return &form{
		a: new(big.Int).Set(f.a), b: new(big.Int).Set(f.b), c: new(big.Int).Set(f.c),
		shanksBound:  new(big.Int).Set(f.shanksBound),
		discriminant: new(big.Int).Set(f.discriminant),
	}
}

func (f *form) inverse() *form {
	r := &form{
		a: new(big.Int).Set(f.a), b: new(big.Int).Neg(f.b), c: new(big.Int).Set(f.c),
		shanksBound:  new(big.Int).Set(f.shanksBound),
		discriminant: new(big.Int).Set(f.discriminant),
	}
	r.reduction()
	return r
}

// qgExGCD finds (s, t, d) with x*s + y*t = d = gcd(|x|, |y|), tolerating
// negative x, y (y == 0 returns d = |x|, s = sign(x), t = 0).
func qgExGCD(x, y *big.Int) (*big.Int, *big.Int, *big.Int) {
	absx := new(big.Int).Abs(x)
	absy := new(big.Int).Abs(y)
	if y.Sign() == 0 {
		return big.NewInt(int64(x.Sign())), big.NewInt(0), new(big.Int).Set(absx)
	}
	s, t := big.NewInt(0), big.NewInt(0)
	d := new(big.Int).GCD(s, t, absx, absy)
	if x.Sign() == -1 {
		if y.Sign() == -1 {
			return s.Neg(s), t.Neg(t), d
		}
		return s.Neg(s), t, d
	}
	if y.Sign() == -1 {
		return s, t.Neg(t), d
	}
	return s, t, d
}

// compose implements Gauss composition via NUCOMP-style reduction,
// falling back to a bounded partial-GCD step for large a1.
func (f *form) compose(g *form) (*form, error) {
	if f.discriminant.Cmp(g.discriminant) != 0 {
		return nil, ErrDifferentDiscriminant
	}
	a1, b1 := new(big.Int).Set(f.a), new(big.Int).Set(f.b)
	a2, b2, c2 := new(big.Int).Set(g.a), new(big.Int).Set(g.b), new(big.Int).Set(g.c)
	if a1.Cmp(a2) < 0 {
		a1, b1 = new(big.Int).Set(g.a), new(big.Int).Set(g.b)
		a2, b2, c2 = new(big.Int).Set(f.a), new(big.Int).Set(f.b), new(big.Int).Set(f.c)
	}

	ss := new(big.Int).Add(b1, b2)
	ss.Rsh(ss, 1)
	m := new(big.Int).Sub(b1, b2)
	m.Rsh(m, 1)

	v1, _, sp := qgExGCD(a2, a1)
	k := new(big.Int).Mul(m, v1)
	k.Mod(k, a1)

	if sp.Cmp(cgBig1) != 0 {
		u2, v2, s := qgExGCD(sp, ss)
		k.Mul(k, u2)
		tmp := new(big.Int).Mul(v2, c2)
		k.Sub(k, tmp)
		if s.Cmp(cgBig1) != 0 {
			a1.Div(a1, s)
			a2.Div(a2, s)
			c2.Mul(c2, s)
		}
		k.Mod(k, a1)
	}

	if a1.Cmp(f.shanksBound) < 0 {
		t := new(big.Int).Mul(a2, k)
		a := new(big.Int).Mul(a2, a1)
		b := new(big.Int).Lsh(t, 1)
		b.Add(b, b2)
		c := new(big.Int).Add(b2, t)
		c.Mul(c, k)
		c.Add(c, c2)
		c.Div(c, a1)
		return newFormByDiscriminant(a, b, f.discriminant, f.shanksBound), nil
	}

	r2 := new(big.Int).Set(a1)
	r1 := new(big.Int).Set(k)
	c2coef := big.NewInt(0)
	c1coef := big.NewInt(-1)
	_, r1, c2coef, c1coef = partialGCD(r2, r1, c2coef, c1coef, f.shanksBound)

	t := new(big.Int).Mul(a2, r1)
	m1 := new(big.Int).Mul(m, c1coef)
	m1.Add(m1, t)
	m1.Div(m1, a1)
	m2 := new(big.Int).Mul(ss, r1)
	tmp := new(big.Int).Mul(c2, c1coef)
	m2.Sub(m2, tmp)
	m2.Div(m2, a1)

	a := new(big.Int).Mul(r1, m1)
	tmp = new(big.Int).Mul(c1coef, m2)
	a.Sub(a, tmp)
	if c1coef.Sign() > 0 {
		a.Neg(a)
	}
	b := new(big.Int).Mul(a, c2coef)
	b.Sub(t, b)
	b.Lsh(b, 1)
	b.Div(b, c1coef)
	b.Sub(b, b2)
	b.Mod(b, new(big.Int).Lsh(a, 1))
	if a.Sign() < 0 {
		a.Neg(a)
	}
	return newFormByDiscriminant(a, b, f.discriminant, f.shanksBound), nil
}

func (f *form) square() (*form, error) {
	a1, b1, c1 := new(big.Int).Set(f.a), new(big.Int).Set(f.b), new(big.Int).Set(f.c)
	_, v, s := qgExGCD(a1, b1)
	u := new(big.Int).Mul(v, f.c)
	u.Neg(u)
	if s.Cmp(cgBig1) != 0 {
		a1.Div(a1, s)
		c1.Mul(c1, s)
	}
	u.Mod(u, a1)

	if a1.Cmp(f.shanksBound) < 1 {
		t := new(big.Int).Mul(a1, u)
		a := new(big.Int).Mul(a1, a1)
		b := new(big.Int).Lsh(t, 1)
		b.Add(b1, b)
		c := new(big.Int).Add(b1, t)
		c.Mul(c, u)
		c.Add(c, c1)
		c.Div(c, a1)
		return newFormByDiscriminant(a, b, f.discriminant, f.shanksBound), nil
	}

	r2 := new(big.Int).Set(a1)
	r1 := new(big.Int).Set(u)
	c2coef := big.NewInt(0)
	c1coef := big.NewInt(-1)
	_, r1, c2coef, c1coef = partialGCD(r2, r1, c2coef, c1coef, f.shanksBound)

	m2 := new(big.Int).Mul(r1, b1)
	tmp := new(big.Int).Mul(s, c1coef)
	tmp.Mul(tmp, f.c)
	m2.Sub(m2, tmp)
	m2.Div(m2, a1)

	tmp = new(big.Int).Mul(r1, r1)
	a := new(big.Int).Mul(c1coef, m2)
	a.Sub(tmp, a)
	if c1coef.Sign() > 0 {
		a.Neg(a)
	}
	b := new(big.Int).Mul(c2coef, a)
	tmp = new(big.Int).Mul(r1, a1)
	b.Sub(tmp, b)
	b.Div(new(big.Int).Lsh(b, 1), c1coef)
	b.Sub(b, b1)
	b.Mod(b, new(big.Int).Lsh(a, 1))
	if a.Sign() < 0 {
		a.Neg(a)
	}
	return newFormByDiscriminant(a, b, f.discriminant, f.shanksBound), nil
}

// partialGCD performs the bounded Euclidean descent used by compose and
// square once a1 exceeds the Shanks bound, per Sayles' NUCOMP writeup.
func partialGCD(r2, r1, c2, c1, bound *big.Int) (*big.Int, *big.Int, *big.Int, *big.Int) {
	var a2, a1, b2, b1, t, t1, rr2, rr1, qq, bb int64
	var q, r *big.Int

	for r1.Sign() != 0 && r1.Cmp(bound) > 0 {
		t = int64(r2.BitLen() - gmbLimbBits + 1)
		t1 = int64(r1.BitLen() - gmbLimbBits + 1)
		if t < t1 {
			t = t1
		}
		if t < 0 {
			t = 0
		}
		rr2 = new(big.Int).Rsh(r2, uint(t)).Int64()
		rr1 = new(big.Int).Rsh(r1, uint(t)).Int64()
		bb = new(big.Int).Rsh(bound, uint(t)).Int64()

		a2, a1, b2, b1 = 0, 1, 1, 0
		i := 0
		for rr1 != 0 && rr1 > bb {
			qq = rr2 / rr1
			t = rr2 - qq*rr1
			rr2, rr1 = rr1, t
			t = a2 - qq*a1
			a2, a1 = a1, t
			t = b2 - qq*b1
			b2, b1 = b1, t
			if (i & 1) > 0 {
				if (rr1 < -b1) || (rr2-rr1 < a1-a2) {
					break
				}
			} else {
				if (rr1 < -a1) || (rr2-rr1 < b1-b2) {
					break
				}
			}
			i++
		}
		if i == 0 {
			q, r = new(big.Int).DivMod(r2, r1, new(big.Int))
			r2 = new(big.Int).Set(r1)
			r1 = r
			tmp := new(big.Int).Set(c1)
			r = new(big.Int).Mul(q, c1)
			c1.Sub(c2, r)
			c2 = tmp
		} else {
			t1r := new(big.Int).Mul(r2, big.NewInt(b2))
			t2r := new(big.Int).Mul(r1, big.NewInt(a2))
			r = new(big.Int).Add(t1r, t2r)
			t1r.Mul(r2, big.NewInt(b1))
			t2r.Mul(r1, big.NewInt(a1))
			r1.Add(t1r, t2r)
			r2 = new(big.Int).Set(r)
			t1r.Mul(c2, big.NewInt(b2))
			t2r.Mul(c1, big.NewInt(a2))
			r = new(big.Int).Add(t1r, t2r)
			t1r.Mul(c2, big.NewInt(b1))
			t2r.Mul(c1, big.NewInt(a1))
			c1.Add(t1r, t2r)
			c2 = new(big.Int).Set(r)
			if r1.Sign() < 0 {
				r1.Neg(r1)
				c1.Neg(c1)
			}
			if r2.Sign() < 0 {
				r2.Neg(r2)
				c2.Neg(c2)
			}
		}
	}
	if r2.Sign() < 0 {
		r2.Neg(r2)
		c2.Neg(c2)
		c1.Neg(c1)
	}
	return r2, r1, c2, c1
}

// expSquareAndMultiply computes base^e via plain binary square-and-
// multiply, replacing the teacher's double-base-chain expansion; see
// DESIGN.md for the tradeoff.
func expSquareAndMultiply(base *form, e *big.Int) (*form, error) {
	if e.Sign() == 0 {
		return newFormByDiscriminant(cgBig1, cgBig1, base.discriminant, base.shanksBound), nil
	}
	result := newFormByDiscriminant(cgBig1, cgBig1, base.discriminant, base.shanksBound)
	cur := base.copy()
	exp := new(big.Int).Abs(e)
	for i := 0; i < exp.BitLen(); i++ {
		if exp.Bit(i) == 1 {
			var err error
			result, err = result.compose(cur)
			if err != nil {
				return nil, err
			}
		}
		if i != exp.BitLen()-1 {
			var err error
			cur, err = cur.square()
			if err != nil {
				return nil, err
			}
		}
	}
	if e.Sign() < 0 {
		result = result.inverse()
	}
	return result, nil
}

// --- wire packing: a reduced form <-> opaque *big.Int -------------------

func packForm(f *form) *big.Int {
	buf := []byte{0xFF}
	for _, coef := range []*big.Int{f.a, f.b, f.c} {
		enc := bigint.EncodeSigned(coef)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(enc)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, enc...)
	}
	return new(big.Int).SetBytes(buf)
}

func unpackForm(x *big.Int, discriminant, shanksBound *big.Int) (*form, error) {
	buf := x.Bytes()
	if len(buf) < 1 || buf[0] != 0xFF {
		return nil, ErrMalformedElement
	}
	buf = buf[1:]

	coefs := make([]*big.Int, 0, 3)
	for i := 0; i < 3; i++ {
		if len(buf) < 4 {
			return nil, ErrMalformedElement
		}
		n := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < n {
			return nil, ErrMalformedElement
		}
		coef, err := bigint.DecodeSigned(buf[:n])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedElement, err)
		}
		buf = buf[n:]
		coefs = append(coefs, coef)
	}
	return &form{
		a: coefs[0], b: coefs[1], c: coefs[2],
		shanksBound:  new(big.Int).Set(shanksBound),
		discriminant: new(big.Int).Set(discriminant),
	}, nil
}

// --- Backend implementation ---------------------------------------------

// ClassGroupBackend implements Backend over the class group of
// primitive reduced forms of a fixed negative fundamental discriminant.
// Unlike RSABackend, setup needs no trapdoor: nobody, including the
// party who ran Setup, knows the group's order.
type ClassGroupBackend struct {
	discriminant *big.Int
	shanksBound  *big.Int
}

func (b *ClassGroupBackend) identityForm() *form {
	return newFormByDiscriminant(cgBig1, cgBig1, b.discriminant, b.shanksBound)
}

func (b *ClassGroupBackend) decode(x *big.Int) (*form, error) {
	return unpackForm(x, b.discriminant, b.shanksBound)
}

func (b *ClassGroupBackend) Mul(x, y *big.Int) *big.Int {
	fx, err := b.decode(x)
	if err != nil {
		return big.NewInt(0)
	}
	fy, err := b.decode(y)
	if err != nil {
		return big.NewInt(0)
	}
	r, err := fx.compose(fy)
	if err != nil {
		return big.NewInt(0)
	}
	return packForm(r)
}

func (b *ClassGroupBackend) Square(x *big.Int) *big.Int {
	fx, err := b.decode(x)
	if err != nil {
		return big.NewInt(0)
	}
	r, err := fx.square()
	if err != nil {
		return big.NewInt(0)
	}
	return packForm(r)
}

func (b *ClassGroupBackend) ExpUint(x, e *big.Int) *big.Int {
	fx, err := b.decode(x)
	if err != nil {
		return big.NewInt(0)
	}
	r, err := expSquareAndMultiply(fx, e)
	if err != nil {
		return big.NewInt(0)
	}
	return packForm(r)
}

func (b *ClassGroupBackend) ExpInt(x, e *big.Int) (*big.Int, error) {
	fx, err := b.decode(x)
	if err != nil {
		return nil, err
	}
	r, err := expSquareAndMultiply(fx, e)
	if err != nil {
		return nil, err
	}
	return packForm(r), nil
}

func (b *ClassGroupBackend) Equal(x, y *big.Int) bool {
	fx, err := b.decode(x)
	if err != nil {
		return false
	}
	fy, err := b.decode(y)
	if err != nil {
		return false
	}
	return fx.a.Cmp(fy.a) == 0 && fx.b.Cmp(fy.b) == 0 && fx.c.Cmp(fy.c) == 0
}

func (b *ClassGroupBackend) Identity() *big.Int {
	return packForm(b.identityForm())
}

func (b *ClassGroupBackend) BitLen() int {
	return b.discriminant.BitLen()
}

// hashToElementLBits is the bit length of the prime-form coefficient l
// that HashToElement searches over, matching generatorForm's.
const hashToElementLBits = 30

// maxHashToElementAttempts bounds the deterministic retry loop below;
// on average one in two candidate l leaves D a quadratic residue, so
// this is astronomically more than ever needed.
const maxHashToElementAttempts = 1 << 16

// HashToElement derives a prime-form group element from data: it walks
// a hash-seeded sequence of candidate primes l until D is a quadratic
// residue mod l, then lifts the Tonelli-Shanks root to a reduced form,
// exactly as generatorForm does for a randomly sampled l. Since the
// resulting form's relation to any fixed generator is exactly as hidden
// as discrete log in the class group, this needs no modulus to reduce
// into (unlike the RSA backend) and stays sound without one.
func (b *ClassGroupBackend) HashToElement(h acchash.Hash, data []byte, extraRounds int, rng io.Reader) (*big.Int, error) {
	for attempt := uint32(0); attempt < maxHashToElementAttempts; attempt++ {
		seed := make([]byte, len(data)+4)
		copy(seed, data)
		binary.BigEndian.PutUint32(seed[len(data):], attempt)

		l, _, err := acchash.HashToPrime(h, seed, hashToElementLBits, extraRounds, rng)
		if err != nil {
			return nil, err
		}
		dModL := new(big.Int).Mod(b.discriminant, l)
		root, ok := tonelliShanks(dModL, l)
		if !ok {
			continue
		}
		bCoef := root
		if new(big.Int).And(bCoef, cgBig1).Cmp(new(big.Int).And(b.discriminant, cgBig1)) != 0 {
			bCoef = new(big.Int).Sub(l, root)
		}
		f := newFormByDiscriminant(l, bCoef, b.discriminant, b.shanksBound)
		if f.c.Sign() != 0 {
			return packForm(f), nil
		}
	}
	return nil, errors.New("group: exhausted attempts deriving a hash-to-element form")
}

// SetupClassGroup picks a random prime p of the given bit length with
// p == 3 (mod 4), giving a fundamental discriminant D = -p (D == 1 mod
// 4, as required), then derives a non-identity generator from a second,
// small random prime form via Tonelli-Shanks.
func SetupClassGroup(bits int, extraRounds int, rand io.Reader) (*Params, error) {
	if bits < 16 {
		return nil, fmt.Errorf("group: class-group discriminant bit length too small: %d", bits)
	}

	var p *big.Int
	for {
		candidate, err := primesample.GenPrime(bits, extraRounds, rand)
		if err != nil {
			return nil, fmt.Errorf("group: sampling discriminant prime: %w", err)
		}
		if new(big.Int).Mod(candidate, big.NewInt(4)).Int64() == 3 {
			p = candidate
			break
		}
	}
	discriminant := new(big.Int).Neg(p)

	backend := &ClassGroupBackend{
		discriminant: discriminant,
		shanksBound:  computeRoot4thOver4(discriminant),
	}

	g, err := generatorForm(backend, rand)
	if err != nil {
		return nil, fmt.Errorf("group: deriving class-group generator: %w", err)
	}

	acclog.Logger().Debug("class group setup complete", "bits", discriminant.BitLen())

	return &Params{
		Kind:    accconfig.ClassGroup,
		Backend: backend,
		G:       packForm(g),
	}, nil
}

// generatorForm finds a prime-form generator (l, b, c) of the backend's
// discriminant: sample small primes l until D is a quadratic residue
// mod l, lift the Tonelli-Shanks square root to the required parity.
func generatorForm(backend *ClassGroupBackend, rand io.Reader) (*form, error) {
	const lBits = 30
	for attempt := 0; attempt < 256; attempt++ {
		l, err := primesample.GenPrime(lBits, 10, rand)
		if err != nil {
			return nil, err
		}
		dModL := new(big.Int).Mod(backend.discriminant, l)
		root, ok := tonelliShanks(dModL, l)
		if !ok {
			continue
		}
		b := root
		if new(big.Int).And(b, cgBig1).Cmp(new(big.Int).And(backend.discriminant, cgBig1)) != 0 {
			b = new(big.Int).Sub(l, root)
		}
		f := newFormByDiscriminant(l, b, backend.discriminant, backend.shanksBound)
		if f.c.Sign() != 0 {
			return f, nil
		}
	}
	return nil, errors.New("group: exhausted attempts deriving a class-group generator")
}

// tonelliShanks returns a square root of a mod the odd prime p, if one
// exists.
func tonelliShanks(a, p *big.Int) (*big.Int, bool) {
	aMod := new(big.Int).Mod(a, p)
	if aMod.Sign() == 0 {
		return big.NewInt(0), true
	}
	if new(big.Int).Exp(aMod, new(big.Int).Rsh(new(big.Int).Sub(p, cgBig1), 1), p).Cmp(cgBig1) != 0 {
		return nil, false
	}

	pMod4 := new(big.Int).And(p, big.NewInt(3))
	if pMod4.Int64() == 3 {
		exp := new(big.Int).Rsh(new(big.Int).Add(p, cgBig1), 2)
		return new(big.Int).Exp(aMod, exp, p), true
	}

	// General Tonelli-Shanks for p == 1 (mod 4).
	q := new(big.Int).Sub(p, cgBig1)
	s := 0
	for q.Bit(0) == 0 {
		q.Rsh(q, 1)
		s++
	}

	var z *big.Int
	for cand := int64(2); ; cand++ {
		z = big.NewInt(cand)
		if new(big.Int).Exp(z, new(big.Int).Rsh(new(big.Int).Sub(p, cgBig1), 1), p).Cmp(new(big.Int).Sub(p, cgBig1)) == 0 {
			break
		}
	}

	m := s
	c := new(big.Int).Exp(z, q, p)
	t := new(big.Int).Exp(aMod, q, p)
	r := new(big.Int).Exp(aMod, new(big.Int).Rsh(new(big.Int).Add(q, cgBig1), 1), p)

	for {
		if t.Cmp(cgBig1) == 0 {
			return r, true
		}
		i := 0
		tt := new(big.Int).Set(t)
		for tt.Cmp(cgBig1) != 0 {
			tt.Mul(tt, tt)
			tt.Mod(tt, p)
			i++
			if i == m {
				return nil, false
			}
		}
		b := new(big.Int).Exp(c, new(big.Int).Lsh(cgBig1, uint(m-i-1)), p)
		m = i
		c = new(big.Int).Mul(b, b)
		c.Mod(c, p)
		t.Mul(t, c)
		t.Mod(t, p)
		r.Mul(r, b)
		r.Mod(r, p)
	}
}
