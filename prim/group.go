// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package prim

import (
	cryptoRand "crypto/rand"
	"errors"
	"io"
	"math/big"
)

const (
	DefaultModulusBits = 1023

	// Rounds of Miller-Rabin applied to 2s+1 during the modulus search.
	companionRounds = 3
)

var (
	ErrBadModulus   = errors.New("dhxfer/prim: bad modulus")
	ErrBadGenerator = errors.New("dhxfer/prim: bad generator")
	ErrNoRoot       = errors.New("dhxfer/prim: no primitive root found")

	one = big.NewInt(1)
	two = big.NewInt(2)
)

// sophieGermain draws random probable primes s of the given bit length until 2s+1 is also probably prime, and
// returns both.
func sophieGermain(rand io.Reader, bits int) (s, companion *big.Int, err error) {
	rand = randReader(rand)
	companion = new(big.Int)
	for tries := 1; ; tries++ {
		s, err = cryptoRand.Prime(rand, bits)
		if err != nil {
			return nil, nil, err
		}

		companion.Lsh(s, 1)
		companion.Add(companion, one)
		if companion.ProbablyPrime(companionRounds) {
			log.Debugf("modulus search: accepted %d-bit candidate after %d tries", bits, tries)
			return s, companion, nil
		}
	}
}

// GenerateModulus returns a probable prime s of the given bit length for which 2s+1 is also probably prime.
// The returned value is s itself, not 2s+1, so (s-1)/2 is not known to be prime.  Use GenerateSafeModulus
// when the primitive-root search needs that structure to hold.
//
// The search only fails if rand does.
func GenerateModulus(rand io.Reader, bits int) (*big.Int, error) {
	s, _, err := sophieGermain(rand, bits)
	return s, err
}

// GenerateSafeModulus runs the same search as GenerateModulus but returns the safe prime 2s+1, which is one
// bit longer than requested.
func GenerateSafeModulus(rand io.Reader, bits int) (*big.Int, error) {
	_, p, err := sophieGermain(rand, bits)
	return p, err
}

// FindPrimitiveRoot returns the smallest g >= 2 such that g^((p-1)/q) and g^q are both different from 1 mod p,
// where q = (p-1)/2.  This certifies a primitive root only when q is prime.
func FindPrimitiveRoot(p *big.Int) (*big.Int, error) {
	if p.Sign() <= 0 || p.Bit(0) == 0 || p.Cmp(big.NewInt(5)) < 0 {
		return nil, ErrBadModulus
	}

	pMinus1 := new(big.Int).Sub(p, one)
	q := new(big.Int).Rsh(pMinus1, 1)
	smallExp := new(big.Int).Div(pMinus1, q)

	test := new(big.Int)
	for g := big.NewInt(2); g.Cmp(p) < 0; g.Add(g, one) {
		if test.Exp(g, smallExp, p).Cmp(one) == 0 {
			continue
		}
		if test.Exp(g, q, p).Cmp(one) == 0 {
			continue
		}
		return g, nil
	}

	return nil, ErrNoRoot
}

// RandomExponent returns a random integer with exactly the bit length of bound.  It is not sampled below
// bound; only the length matches.
func RandomExponent(rand io.Reader, bound *big.Int) (*big.Int, error) {
	n := bound.BitLen()
	if n == 0 {
		return nil, ErrBadModulus
	}

	raw, err := randomBytes(rand, (n+7)/8)
	if err != nil {
		return nil, err
	}

	// Drop the excess high bits of the first byte, then force the top bit.
	excess := uint(len(raw)*8 - n)
	raw[0] &= byte(0xff >> excess)
	exp := new(big.Int).SetBytes(raw)
	exp.SetBit(exp, n-1, 1)
	return exp, nil
}

// ValidateGroup checks parameters received from a peer before any exponentiation is done with them.  The
// modulus must be between minBits and maxBits long.
func ValidateGroup(p, g *big.Int, minBits, maxBits int) error {
	switch {
	case p.Sign() <= 0, p.Bit(0) == 0, p.Cmp(big.NewInt(5)) < 0:
		return ErrBadModulus
	case p.BitLen() < minBits, p.BitLen() > maxBits:
		return ErrBadModulus
	case g.Cmp(two) < 0, g.Cmp(p) >= 0:
		return ErrBadGenerator
	}
	return nil
}

// ValidatePublic checks that a peer's public value lies strictly between 0 and p.
func ValidatePublic(y, p *big.Int) bool {
	return y.Sign() > 0 && y.Cmp(p) < 0
}
