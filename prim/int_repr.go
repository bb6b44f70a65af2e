// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package prim

import (
	"errors"
	"math/big"
)

var (
	ErrEmptyInt = errors.New("dhxfer/prim: zero-length integer representation")
)

// IntBinary returns the minimal two's-complement big-endian representation of x.  Nonnegative values whose
// top bit would otherwise be set get a leading zero octet; zero is a single zero octet.
func IntBinary(x *big.Int) []byte {
	switch x.Sign() {
	case 0:
		return []byte{0}
	case 1:
		mag := x.Bytes()
		if mag[0]&0x80 == 0 {
			return mag
		}
		return append([]byte{0}, mag...)
	}

	// Negative: 2^(8n) + x for the smallest n whose top bit reads back as a sign.
	n := (x.BitLen() + 8) / 8
	mod := new(big.Int).Lsh(one, uint(8*n))
	b := new(big.Int).Add(mod, x).Bytes()
	for len(b) < n {
		b = append([]byte{0xff}, b...)
	}
	// Trim redundant sign octets so the encoding stays minimal.
	for len(b) > 1 && b[0] == 0xff && b[1]&0x80 != 0 {
		b = b[1:]
	}
	return b
}

// LoadIntBinary parses a two's-complement big-endian representation.
func LoadIntBinary(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, ErrEmptyInt
	}

	x := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(one, uint(8*len(b))))
	}
	return x, nil
}

// Wipe zeroes the words backing x and sets it to zero.
func Wipe(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
