// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"io"
	"math"

	"github.com/msimiste/dhxfer/prim"
)

type Params struct {
	// Bit length of the modulus search run by the initiator.
	ModulusBits int

	// Smallest modulus the responder will accept from an initiator.
	MinModulusBits int

	// Use 2s+1 rather than s as the modulus, so that the primitive-root test is exact.
	SafeModulus bool

	// Use the derived key for both the cipher and the authenticator, as legacy peers do.  Both sides must
	// agree on this.
	LegacyKeys bool

	// Largest frame payload accepted from the peer.
	MaxFrameLen int

	// Entropy source; nil means crypto/rand.
	Rand io.Reader
}

const (
	MinModulusBits = 32
	MaxModulusBits = 8192

	DefaultMinModulusBits = 256
	DefaultMaxFrameLen    = 1 << 30
)

func DefaultParams() Params {
	return Params{
		ModulusBits:    prim.DefaultModulusBits,
		MinModulusBits: DefaultMinModulusBits,
		MaxFrameLen:    DefaultMaxFrameLen,
	}
}

func (params *Params) Validate() error {
	switch {
	case !(MinModulusBits <= params.ModulusBits && params.ModulusBits <= MaxModulusBits):
		return ErrBadParams
	case params.MinModulusBits < 0 || params.MinModulusBits > MaxModulusBits+1:
		return ErrBadParams
	case !(0 < params.MaxFrameLen && params.MaxFrameLen <= math.MaxInt32):
		return ErrBadParams
	}

	return nil
}
