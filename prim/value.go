// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package prim holds the cryptographic primitives used by dhxfer: Diffie-Hellman group parameter generation over
a prime modulus, the integer wire representation, key derivation, the symmetric cipher, and the message
authenticator.  Nothing in here touches the network.
*/
package prim

import (
	cryptoRand "crypto/rand"
	"encoding/hex"
	"io"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("dhxfer/prim")

const (
	KeyLen = 16
)

// A Key is a symmetric session key.
type Key [KeyLen]byte

var zeroKey Key

func ZeroKey() Key {
	return zeroKey
}

// Hex returns the key in hexadecimal, for debug output only.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

func (k *Key) Clear() {
	*k = zeroKey
}

// randReader returns r, or the system entropy source if r is nil.
func randReader(r io.Reader) io.Reader {
	if r == nil {
		return cryptoRand.Reader
	}
	return r
}

func randomBytes(r io.Reader, n int) ([]byte, error) {
	result := make([]byte, n)
	if _, err := io.ReadFull(randReader(r), result); err != nil {
		return nil, err
	}
	return result, nil
}
