// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package prim

import (
	"crypto/sha1"
	"crypto/sha256"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

const (
	kdfCipherLabel = "dhxfer cipher"
	kdfMACLabel    = "dhxfer mac"
)

// SessionKeys holds the cipher and authenticator keys for one session.
type SessionKeys struct {
	Cipher Key
	MAC    Key
}

func (sk *SessionKeys) Clear() {
	sk.Cipher.Clear()
	sk.MAC.Clear()
}

// DeriveKey hashes the integer representation of a Diffie-Hellman shared secret with SHA-1 and keeps the
// first KeyLen octets.
func DeriveKey(secret *big.Int) (result Key) {
	sum := sha1.Sum(IntBinary(secret))
	copy(result[:], sum[:KeyLen])
	return
}

func (k Key) expand(label string) (result Key) {
	r := hkdf.New(sha256.New, k[:], nil, []byte(label))
	if _, err := io.ReadFull(r, result[:]); err != nil {
		panic("dhxfer/prim: HKDF output exhausted")
	}
	return
}

// Separate expands k into independent cipher and authenticator keys.
func (k Key) Separate() SessionKeys {
	return SessionKeys{
		Cipher: k.expand(kdfCipherLabel),
		MAC:    k.expand(kdfMACLabel),
	}
}

// Shared uses k for both purposes.  Only legacy peers need this.
func (k Key) Shared() SessionKeys {
	return SessionKeys{Cipher: k, MAC: k}
}
