// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package prim

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
)

const (
	IVLen = aes.BlockSize
)

var (
	ErrBadPadding    = errors.New("dhxfer/prim: bad padding")
	ErrBadCiphertext = errors.New("dhxfer/prim: bad ciphertext length")
)

func pad(p []byte) []byte {
	n := aes.BlockSize - len(p)%aes.BlockSize
	return append(p, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(p []byte) ([]byte, error) {
	if len(p) == 0 {
		return nil, ErrBadPadding
	}

	n := int(p[len(p)-1])
	if n == 0 || n > aes.BlockSize || n > len(p) {
		return nil, ErrBadPadding
	}
	for _, b := range p[len(p)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return p[:len(p)-n], nil
}

// Encrypt encrypts plaintext with AES-CBC under key using a fresh IV drawn from rand (or the system source
// when rand is nil).  The output is IV || ciphertext.
func Encrypt(rand io.Reader, key Key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	iv, err := randomBytes(rand, IVLen)
	if err != nil {
		return nil, err
	}

	padded := pad(append([]byte(nil), plaintext...))
	out := make([]byte, IVLen+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[IVLen:], padded)
	return out, nil
}

// Decrypt reverses Encrypt.
func Decrypt(key Key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < IVLen+aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrBadCiphertext
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(ciphertext)-IVLen)
	cipher.NewCBCDecrypter(block, ciphertext[:IVLen]).CryptBlocks(out, ciphertext[IVLen:])
	return unpad(out)
}
