// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"fmt"
	"io"
	"math/big"

	"github.com/op/go-logging"

	"github.com/msimiste/dhxfer/prim"
)

var log = logging.MustGetLogger("dhxfer/crypting")

// A Channel moves frames over one connection.  Plain frames carry the handshake; encrypted frames carry
// everything after it.  A Channel is not safe for concurrent use; each session owns its own.
type Channel struct {
	rw       io.ReadWriter
	maxFrame int
	rand     io.Reader
}

func NewChannel(rw io.ReadWriter, params Params) *Channel {
	maxFrame := params.MaxFrameLen
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameLen
	}
	return &Channel{rw: rw, maxFrame: maxFrame, rand: params.Rand}
}

func (ch *Channel) SendFrame(p []byte) error {
	return WriteFrame(ch.rw, p)
}

func (ch *Channel) ReceiveFrame() ([]byte, error) {
	return ReadFrame(ch.rw, ch.maxFrame)
}

// EncryptAndSend encrypts plaintext under key with a fresh IV and sends the result as one frame.
func (ch *Channel) EncryptAndSend(plaintext []byte, key prim.Key) error {
	ct, err := prim.Encrypt(ch.rand, key, plaintext)
	if err != nil {
		return err
	}
	return ch.SendFrame(ct)
}

// ReceiveAndDecrypt receives one frame and decrypts it under key.  Malformed ciphertext yields an error
// wrapping ErrBadDecode.
func (ch *Channel) ReceiveAndDecrypt(key prim.Key) ([]byte, error) {
	ct, err := ch.ReceiveFrame()
	if err != nil {
		return nil, err
	}

	plaintext, err := prim.Decrypt(key, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDecode, err)
	}
	return plaintext, nil
}

func (ch *Channel) sendInt(x *big.Int) error {
	return ch.SendFrame(prim.IntBinary(x))
}

func (ch *Channel) receiveInt() (*big.Int, error) {
	b, err := ch.ReceiveFrame()
	if err != nil {
		return nil, err
	}

	x, err := prim.LoadIntBinary(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDecode, err)
	}
	return x, nil
}
