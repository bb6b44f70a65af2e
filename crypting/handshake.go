// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"fmt"
	"math/big"

	"github.com/msimiste/dhxfer/prim"
)

type state int

const (
	stateStart state = iota

	// Initiator: p and g are on the wire.
	stateSentParams

	// Responder: waiting for p and g.
	stateAwaitingParams

	// Own exponent is chosen; waiting for the other side's public value.
	stateAwaitingPeerPublic

	// Key derived; exponents and shared secret are gone.
	stateKeyDerived

	stateFailed
)

func (st state) String() string {
	switch st {
	case stateStart:
		return "START"
	case stateSentParams:
		return "SENT_PARAMS"
	case stateAwaitingParams:
		return "AWAITING_PARAMS"
	case stateAwaitingPeerPublic:
		return "AWAITING_PEER_PUBLIC"
	case stateKeyDerived:
		return "KEY_DERIVED"
	case stateFailed:
		return "FAILED"
	default:
		return "???"
	}
}

var two = big.NewInt(2)

// handshake holds the transient state of one key exchange.  None of it outlives Initiate or Respond except
// through the returned Session.
type handshake struct {
	role   Role
	state  state
	ch     *Channel
	params Params

	p, g   *big.Int
	local  *big.Int
	remote *big.Int
}

func (hs *handshake) advance(to state) {
	log.Debugf("%v: %v -> %v", hs.role, hs.state, to)
	hs.state = to
}

func (hs *handshake) fail(err error) error {
	hs.advance(stateFailed)
	hs.wipe()
	return err
}

func (hs *handshake) wipe() {
	prim.Wipe(hs.local)
	hs.local = nil
}

func (hs *handshake) chooseExponent() (err error) {
	hs.local, err = prim.RandomExponent(hs.params.Rand, new(big.Int).Sub(hs.p, two))
	return
}

func (hs *handshake) public() *big.Int {
	return new(big.Int).Exp(hs.g, hs.local, hs.p)
}

func (hs *handshake) receivePublic() error {
	y, err := hs.ch.receiveInt()
	if err != nil {
		return err
	}
	if !prim.ValidatePublic(y, hs.p) {
		return fmt.Errorf("%w: public value out of range", ErrBadHandshake)
	}
	hs.remote = y
	return nil
}

// derive computes the shared secret and the session keys from it, then destroys the exponent and secret.
func (hs *handshake) derive() *Session {
	secret := new(big.Int).Exp(hs.remote, hs.local, hs.p)
	key := prim.DeriveKey(secret)
	prim.Wipe(secret)
	hs.wipe()

	sess := &Session{
		Role:      hs.role,
		Modulus:   hs.p,
		Generator: hs.g,
		Key:       key,
	}
	if hs.params.LegacyKeys {
		sess.Keys = key.Shared()
	} else {
		sess.Keys = key.Separate()
	}

	hs.advance(stateKeyDerived)
	log.Debugf("%v: using key = %s", hs.role, key.Hex())
	return sess
}

func (hs *handshake) generateGroup() (err error) {
	if hs.params.SafeModulus {
		hs.p, err = prim.GenerateSafeModulus(hs.params.Rand, hs.params.ModulusBits)
	} else {
		hs.p, err = prim.GenerateModulus(hs.params.Rand, hs.params.ModulusBits)
	}
	if err != nil {
		return
	}

	hs.g, err = prim.FindPrimitiveRoot(hs.p)
	return
}

// Initiate runs the initiator's half of the key exchange over ch: generate p and g, send them, receive the
// responder's public value, send our own, derive the key.
func Initiate(ch *Channel, params Params) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hs := &handshake{role: Initiator, state: stateStart, ch: ch, params: params}

	log.Debugf("%v: generating %d-bit modulus", hs.role, params.ModulusBits)
	if err := hs.generateGroup(); err != nil {
		return nil, hs.fail(err)
	}
	if err := hs.chooseExponent(); err != nil {
		return nil, hs.fail(err)
	}

	if err := ch.sendInt(hs.p); err != nil {
		return nil, hs.fail(err)
	}
	if err := ch.sendInt(hs.g); err != nil {
		return nil, hs.fail(err)
	}
	hs.advance(stateSentParams)

	hs.advance(stateAwaitingPeerPublic)
	if err := hs.receivePublic(); err != nil {
		return nil, hs.fail(err)
	}

	if err := ch.sendInt(hs.public()); err != nil {
		return nil, hs.fail(err)
	}

	return hs.derive(), nil
}

// Respond runs the responder's half of the key exchange over ch: receive p and g, send our public value,
// receive the initiator's, derive the key.
func Respond(ch *Channel, params Params) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hs := &handshake{role: Responder, state: stateStart, ch: ch, params: params}
	hs.advance(stateAwaitingParams)

	var err error
	if hs.p, err = ch.receiveInt(); err != nil {
		return nil, hs.fail(err)
	}
	if hs.g, err = ch.receiveInt(); err != nil {
		return nil, hs.fail(err)
	}
	// A safe modulus is one bit longer than the size the initiator asked for.
	if err = prim.ValidateGroup(hs.p, hs.g, params.MinModulusBits, MaxModulusBits+1); err != nil {
		return nil, hs.fail(fmt.Errorf("%w: %v", ErrBadHandshake, err))
	}
	log.Debugf("%v: got %d-bit modulus, g = %v", hs.role, hs.p.BitLen(), hs.g)

	if err = hs.chooseExponent(); err != nil {
		return nil, hs.fail(err)
	}
	if err = ch.sendInt(hs.public()); err != nil {
		return nil, hs.fail(err)
	}

	hs.advance(stateAwaitingPeerPublic)
	if err = hs.receivePublic(); err != nil {
		return nil, hs.fail(err)
	}

	return hs.derive(), nil
}
