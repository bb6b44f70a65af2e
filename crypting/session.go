// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"math/big"

	"github.com/msimiste/dhxfer/prim"
)

type Role int

const (
	// The side that generates the group and speaks first; the client.
	Initiator Role = iota

	// The side that accepts the group; a server worker.
	Responder
)

func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	default:
		return "???"
	}
}

// A Session is the result of a completed handshake.  It is the only place key material lives after the
// handshake returns, and it belongs to exactly one connection.
type Session struct {
	Role      Role
	Modulus   *big.Int
	Generator *big.Int

	// Key is the 16-octet digest of the shared secret.
	Key prim.Key

	// Keys holds the cipher and authenticator keys actually used for transfer.
	Keys prim.SessionKeys
}

func (s *Session) Clear() {
	s.Key.Clear()
	s.Keys.Clear()
}
