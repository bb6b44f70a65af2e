// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"errors"
	"net"
)

var (
	ErrBadHandshake = errors.New("dhxfer/crypting: bad handshake")
	ErrBadDecode    = errors.New("dhxfer/crypting: bad decode")
	ErrBadFrame     = errors.New("dhxfer/crypting: bad frame length")
	ErrBadParams    = errors.New("dhxfer/crypting: bad parameters")
)

// A ConnError reports that the underlying stream failed: it was closed, ended early, or delivered a frame
// header that cannot be honored.  A session that sees one is over.
type ConnError struct {
	Op  string
	Err error
}

var _ net.Error = (*ConnError)(nil)

func (e *ConnError) Error() string {
	return "dhxfer/crypting: " + e.Op + ": " + e.Err.Error()
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

func (e *ConnError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func (e *ConnError) Temporary() bool {
	return false
}

// IsConnError reports whether err is, or wraps, a ConnError.
func IsConnError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}
