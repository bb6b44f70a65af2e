// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package engine

import (
	"io"
	"net"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/proc"
	"github.com/msimiste/dhxfer/transfer"
)

// A Report is what a server worker produced for one connection.
type Report struct {
	Id     proc.DisplayId
	Remote net.Addr
	Result transfer.Result

	// Non-nil if the handshake or transfer broke off, or the file could not be stored.
	Err error
}

// Passed reports whether the worker wrote the file and acknowledged it.
func (r Report) Passed() bool {
	return r.Err == nil && r.Result.Outcome == transfer.Passed
}

// ServeConn runs the responder side of one session over conn: key exchange, then receiving one file into
// store.  It does not close conn.
func ServeConn(conn io.ReadWriter, cparams crypting.Params, tparams transfer.Params, store transfer.Store) (transfer.Result, error) {
	ch := crypting.NewChannel(conn, cparams)
	sess, err := crypting.Respond(ch, cparams)
	if err != nil {
		return transfer.Result{}, err
	}
	defer sess.Clear()

	return transfer.Receive(ch, sess, store, tparams)
}

// work owns conn from acceptance to close.
func (s *Server) work(id proc.DisplayId, conn net.Conn) {
	log.Infof("%v: accepted connection from %v", id, conn.RemoteAddr())

	result, err := ServeConn(conn, s.config.Crypting, s.config.Transfer, s.config.Store)
	report := Report{Id: id, Remote: conn.RemoteAddr(), Result: result, Err: err}

	switch {
	case err != nil:
		log.Errorf("%v: session aborted: %v", id, err)
	case result.Outcome == transfer.Passed:
		log.Noticef("%v: received %q (%d octets)", id, result.Name, result.Size)
	default:
		log.Warningf("%v: rejected %q: %s", id, result.Name, result.Reason)
	}

	if cerr := conn.Close(); cerr != nil {
		log.Debugf("%v: close: %v", id, cerr)
	}

	if s.config.OnComplete != nil {
		s.config.OnComplete(report)
	}

	if s.config.Policy == ShutdownOnFirstCompletion {
		s.Shutdown(report)
	}
}
