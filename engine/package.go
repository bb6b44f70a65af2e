// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package engine runs dhxfer over TCP.

A Client dials a server, acts as the key-exchange initiator, and sends one file.  A Server accepts
connections and gives each its own worker, which acts as the responder and receives one file.  By default the
first worker to finish, whatever the outcome, shuts the whole server down: every other connection is closed
and no more are accepted.  Set KeepServing in the ServerConfig to run a long-lived receiver instead.
*/
package engine

import (
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("dhxfer")

// LogModules names every logger in the module, for configuring levels.
var LogModules = []string{
	"dhxfer",
	"dhxfer/crypting",
	"dhxfer/prim",
	"dhxfer/proc",
	"dhxfer/transfer",
}
