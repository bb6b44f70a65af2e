// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package transfer moves one file over an established crypting session.

The sender transmits, each as its own encrypted frame, the destination name, the decimal file length, and the
file contents with an authenticator appended.  The receiver checks the authenticator, writes the file only if
it is valid, and answers with an encrypted "Passed" or "Failed".
*/
package transfer

import (
	"errors"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("dhxfer/transfer")

const (
	AckPassed = "Passed"
	AckFailed = "Failed"
)

var (
	ErrRejected = errors.New("dhxfer/transfer: receiver rejected the file")
)

type Params struct {
	// Treat a declared size that is not a decimal integer equal to the received length as an integrity
	// failure.  When false, the declared size is only logged.
	StrictSize bool
}

func DefaultParams() Params {
	return Params{StrictSize: true}
}

type senderState int

const (
	sendName senderState = iota
	sendSize
	sendPayload
	awaitAck
	senderDone
	senderFailed
)

func (st senderState) String() string {
	switch st {
	case sendName:
		return "SEND_NAME"
	case sendSize:
		return "SEND_SIZE"
	case sendPayload:
		return "SEND_PAYLOAD"
	case awaitAck:
		return "AWAIT_ACK"
	case senderDone:
		return "DONE"
	case senderFailed:
		return "FAILED"
	default:
		return "???"
	}
}

type receiverState int

const (
	recvName receiverState = iota
	recvSize
	recvPayload
	verify
	writeAndAckPass
	ackFail
	receiverDone
)

func (st receiverState) String() string {
	switch st {
	case recvName:
		return "RECV_NAME"
	case recvSize:
		return "RECV_SIZE"
	case recvPayload:
		return "RECV_PAYLOAD"
	case verify:
		return "VERIFY"
	case writeAndAckPass:
		return "WRITE_AND_ACK_PASS"
	case ackFail:
		return "ACK_FAIL"
	case receiverDone:
		return "DONE"
	default:
		return "???"
	}
}

type Outcome int

const (
	Failed Outcome = iota
	Passed
)

func (o Outcome) String() string {
	if o == Passed {
		return AckPassed
	}
	return AckFailed
}

// Result describes what a receiver did with one transfer.
type Result struct {
	Name         string
	DeclaredSize string
	Size         int
	Outcome      Outcome

	// Why the transfer failed, if it did.
	Reason string
}
