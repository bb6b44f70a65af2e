// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package transfer

import (
	"strconv"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/prim"
)

type receiver struct {
	state  receiverState
	ch     *crypting.Channel
	keys   prim.SessionKeys
	params Params
}

func (r *receiver) advance(to receiverState) {
	log.Debugf("receiver: %v -> %v", r.state, to)
	r.state = to
}

func (r *receiver) receive() ([]byte, error) {
	return r.ch.ReceiveAndDecrypt(r.keys.Cipher)
}

// checkSize returns a failure reason if the declared size does not describe the received message.
func (r *receiver) checkSize(declared string, actual int) string {
	n, err := strconv.Atoi(declared)
	switch {
	case !r.params.StrictSize:
		if err != nil || n != actual {
			log.Warningf("declared size %q does not match %d received octets; ignoring", declared, actual)
		}
		return ""
	case err != nil || n < 0:
		return "declared size is not a length"
	case n != actual:
		return "declared size does not match payload"
	}
	return ""
}

func (r *receiver) ack(result *Result) error {
	text := AckFailed
	if result.Outcome == Passed {
		text = AckPassed
	}
	log.Debugf("sending %q acknowledgement", text)
	return r.ch.EncryptAndSend([]byte(text), r.keys.Cipher)
}

// Receive runs the receiving half of a transfer.  An integrity failure is not an error: it yields a Failed
// result after the peer has been told so.  Errors are returned for connection and decoding failures, and for
// a store that could not write a valid file; in that last case the peer has already been sent "Failed".
func Receive(ch *crypting.Channel, sess *crypting.Session, store Store, params Params) (Result, error) {
	r := &receiver{state: recvName, ch: ch, keys: sess.Keys, params: params}
	var result Result

	name, err := r.receive()
	if err != nil {
		return result, err
	}
	result.Name = string(name)
	log.Infof("output file: %s", result.Name)

	r.advance(recvSize)
	size, err := r.receive()
	if err != nil {
		return result, err
	}
	result.DeclaredSize = string(size)
	log.Infof("file size = %s", result.DeclaredSize)

	r.advance(recvPayload)
	tagged, err := r.receive()
	if err != nil {
		return result, err
	}

	r.advance(verify)
	message, ok := prim.VerifyAndStrip(tagged, r.keys.MAC)
	result.Size = len(message)
	switch {
	case !ok:
		result.Reason = "integrity check failed"
	default:
		result.Reason = r.checkSize(result.DeclaredSize, len(message))
	}

	if result.Reason != "" {
		r.advance(ackFail)
		log.Warningf("%s; file not written", result.Reason)
		err = r.ack(&result)
		r.advance(receiverDone)
		return result, err
	}

	r.advance(writeAndAckPass)
	log.Info("message digest OK; writing file")
	if werr := store.WriteFile(result.Name, message); werr != nil {
		result.Reason = "cannot write file: " + werr.Error()
		log.Errorf("%s", result.Reason)
		if err = r.ack(&result); err != nil {
			log.Debugf("sending failure acknowledgement: %v", err)
		}
		r.advance(receiverDone)
		return result, werr
	}

	result.Outcome = Passed
	err = r.ack(&result)
	r.advance(receiverDone)
	if err == nil {
		log.Info("file written successfully")
	}
	return result, err
}
