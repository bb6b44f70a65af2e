// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package transfer

import (
	"fmt"
	"os"
	"strconv"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/prim"
)

type sender struct {
	state senderState
	ch    *crypting.Channel
	keys  prim.SessionKeys
}

func (s *sender) advance(to senderState) {
	log.Debugf("sender: %v -> %v", s.state, to)
	s.state = to
}

func (s *sender) send(p []byte) error {
	if err := s.ch.EncryptAndSend(p, s.keys.Cipher); err != nil {
		s.advance(senderFailed)
		return err
	}
	return nil
}

// Send transfers data to be stored under dest on the other side, then waits for the acknowledgment.  It
// returns nil only if the receiver answered "Passed"; any other answer yields an error wrapping ErrRejected.
func Send(ch *crypting.Channel, sess *crypting.Session, dest string, data []byte) error {
	s := &sender{state: sendName, ch: ch, keys: sess.Keys}

	log.Debugf("sending output file name = %s", dest)
	if err := s.send([]byte(dest)); err != nil {
		return err
	}

	s.advance(sendSize)
	log.Debugf("sending file size = %d", len(data))
	if err := s.send([]byte(strconv.Itoa(len(data)))); err != nil {
		return err
	}

	s.advance(sendPayload)
	log.Debug("encrypting and sending file with MAC appended")
	if err := s.send(prim.AppendTag(data, s.keys.MAC)); err != nil {
		return err
	}

	s.advance(awaitAck)
	ack, err := ch.ReceiveAndDecrypt(s.keys.Cipher)
	if err != nil {
		s.advance(senderFailed)
		return err
	}
	log.Debugf("got acknowledgement = %q", ack)

	if string(ack) != AckPassed {
		s.advance(senderFailed)
		return fmt.Errorf("%w: %q", ErrRejected, ack)
	}

	s.advance(senderDone)
	log.Info("file received and verified")
	return nil
}

// SendFile reads source in full and sends it with Send.
func SendFile(ch *crypting.Channel, sess *crypting.Session, source, dest string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	return Send(ch, sess, dest, data)
}
