// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package engine

import (
	"net"
	"time"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/transfer"
)

const (
	DefaultDialTimeout = 30 * time.Second
)

type Client struct {
	Crypting    crypting.Params
	DialTimeout time.Duration
}

func NewClient(params crypting.Params) *Client {
	return &Client{Crypting: params, DialTimeout: DefaultDialTimeout}
}

func (c *Client) session(addr string, body func(*crypting.Channel, *crypting.Session) error) error {
	if err := c.Crypting.Validate(); err != nil {
		return err
	}

	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return &crypting.ConnError{Op: "dial", Err: err}
	}
	log.Infof("connected to %v", conn.RemoteAddr())
	defer func() {
		log.Info("shutting down client")
		if cerr := conn.Close(); cerr != nil {
			log.Debugf("close: %v", cerr)
		}
	}()

	ch := crypting.NewChannel(conn, c.Crypting)
	sess, err := crypting.Initiate(ch, c.Crypting)
	if err != nil {
		return err
	}
	defer sess.Clear()

	return body(ch, sess)
}

// SendFile connects to addr, negotiates a key, and sends the contents of source to be stored as dest.  A nil
// return means the server verified and wrote the file.
func (c *Client) SendFile(addr, source, dest string) error {
	return c.session(addr, func(ch *crypting.Channel, sess *crypting.Session) error {
		return transfer.SendFile(ch, sess, source, dest)
	})
}

// Send is SendFile for data already in memory.
func (c *Client) Send(addr, dest string, data []byte) error {
	return c.session(addr, func(ch *crypting.Channel, sess *crypting.Session) error {
		return transfer.Send(ch, sess, dest, data)
	})
}
