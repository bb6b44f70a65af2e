// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package prim

import (
	"crypto/hmac"
	"crypto/sha1"
)

const (
	AuthLen = sha1.Size
)

// ComputeTag returns HMAC-SHA1 of message under key.
func ComputeTag(message []byte, key Key) []byte {
	mac := hmac.New(sha1.New, key[:])
	mac.Write(message)
	return mac.Sum(nil)
}

// AppendTag returns a new slice holding message followed by its tag.
func AppendTag(message []byte, key Key) []byte {
	out := make([]byte, 0, len(message)+AuthLen)
	out = append(out, message...)
	return append(out, ComputeTag(message, key)...)
}

// VerifyAndStrip splits tagged into message and tag and reports whether the tag is valid.  The message is
// returned either way; callers must check ok before trusting it.  Input shorter than a tag yields nil, false.
func VerifyAndStrip(tagged []byte, key Key) (message []byte, ok bool) {
	if len(tagged) < AuthLen {
		return nil, false
	}

	split := len(tagged) - AuthLen
	message = tagged[:split]
	ok = hmac.Equal(ComputeTag(message, key), tagged[split:])
	return
}
