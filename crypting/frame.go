// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	FrameHeaderLen = 4
)

// Wire layout of a frame:
//
//	| 4B signed big-endian length | payload |

// WriteFrame writes p as a single frame with one call to w.Write.
func WriteFrame(w io.Writer, p []byte) error {
	if len(p) > math.MaxInt32 {
		return ErrBadFrame
	}

	wire := make([]byte, FrameHeaderLen+len(p))
	binary.BigEndian.PutUint32(wire, uint32(len(p)))
	copy(wire[FrameHeaderLen:], p)
	if _, err := w.Write(wire); err != nil {
		return &ConnError{"write frame", err}
	}
	return nil
}

// ReadFrame reads one frame from r, blocking until it is complete.  Lengths that are negative or above
// maxLen fail with a ConnError wrapping ErrBadFrame.
func ReadFrame(r io.Reader, maxLen int) ([]byte, error) {
	var header [FrameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, &ConnError{"read frame header", err}
	}

	size := int32(binary.BigEndian.Uint32(header[:]))
	if size < 0 || int(size) > maxLen {
		return nil, &ConnError{"read frame header", ErrBadFrame}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ConnError{"read frame payload", err}
	}
	return payload, nil
}
