package xdr

import "errors"

// ErrShortMessage indicates a read would run past the end of the
// decoder's buffer.
var ErrShortMessage = errors.New("xdr: short message")

// ErrBufferOverflow indicates a write would not fit in the encoder's
// scratch buffer.
var ErrBufferOverflow = errors.New("xdr: buffer overflow")

// Pad returns the number of zero bytes needed to align n to a 4-byte
// boundary, per RFC 4506 Section 4.9/4.10.
func Pad(n uint32) uint32 {
	return (4 - n%4) % 4
}
