package xdr

import (
	"encoding/binary"
	"fmt"
)

// ============================================================================
// XDR Decoding - Wire Format → Go Types
// ============================================================================

// Decoder reads XDR primitives from a received datagram.
//
// The decoder operates on the same scratch buffer the transceiver filled,
// restricted to the length of the received message. Every read validates
// that it stays inside the message: a length field that would run past
// the end fails with ErrShortMessage instead of reading stale bytes from
// a previous reply.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a decoder over the received message bytes.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the current read position.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// ReadUint32 decodes a big-endian 32-bit unsigned integer.
func (d *Decoder) ReadUint32() (uint32, error) {
	if d.Remaining() < 4 {
		return 0, ErrShortMessage
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

// ReadInt32 decodes a big-endian 32-bit signed integer.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadUint64 decodes a big-endian 64-bit unsigned integer, high word
// first. Sizes, offsets, fileids and cookies are all full 64-bit values
// per RFC 1813; they must never be truncated to the low word.
func (d *Decoder) ReadUint64() (uint64, error) {
	if d.Remaining() < 8 {
		return 0, ErrShortMessage
	}
	v := binary.BigEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

// ReadBool decodes an XDR boolean: 0 is false, anything else is true.
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadOpaque decodes variable-length opaque data and skips its padding.
//
// The returned slice is a view into the message buffer, valid only until
// the buffer is reused for the next call. Callers that store the value
// (file handles, names) must copy it; see the Handle type in the client
// package.
func (d *Decoder) ReadOpaque() ([]byte, error) {
	length, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	total := int(length) + int(Pad(length))
	if d.Remaining() < total {
		return nil, fmt.Errorf("opaque of %d bytes exceeds message: %w", length, ErrShortMessage)
	}
	data := d.buf[d.off : d.off+int(length)]
	d.off += total
	return data, nil
}

// ReadOpaqueMax decodes opaque data, rejecting values longer than max.
// Used for bounded fields such as file handles (64 bytes per RFC 1813).
func (d *Decoder) ReadOpaqueMax(max uint32) ([]byte, error) {
	save := d.off
	data, err := d.ReadOpaque()
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > max {
		d.off = save
		return nil, fmt.Errorf("opaque of %d bytes exceeds maximum %d", len(data), max)
	}
	return data, nil
}

// ReadString decodes an XDR string. The bytes are copied, so the result
// stays valid after the buffer is reused.
func (d *Decoder) ReadString() (string, error) {
	data, err := d.ReadOpaque()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Skip advances the read position by n bytes.
func (d *Decoder) Skip(n int) error {
	if d.Remaining() < n {
		return ErrShortMessage
	}
	d.off += n
	return nil
}
