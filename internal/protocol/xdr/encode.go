package xdr

import "encoding/binary"

// ============================================================================
// XDR Encoding - Go Types → Wire Format
// ============================================================================

// Encoder serializes XDR primitives into a borrowed scratch buffer.
//
// The encoder never allocates and never grows the buffer: every write
// checks the remaining capacity and fails with ErrBufferOverflow when the
// message would not fit. Positions are byte offsets from the start of the
// buffer, which is also the start of the RPC message.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder returns an encoder writing into buf starting at offset 0.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Offset returns the number of bytes written so far.
func (e *Encoder) Offset() int {
	return e.off
}

// Bytes returns the encoded message as a view into the scratch buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf[:e.off]
}

// ensure checks that n more bytes fit in the scratch buffer.
func (e *Encoder) ensure(n int) error {
	if e.off+n > len(e.buf) {
		return ErrBufferOverflow
	}
	return nil
}

// WriteUint32 encodes a 32-bit unsigned integer in big-endian byte order
// (RFC 4506 Section 4.1).
func (e *Encoder) WriteUint32(v uint32) error {
	if err := e.ensure(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(e.buf[e.off:], v)
	e.off += 4
	return nil
}

// WriteInt32 encodes a 32-bit signed integer in big-endian two's
// complement (RFC 4506 Section 4.1).
func (e *Encoder) WriteInt32(v int32) error {
	return e.WriteUint32(uint32(v))
}

// WriteUint64 encodes a 64-bit unsigned integer, high word first
// (RFC 4506 Section 4.5).
func (e *Encoder) WriteUint64(v uint64) error {
	if err := e.ensure(8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(e.buf[e.off:], v)
	e.off += 8
	return nil
}

// WriteBool encodes a boolean as a uint32 with 0 = false, 1 = true
// (RFC 4506 Section 4.4).
func (e *Encoder) WriteBool(v bool) error {
	var val uint32
	if v {
		val = 1
	}
	return e.WriteUint32(val)
}

// WriteOpaque encodes variable-length opaque data as length + bytes +
// zero padding to a 4-byte boundary (RFC 4506 Section 4.10).
//
// Used for file handles and WRITE payloads.
func (e *Encoder) WriteOpaque(data []byte) error {
	length := uint32(len(data))
	total := 4 + int(length) + int(Pad(length))
	if err := e.ensure(total); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(e.buf[e.off:], length)
	e.off += 4
	copy(e.buf[e.off:], data)
	e.off += int(length)
	for i := uint32(0); i < Pad(length); i++ {
		e.buf[e.off] = 0
		e.off++
	}
	return nil
}

// WriteString encodes a string exactly like opaque data
// (RFC 4506 Section 4.11).
func (e *Encoder) WriteString(s string) error {
	length := uint32(len(s))
	total := 4 + int(length) + int(Pad(length))
	if err := e.ensure(total); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(e.buf[e.off:], length)
	e.off += 4
	copy(e.buf[e.off:], s)
	e.off += int(length)
	for i := uint32(0); i < Pad(length); i++ {
		e.buf[e.off] = 0
		e.off++
	}
	return nil
}

// ReserveUint32 skips a 4-byte slot and returns its position so the
// caller can back-patch it once the value is known. The RPC credential
// length is written this way: the body is encoded first, then the
// length word is patched.
func (e *Encoder) ReserveUint32() (int, error) {
	if err := e.ensure(4); err != nil {
		return 0, err
	}
	pos := e.off
	binary.BigEndian.PutUint32(e.buf[pos:], 0)
	e.off += 4
	return pos, nil
}

// PatchUint32 overwrites a previously reserved slot. pos must come from
// ReserveUint32 on the same encoder.
func (e *Encoder) PatchUint32(pos int, v uint32) {
	binary.BigEndian.PutUint32(e.buf[pos:], v)
}
