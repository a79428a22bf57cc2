package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeWriteRequest appends WRITE3args (RFC 1813 Section 3.3.7):
// handle, 64-bit offset, count, stability level and the data opaque.
// Count always equals len(data) on the wire.
func EncodeWriteRequest(enc *xdr.Encoder, handle []byte, offset uint64, stable uint32, data []byte) error {
	if err := enc.WriteOpaque(handle); err != nil {
		return fmt.Errorf("encode write handle: %w", err)
	}
	if err := enc.WriteUint64(offset); err != nil {
		return fmt.Errorf("encode write offset: %w", err)
	}
	if err := enc.WriteUint32(uint32(len(data))); err != nil {
		return fmt.Errorf("encode write count: %w", err)
	}
	if err := enc.WriteUint32(stable); err != nil {
		return fmt.Errorf("encode write stable: %w", err)
	}
	if err := enc.WriteOpaque(data); err != nil {
		return fmt.Errorf("encode write data: %w", err)
	}
	return nil
}

// WriteReply is a decoded WRITE3resok.
type WriteReply struct {
	// Count is the number of bytes the server accepted; it may be less
	// than requested.
	Count uint32

	// Committed is the stability level the server achieved. A value
	// above UNSTABLE means the data is already durable.
	Committed uint32

	// Verifier changes iff the server lost uncommitted writes
	// (restart). The session compares it across every WRITE and the
	// final COMMIT.
	Verifier uint64
}

// DecodeWriteReply decodes a WRITE3res. The 8-byte writeverf3 is read as
// one big-endian u64 so comparison is a plain integer equality.
func DecodeWriteReply(dec *xdr.Decoder) (*WriteReply, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		// Failure arm carries file_wcc only.
		return nil, err
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return nil, fmt.Errorf("decode write wcc: %w", err)
	}

	reply := &WriteReply{}
	var err error
	if reply.Count, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode write count: %w", err)
	}
	if reply.Committed, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode write committed: %w", err)
	}
	if reply.Verifier, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode write verifier: %w", err)
	}
	return reply, nil
}

// EncodeCommitRequest appends COMMIT3args (RFC 1813 Section 3.3.21).
// The client commits the whole file: offset 0, count 0.
func EncodeCommitRequest(enc *xdr.Encoder, handle []byte, offset uint64, count uint32) error {
	if err := enc.WriteOpaque(handle); err != nil {
		return fmt.Errorf("encode commit handle: %w", err)
	}
	if err := enc.WriteUint64(offset); err != nil {
		return fmt.Errorf("encode commit offset: %w", err)
	}
	if err := enc.WriteUint32(count); err != nil {
		return fmt.Errorf("encode commit count: %w", err)
	}
	return nil
}

// DecodeCommitReply decodes a COMMIT3res and returns the server's write
// verifier for continuity checking against the session's WRITEs.
func DecodeCommitReply(dec *xdr.Decoder) (uint64, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return 0, err
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return 0, fmt.Errorf("decode commit wcc: %w", err)
	}
	verf, err := dec.ReadUint64()
	if err != nil {
		return 0, fmt.Errorf("decode commit verifier: %w", err)
	}
	return verf, nil
}
