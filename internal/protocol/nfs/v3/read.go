package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeReadRequest appends READ3args (RFC 1813 Section 3.3.6):
// handle, 64-bit offset, count.
func EncodeReadRequest(enc *xdr.Encoder, handle []byte, offset uint64, count uint32) error {
	if err := enc.WriteOpaque(handle); err != nil {
		return fmt.Errorf("encode read handle: %w", err)
	}
	if err := enc.WriteUint64(offset); err != nil {
		return fmt.Errorf("encode read offset: %w", err)
	}
	if err := enc.WriteUint32(count); err != nil {
		return fmt.Errorf("encode read count: %w", err)
	}
	return nil
}

// ReadReply is a decoded READ3resok.
type ReadReply struct {
	// Count is the number of bytes the server actually read. A short
	// count is not an error.
	Count uint32

	// EOF is set when the read reached the end of file.
	EOF bool

	// Data is a view into the receive buffer holding Count bytes.
	Data []byte
}

// DecodeReadReply decodes a READ3res.
//
// The success arm is, per RFC 1813:
//
//	file_attributes:post_op_attr | count:u32 | eof:bool | data:opaque<>
//
// The data opaque carries its own length word immediately after eof;
// there is no additional count between eof and the data.
func DecodeReadReply(dec *xdr.Decoder) (*ReadReply, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}
	if _, err := nfs.DecodePostOpAttr(dec); err != nil {
		return nil, fmt.Errorf("decode read attributes: %w", err)
	}

	reply := &ReadReply{}
	var err error
	if reply.Count, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode read count: %w", err)
	}
	if reply.EOF, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("decode read eof: %w", err)
	}
	if reply.Data, err = dec.ReadOpaque(); err != nil {
		return nil, fmt.Errorf("decode read data: %w", err)
	}
	if uint32(len(reply.Data)) < reply.Count {
		return nil, fmt.Errorf("read data shorter than count: %d < %d", len(reply.Data), reply.Count)
	}
	return reply, nil
}
