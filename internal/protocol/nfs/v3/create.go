package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeCreateRequest appends CREATE3args (RFC 1813 Section 3.3.8):
// directory handle, name, create mode and the initial attributes. Only
// UNCHECKED and GUARDED are supported; EXCLUSIVE would carry a verifier
// instead of attributes and is never sent by this client.
func EncodeCreateRequest(enc *xdr.Encoder, dirHandle []byte, name string, mode uint32, attr *nfs.SetAttr) error {
	if mode == nfs.CreateExclusive {
		return fmt.Errorf("exclusive create not supported")
	}
	if err := enc.WriteOpaque(dirHandle); err != nil {
		return fmt.Errorf("encode create dir handle: %w", err)
	}
	if err := enc.WriteString(name); err != nil {
		return fmt.Errorf("encode create name: %w", err)
	}
	if err := enc.WriteUint32(mode); err != nil {
		return fmt.Errorf("encode create mode: %w", err)
	}
	if err := nfs.EncodeSetAttr(enc, attr); err != nil {
		return fmt.Errorf("encode create attributes: %w", err)
	}
	return nil
}

// CreateReply is a decoded CREATE3resok / MKDIR3resok. Both carry an
// optional handle and optional attributes followed by the directory's
// wcc_data.
type CreateReply struct {
	// Handle is the new object's handle, nil when the server chose not
	// to return one (the caller then falls back to LOOKUP). View into
	// the receive buffer.
	Handle []byte

	// Attr are the new object's attributes, nil if omitted.
	Attr *nfs.FileAttr
}

// DecodeCreateReply decodes a CREATE3res or MKDIR3res; the two results
// share their layout.
func DecodeCreateReply(dec *xdr.Decoder) (*CreateReply, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}

	reply := &CreateReply{}

	// post_op_fh3: presence boolean + handle
	hasHandle, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("decode create handle flag: %w", err)
	}
	if hasHandle {
		if reply.Handle, err = dec.ReadOpaqueMax(nfs.FileHandleMaxSize); err != nil {
			return nil, fmt.Errorf("decode create handle: %w", err)
		}
	}

	if reply.Attr, err = nfs.DecodePostOpAttr(dec); err != nil {
		return nil, fmt.Errorf("decode create attributes: %w", err)
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return nil, fmt.Errorf("decode create dir wcc: %w", err)
	}
	return reply, nil
}

// EncodeMkdirRequest appends MKDIR3args (RFC 1813 Section 3.3.9):
// directory handle, name and initial attributes. There is no create
// mode; MKDIR is always guarded by the protocol.
func EncodeMkdirRequest(enc *xdr.Encoder, dirHandle []byte, name string, attr *nfs.SetAttr) error {
	if err := enc.WriteOpaque(dirHandle); err != nil {
		return fmt.Errorf("encode mkdir dir handle: %w", err)
	}
	if err := enc.WriteString(name); err != nil {
		return fmt.Errorf("encode mkdir name: %w", err)
	}
	if err := nfs.EncodeSetAttr(enc, attr); err != nil {
		return fmt.Errorf("encode mkdir attributes: %w", err)
	}
	return nil
}
