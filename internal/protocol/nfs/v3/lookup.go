package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeLookupRequest appends LOOKUP3args: the directory handle and the
// name to resolve (RFC 1813 Section 3.3.3).
func EncodeLookupRequest(enc *xdr.Encoder, dirHandle []byte, name string) error {
	if err := enc.WriteOpaque(dirHandle); err != nil {
		return fmt.Errorf("encode lookup dir handle: %w", err)
	}
	if err := enc.WriteString(name); err != nil {
		return fmt.Errorf("encode lookup name: %w", err)
	}
	return nil
}

// LookupReply is a decoded LOOKUP3resok.
type LookupReply struct {
	// Handle is a view into the receive buffer; copy before reuse.
	Handle []byte

	// Attr are the object's post-op attributes, nil if the server
	// omitted them.
	Attr *nfs.FileAttr

	// DirAttr are the directory's post-op attributes, nil if omitted.
	DirAttr *nfs.FileAttr
}

// DecodeLookupReply decodes a LOOKUP3res. On a non-zero status a
// StatusError is returned and the failure arm's directory attributes are
// left unread.
func DecodeLookupReply(dec *xdr.Decoder) (*LookupReply, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}

	handle, err := dec.ReadOpaqueMax(nfs.FileHandleMaxSize)
	if err != nil {
		return nil, fmt.Errorf("decode lookup handle: %w", err)
	}
	attr, err := nfs.DecodePostOpAttr(dec)
	if err != nil {
		return nil, fmt.Errorf("decode lookup attributes: %w", err)
	}
	dirAttr, err := nfs.DecodePostOpAttr(dec)
	if err != nil {
		return nil, fmt.Errorf("decode lookup dir attributes: %w", err)
	}

	return &LookupReply{Handle: handle, Attr: attr, DirAttr: dirAttr}, nil
}
