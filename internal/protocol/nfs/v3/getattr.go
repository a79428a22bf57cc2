package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeGetAttrRequest appends GETATTR3args: just the file handle
// (RFC 1813 Section 3.3.1).
func EncodeGetAttrRequest(enc *xdr.Encoder, handle []byte) error {
	if err := enc.WriteOpaque(handle); err != nil {
		return fmt.Errorf("encode getattr handle: %w", err)
	}
	return nil
}

// DecodeGetAttrReply decodes a GETATTR3res. Unlike most procedures the
// success arm carries a bare fattr3 with no presence boolean.
func DecodeGetAttrReply(dec *xdr.Decoder) (*nfs.FileAttr, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}
	attr, err := nfs.DecodeFileAttr(dec)
	if err != nil {
		return nil, fmt.Errorf("decode getattr attributes: %w", err)
	}
	return attr, nil
}
