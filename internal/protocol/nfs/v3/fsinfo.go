package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeFSInfoRequest appends FSINFO3args: the root file handle
// (RFC 1813 Section 3.3.19). Issued once at mount time.
func EncodeFSInfoRequest(enc *xdr.Encoder, rootHandle []byte) error {
	if err := enc.WriteOpaque(rootHandle); err != nil {
		return fmt.Errorf("encode fsinfo handle: %w", err)
	}
	return nil
}

// DecodeFSInfoReply decodes a FSINFO3res into the transfer preferences
// the chunked READ/WRITE paths size themselves from. The trailing
// maxfilesize, time_delta and properties fields are decoded and
// discarded.
func DecodeFSInfoReply(dec *xdr.Decoder) (*nfs.FSInfo, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}
	if _, err := nfs.DecodePostOpAttr(dec); err != nil {
		return nil, fmt.Errorf("decode fsinfo attributes: %w", err)
	}

	info := &nfs.FSInfo{}
	for _, field := range []*uint32{
		&info.RTMax, &info.RTPref, &info.RTMult,
		&info.WTMax, &info.WTPref, &info.WTMult,
		&info.DTPref,
	} {
		v, err := dec.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("decode fsinfo preferences: %w", err)
		}
		*field = v
	}

	// maxfilesize:u64 | time_delta:nfstime3 | properties:u32
	if err := dec.Skip(8 + 8 + 4); err != nil {
		return nil, fmt.Errorf("decode fsinfo tail: %w", err)
	}
	return info, nil
}
