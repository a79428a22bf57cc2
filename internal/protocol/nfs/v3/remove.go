package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeDirOpRequest appends a diropargs3 body: directory handle plus
// name. REMOVE (RFC 1813 Section 3.3.12) and RMDIR (Section 3.3.13)
// both take exactly this.
func EncodeDirOpRequest(enc *xdr.Encoder, dirHandle []byte, name string) error {
	if err := enc.WriteOpaque(dirHandle); err != nil {
		return fmt.Errorf("encode dirop handle: %w", err)
	}
	if err := enc.WriteString(name); err != nil {
		return fmt.Errorf("encode dirop name: %w", err)
	}
	return nil
}

// DecodeWccOnlyReply decodes a reply whose both arms carry only a
// wcc_data block: REMOVE3res and RMDIR3res.
func DecodeWccOnlyReply(dec *xdr.Decoder) error {
	if err := nfs.ReadStatus(dec); err != nil {
		return err
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return fmt.Errorf("decode dirop wcc: %w", err)
	}
	return nil
}
