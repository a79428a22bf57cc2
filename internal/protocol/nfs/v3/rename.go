package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// EncodeRenameRequest appends RENAME3args (RFC 1813 Section 3.3.14):
// two diropargs3, source then destination.
func EncodeRenameRequest(enc *xdr.Encoder, fromDir []byte, fromName string, toDir []byte, toName string) error {
	if err := EncodeDirOpRequest(enc, fromDir, fromName); err != nil {
		return fmt.Errorf("encode rename source: %w", err)
	}
	if err := EncodeDirOpRequest(enc, toDir, toName); err != nil {
		return fmt.Errorf("encode rename destination: %w", err)
	}
	return nil
}

// DecodeRenameReply decodes a RENAME3res: status followed by wcc_data
// for both directories on either arm.
func DecodeRenameReply(dec *xdr.Decoder) error {
	if err := nfs.ReadStatus(dec); err != nil {
		return err
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return fmt.Errorf("decode rename fromdir wcc: %w", err)
	}
	if err := nfs.SkipWccData(dec); err != nil {
		return fmt.Errorf("decode rename todir wcc: %w", err)
	}
	return nil
}
