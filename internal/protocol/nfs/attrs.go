package nfs

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// ============================================================================
// Attribute Codecs
// ============================================================================

// DecodeFileAttr decodes a fattr3 field by field (RFC 1813 Section
// 2.3.5). The struct is never memcpy'd off the wire: size, used, fsid
// and fileid are full 64-bit values and must be read high word first.
func DecodeFileAttr(dec *xdr.Decoder) (*FileAttr, error) {
	attr := &FileAttr{}
	var err error

	if attr.Type, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 type: %w", err)
	}
	if attr.Mode, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 mode: %w", err)
	}
	if attr.Nlink, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 nlink: %w", err)
	}
	if attr.UID, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 uid: %w", err)
	}
	if attr.GID, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 gid: %w", err)
	}
	if attr.Size, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode fattr3 size: %w", err)
	}
	if attr.Used, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode fattr3 used: %w", err)
	}
	if attr.Rdev[0], err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 rdev: %w", err)
	}
	if attr.Rdev[1], err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode fattr3 rdev: %w", err)
	}
	if attr.Fsid, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode fattr3 fsid: %w", err)
	}
	if attr.Fileid, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode fattr3 fileid: %w", err)
	}
	for _, tv := range []*TimeVal{&attr.Atime, &attr.Mtime, &attr.Ctime} {
		if tv.Seconds, err = dec.ReadUint32(); err != nil {
			return nil, fmt.Errorf("decode fattr3 time: %w", err)
		}
		if tv.Nseconds, err = dec.ReadUint32(); err != nil {
			return nil, fmt.Errorf("decode fattr3 time: %w", err)
		}
	}
	return attr, nil
}

// DecodePostOpAttr decodes a post_op_attr: a presence boolean followed
// by a fattr3 when present. Returns nil when the server sent none.
func DecodePostOpAttr(dec *xdr.Decoder) (*FileAttr, error) {
	present, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("decode post_op_attr flag: %w", err)
	}
	if !present {
		return nil, nil
	}
	return DecodeFileAttr(dec)
}

// SkipWccData skips a wcc_data block (RFC 1813 Section 2.6): an optional
// pre-op size/mtime/ctime triple and an optional post-op fattr3. The
// client does no weak-cache-consistency tracking, but the block still
// has to be walked to reach the fields after it.
func SkipWccData(dec *xdr.Decoder) error {
	preOp, err := dec.ReadBool()
	if err != nil {
		return fmt.Errorf("decode pre_op_attr flag: %w", err)
	}
	if preOp {
		// wcc_attr: size:u64 mtime:nfstime3 ctime:nfstime3
		if err := dec.Skip(8 + 8 + 8); err != nil {
			return fmt.Errorf("skip wcc_attr: %w", err)
		}
	}
	if _, err := DecodePostOpAttr(dec); err != nil {
		return err
	}
	return nil
}

// EncodeSetAttr appends a sattr3 (RFC 1813 Section 2.3.7). Each field is
// a set-flag union; atime/mtime carry the tri-state discriminant and an
// explicit timestamp only with TimeClient.
func EncodeSetAttr(enc *xdr.Encoder, attr *SetAttr) error {
	if err := enc.WriteBool(attr.SetMode); err != nil {
		return err
	}
	if attr.SetMode {
		if err := enc.WriteUint32(attr.Mode); err != nil {
			return err
		}
	}
	if err := enc.WriteBool(attr.SetUID); err != nil {
		return err
	}
	if attr.SetUID {
		if err := enc.WriteUint32(attr.UID); err != nil {
			return err
		}
	}
	if err := enc.WriteBool(attr.SetGID); err != nil {
		return err
	}
	if attr.SetGID {
		if err := enc.WriteUint32(attr.GID); err != nil {
			return err
		}
	}
	if err := enc.WriteBool(attr.SetSize); err != nil {
		return err
	}
	if attr.SetSize {
		if err := enc.WriteUint64(attr.Size); err != nil {
			return err
		}
	}
	if err := enc.WriteUint32(attr.SetAtime); err != nil {
		return err
	}
	if attr.SetAtime == TimeClient {
		if err := enc.WriteUint32(attr.AtimeVal.Seconds); err != nil {
			return err
		}
		if err := enc.WriteUint32(attr.AtimeVal.Nseconds); err != nil {
			return err
		}
	}
	if err := enc.WriteUint32(attr.SetMtime); err != nil {
		return err
	}
	if attr.SetMtime == TimeClient {
		if err := enc.WriteUint32(attr.MtimeVal.Seconds); err != nil {
			return err
		}
		if err := enc.WriteUint32(attr.MtimeVal.Nseconds); err != nil {
			return err
		}
	}
	return nil
}

// ReadStatus reads the leading nfsstat3 word of a reply body and
// converts a non-zero value into a StatusError.
func ReadStatus(dec *xdr.Decoder) error {
	status, err := dec.ReadUint32()
	if err != nil {
		return fmt.Errorf("decode nfs status: %w", err)
	}
	if status != StatusOK {
		return &StatusError{Status: status}
	}
	return nil
}
