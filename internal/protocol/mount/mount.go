// Package mount implements the client side of the MOUNT v3 protocol
// (RFC 1813 Appendix I): MNT to obtain the root file handle of an
// export, UMNT to tell the mount daemon the client is done.
package mount

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// Procedure numbers for MOUNT v3.
const (
	ProcMount   uint32 = 1
	ProcUnmount uint32 = 3
)

// FileHandleMaxSize is the largest handle MNT may return (RFC 1813).
const FileHandleMaxSize = 64

// mountstat3 values (RFC 1813 Appendix I). The codes are the POSIX errno
// values the server saw.
const (
	StatOK          uint32 = 0
	StatErrPerm     uint32 = 1
	StatErrNoEnt    uint32 = 2
	StatErrIO       uint32 = 5
	StatErrAccess   uint32 = 13
	StatErrNotDir   uint32 = 20
	StatErrInval    uint32 = 22
	StatErrNameLong uint32 = 63
	StatErrNotSupp  uint32 = 10004
	StatErrFault    uint32 = 10006
)

// StatError reports a non-zero mountstat3 from the mount daemon.
type StatError struct {
	Stat uint32
}

func (e *StatError) Error() string {
	return fmt.Sprintf("mount: daemon returned status %d", e.Stat)
}

// EncodeMountRequest appends the MNT argument: the export dirpath.
func EncodeMountRequest(enc *xdr.Encoder, dirpath string) error {
	if err := enc.WriteString(dirpath); err != nil {
		return fmt.Errorf("encode mount dirpath: %w", err)
	}
	return nil
}

// DecodeMountReply decodes an MNT result (fhstatus3):
//
//	status:u32, then on success filehandle:opaque<64> | auth_flavors:array<u32>
//
// The returned handle is a view into the receive buffer; the caller must
// copy it before the buffer is reused. The auth flavor list is decoded
// and ignored: AUTH_SYS support is assumed per the client's scope.
func DecodeMountReply(dec *xdr.Decoder) ([]byte, error) {
	status, err := dec.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("decode mount status: %w", err)
	}
	if status != StatOK {
		return nil, &StatError{Stat: status}
	}

	fh, err := dec.ReadOpaqueMax(FileHandleMaxSize)
	if err != nil {
		return nil, fmt.Errorf("decode root file handle: %w", err)
	}

	// Auth flavor list, present on success. Tolerate a truncated tail:
	// the handle is already decoded and some servers omit the list.
	if count, err := dec.ReadUint32(); err == nil {
		for i := uint32(0); i < count; i++ {
			if _, err := dec.ReadUint32(); err != nil {
				break
			}
		}
	}

	return fh, nil
}

// EncodeUnmountRequest appends the UMNT argument: the export dirpath.
// The UMNT reply carries no body beyond the RPC accept.
func EncodeUnmountRequest(enc *xdr.Encoder, dirpath string) error {
	if err := enc.WriteString(dirpath); err != nil {
		return fmt.Errorf("encode unmount dirpath: %w", err)
	}
	return nil
}
