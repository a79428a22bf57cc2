package rpc

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// Authentication flavors per RFC 5531 Section 8.2. The client supports
// AUTH_NONE and AUTH_SYS only; stronger flavors (DH, RPCSEC_GSS) are out
// of scope.
const (
	AuthNone uint32 = 0
	AuthSys  uint32 = 1
)

// UnixAuth is the AUTH_SYS credential body (RFC 5531 Appendix A).
//
// Wire format:
//
//	stamp:u32 | machinename:string | uid:u32 | gid:u32 | gids:array<u32>
//
// The client sends no auxiliary GIDs; the array is always empty.
type UnixAuth struct {
	// Stamp is an arbitrary id, conventionally the UNIX time in seconds
	// at credential creation.
	Stamp uint32

	// MachineName identifies the caller. This client uses its dotted-IP
	// string; servers do not verify it.
	MachineName string

	UID uint32
	GID uint32
}

// encodeCredential writes the flavor, the back-patched body length and
// the body itself.
//
// The body length is not known until the machine name is encoded, so a
// length slot is reserved first and patched afterwards. The padded body
// length is what goes on the wire.
func (a *UnixAuth) encodeCredential(enc *xdr.Encoder) error {
	if err := enc.WriteUint32(AuthSys); err != nil {
		return err
	}
	lenPos, err := enc.ReserveUint32()
	if err != nil {
		return err
	}
	bodyStart := enc.Offset()

	if err := enc.WriteUint32(a.Stamp); err != nil {
		return err
	}
	if err := enc.WriteString(a.MachineName); err != nil {
		return fmt.Errorf("encode machine name: %w", err)
	}
	if err := enc.WriteUint32(a.UID); err != nil {
		return err
	}
	if err := enc.WriteUint32(a.GID); err != nil {
		return err
	}
	// Empty auxiliary GID array.
	if err := enc.WriteUint32(0); err != nil {
		return err
	}

	enc.PatchUint32(lenPos, uint32(enc.Offset()-bodyStart))
	return nil
}

// encodeNoneAuth writes a zero-length AUTH_NONE credential or verifier.
func encodeNoneAuth(enc *xdr.Encoder) error {
	if err := enc.WriteUint32(AuthNone); err != nil {
		return err
	}
	return enc.WriteUint32(0)
}
