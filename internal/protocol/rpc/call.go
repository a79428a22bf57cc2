package rpc

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// Call describes one outgoing RPC call. The program argument body is
// appended by the caller after EncodeCall returns.
type Call struct {
	XID       uint32
	Program   uint32
	Version   uint32
	Procedure uint32

	// Cred is the AUTH_SYS credential. Nil sends AUTH_NONE, which is
	// what portmap and mount calls use.
	Cred *UnixAuth
}

// EncodeCall writes the RPC call header into the scratch buffer:
//
//	xid | msg_type=CALL | rpcvers=2 | prog | vers | proc |
//	cred_flavor | cred_body:opaque | verf_flavor | verf_body:opaque
//
// The verifier is always AUTH_NONE regardless of the credential flavor.
func EncodeCall(enc *xdr.Encoder, call *Call) error {
	for _, v := range []uint32{
		call.XID,
		MsgCall,
		RPCVersion,
		call.Program,
		call.Version,
		call.Procedure,
	} {
		if err := enc.WriteUint32(v); err != nil {
			return fmt.Errorf("encode call header: %w", err)
		}
	}

	if call.Cred != nil {
		if err := call.Cred.encodeCredential(enc); err != nil {
			return fmt.Errorf("encode credential: %w", err)
		}
	} else {
		if err := encodeNoneAuth(enc); err != nil {
			return fmt.Errorf("encode credential: %w", err)
		}
	}

	if err := encodeNoneAuth(enc); err != nil {
		return fmt.Errorf("encode verifier: %w", err)
	}
	return nil
}
