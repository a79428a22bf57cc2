package rpc

import (
	"errors"
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// ErrRejected is returned when the server denied the call at the RPC
// layer (reply_stat = MSG_DENIED), for example on an RPC version or
// authentication mismatch.
var ErrRejected = errors.New("rpc: call rejected by server")

// AcceptError is returned when the server accepted the call but could
// not execute it (accept_stat != SUCCESS).
type AcceptError struct {
	Stat uint32
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("rpc: call accepted with error status %d", e.Stat)
}

// ParseReply validates a reply header and leaves the decoder positioned
// at the first byte of the program result.
//
// Accepted layout:
//
//	xid | msg_type=REPLY | reply_stat=MSG_ACCEPTED |
//	verf_flavor | verf_body:opaque | accept_stat=SUCCESS
//
// The caller (the transceiver) has already matched the xid, so the xid
// word is only skipped here. The verifier body is decoded and discarded;
// servers replying to AUTH_NONE/AUTH_SYS send an empty one.
func ParseReply(dec *xdr.Decoder) error {
	// xid, matched by the transceiver
	if _, err := dec.ReadUint32(); err != nil {
		return fmt.Errorf("read xid: %w", err)
	}

	msgType, err := dec.ReadUint32()
	if err != nil {
		return fmt.Errorf("read message type: %w", err)
	}
	if msgType != MsgReply {
		return fmt.Errorf("unexpected message type %d (want REPLY)", msgType)
	}

	replyStat, err := dec.ReadUint32()
	if err != nil {
		return fmt.Errorf("read reply status: %w", err)
	}
	if replyStat != MsgAccepted {
		return ErrRejected
	}

	// Verifier: flavor + opaque body, ignored.
	if _, err := dec.ReadUint32(); err != nil {
		return fmt.Errorf("read verifier flavor: %w", err)
	}
	if _, err := dec.ReadOpaque(); err != nil {
		return fmt.Errorf("read verifier body: %w", err)
	}

	acceptStat, err := dec.ReadUint32()
	if err != nil {
		return fmt.Errorf("read accept status: %w", err)
	}
	if acceptStat != AcceptSuccess {
		return &AcceptError{Stat: acceptStat}
	}
	return nil
}
