// Package rpc builds ONC-RPC v2 (RFC 5531) CALL messages and parses
// REPLY messages for the UDP client transports.
//
// Only the message framing lives here. Program-specific argument and
// result bodies are encoded by the portmap, mount and nfs packages
// directly after the call header.
package rpc

// RPC message types per RFC 5531 Section 9.
const (
	MsgCall  uint32 = 0
	MsgReply uint32 = 1
)

// RPCVersion is the only protocol version this client speaks.
const RPCVersion uint32 = 2

// Well-known program numbers (RFC 5531 / IANA rpc program registry).
const (
	ProgramPortmap uint32 = 100000
	ProgramNFS     uint32 = 100003
	ProgramMount   uint32 = 100005
)

// Program versions used by this client.
const (
	PortmapVersion uint32 = 2
	NFSVersion     uint32 = 3
	MountVersion   uint32 = 3
)

// Reply status per RFC 5531 Section 9: a reply is either accepted or
// rejected at the RPC layer before any program result is present.
const (
	MsgAccepted uint32 = 0
	MsgDenied   uint32 = 1
)

// Accept status for an accepted reply. Anything other than Success means
// the server took the call but could not dispatch it.
const (
	AcceptSuccess      uint32 = 0
	AcceptProgUnavail  uint32 = 1
	AcceptProgMismatch uint32 = 2
	AcceptProcUnavail  uint32 = 3
	AcceptGarbageArgs  uint32 = 4
	AcceptSystemErr    uint32 = 5
)
