// Package v3 contains the client-side request/reply codecs for the
// NFSv3 procedures this client issues (RFC 1813 Section 3.3).
//
// Each procedure gets an Encode*Request that appends the argument body
// after the RPC call header, and a Decode*Reply that reads the result
// from the reply decoder. Decoders return *nfs.StatusError for non-zero
// nfsstat3; the failure arm's attribute blocks are left unread since
// each reply lives in its own datagram and the decoder is discarded.
package v3

// Procedure numbers for NFS v3 (RFC 1813 Section 3.2).
const (
	ProcGetAttr     uint32 = 1
	ProcLookup      uint32 = 3
	ProcRead        uint32 = 6
	ProcWrite       uint32 = 7
	ProcCreate      uint32 = 8
	ProcMkdir       uint32 = 9
	ProcRemove      uint32 = 12
	ProcRmdir       uint32 = 13
	ProcRename      uint32 = 14
	ProcReadDirPlus uint32 = 17
	ProcFSInfo      uint32 = 19
	ProcCommit      uint32 = 21
)
