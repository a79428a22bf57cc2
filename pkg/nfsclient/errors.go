package nfsclient

import (
	"errors"
	"fmt"

	mountproto "github.com/marmos91/nfsclient/internal/protocol/mount"
	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/portmap"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
	"github.com/marmos91/nfsclient/internal/transport"
)

// Kind classifies a client error. POSIX-shaped kinds map one-to-one to
// an errno at the device-adapter boundary; protocol kinds carry the
// server's numeric code in Error.Status.
type Kind int

const (
	// KindNoDevice: the path names no registered device.
	KindNoDevice Kind = iota + 1

	// KindInvalidPath: malformed device prefix or embedded ':'.
	KindInvalidPath

	// KindReadOnlyFs: a mutating operation on a read-only mount.
	KindReadOnlyFs

	// POSIX-shaped failures.
	KindExists
	KindNoEntry
	KindNotADirectory
	KindBadFileDescriptor
	KindInvalid
	KindIO

	// KindRPCRejected: the server denied the call at the RPC layer.
	KindRPCRejected

	// KindRPCAccepted: accepted but undispatchable; Status holds the
	// accept_stat.
	KindRPCAccepted

	// KindNFS: non-zero nfsstat3; Status holds the code verbatim.
	KindNFS

	// KindMountFailed: non-zero mountstat3; Status holds the code.
	KindMountFailed

	// KindProgramUnavailable: portmap knows no port for the program.
	KindProgramUnavailable

	// KindTimeout: the UDP retransmit budget was exhausted.
	KindTimeout

	// KindBufferOverflow: the call would not fit the scratch buffer.
	KindBufferOverflow

	// KindWriteVerifierChanged: the server restarted mid-write and
	// uncommitted data is lost.
	KindWriteVerifierChanged
)

// Error is the tagged error type every public operation returns.
type Error struct {
	Kind Kind

	// Status is the protocol code for KindNFS, KindMountFailed and
	// KindRPCAccepted, and the server's nfsstat3 for a POSIX-shaped kind
	// mapped from one; zero otherwise.
	Status uint32

	// Op and Path locate the failure for logs and messages.
	Op   string
	Path string

	err error
}

func (e *Error) Error() string {
	var b []byte
	b = append(b, "nfsclient: "...)
	if e.Op != "" {
		b = append(b, e.Op...)
		b = append(b, ' ')
	}
	if e.Path != "" {
		b = fmt.Appendf(b, "%q ", e.Path)
	}
	b = append(b, e.kindString()...)
	if e.Status != 0 {
		b = fmt.Appendf(b, " (status %d)", e.Status)
	}
	if e.err != nil {
		b = fmt.Appendf(b, ": %v", e.err)
	}
	return string(b)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches any *Error with the same Kind, so callers can test
// errors.Is(err, nfsclient.ErrNoEntry) without caring about Op/Path.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) kindString() string {
	switch e.Kind {
	case KindNoDevice:
		return "no such device"
	case KindInvalidPath:
		return "invalid path"
	case KindReadOnlyFs:
		return "read-only file system"
	case KindExists:
		return "file exists"
	case KindNoEntry:
		return "no such file or directory"
	case KindNotADirectory:
		return "not a directory"
	case KindBadFileDescriptor:
		return "bad file descriptor"
	case KindInvalid:
		return "invalid argument"
	case KindIO:
		return "input/output error"
	case KindRPCRejected:
		return "rpc rejected"
	case KindRPCAccepted:
		return "rpc error"
	case KindNFS:
		return "nfs error"
	case KindMountFailed:
		return "mount failed"
	case KindProgramUnavailable:
		return "program unavailable"
	case KindTimeout:
		return "timeout"
	case KindBufferOverflow:
		return "buffer overflow"
	case KindWriteVerifierChanged:
		return "write verifier changed"
	default:
		return "unknown error"
	}
}

// Matching sentinels for errors.Is.
var (
	ErrNoDevice             = &Error{Kind: KindNoDevice}
	ErrInvalidPath          = &Error{Kind: KindInvalidPath}
	ErrReadOnlyFs           = &Error{Kind: KindReadOnlyFs}
	ErrExists               = &Error{Kind: KindExists}
	ErrNoEntry              = &Error{Kind: KindNoEntry}
	ErrNotADirectory        = &Error{Kind: KindNotADirectory}
	ErrBadFileDescriptor    = &Error{Kind: KindBadFileDescriptor}
	ErrInvalid              = &Error{Kind: KindInvalid}
	ErrIO                   = &Error{Kind: KindIO}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrBufferOverflow       = &Error{Kind: KindBufferOverflow}
	ErrWriteVerifierChanged = &Error{Kind: KindWriteVerifierChanged}
	ErrProgramUnavailable   = &Error{Kind: KindProgramUnavailable}
)

// opError builds an Error with location context.
func opError(op, path string, kind Kind) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// wrapError classifies a lower-layer failure into an Error. An error
// that is already classified passes through unchanged.
func wrapError(op, path string, err error) *Error {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr
	}

	e := &Error{Op: op, Path: path, err: err}
	var (
		acceptErr *rpc.AcceptError
		mountErr  *mountproto.StatError
		nfsErr    *nfs.StatusError
	)
	switch {
	case errors.Is(err, transport.ErrTimeout):
		e.Kind = KindTimeout
	case errors.Is(err, xdr.ErrBufferOverflow):
		e.Kind = KindBufferOverflow
	case errors.Is(err, rpc.ErrRejected):
		e.Kind = KindRPCRejected
	case errors.Is(err, portmap.ErrProgramUnavailable):
		e.Kind = KindProgramUnavailable
	case errors.As(err, &acceptErr):
		e.Kind = KindRPCAccepted
		e.Status = acceptErr.Stat
	case errors.As(err, &mountErr):
		e.Kind = KindMountFailed
		e.Status = mountErr.Stat
	case errors.As(err, &nfsErr):
		e.Kind, e.Status = nfsKind(nfsErr.Status), nfsErr.Status
	default:
		e.Kind = KindIO
	}
	return e
}

// nfsKind maps the common nfsstat3 values onto POSIX-shaped kinds;
// everything else stays KindNFS with the code preserved in Status.
func nfsKind(status uint32) Kind {
	switch status {
	case nfs.ErrNoEnt:
		return KindNoEntry
	case nfs.ErrExist:
		return KindExists
	case nfs.ErrNotDir:
		return KindNotADirectory
	case nfs.ErrROFS:
		return KindReadOnlyFs
	case nfs.ErrInval:
		return KindInvalid
	default:
		return KindNFS
	}
}
