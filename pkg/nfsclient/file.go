package nfsclient

import (
	"errors"
	"os"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// File is one open session on a mounted export. It owns its file handle
// and its cursor; the mount it borrows stays locked only for the
// duration of each call.
type File struct {
	m  *Mount
	fh Handle

	size uint64
	pos  uint64

	readable   bool
	writable   bool
	appendMode bool

	// isNew is set when the open issued a CREATE; seeking to the end of
	// a file that never existed before is rejected.
	isNew bool

	// shouldCommit is set by the first WRITE; Close then issues COMMIT.
	shouldCommit bool

	// verifier is the write verifier of the first WRITE reply; every
	// later reply (and the final COMMIT) must match it.
	verifier    uint64
	verifierSet bool
}

// Open opens path with os.O_* flags. mode is the permission set for a
// CREATE; it is ignored when no file is created.
//
// Creation semantics follow the POSIX flag table:
//   - O_CREATE alone sends CREATE GUARDED but tolerates EEXIST by
//     falling back to a LOOKUP (a concurrent creator won the race).
//   - O_CREATE|O_EXCL sends GUARDED and fails on EEXIST.
//   - O_TRUNC (with any create flag) sends CREATE UNCHECKED, which
//     truncates an existing file via the size=0 attribute.
//   - no create flag opens by LOOKUP only.
func (r *Registry) Open(path string, flag int, mode uint32) (*File, error) {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return nil, err
	}

	access := flag & openAccessMask
	wantsWrite := access != os.O_RDONLY || flag&(os.O_CREATE|os.O_TRUNC) != 0
	if m.readOnly && wantsWrite {
		return nil, opError("open", path, KindReadOnlyFs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f := &File{
		m:          m,
		readable:   access == os.O_RDONLY || access == os.O_RDWR,
		writable:   access == os.O_WRONLY || access == os.O_RDWR,
		appendMode: flag&os.O_APPEND != 0,
	}

	dir, name, err := m.dirOf(rel)
	if err != nil {
		return nil, err
	}

	exists := true
	reply, err := m.lookupStep(dir, name)
	if err != nil {
		wrapped := wrapError("open", path, err)
		if wrapped.Kind != KindNoEntry {
			return nil, wrapped
		}
		exists = false
	}

	if exists {
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return nil, opError("open", path, KindExists)
		}
		f.fh = Handle(reply.Handle).Clone()
		if reply.Attr != nil {
			f.size = reply.Attr.Size
		} else if attr, err := m.getAttr(f.fh); err == nil {
			f.size = attr.Size
		}
		if f.appendMode {
			f.pos = f.size
		}
		if flag&os.O_TRUNC == 0 {
			return f, nil
		}
	}

	createMode := int64(-1)
	if flag&os.O_CREATE != 0 {
		createMode = int64(nfs.CreateGuarded)
	}
	if flag&os.O_TRUNC != 0 {
		createMode = int64(nfs.CreateUnchecked)
	}
	if createMode < 0 {
		// Pure lookup open of a missing file.
		return nil, opError("open", path, KindNoEntry)
	}

	if err := f.create(dir, name, uint32(createMode), mode); err != nil {
		var clientErr *Error
		tolerate := errors.As(err, &clientErr) &&
			clientErr.Kind == KindExists && flag&os.O_EXCL == 0
		if !tolerate {
			return nil, wrapError("open", path, err)
		}
		// Lost a creation race; the file is there now.
		reply, err := m.lookupStep(dir, name)
		if err != nil {
			return nil, wrapError("open", path, err)
		}
		f.fh = Handle(reply.Handle).Clone()
		if reply.Attr != nil {
			f.size = reply.Attr.Size
		}
	}

	if f.appendMode {
		f.pos = f.size
	} else {
		f.pos = 0
	}
	return f, nil
}

// create issues the CREATE call and fills the session from its reply.
func (f *File) create(dir Handle, name string, createMode, fileMode uint32) error {
	m := f.m
	attr := &nfs.SetAttr{
		SetMode:  true,
		Mode:     fileMode,
		SetUID:   true,
		UID:      m.uid,
		SetGID:   true,
		GID:      m.gid,
		SetSize:  true,
		Size:     0,
		SetAtime: nfs.TimeServer,
		SetMtime: nfs.TimeServer,
	}

	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcCreate, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeCreateRequest(enc, dir, name, createMode, attr)
		})
	if err != nil {
		return wrapError("create", name, err)
	}
	reply, err := v3.DecodeCreateReply(dec)
	if err != nil {
		return wrapError("create", name, err)
	}

	f.isNew = true
	f.size = 0
	if reply.Attr != nil {
		f.size = reply.Attr.Size
	}
	if reply.Handle != nil {
		f.fh = Handle(reply.Handle).Clone()
		return nil
	}

	// The server chose not to return a handle; fetch it.
	lookup, err := m.lookupStep(dir, name)
	if err != nil {
		return wrapError("create", name, err)
	}
	f.fh = Handle(lookup.Handle).Clone()
	return nil
}

// Read reads up to len(p) bytes from the cursor, issuing as many READ
// calls as the negotiated block size requires. A short server count
// just advances less; EOF ends the loop early. Returns the bytes read.
func (f *File) Read(p []byte) (int, error) {
	if f.m == nil {
		return 0, opError("read", "", KindBadFileDescriptor)
	}
	if !f.readable {
		return 0, opError("read", "", KindBadFileDescriptor)
	}

	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()

	block := m.readBlockSize()
	read := uint64(0)
	want := uint64(len(p))

	for read < want {
		n := want - read
		if n > uint64(block) {
			n = uint64(block)
		}

		dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcRead, m.credential(),
			func(enc *xdr.Encoder) error {
				return v3.EncodeReadRequest(enc, f.fh, f.pos+read, uint32(n))
			})
		if err != nil {
			return int(read), wrapError("read", "", err)
		}
		reply, err := v3.DecodeReadReply(dec)
		if err != nil {
			return int(read), wrapError("read", "", err)
		}

		copy(p[read:], reply.Data[:reply.Count])
		read += uint64(reply.Count)

		if reply.EOF {
			break
		}
	}

	f.pos += read
	if m.m != nil {
		m.m.RecordBytesTransferred("read", read)
	}
	return int(read), nil
}

// Write writes p at the cursor as a sequence of UNSTABLE WRITE calls
// bounded by the negotiated block size.
//
// The first reply's verifier is recorded; if any later reply carries a
// different one the server restarted and lost buffered data, and the
// call fails with KindWriteVerifierChanged. A reply whose stability is
// above UNSTABLE means the server synced on its own; the loop ends
// there and the short count is returned.
func (f *File) Write(p []byte) (int, error) {
	if f.m == nil {
		return 0, opError("write", "", KindBadFileDescriptor)
	}
	if !f.writable {
		return 0, opError("write", "", KindBadFileDescriptor)
	}

	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readOnly {
		return 0, opError("write", "", KindReadOnlyFs)
	}

	block := m.writeBlockSize()
	written := uint64(0)
	want := uint64(len(p))

	for written < want {
		n := want - written
		if n > uint64(block) {
			n = uint64(block)
		}

		dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcWrite, m.credential(),
			func(enc *xdr.Encoder) error {
				return v3.EncodeWriteRequest(enc, f.fh, f.pos+written,
					nfs.WriteUnstable, p[written:written+n])
			})
		if err != nil {
			return int(written), wrapError("write", "", err)
		}
		reply, err := v3.DecodeWriteReply(dec)
		if err != nil {
			return int(written), wrapError("write", "", err)
		}

		if !f.verifierSet {
			f.verifier = reply.Verifier
			f.verifierSet = true
		} else if reply.Verifier != f.verifier {
			f.shouldCommit = true
			return int(written), opError("write", "", KindWriteVerifierChanged)
		}

		// The server may accept fewer bytes than sent.
		written += uint64(reply.Count)

		if reply.Committed != nfs.WriteUnstable {
			// Already durable on the server side.
			break
		}
	}

	f.shouldCommit = true
	f.pos += written
	if f.pos > f.size {
		f.size = f.pos
	}
	if m.m != nil {
		m.m.RecordBytesTransferred("write", written)
	}
	return int(written), nil
}

// Seek repositions the cursor. SeekEnd against a session that was
// freshly created by this open is invalid: the size the server reported
// at CREATE is not a stable reference for it.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.m == nil {
		return 0, opError("seek", "", KindBadFileDescriptor)
	}

	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = int64(f.pos)
	case SeekEnd:
		if f.isNew {
			return 0, opError("seek", "", KindInvalid)
		}
		base = int64(f.size)
	default:
		return 0, opError("seek", "", KindInvalid)
	}

	target := base + offset
	if target < 0 {
		return 0, opError("seek", "", KindInvalid)
	}
	f.pos = uint64(target)
	return target, nil
}

// Stat fetches fresh attributes for the open file.
func (f *File) Stat() (*FileInfo, error) {
	if f.m == nil {
		return nil, opError("fstat", "", KindBadFileDescriptor)
	}

	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	attr, err := f.m.getAttr(f.fh)
	if err != nil {
		return nil, wrapError("fstat", "", err)
	}
	info := fileInfoFromAttr(attr)
	return &info, nil
}

// Close ends the session. A session that wrote issues exactly one
// COMMIT; a commit verifier that differs from the writes' verifier
// surfaces as KindWriteVerifierChanged. The session is unusable
// afterwards even when the commit fails.
func (f *File) Close() error {
	if f.m == nil {
		return opError("close", "", KindBadFileDescriptor)
	}

	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var commitErr error
	if f.shouldCommit && !m.readOnly {
		commitErr = f.commit()
	}

	f.m = nil
	f.fh = nil
	return commitErr
}

// commit flushes the server's buffered writes for this file.
func (f *File) commit() error {
	m := f.m
	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcCommit, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeCommitRequest(enc, f.fh, 0, 0)
		})
	if err != nil {
		return wrapError("commit", "", err)
	}
	verf, err := v3.DecodeCommitReply(dec)
	if err != nil {
		return wrapError("commit", "", err)
	}
	if f.verifierSet && verf != f.verifier {
		return opError("commit", "", KindWriteVerifierChanged)
	}
	return nil
}

// getAttr runs GETATTR on a handle. Caller holds the mount lock.
func (m *Mount) getAttr(fh Handle) (*nfs.FileAttr, error) {
	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcGetAttr, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeGetAttrRequest(enc, fh)
		})
	if err != nil {
		return nil, err
	}
	return v3.DecodeGetAttrReply(dec)
}
