package nfsclient

import (
	"strings"

	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// splitDevicePath splits "device:/a/b" into the device name and the
// remainder. A path without ':' has no device prefix and resolves
// against no registry entry, which callers reject with KindNoDevice; a
// second ':' anywhere in the remainder is malformed.
func splitDevicePath(path string) (device, rest string, err error) {
	idx := strings.IndexByte(path, ':')
	if idx < 0 {
		return "", "", opError("resolve", path, KindNoDevice)
	}
	device = path[:idx]
	rest = path[idx+1:]
	if device == "" || len(device) > MaxDeviceNameLength {
		return "", "", opError("resolve", path, KindInvalidPath)
	}
	if strings.ContainsRune(rest, ':') {
		return "", "", opError("resolve", path, KindInvalidPath)
	}
	return device, rest, nil
}

// splitMount resolves the device prefix of path to its mount and
// returns the remainder.
func (r *Registry) splitMount(path string) (*Mount, string, error) {
	device, rest, err := splitDevicePath(path)
	if err != nil {
		return nil, "", err
	}
	m, err := r.lookupMount(device)
	if err != nil {
		return nil, "", err
	}
	return m, rest, nil
}

// lookupStep issues one LOOKUP and returns the child handle as a view
// into the scratch buffer, plus its post-op attributes when present.
// Caller must hold the mount lock and copy the handle before reuse.
func (m *Mount) lookupStep(dir Handle, name string) (*v3.LookupReply, error) {
	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcLookup, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeLookupRequest(enc, dir, name)
		})
	if err != nil {
		return nil, err
	}
	return v3.DecodeLookupReply(dec)
}

// resolvePath walks rel from its anchor to a file handle.
//
// A leading '/' anchors at the export root; otherwise resolution starts
// from the cached current directory when one is set, else the root. The
// fast path returns a copy of the cwd handle when rel matches the cwd
// path exactly. onlyDirs rejects a non-directory terminal.
//
// The returned handle is always an owned deep copy; intermediate
// handles never escape the scratch buffer. Caller holds the mount lock.
func (m *Mount) resolvePath(rel string, onlyDirs bool) (Handle, error) {
	if m.cwdPath != "" && rel == m.cwdPath {
		return m.cwdFH.Clone(), nil
	}

	current := m.rootFH
	if !strings.HasPrefix(rel, "/") && m.cwdFH != nil {
		current = m.cwdFH
	}

	trimmed := strings.Trim(rel, "/")
	if trimmed == "" {
		return current.Clone(), nil
	}

	// current aliases rootFH/cwdFH for the first step; each LOOKUP
	// result is cloned so the next call can overwrite the buffer.
	owned := current.Clone()
	lastType := uint32(0)
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" {
			continue
		}
		if len(segment) > MaxFilenameLength {
			return nil, opError("lookup", rel, KindInvalidPath)
		}

		reply, err := m.lookupStep(owned, segment)
		if err != nil {
			return nil, wrapError("lookup", rel, err)
		}
		owned = Handle(reply.Handle).Clone()
		lastType = 0
		if reply.Attr != nil {
			lastType = reply.Attr.Type
		}
	}

	if onlyDirs && lastType != 0 && FileType(lastType) != TypeDirectory {
		return nil, opError("lookup", rel, KindNotADirectory)
	}
	return owned, nil
}

// dirOf resolves the directory part of rel and returns its handle plus
// the trailing name. With no '/' in rel, the directory is the cached
// cwd; an unset cwd fails with KindNotADirectory.
func (m *Mount) dirOf(rel string) (Handle, string, error) {
	idx := strings.LastIndexByte(rel, '/')
	if idx < 0 {
		if m.cwdFH == nil {
			return nil, "", opError("resolve", rel, KindNotADirectory)
		}
		return m.cwdFH.Clone(), rel, nil
	}

	name := rel[idx+1:]
	if name == "" {
		return nil, "", opError("resolve", rel, KindInvalid)
	}
	if len(name) > MaxFilenameLength {
		return nil, "", opError("resolve", rel, KindInvalidPath)
	}

	prefix := rel[:idx]
	if prefix == "" {
		prefix = "/"
	}
	dir, err := m.resolvePath(prefix, true)
	if err != nil {
		return nil, "", err
	}
	return dir, name, nil
}

// chdir resolves rel as a directory and installs it as the one-entry
// current-directory cache. Caller holds the mount lock.
func (m *Mount) chdir(rel string) error {
	fh, err := m.resolvePath(rel, true)
	if err != nil {
		return err
	}
	m.cwdFH = fh
	m.cwdPath = rel
	return nil
}
