package nfsclient

import (
	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// Stat resolves path and fetches its attributes.
func (r *Registry) Stat(path string) (*FileInfo, error) {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fh, err := m.resolvePath(rel, false)
	if err != nil {
		return nil, err
	}
	attr, err := m.getAttr(fh)
	if err != nil {
		return nil, wrapError("stat", path, err)
	}
	info := fileInfoFromAttr(attr)
	return &info, nil
}

// Chdir resolves path as a directory and caches it as the mount's
// current directory for subsequent relative paths.
func (r *Registry) Chdir(path string) error {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chdir(rel)
}

// Unlink removes a file via REMOVE.
func (r *Registry) Unlink(path string) error {
	return r.dirOp(path, "unlink", v3.ProcRemove)
}

// Rmdir removes an empty directory via RMDIR.
func (r *Registry) Rmdir(path string) error {
	return r.dirOp(path, "rmdir", v3.ProcRmdir)
}

// dirOp runs REMOVE or RMDIR; the two share their argument and reply
// shape.
func (r *Registry) dirOp(path, op string, proc uint32) error {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return err
	}
	if m.readOnly {
		return opError(op, path, KindReadOnlyFs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir, name, err := m.dirOf(rel)
	if err != nil {
		return err
	}

	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, proc, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeDirOpRequest(enc, dir, name)
		})
	if err != nil {
		return wrapError(op, path, err)
	}
	if err := v3.DecodeWccOnlyReply(dec); err != nil {
		return wrapError(op, path, err)
	}
	return nil
}

// Rename moves oldPath to newPath. Both must live on the same device;
// RENAME is atomic on the server and covers files and directories.
func (r *Registry) Rename(oldPath, newPath string) error {
	m, oldRel, err := r.splitMount(oldPath)
	if err != nil {
		return err
	}
	newDevice, newRel, err := splitDevicePath(newPath)
	if err != nil {
		return err
	}
	if newDevice != m.device {
		return opError("rename", newPath, KindInvalidPath)
	}
	if m.readOnly {
		return opError("rename", oldPath, KindReadOnlyFs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fromDir, fromName, err := m.dirOf(oldRel)
	if err != nil {
		return err
	}
	toDir, toName, err := m.dirOf(newRel)
	if err != nil {
		return err
	}

	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcRename, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeRenameRequest(enc, fromDir, fromName, toDir, toName)
		})
	if err != nil {
		return wrapError("rename", oldPath, err)
	}
	if err := v3.DecodeRenameReply(dec); err != nil {
		return wrapError("rename", oldPath, err)
	}
	return nil
}

// Mkdir creates a directory with the given permission bits, owned by
// the mount's identity.
func (r *Registry) Mkdir(path string, mode uint32) error {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return err
	}
	if m.readOnly {
		return opError("mkdir", path, KindReadOnlyFs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir, name, err := m.dirOf(rel)
	if err != nil {
		return err
	}

	attr := &nfs.SetAttr{
		SetMode:  true,
		Mode:     mode,
		SetUID:   true,
		UID:      m.uid,
		SetGID:   true,
		GID:      m.gid,
		SetAtime: nfs.TimeServer,
		SetMtime: nfs.TimeServer,
	}

	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcMkdir, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeMkdirRequest(enc, dir, name, attr)
		})
	if err != nil {
		return wrapError("mkdir", path, err)
	}
	if _, err := v3.DecodeCreateReply(dec); err != nil {
		return wrapError("mkdir", path, err)
	}
	return nil
}
