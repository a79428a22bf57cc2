package nfsclient

import (
	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// DirEntry is one materialized directory child.
type DirEntry struct {
	Name string
	Info FileInfo

	fh Handle
}

// Handle returns the entry's owned file handle.
func (e *DirEntry) Handle() Handle {
	return e.fh
}

// Dir is an open directory session: a cookie-driven READDIRPLUS
// accumulator with a materialized child list and an iteration cursor.
// The list only grows; Reset rewinds the cursor without refetching, so
// one session sees a stable snapshot in server order.
type Dir struct {
	m  *Mount
	fh Handle

	cookie     uint64
	cookieVerf uint64
	eof        bool

	children []DirEntry
	cursor   int
}

// OpenDir resolves path as a directory and starts a listing session.
func (r *Registry) OpenDir(path string) (*Dir, error) {
	m, rel, err := r.splitMount(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fh, err := m.resolvePath(rel, true)
	if err != nil {
		return nil, err
	}
	return &Dir{m: m, fh: fh}, nil
}

// Next returns the child at the cursor and advances. When the
// materialized list is exhausted and the server has more, one
// READDIRPLUS continuation is issued with the stored cookie. At the
// true end it returns KindNoEntry.
//
// A continuation failure is surfaced here; children already fetched
// stay visible to Reset and earlier cursors.
func (d *Dir) Next() (*DirEntry, error) {
	if d.m == nil {
		return nil, opError("readdir", "", KindBadFileDescriptor)
	}

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	if d.cursor >= len(d.children) {
		if d.eof {
			return nil, opError("readdir", "", KindNoEntry)
		}
		if err := d.fetch(); err != nil {
			return nil, err
		}
		if d.cursor >= len(d.children) {
			return nil, opError("readdir", "", KindNoEntry)
		}
	}

	entry := &d.children[d.cursor]
	d.cursor++
	return entry, nil
}

// fetch issues one READDIRPLUS and appends the decoded children.
// Caller holds the mount lock.
func (d *Dir) fetch() error {
	m := d.m

	maxCount := uint32(len(m.buf)) - rpcHeadroom
	if m.fsinfo.DTPref > 0 && m.fsinfo.DTPref < maxCount {
		maxCount = m.fsinfo.DTPref
	}

	dec, err := m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcReadDirPlus, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeReadDirPlusRequest(enc, d.fh, d.cookie, d.cookieVerf, 0, maxCount)
		})
	if err != nil {
		return wrapError("readdir", "", err)
	}
	reply, err := v3.DecodeReadDirPlusReply(dec)
	if err != nil {
		return wrapError("readdir", "", err)
	}

	d.cookieVerf = reply.CookieVerf
	d.eof = reply.EOF

	for i := range reply.Entries {
		entry := &reply.Entries[i]
		d.cookie = entry.Cookie

		// Entries without a handle cannot be operated on; skip them.
		if entry.Handle == nil {
			continue
		}
		// "." and ".." come back with the directory's own handle or
		// the parent's; the self entry is recognizable by handle
		// equality and dropped.
		if d.fh.Equal(Handle(entry.Handle)) {
			continue
		}
		if len(entry.Name) > MaxFilenameLength {
			continue
		}

		child := DirEntry{
			Name: entry.Name,
			fh:   Handle(entry.Handle).Clone(),
		}
		if entry.Attr != nil {
			child.Info = fileInfoFromAttr(entry.Attr)
		}
		d.children = append(d.children, child)
	}
	return nil
}

// Reset rewinds the cursor to the first materialized child without
// refetching; the accumulated list is authoritative for the session.
func (d *Dir) Reset() error {
	if d.m == nil {
		return opError("dirreset", "", KindBadFileDescriptor)
	}
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	d.cursor = 0
	return nil
}

// Close releases the session's handles and names.
func (d *Dir) Close() error {
	if d.m == nil {
		return opError("closedir", "", KindBadFileDescriptor)
	}
	d.m = nil
	d.fh = nil
	d.children = nil
	return nil
}
