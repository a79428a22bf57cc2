// Package nfs holds the NFSv3 (RFC 1813) data types and attribute
// codecs shared by the per-procedure codecs in the v3 subpackage.
package nfs

// File types (ftype3, RFC 1813 Section 2.3.5).
const (
	TypeRegular   uint32 = 1
	TypeDirectory uint32 = 2
	TypeBlock     uint32 = 3
	TypeChar      uint32 = 4
	TypeSymlink   uint32 = 5
	TypeSocket    uint32 = 6
	TypeFIFO      uint32 = 7
)

// FileHandleMaxSize is the largest file handle NFSv3 allows (RFC 1813).
const FileHandleMaxSize = 64

// TimeVal is an nfstime3: seconds and nanoseconds since the epoch.
type TimeVal struct {
	Seconds  uint32
	Nseconds uint32
}

// FileAttr is a decoded fattr3 (RFC 1813 Section 2.3.5). Every reply
// that carries attributes packs them field by field in network order;
// there is no padding inside the struct.
type FileAttr struct {
	Type   uint32
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Used   uint64
	Rdev   [2]uint32
	Fsid   uint64
	Fileid uint64
	Atime  TimeVal
	Mtime  TimeVal
	Ctime  TimeVal
}

// Time set discriminants for sattr3 atime/mtime (RFC 1813 Section 2.3.7).
const (
	TimeDontChange uint32 = 0
	TimeServer     uint32 = 1
	TimeClient     uint32 = 2
)

// SetAttr is a client-built sattr3: each field carries a set flag so the
// server only touches what the caller asked for.
type SetAttr struct {
	SetMode bool
	Mode    uint32

	SetUID bool
	UID    uint32

	SetGID bool
	GID    uint32

	SetSize bool
	Size    uint64

	// SetAtime and SetMtime take the Time* discriminants above.
	// AtimeVal/MtimeVal are only sent with TimeClient.
	SetAtime uint32
	AtimeVal TimeVal
	SetMtime uint32
	MtimeVal TimeVal
}

// FSInfo holds the server transfer preferences returned by FSINFO
// (RFC 1813 Section 3.3.19). The client sizes its READ and WRITE chunks
// from the preferred values, rounded to the advertised multiple.
type FSInfo struct {
	RTMax  uint32
	RTPref uint32
	RTMult uint32
	WTMax  uint32
	WTPref uint32
	WTMult uint32
	DTPref uint32
}

// Stability levels for WRITE (RFC 1813 Section 3.3.7). The client always
// writes UNSTABLE and commits at close.
const (
	WriteUnstable uint32 = 0
	WriteDataSync uint32 = 1
	WriteFileSync uint32 = 2
)

// CREATE modes (RFC 1813 Section 3.3.8). EXCLUSIVE is never sent; the
// open path uses GUARDED and tolerates EEXIST where POSIX requires it.
const (
	CreateUnchecked uint32 = 0
	CreateGuarded   uint32 = 1
	CreateExclusive uint32 = 2
)
