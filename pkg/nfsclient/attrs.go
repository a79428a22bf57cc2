package nfsclient

import "github.com/marmos91/nfsclient/internal/protocol/nfs"

// fileInfoFromAttr converts a wire fattr3 into the public FileInfo.
func fileInfoFromAttr(attr *nfs.FileAttr) FileInfo {
	return FileInfo{
		Type:   FileType(attr.Type),
		Mode:   attr.Mode,
		Nlink:  attr.Nlink,
		UID:    attr.UID,
		GID:    attr.GID,
		Size:   attr.Size,
		Used:   attr.Used,
		Rdev:   attr.Rdev,
		Fsid:   attr.Fsid,
		Fileid: attr.Fileid,
		Atime:  Timestamp(attr.Atime),
		Mtime:  Timestamp(attr.Mtime),
		Ctime:  Timestamp(attr.Ctime),
	}
}
