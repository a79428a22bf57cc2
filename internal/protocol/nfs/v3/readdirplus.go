package v3

import (
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// MaxNameLength bounds decoded entry names. Anything longer is treated
// as a malformed reply rather than allocated.
const MaxNameLength = 768

// EncodeReadDirPlusRequest appends READDIRPLUS3args (RFC 1813 Section
// 3.3.17): directory handle, continuation cookie, cookie verifier and
// the two size hints. The client sends dircount = 0 and lets maxcount
// bound the whole reply; maxcount is sized from the scratch buffer.
func EncodeReadDirPlusRequest(enc *xdr.Encoder, dirHandle []byte, cookie, cookieVerf uint64, dirCount, maxCount uint32) error {
	if err := enc.WriteOpaque(dirHandle); err != nil {
		return fmt.Errorf("encode readdirplus handle: %w", err)
	}
	if err := enc.WriteUint64(cookie); err != nil {
		return fmt.Errorf("encode readdirplus cookie: %w", err)
	}
	// cookieverf3 is a fixed 8-byte opaque: no length word.
	if err := enc.WriteUint64(cookieVerf); err != nil {
		return fmt.Errorf("encode readdirplus cookieverf: %w", err)
	}
	if err := enc.WriteUint32(dirCount); err != nil {
		return fmt.Errorf("encode readdirplus dircount: %w", err)
	}
	if err := enc.WriteUint32(maxCount); err != nil {
		return fmt.Errorf("encode readdirplus maxcount: %w", err)
	}
	return nil
}

// DirEntry is one decoded entryplus3.
type DirEntry struct {
	Fileid uint64
	Name   string

	// Cookie continues the listing after this entry.
	Cookie uint64

	// Attr are the entry's post-op attributes, nil if omitted.
	Attr *nfs.FileAttr

	// Handle is the entry's file handle, nil when the server returned
	// none. View into the receive buffer.
	Handle []byte
}

// ReadDirPlusReply is a decoded READDIRPLUS3resok.
type ReadDirPlusReply struct {
	// CookieVerf must be echoed on the next continuation call.
	CookieVerf uint64

	Entries []DirEntry

	// EOF is set when the listing is complete; no further continuation
	// may be issued.
	EOF bool
}

// DecodeReadDirPlusReply decodes a READDIRPLUS3res. The entry list is a
// boolean-chained sequence:
//
//	entry*: value_follows:bool | fileid:u64 | name:string | cookie:u64 |
//	        name_attributes:post_op_attr | name_handle:post_op_fh3
//
// terminated by a false boolean and a final eof flag.
func DecodeReadDirPlusReply(dec *xdr.Decoder) (*ReadDirPlusReply, error) {
	if err := nfs.ReadStatus(dec); err != nil {
		return nil, err
	}
	if _, err := nfs.DecodePostOpAttr(dec); err != nil {
		return nil, fmt.Errorf("decode readdirplus dir attributes: %w", err)
	}

	reply := &ReadDirPlusReply{}
	var err error
	if reply.CookieVerf, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode readdirplus cookieverf: %w", err)
	}

	for {
		follows, err := dec.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("decode readdirplus entry flag: %w", err)
		}
		if !follows {
			break
		}

		var entry DirEntry
		if entry.Fileid, err = dec.ReadUint64(); err != nil {
			return nil, fmt.Errorf("decode entry fileid: %w", err)
		}
		name, err := dec.ReadOpaqueMax(MaxNameLength)
		if err != nil {
			return nil, fmt.Errorf("decode entry name: %w", err)
		}
		entry.Name = string(name)
		if entry.Cookie, err = dec.ReadUint64(); err != nil {
			return nil, fmt.Errorf("decode entry cookie: %w", err)
		}
		if entry.Attr, err = nfs.DecodePostOpAttr(dec); err != nil {
			return nil, fmt.Errorf("decode entry attributes: %w", err)
		}

		hasHandle, err := dec.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("decode entry handle flag: %w", err)
		}
		if hasHandle {
			if entry.Handle, err = dec.ReadOpaqueMax(nfs.FileHandleMaxSize); err != nil {
				return nil, fmt.Errorf("decode entry handle: %w", err)
			}
		}

		reply.Entries = append(reply.Entries, entry)
	}

	if reply.EOF, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("decode readdirplus eof: %w", err)
	}
	return reply, nil
}
