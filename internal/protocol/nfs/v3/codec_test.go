package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

func newEncoder() *xdr.Encoder {
	return xdr.NewEncoder(make([]byte, 4096))
}

// writeFattr3 emits a minimal but well-formed fattr3.
func writeFattr3(t *testing.T, enc *xdr.Encoder, ftype uint32, size, fileid uint64) {
	t.Helper()
	for _, v := range []uint32{ftype, 0o644, 1, 0, 0} {
		require.NoError(t, enc.WriteUint32(v))
	}
	require.NoError(t, enc.WriteUint64(size))
	require.NoError(t, enc.WriteUint64(size)) // used
	require.NoError(t, enc.WriteUint32(0))    // rdev
	require.NoError(t, enc.WriteUint32(0))
	require.NoError(t, enc.WriteUint64(1)) // fsid
	require.NoError(t, enc.WriteUint64(fileid))
	for i := 0; i < 6; i++ {
		require.NoError(t, enc.WriteUint32(0)) // times
	}
}

func TestLookupCodec(t *testing.T) {
	t.Run("EncodeRequest", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, EncodeLookupRequest(enc, []byte{1, 2, 3, 4}, "file.txt"))

		dec := xdr.NewDecoder(enc.Bytes())
		fh, err := dec.ReadOpaque()
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, fh)
		name, err := dec.ReadString()
		require.NoError(t, err)
		assert.Equal(t, "file.txt", name)
	})

	t.Run("DecodeSuccess", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteOpaque([]byte{9, 9, 9, 9}))
		require.NoError(t, enc.WriteBool(true))
		writeFattr3(t, enc, nfs.TypeRegular, 12, 7)
		require.NoError(t, enc.WriteBool(false)) // no dir attrs

		reply, err := DecodeLookupReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 9, 9, 9}, reply.Handle)
		require.NotNil(t, reply.Attr)
		assert.Equal(t, uint64(12), reply.Attr.Size)
		assert.Nil(t, reply.DirAttr)
	})

	t.Run("DecodeNoEnt", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.ErrNoEnt))

		_, err := DecodeLookupReply(xdr.NewDecoder(enc.Bytes()))
		var statusErr *nfs.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, nfs.ErrNoEnt, statusErr.Status)
	})
}

func TestReadCodec(t *testing.T) {
	t.Run("RFCLayoutNoExtraCountBeforeData", func(t *testing.T) {
		// count | eof | data opaque — the data length word follows eof
		// directly per RFC 1813.
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteBool(false)) // no attrs
		require.NoError(t, enc.WriteUint32(5))
		require.NoError(t, enc.WriteBool(true))
		require.NoError(t, enc.WriteOpaque([]byte("hello")))

		reply, err := DecodeReadReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, uint32(5), reply.Count)
		assert.True(t, reply.EOF)
		assert.Equal(t, []byte("hello"), reply.Data[:reply.Count])
	})

	t.Run("DataShorterThanCountRejected", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteBool(false))
		require.NoError(t, enc.WriteUint32(10))
		require.NoError(t, enc.WriteBool(false))
		require.NoError(t, enc.WriteOpaque([]byte("abc")))

		_, err := DecodeReadReply(xdr.NewDecoder(enc.Bytes()))
		assert.Error(t, err)
	})

	t.Run("EncodeRequest", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, EncodeReadRequest(enc, []byte{1}, 1<<33, 4096))

		dec := xdr.NewDecoder(enc.Bytes())
		_, err := dec.ReadOpaque()
		require.NoError(t, err)
		off, err := dec.ReadUint64()
		require.NoError(t, err)
		assert.Equal(t, uint64(1<<33), off)
		count, err := dec.ReadUint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(4096), count)
	})
}

func writeWccData(t *testing.T, enc *xdr.Encoder) {
	t.Helper()
	require.NoError(t, enc.WriteBool(false))
	require.NoError(t, enc.WriteBool(false))
}

func TestWriteCodec(t *testing.T) {
	t.Run("DecodeSuccess", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		writeWccData(t, enc)
		require.NoError(t, enc.WriteUint32(3))
		require.NoError(t, enc.WriteUint32(nfs.WriteUnstable))
		require.NoError(t, enc.WriteUint64(0xabcdef0123456789))

		reply, err := DecodeWriteReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, uint32(3), reply.Count)
		assert.Equal(t, nfs.WriteUnstable, reply.Committed)
		assert.Equal(t, uint64(0xabcdef0123456789), reply.Verifier)
	})

	t.Run("EncodeRequestCountMatchesData", func(t *testing.T) {
		enc := newEncoder()
		data := []byte("abcde")
		require.NoError(t, EncodeWriteRequest(enc, []byte{1, 2}, 7, nfs.WriteUnstable, data))

		dec := xdr.NewDecoder(enc.Bytes())
		_, err := dec.ReadOpaque()
		require.NoError(t, err)
		off, _ := dec.ReadUint64()
		assert.Equal(t, uint64(7), off)
		count, _ := dec.ReadUint32()
		assert.Equal(t, uint32(5), count)
		stable, _ := dec.ReadUint32()
		assert.Equal(t, nfs.WriteUnstable, stable)
		got, err := dec.ReadOpaque()
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("CommitReplyCarriesVerifier", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		writeWccData(t, enc)
		require.NoError(t, enc.WriteUint64(42))

		verf, err := DecodeCommitReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, uint64(42), verf)
	})
}

func TestFSInfoCodec(t *testing.T) {
	enc := newEncoder()
	require.NoError(t, enc.WriteUint32(nfs.StatusOK))
	require.NoError(t, enc.WriteBool(false))
	for _, v := range []uint32{65536, 32768, 4096, 65536, 32768, 512, 8192} {
		require.NoError(t, enc.WriteUint32(v))
	}
	require.NoError(t, enc.WriteUint64(1<<40)) // maxfilesize
	require.NoError(t, enc.WriteUint64(1))     // time_delta
	require.NoError(t, enc.WriteUint32(0x1b))  // properties

	info, err := DecodeFSInfoReply(xdr.NewDecoder(enc.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, &nfs.FSInfo{
		RTMax: 65536, RTPref: 32768, RTMult: 4096,
		WTMax: 65536, WTPref: 32768, WTMult: 512,
		DTPref: 8192,
	}, info)
}

func TestCreateCodec(t *testing.T) {
	t.Run("DecodeWithHandle", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteBool(true))
		require.NoError(t, enc.WriteOpaque([]byte{5, 5}))
		require.NoError(t, enc.WriteBool(true))
		writeFattr3(t, enc, nfs.TypeRegular, 0, 99)
		writeWccData(t, enc)

		reply, err := DecodeCreateReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, []byte{5, 5}, reply.Handle)
		require.NotNil(t, reply.Attr)
		assert.Equal(t, uint64(0), reply.Attr.Size)
	})

	t.Run("DecodeWithoutHandle", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteBool(false))
		require.NoError(t, enc.WriteBool(false))
		writeWccData(t, enc)

		reply, err := DecodeCreateReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Nil(t, reply.Handle)
		assert.Nil(t, reply.Attr)
	})

	t.Run("ExclusiveRejectedLocally", func(t *testing.T) {
		enc := newEncoder()
		err := EncodeCreateRequest(enc, []byte{1}, "f", nfs.CreateExclusive, &nfs.SetAttr{})
		assert.Error(t, err)
	})
}

func TestReadDirPlusCodec(t *testing.T) {
	writeEntry := func(t *testing.T, enc *xdr.Encoder, fileid uint64, name string, cookie uint64, fh []byte) {
		t.Helper()
		require.NoError(t, enc.WriteBool(true))
		require.NoError(t, enc.WriteUint64(fileid))
		require.NoError(t, enc.WriteString(name))
		require.NoError(t, enc.WriteUint64(cookie))
		require.NoError(t, enc.WriteBool(true))
		writeFattr3(t, enc, nfs.TypeRegular, 1, fileid)
		if fh != nil {
			require.NoError(t, enc.WriteBool(true))
			require.NoError(t, enc.WriteOpaque(fh))
		} else {
			require.NoError(t, enc.WriteBool(false))
		}
	}

	t.Run("EntriesChainAndEOF", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, enc.WriteUint32(nfs.StatusOK))
		require.NoError(t, enc.WriteBool(false)) // dir attrs
		require.NoError(t, enc.WriteUint64(77))  // cookieverf
		writeEntry(t, enc, 1, "alpha", 101, []byte{0xa})
		writeEntry(t, enc, 2, "beta", 102, nil) // no handle
		writeEntry(t, enc, 3, "gamma", 103, []byte{0xc})
		require.NoError(t, enc.WriteBool(false)) // end of entries
		require.NoError(t, enc.WriteBool(true))  // eof

		reply, err := DecodeReadDirPlusReply(xdr.NewDecoder(enc.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, uint64(77), reply.CookieVerf)
		assert.True(t, reply.EOF)
		require.Len(t, reply.Entries, 3)
		assert.Equal(t, "alpha", reply.Entries[0].Name)
		assert.Equal(t, uint64(101), reply.Entries[0].Cookie)
		assert.Nil(t, reply.Entries[1].Handle)
		assert.Equal(t, []byte{0xc}, reply.Entries[2].Handle)
	})

	t.Run("EncodeRequestFixedCookieVerf", func(t *testing.T) {
		enc := newEncoder()
		require.NoError(t, EncodeReadDirPlusRequest(enc, []byte{1, 2}, 5, 6, 0, 4096))

		dec := xdr.NewDecoder(enc.Bytes())
		_, err := dec.ReadOpaque()
		require.NoError(t, err)
		cookie, _ := dec.ReadUint64()
		assert.Equal(t, uint64(5), cookie)
		// cookieverf is a fixed 8-byte field with no length prefix
		verf, _ := dec.ReadUint64()
		assert.Equal(t, uint64(6), verf)
		dircount, _ := dec.ReadUint32()
		assert.Equal(t, uint32(0), dircount)
		maxcount, _ := dec.ReadUint32()
		assert.Equal(t, uint32(4096), maxcount)
		assert.Equal(t, 0, dec.Remaining())
	})
}
