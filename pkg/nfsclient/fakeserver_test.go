package nfsclient

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mountproto "github.com/marmos91/nfsclient/internal/protocol/mount"
	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/portmap"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// rootFH is the handle the fake mount daemon hands out.
var rootFH = []byte("ROOTFH01")

// rpcCall is one parsed incoming call.
type rpcCall struct {
	XID  uint32
	Prog uint32
	Vers uint32
	Proc uint32

	// Args is positioned at the start of the argument body.
	Args *xdr.Decoder
}

// procKey identifies a handler by program and procedure.
type procKey struct {
	prog uint32
	proc uint32
}

// handlerFunc produces the datagrams to send back for one call;
// usually a single framed reply, more for straggler scenarios, none to
// force a client timeout.
type handlerFunc func(c *rpcCall) [][]byte

// fakeServer is a scripted portmap+mount+nfs endpoint on one loopback
// UDP socket. GETPORT points every program back at the same socket.
type fakeServer struct {
	t    *testing.T
	conn *net.UDPConn

	mu       sync.Mutex
	handlers map[procKey]handlerFunc
	calls    []procKey
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	s := &fakeServer{
		t:        t,
		conn:     conn,
		handlers: make(map[procKey]handlerFunc),
	}
	t.Cleanup(func() { _ = conn.Close() })

	s.installDefaults()
	go s.serve()
	return s
}

func (s *fakeServer) port() uint16 {
	return uint16(s.conn.LocalAddr().(*net.UDPAddr).Port)
}

// handle installs or replaces the handler for prog/proc.
func (s *fakeServer) handle(prog, proc uint32, fn handlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[procKey{prog, proc}] = fn
}

// callCount returns how many calls for prog/proc were received.
func (s *fakeServer) callCount(prog, proc uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.calls {
		if k == (procKey{prog, proc}) {
			n++
		}
	}
	return n
}

func (s *fakeServer) serve() {
	buf := make([]byte, 65536)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		call, ok := s.parseCall(buf[:n])
		if !ok {
			continue
		}

		s.mu.Lock()
		s.calls = append(s.calls, procKey{call.Prog, call.Proc})
		fn := s.handlers[procKey{call.Prog, call.Proc}]
		s.mu.Unlock()

		if fn == nil {
			continue
		}
		for _, datagram := range fn(call) {
			_, _ = s.conn.WriteToUDP(datagram, from)
		}
	}
}

// parseCall walks an RPC call header including the credential and
// verifier opaques.
func (s *fakeServer) parseCall(data []byte) (*rpcCall, bool) {
	dec := xdr.NewDecoder(append([]byte(nil), data...))

	var words [6]uint32
	for i := range words {
		v, err := dec.ReadUint32()
		if err != nil {
			return nil, false
		}
		words[i] = v
	}
	if words[1] != rpc.MsgCall || words[2] != rpc.RPCVersion {
		return nil, false
	}

	// credential and verifier: flavor + opaque body
	for i := 0; i < 2; i++ {
		if _, err := dec.ReadUint32(); err != nil {
			return nil, false
		}
		if _, err := dec.ReadOpaque(); err != nil {
			return nil, false
		}
	}

	return &rpcCall{
		XID:  words[0],
		Prog: words[3],
		Vers: words[4],
		Proc: words[5],
		Args: dec,
	}, true
}

// frameReply builds an accepted-success reply datagram around body.
func frameReply(xid uint32, body []byte) []byte {
	buf := make([]byte, 24+len(body))
	enc := xdr.NewEncoder(buf)
	_ = enc.WriteUint32(xid)
	_ = enc.WriteUint32(rpc.MsgReply)
	_ = enc.WriteUint32(rpc.MsgAccepted)
	_ = enc.WriteUint32(rpc.AuthNone)
	_ = enc.WriteUint32(0)
	_ = enc.WriteUint32(rpc.AcceptSuccess)
	copy(buf[24:], body)
	return buf
}

// body renders a result body with a throwaway encoder.
func body(fn func(enc *xdr.Encoder)) []byte {
	buf := make([]byte, 65536)
	enc := xdr.NewEncoder(buf)
	fn(enc)
	return append([]byte(nil), enc.Bytes()...)
}

// reply is the common single-datagram success case.
func reply(c *rpcCall, fn func(enc *xdr.Encoder)) [][]byte {
	return [][]byte{frameReply(c.XID, body(fn))}
}

// nfsError replies with just a non-zero status word.
func nfsError(c *rpcCall, status uint32) [][]byte {
	return reply(c, func(enc *xdr.Encoder) {
		_ = enc.WriteUint32(status)
	})
}

// writeAttr emits a fattr3 with the fields the client cares about.
func writeAttr(enc *xdr.Encoder, ftype uint32, size, fileid uint64) {
	for _, v := range []uint32{ftype, 0o644, 1, 1000, 100} {
		_ = enc.WriteUint32(v)
	}
	_ = enc.WriteUint64(size)
	_ = enc.WriteUint64(size)
	_ = enc.WriteUint32(0)
	_ = enc.WriteUint32(0)
	_ = enc.WriteUint64(1)
	_ = enc.WriteUint64(fileid)
	for i := 0; i < 6; i++ {
		_ = enc.WriteUint32(uint32(i))
	}
}

// writePostOpAttr emits a present post_op_attr.
func writePostOpAttr(enc *xdr.Encoder, ftype uint32, size, fileid uint64) {
	_ = enc.WriteBool(true)
	writeAttr(enc, ftype, size, fileid)
}

// writeWcc emits an empty wcc_data.
func writeWcc(enc *xdr.Encoder) {
	_ = enc.WriteBool(false)
	_ = enc.WriteBool(false)
}

// readDirOpArgs decodes the (handle, name) argument pair.
func readDirOpArgs(t *testing.T, c *rpcCall) ([]byte, string) {
	t.Helper()
	fh, err := c.Args.ReadOpaque()
	require.NoError(t, err)
	name, err := c.Args.ReadString()
	require.NoError(t, err)
	return append([]byte(nil), fh...), name
}

// installDefaults wires the mount-time sequence: GETPORT resolves every
// program to this socket, MNT returns the root handle, FSINFO returns
// conventional preferences, UMNT replies with an empty body.
func (s *fakeServer) installDefaults() {
	ownPort := uint32(s.port())

	s.handle(rpc.ProgramPortmap, portmap.ProcGetPort, func(c *rpcCall) [][]byte {
		return reply(c, func(enc *xdr.Encoder) {
			_ = enc.WriteUint32(ownPort)
		})
	})

	s.handle(rpc.ProgramMount, mountproto.ProcMount, func(c *rpcCall) [][]byte {
		return reply(c, func(enc *xdr.Encoder) {
			_ = enc.WriteUint32(mountproto.StatOK)
			_ = enc.WriteOpaque(rootFH)
			_ = enc.WriteUint32(1)
			_ = enc.WriteUint32(rpc.AuthSys)
		})
	})

	s.handle(rpc.ProgramMount, mountproto.ProcUnmount, func(c *rpcCall) [][]byte {
		return reply(c, func(enc *xdr.Encoder) {})
	})

	s.setFSInfo(nfs.FSInfo{
		RTMax: 65536, RTPref: 4096, RTMult: 4096,
		WTMax: 65536, WTPref: 4096, WTMult: 4096,
		DTPref: 4096,
	})
}

// setFSInfo reprograms the FSINFO reply, letting tests force tiny
// transfer blocks.
func (s *fakeServer) setFSInfo(info nfs.FSInfo) {
	s.handle(rpc.ProgramNFS, v3.ProcFSInfo, func(c *rpcCall) [][]byte {
		return reply(c, func(enc *xdr.Encoder) {
			_ = enc.WriteUint32(nfs.StatusOK)
			_ = enc.WriteBool(false)
			for _, v := range []uint32{
				info.RTMax, info.RTPref, info.RTMult,
				info.WTMax, info.WTPref, info.WTMult,
				info.DTPref,
			} {
				_ = enc.WriteUint32(v)
			}
			_ = enc.WriteUint64(1 << 40)
			_ = enc.WriteUint64(0)
			_ = enc.WriteUint32(0x1b)
		})
	})
}

// serveLookup wires LOOKUP to a name → (handle, type, size, fileid)
// table; unknown names get NFS3ERR_NOENT.
type lookupEntry struct {
	fh     []byte
	ftype  uint32
	size   uint64
	fileid uint64
}

func (s *fakeServer) serveLookup(entries map[string]lookupEntry) {
	s.handle(rpc.ProgramNFS, v3.ProcLookup, func(c *rpcCall) [][]byte {
		_, name := readDirOpArgs(s.t, c)
		entry, ok := entries[name]
		if !ok {
			return nfsError(c, nfs.ErrNoEnt)
		}
		return reply(c, func(enc *xdr.Encoder) {
			_ = enc.WriteUint32(nfs.StatusOK)
			_ = enc.WriteOpaque(entry.fh)
			writePostOpAttr(enc, entry.ftype, entry.size, entry.fileid)
			_ = enc.WriteBool(false)
		})
	})
}

// nextTestPort hands each test registry a fresh local port range so
// parallel tests do not collide.
var nextTestPort atomic.Uint32

func init() {
	nextTestPort.Store(40600)
}

func testRegistry(t *testing.T, s *fakeServer) *Registry {
	t.Helper()
	base := uint16(nextTestPort.Add(8))
	return NewRegistry(Config{
		BufferSize:     8192,
		ClientPortBase: base,
		PortmapperPort: s.port(),
		UDPRetries:     2,
		TryTimeout:     500 * time.Millisecond,
	}, nil)
}
