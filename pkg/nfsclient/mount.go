package nfsclient

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/marmos91/nfsclient/internal/logger"
	mountproto "github.com/marmos91/nfsclient/internal/protocol/mount"
	"github.com/marmos91/nfsclient/internal/protocol/nfs"
	v3 "github.com/marmos91/nfsclient/internal/protocol/nfs/v3"
	"github.com/marmos91/nfsclient/internal/protocol/portmap"
	"github.com/marmos91/nfsclient/internal/protocol/rpc"
	"github.com/marmos91/nfsclient/internal/protocol/xdr"
	"github.com/marmos91/nfsclient/internal/transport"
	"github.com/marmos91/nfsclient/pkg/metrics"
)

// rpcHeadroom is the encode/decode budget reserved in the scratch
// buffer for the RPC header, credentials, handles and per-procedure
// framing around a READ/WRITE payload. Chunk sizes are derived from
// what remains.
const rpcHeadroom = 512

// Mount is the per-export client state. All fields behind mu; every
// external operation locks for its full duration, so the scratch buffer
// and the xid counter are never shared between concurrent calls.
type Mount struct {
	mu sync.Mutex

	device     string
	server     net.IP
	exportPath string

	// buf is the scratch buffer reused for every outgoing call and
	// every received reply.
	buf []byte

	// xid strictly increases; the transceiver drops any datagram whose
	// xid differs from the last one issued.
	xid uint32

	tx *transport.Transceiver

	portmapPort uint16
	mountPort   uint16
	nfsPort     uint16

	rootFH Handle

	// cwdFH/cwdPath are the one-entry current-directory cache; both set
	// or both empty.
	cwdFH   Handle
	cwdPath string

	machineName string
	uid, gid    uint32
	readOnly    bool

	fsinfo nfs.FSInfo

	log *slog.Logger
	m   metrics.ClientMetrics
}

// programPort returns the remote port a program is reached on.
func (m *Mount) programPort(program uint32) uint16 {
	switch program {
	case rpc.ProgramPortmap:
		return m.portmapPort
	case rpc.ProgramMount:
		return m.mountPort
	default:
		return m.nfsPort
	}
}

func programName(program uint32) string {
	switch program {
	case rpc.ProgramPortmap:
		return "portmap"
	case rpc.ProgramMount:
		return "mount"
	default:
		return "nfs"
	}
}

// credential returns the AUTH_SYS credential for NFS calls. Portmap and
// mount traffic goes out as AUTH_NONE.
func (m *Mount) credential() *rpc.UnixAuth {
	return &rpc.UnixAuth{
		Stamp:       uint32(time.Now().Unix()),
		MachineName: m.machineName,
		UID:         m.uid,
		GID:         m.gid,
	}
}

// call frames and sends one RPC and returns a decoder positioned at the
// start of the program result. encodeArgs appends the argument body;
// the caller must hold the mount lock.
func (m *Mount) call(program, version, procedure uint32, cred *rpc.UnixAuth, encodeArgs func(*xdr.Encoder) error) (*xdr.Decoder, error) {
	m.xid++

	enc := xdr.NewEncoder(m.buf)
	if err := rpc.EncodeCall(enc, &rpc.Call{
		XID:       m.xid,
		Program:   program,
		Version:   version,
		Procedure: procedure,
		Cred:      cred,
	}); err != nil {
		return nil, err
	}
	if encodeArgs != nil {
		if err := encodeArgs(enc); err != nil {
			return nil, err
		}
	}

	m.log.Debug("rpc call",
		"xid", m.xid,
		"prog", programName(program),
		"proc", procedure,
		"bytes", enc.Offset())

	n, err := m.tx.SendRecv(m.buf, enc.Offset(), m.programPort(program), m.xid, programName(program))
	if err != nil {
		return nil, err
	}

	dec := xdr.NewDecoder(m.buf[:n])
	if err := rpc.ParseReply(dec); err != nil {
		return nil, err
	}
	return dec, nil
}

// getPort resolves the UDP port of program/version via the portmapper.
func (m *Mount) getPort(program, version uint32) (uint16, error) {
	dec, err := m.call(rpc.ProgramPortmap, rpc.PortmapVersion, portmap.ProcGetPort, nil,
		func(enc *xdr.Encoder) error {
			return portmap.EncodeMapping(enc, &portmap.Mapping{
				Prog: program,
				Vers: version,
				Prot: portmap.ProtoUDP,
			})
		})
	if err != nil {
		return 0, err
	}
	return portmap.DecodeGetPortReply(dec)
}

// setup runs the mount-time sequence: resolve the mount daemon port,
// MNT the export, resolve the NFS port, fetch the transfer preferences.
func (m *Mount) setup() error {
	port, err := m.getPort(rpc.ProgramMount, rpc.MountVersion)
	if err != nil {
		return fmt.Errorf("resolve mount port: %w", err)
	}
	m.mountPort = port

	dec, err := m.call(rpc.ProgramMount, rpc.MountVersion, mountproto.ProcMount, nil,
		func(enc *xdr.Encoder) error {
			return mountproto.EncodeMountRequest(enc, m.exportPath)
		})
	if err != nil {
		return fmt.Errorf("mount %q: %w", m.exportPath, err)
	}
	rootFH, err := mountproto.DecodeMountReply(dec)
	if err != nil {
		return fmt.Errorf("mount %q: %w", m.exportPath, err)
	}
	m.rootFH = Handle(rootFH).Clone()

	if m.nfsPort, err = m.getPort(rpc.ProgramNFS, rpc.NFSVersion); err != nil {
		return fmt.Errorf("resolve nfs port: %w", err)
	}

	dec, err = m.call(rpc.ProgramNFS, rpc.NFSVersion, v3.ProcFSInfo, m.credential(),
		func(enc *xdr.Encoder) error {
			return v3.EncodeFSInfoRequest(enc, m.rootFH)
		})
	if err != nil {
		return fmt.Errorf("fsinfo: %w", err)
	}
	info, err := v3.DecodeFSInfoReply(dec)
	if err != nil {
		return fmt.Errorf("fsinfo: %w", err)
	}
	m.fsinfo = *info

	m.log.Info("mounted export",
		"mount_port", m.mountPort,
		"nfs_port", m.nfsPort,
		"rtpref", m.fsinfo.RTPref,
		"wtpref", m.fsinfo.WTPref)
	return nil
}

// unmountRemote tells the mount daemon the client is done. Failures are
// logged and swallowed: stale entries in the daemon's mount table are
// the server's problem, and the local teardown must proceed regardless.
func (m *Mount) unmountRemote() {
	_, err := m.call(rpc.ProgramMount, rpc.MountVersion, mountproto.ProcUnmount, nil,
		func(enc *xdr.Encoder) error {
			return mountproto.EncodeUnmountRequest(enc, m.exportPath)
		})
	if err != nil {
		m.log.Warn("unmount notification failed", "error", err)
	}
}

// teardown clears the mount state after deregistration.
func (m *Mount) teardown() {
	m.rootFH = nil
	m.cwdFH = nil
	m.cwdPath = ""
	m.mountPort = 0
	m.nfsPort = 0
	if m.tx != nil {
		if err := m.tx.Close(); err != nil {
			logger.Debug("closing mount socket", "device", m.device, "error", err)
		}
		m.tx = nil
	}
}

// readBlockSize returns the READ chunk size: the server's preference
// capped by what a reply can carry through the scratch buffer, rounded
// down to the advertised multiple.
func (m *Mount) readBlockSize() uint32 {
	return blockSize(m.fsinfo.RTPref, m.fsinfo.RTMult, uint32(len(m.buf)))
}

// writeBlockSize is the WRITE counterpart.
func (m *Mount) writeBlockSize() uint32 {
	return blockSize(m.fsinfo.WTPref, m.fsinfo.WTMult, uint32(len(m.buf)))
}

func blockSize(pref, mult, bufLen uint32) uint32 {
	avail := bufLen - rpcHeadroom
	block := pref
	if mult > 0 {
		if rounded := (avail / mult) * mult; rounded > 0 && rounded < block {
			block = rounded
		}
	}
	if block > avail || block == 0 {
		block = avail
	}
	if pref > 0 && block > pref {
		block = pref
	}
	return block
}
