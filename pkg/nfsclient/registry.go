package nfsclient

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/nfsclient/internal/logger"
	"github.com/marmos91/nfsclient/internal/transport"
	"github.com/marmos91/nfsclient/pkg/metrics"
)

// Config holds the process-level tunables shared by every mount a
// registry creates.
type Config struct {
	// BufferSize is the scratch buffer size per mount; it bounds the
	// maximum RPC message.
	BufferSize int

	// ClientPortBase is the first local UDP source port; each mount
	// takes the next one.
	ClientPortBase uint16

	// PortmapperPort is the remote portmap port.
	PortmapperPort uint16

	// UDPRetries is the retransmit budget per RPC.
	UDPRetries int

	// TryTimeout is how long each transmission waits for its reply.
	TryTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:     8192,
		ClientPortBase: 600,
		PortmapperPort: 111,
		UDPRetries:     2,
		TryTimeout:     500 * time.Millisecond,
	}
}

// MountOptions select the identity and mode of one mount.
type MountOptions struct {
	// UID and GID are the numeric identity stamped into AUTH_SYS
	// credentials and onto created files.
	UID uint32
	GID uint32

	// ReadOnly rejects every mutating operation locally, before any
	// RPC is issued.
	ReadOnly bool
}

// Registry maps short device names to mounted exports. It is safe for
// concurrent use; each mount serializes its own operations.
type Registry struct {
	cfg Config
	m   metrics.ClientMetrics

	mu       sync.Mutex
	mounts   map[string]*Mount
	nextPort uint16
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(cfg Config, m metrics.ClientMetrics) *Registry {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.ClientPortBase == 0 {
		cfg.ClientPortBase = def.ClientPortBase
	}
	if cfg.PortmapperPort == 0 {
		cfg.PortmapperPort = def.PortmapperPort
	}
	if cfg.UDPRetries < 0 {
		cfg.UDPRetries = def.UDPRetries
	}
	if cfg.TryTimeout <= 0 {
		cfg.TryTimeout = def.TryTimeout
	}

	return &Registry{
		cfg:      cfg,
		m:        m,
		mounts:   make(map[string]*Mount),
		nextPort: cfg.ClientPortBase,
	}
}

// Mount registers serverIP's exportPath under the device name. Mounting
// an already registered name succeeds without touching the existing
// mount. On any failure the allocations are rolled back, including the
// local port counter.
func (r *Registry) Mount(device, serverIP, exportPath string, opts MountOptions) error {
	if len(device) == 0 || len(device) > MaxDeviceNameLength {
		return opError("mount", device, KindInvalidPath)
	}
	if strings.Contains(device, ":") || strings.Contains(device, "/") {
		return opError("mount", device, KindInvalidPath)
	}

	ip := net.ParseIP(serverIP)
	if ip == nil {
		return &Error{Kind: KindInvalid, Op: "mount", Path: device,
			err: fmt.Errorf("invalid server address %q", serverIP)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mounts[device]; ok {
		// Duplicate mount is a no-op success.
		return nil
	}

	localPort := r.nextPort
	r.nextPort++

	tx, err := transport.Bind(localPort, ip, r.cfg.BufferSize, transport.Config{
		Retries:    r.cfg.UDPRetries,
		TryTimeout: r.cfg.TryTimeout,
	}, r.m)
	if err != nil {
		r.nextPort--
		return wrapError("mount", device, err)
	}

	m := &Mount{
		device:      device,
		server:      ip,
		exportPath:  exportPath,
		buf:         make([]byte, r.cfg.BufferSize),
		xid:         uint32(time.Now().Unix()),
		tx:          tx,
		portmapPort: r.cfg.PortmapperPort,
		machineName: localAddrFor(ip, r.cfg.PortmapperPort),
		uid:         opts.UID,
		gid:         opts.GID,
		readOnly:    opts.ReadOnly,
		log:         logger.With("device", device, "server", serverIP),
	}
	m.m = r.m

	if err := m.setup(); err != nil {
		m.teardown()
		r.nextPort--
		return wrapError("mount", device, err)
	}

	r.mounts[device] = m
	if r.m != nil {
		r.m.RecordMount(device)
	}
	logger.Info("device mounted", "device", device, "server", serverIP, "export", exportPath)
	return nil
}

// Unmount sends UMNT, tears the mount down and deregisters the device.
// UMNT failures are ignored; local state is always released.
func (r *Registry) Unmount(device string) error {
	r.mu.Lock()
	m, ok := r.mounts[device]
	if ok {
		delete(r.mounts, device)
	}
	r.mu.Unlock()

	if !ok {
		return opError("unmount", device, KindNoDevice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmountRemote()
	m.teardown()

	if r.m != nil {
		r.m.RecordUnmount(device)
	}
	logger.Info("device unmounted", "device", device)
	return nil
}

// lookupMount resolves a registered device name.
func (r *Registry) lookupMount(device string) (*Mount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mounts[device]
	if !ok {
		return nil, opError("lookup", device, KindNoDevice)
	}
	return m, nil
}

// localAddrFor discovers the local IP used to reach the server, which
// becomes the AUTH_SYS machine name. Servers do not verify it, so a
// loopback fallback is fine when discovery fails.
func localAddrFor(server net.IP, port uint16) string {
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: server, Port: int(port)})
	if err != nil {
		return "127.0.0.1"
	}
	defer func() { _ = conn.Close() }()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
