// Package transport owns the datagram socket of a mount and implements
// the call/reply exchange over lossy UDP: send the framed call, wait for
// a reply whose xid matches, retransmit on timeout, drop stragglers.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/marmos91/nfsclient/internal/logger"
)

// ErrTimeout is returned when the retransmit budget is exhausted without
// a matching reply.
var ErrTimeout = errors.New("transport: call timed out")

// Config tunes the retry behavior of a transceiver.
type Config struct {
	// Retries is the number of retransmits after the first send.
	Retries int

	// TryTimeout is how long each attempt waits for a matching reply.
	TryTimeout time.Duration
}

// Metrics receives transport-level observations. This is the narrow
// slice of the client metrics the transceiver needs; pass nil to
// disable instrumentation with zero overhead.
type Metrics interface {
	RecordCall(program string)
	RecordRetransmit(program string)
	RecordTimeout(program string)
}

// Transceiver is the per-mount UDP endpoint. It is not safe for
// concurrent use; the mount lock guarantees at most one call in flight,
// which is also what makes reusing one scratch buffer for the call and
// the reply sound.
type Transceiver struct {
	conn   *net.UDPConn
	server net.IP
	cfg    Config
	m      Metrics

	// resend holds a private copy of the outgoing call so a retransmit
	// stays intact even after a straggler datagram was received into
	// the shared scratch buffer.
	resend []byte
}

// Bind opens a UDP socket on the given local port, talking to server.
// The socket is closed by Close; one transceiver serves one mount.
func Bind(localPort uint16, server net.IP, bufferSize int, cfg Config, m Metrics) (*Transceiver, error) {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.TryTimeout <= 0 {
		cfg.TryTimeout = 500 * time.Millisecond
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(localPort)})
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", localPort, err)
	}

	return &Transceiver{
		conn:   conn,
		server: server,
		cfg:    cfg,
		m:      m,
		resend: make([]byte, bufferSize),
	}, nil
}

// Close releases the socket.
func (t *Transceiver) Close() error {
	return t.conn.Close()
}

// LocalPort returns the bound source port.
func (t *Transceiver) LocalPort() uint16 {
	return uint16(t.conn.LocalAddr().(*net.UDPAddr).Port)
}

// SendRecv transmits buf[:callLen] to the server at port and waits for
// the reply carrying xid, reading it into buf. It returns the received
// message length.
//
// Datagrams whose first word does not match xid are dropped and polling
// continues within the same attempt: they are delayed replies to an
// earlier retransmit of this or a previous call, and accepting one would
// desynchronize the state machine. Each attempt waits TryTimeout; after
// 1+Retries attempts without a match the call fails with ErrTimeout.
func (t *Transceiver) SendRecv(buf []byte, callLen int, port uint16, xid uint32, program string) (int, error) {
	raddr := &net.UDPAddr{IP: t.server, Port: int(port)}

	call := t.resend[:callLen]
	copy(call, buf[:callLen])

	if t.m != nil {
		t.m.RecordCall(program)
	}

	for attempt := 0; attempt <= t.cfg.Retries; attempt++ {
		if attempt > 0 {
			logger.Debug("retransmitting call",
				"xid", xid, "port", port, "attempt", attempt)
			if t.m != nil {
				t.m.RecordRetransmit(program)
			}
		}

		if _, err := t.conn.WriteToUDP(call, raddr); err != nil {
			return 0, fmt.Errorf("send call xid=%d: %w", xid, err)
		}

		deadline := time.Now().Add(t.cfg.TryTimeout)
		n, err := t.awaitReply(buf, raddr, xid, deadline)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrTimeout) {
			return 0, err
		}
	}

	if t.m != nil {
		t.m.RecordTimeout(program)
	}
	return 0, fmt.Errorf("xid=%d after %d attempts: %w", xid, t.cfg.Retries+1, ErrTimeout)
}

// awaitReply polls for a matching datagram until the deadline.
func (t *Transceiver) awaitReply(buf []byte, raddr *net.UDPAddr, xid uint32, deadline time.Time) (int, error) {
	for {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return 0, fmt.Errorf("set read deadline: %w", err)
		}

		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return 0, ErrTimeout
			}
			return 0, fmt.Errorf("receive reply: %w", err)
		}

		if !from.IP.Equal(raddr.IP) {
			logger.Debug("dropping datagram from unexpected peer", "peer", from)
			continue
		}
		if n < 4 {
			logger.Debug("dropping runt datagram", "bytes", n)
			continue
		}

		gotXID := binary.BigEndian.Uint32(buf[:4])
		if gotXID != xid {
			// Delayed reply of an earlier (re)transmission.
			logger.Debug("dropping reply with stale xid",
				"got", gotXID, "want", xid)
			continue
		}
		return n, nil
	}
}
