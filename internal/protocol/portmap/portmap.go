// Package portmap implements the PORTMAP v2 GETPORT client side
// (RFC 1057 Appendix A). The portmapper on UDP port 111 maps a
// (program, version, protocol) triple to the dynamic port the service
// listens on.
package portmap

import (
	"errors"
	"fmt"

	"github.com/marmos91/nfsclient/internal/protocol/xdr"
)

// Procedure numbers for PORTMAP v2. Only GETPORT is used.
const ProcGetPort uint32 = 3

// ProtoUDP is the IPPROTO_UDP value sent in the mapping argument.
const ProtoUDP uint32 = 17

// ErrProgramUnavailable is returned when the portmapper answers with
// port 0, meaning the requested program/version is not registered.
var ErrProgramUnavailable = errors.New("portmap: program not registered")

// Mapping is the GETPORT argument struct.
//
// Wire format: [prog:u32][vers:u32][prot:u32][port:u32], 16 bytes.
// The port field is ignored by GETPORT and sent as zero.
type Mapping struct {
	Prog uint32
	Vers uint32
	Prot uint32
	Port uint32
}

// EncodeMapping appends a mapping struct to an RPC call.
func EncodeMapping(enc *xdr.Encoder, m *Mapping) error {
	for _, v := range []uint32{m.Prog, m.Vers, m.Prot, m.Port} {
		if err := enc.WriteUint32(v); err != nil {
			return fmt.Errorf("encode portmap mapping: %w", err)
		}
	}
	return nil
}

// DecodeGetPortReply decodes the GETPORT result: a single port word.
// A zero port means the program is not registered with the portmapper.
func DecodeGetPortReply(dec *xdr.Decoder) (uint16, error) {
	port, err := dec.ReadUint32()
	if err != nil {
		return 0, fmt.Errorf("decode getport reply: %w", err)
	}
	if port == 0 {
		return 0, ErrProgramUnavailable
	}
	if port > 0xffff {
		return 0, fmt.Errorf("portmap returned invalid port %d", port)
	}
	return uint16(port), nil
}
