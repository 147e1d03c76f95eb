// Package core wires the leaf packages (netpkt, iface, sched, the
// codec/* packages) into the network subsystem's single entry point:
// the Socket API. It is the only package allowed to import all of them
// at once — codecs reach back into it only through the Hooks callbacks
// they're handed, never through an import.
package core

import (
	"sync"
	"sync/atomic"

	"github.com/cezamee/netcore/internal/codec/ethernet"
	"github.com/cezamee/netcore/internal/config"
	"github.com/cezamee/netcore/internal/iface"
	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/cezamee/netcore/internal/sched"
)

// Subsystem is the process-wide singleton the teacher's global
// `interfaces` vector and `local_port` counter collapse into (§9: "a
// process-wide singleton constructed during init; interior mutability
// limited to the atomic counter and to append-only growth of
// interfaces"). Tests construct their own Subsystem rather than reach
// for a package-level global.
type Subsystem struct {
	Registry *iface.Registry
	Table    *sched.Table

	nextPort uint32

	bridgesMu sync.Mutex
	bridges   map[int]*tcpBridge
}

// NewSubsystem constructs an empty subsystem. Callers append interfaces
// to Registry (drivers attach themselves) before calling Finalize.
func NewSubsystem() *Subsystem {
	return &Subsystem{
		Registry: iface.NewRegistry(),
		Table:    sched.NewTable(),
		nextPort: config.FirstLocalPort,
		bridges:  make(map[int]*tcpBridge),
	}
}

// Finalize wires the Ethernet decoder onto every interface and spawns
// their RX/TX workers (§4.D). Call once, after every driver has
// attached and appended its interface.
func (s *Subsystem) Finalize() {
	for i := 0; i < s.Registry.NumberOfInterfaces(); i++ {
		s.Registry.Interface(i).SetDecoder(s.decode)
	}
	s.Registry.StartAll()
}

// decode is the RX worker's per-packet entry point: it drives the
// Ethernet decoder chain with this subsystem's own dispatcher and TCP
// hand-off wired in as hooks, so the codec layer never imports core.
func (s *Subsystem) decode(ifc *iface.Interface, pkt *netpkt.Packet) {
	ethernet.Decode(ifc, pkt, ethernet.Hooks{
		Propagate:  func(p *netpkt.Packet, proto sched.Protocol) { Dispatch(s.Table, p, proto) },
		TCPInbound: s.tcpInbound,
	})
}

func (s *Subsystem) tcpInbound(ifc *iface.Interface, ipPacket []byte) {
	s.tcpBridgeFor(ifc).InjectInbound(ipPacket)
}

// allocPort implements the global local_port allocator (§3: "a single
// monotonically incrementing 16-bit counter starting at 1234").
func (s *Subsystem) allocPort() uint16 {
	return uint16(atomic.AddUint32(&s.nextPort, 1) - 1)
}

// tcpBridgeFor returns (creating if needed) the gVisor bridge backing
// ifc's STREAM traffic. One bridge per interface, built lazily since
// most interfaces in a given run never carry TCP.
func (s *Subsystem) tcpBridgeFor(ifc *iface.Interface) *tcpBridge {
	s.bridgesMu.Lock()
	defer s.bridgesMu.Unlock()
	b, ok := s.bridges[ifc.ID]
	if !ok {
		b = newTCPBridge(ifc)
		s.bridges[ifc.ID] = b
	}
	return b
}
