// Package iface owns the interface registry, the per-interface bounded
// RX/TX queues, and the RX/TX worker goroutines that move frames between
// a driver and the protocol stack. It is the concurrency boundary the
// rest of the subsystem is built around: a driver's hand-off, the
// decoder chain, and user-process sends and receives all cross through
// here, never through each other directly.
package iface

import (
	"log"
	"net"
	"sync"

	"github.com/cezamee/netcore/internal/config"
	"github.com/cezamee/netcore/internal/netpkt"
)

var logger = log.New(log.Writer(), "netcore: ", log.LstdFlags)

// HWSendFunc is the driver collaborator contract: push a kernel-owned
// packet onto the wire. It must not retain pkt.Payload past return.
type HWSendFunc func(ifc *Interface, pkt *netpkt.Packet) error

// DecodeFunc is the protocol-codec collaborator contract for inbound
// frames. It is invoked once per RX-queue pop and takes ownership of pkt
// for the duration of the call; the RX worker releases the payload when
// Decode returns.
type DecodeFunc func(ifc *Interface, pkt *netpkt.Packet)

// Interface is one network device: a physical NIC or the loopback
// pseudo-device. It is created during Init and never removed; only its
// Enabled flag and driver hook-up change after that.
type Interface struct {
	ID       int
	Name     string
	Driver   string
	Enabled  bool
	Loopback bool

	MAC     [6]byte
	IP      net.IP
	Gateway net.IP

	// PCI is opaque to the core; the teacher's driver layer fills it in,
	// the core only ever round-trips it to sysfs.
	PCI string

	txMu    sync.Mutex
	rx      *ringQueue
	tx      *ringQueue
	hwSend  HWSendFunc
	decode  DecodeFunc
	started bool

	// RXCore/TXCore pin the RX/TX worker goroutines to specific CPU
	// cores (-1 disables pinning, the default). Purely a performance
	// knob; correctness never depends on it.
	RXCore int
	TXCore int

	stats Stats
}

// Stats are the additive counters SPEC_FULL.md layers onto the interface
// (sysfs publication is allowed to carry more than static attributes).
type Stats struct {
	mu       sync.Mutex
	RXPacket uint64
	RXBytes  uint64
	TXPacket uint64
	TXBytes  uint64
}

func (s *Stats) addRX(n int) {
	s.mu.Lock()
	s.RXPacket++
	s.RXBytes += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) addTX(n int) {
	s.mu.Lock()
	s.TXPacket++
	s.TXBytes += uint64(n)
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters safe to read concurrently.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{RXPacket: s.RXPacket, RXBytes: s.RXBytes, TXPacket: s.TXPacket, TXBytes: s.TXBytes}
}

// New constructs a disabled interface; callers enable it once a driver
// is attached (AttachDriver), matching the DISCOVERED -> ENABLED ->
// RUNNING lifecycle spec §4.G describes.
func New(id int, name string, loopback bool) *Interface {
	return &Interface{
		ID:       id,
		Name:     name,
		Loopback: loopback,
		rx:       newRingQueue(config.QueueCapacity),
		tx:       newRingQueue(config.QueueCapacity),
		RXCore:   -1,
		TXCore:   -1,
	}
}

// AttachDriver wires the driver's hw_send callback and marks the
// interface enabled. It does not start the worker goroutines — that is
// Registry.StartAll's job (called from Subsystem.Finalize), once for
// every enabled interface.
func (ifc *Interface) AttachDriver(driver string, mac [6]byte, ip, gateway net.IP, hwSend HWSendFunc) {
	ifc.Driver = driver
	ifc.MAC = mac
	ifc.IP = ip
	ifc.Gateway = gateway
	ifc.hwSend = hwSend
	ifc.Enabled = true
}

// SetDecoder registers the codec entry point the RX worker calls for
// every popped packet. Only the core (which owns propagation into
// sockets) is expected to call this, once, during subsystem init.
func (ifc *Interface) SetDecoder(d DecodeFunc) {
	ifc.decode = d
}

// GetStats returns the interface's live counters.
func (ifc *Interface) GetStats() Stats { return ifc.stats.Snapshot() }

// QueueDepths reports current rx_queue/tx_queue occupancy (invariant
// §8.1: both are always <= config.QueueCapacity).
func (ifc *Interface) QueueDepths() (rx, tx int) {
	return ifc.rx.len(), ifc.tx.len()
}

// PushRX is the driver's hand-off point: enqueue an inbound frame and
// wake the RX worker. Returns false if rx_queue is full — by contract
// (§4.C/§9) the core does not define back-pressure beyond this signal;
// it is the driver's problem to retry, coalesce, or drop.
func (ifc *Interface) PushRX(pkt *netpkt.Packet) bool {
	return ifc.rx.push(pkt)
}

// send is the producer side of the TX queue: take the TX mutex (so
// concurrent user threads serialize into enqueue order), push, and
// return. Outside this package it is reached only through Send.
func (ifc *Interface) send(pkt *netpkt.Packet) bool {
	ifc.txMu.Lock()
	defer ifc.txMu.Unlock()
	return ifc.tx.push(pkt)
}

// Send is the exported form of send. The core enqueues every outbound
// frame through it: FinalizePacket for ICMP/DNS packets and the TCP
// bridge's outbound pump for gVisor-produced segments.
func (ifc *Interface) Send(pkt *netpkt.Packet) bool {
	return ifc.send(pkt)
}

// StartWorkers spawns the RX and TX loops for an enabled interface. It
// is a no-op if already started, and panics if the interface has no
// driver attached — mirroring the teacher's log.Fatalf-on-invariant
// posture for conditions that should never occur given correct init
// ordering.
func (ifc *Interface) StartWorkers() {
	if ifc.started {
		return
	}
	if !ifc.Enabled || ifc.hwSend == nil {
		panic("iface: StartWorkers on an interface with no driver attached")
	}
	ifc.started = true
	go ifc.runRX()
	go ifc.runTX()
}

func (ifc *Interface) runRX() {
	pinToCPU(ifc.RXCore)
	for {
		pkt := ifc.rx.pop()
		ifc.stats.addRX(len(pkt.Payload))
		if ifc.decode != nil {
			ifc.decode(ifc, pkt)
		}
		pkt.Release()
	}
}

func (ifc *Interface) runTX() {
	pinToCPU(ifc.TXCore)
	for {
		pkt := ifc.tx.pop()
		if pkt.User {
			// Invariant violation: a user-originated buffer must never
			// reach the TX queue directly (FinalizePacket always clones
			// into a kernel buffer first). Corrupting user memory here
			// is worse than crashing loudly.
			panic("iface: TX worker received a user-owned packet")
		}
		ifc.stats.addTX(len(pkt.Payload))
		if err := ifc.hwSend(ifc, pkt); err != nil {
			logger.Printf("interface %s: hw_send: %v", ifc.Name, err)
		}
		pkt.Release()
	}
}
