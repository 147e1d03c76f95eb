// Package sched stands in for the scheduler's per-process socket
// registry (§4.E, §6): the core treats it as an external collaborator,
// consuming register/lookup/release and per-process enumeration.
package sched

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/cezamee/netcore/internal/netpkt"
)

// Domain is the socket address family. AF_INET is the only member the
// core validates against; the type stays open so a future domain isn't
// a breaking change.
type Domain int

const AFInet Domain = 1

// Type is the socket semantics.
type Type int

const (
	RAW Type = iota
	DGRAM
	STREAM
)

// Protocol is the wire protocol a socket speaks.
type Protocol int

const (
	ICMP Protocol = iota
	DNS
	TCP
)

// Fd identifies a socket in the global table.
type Fd int

// PacketFd identifies an in-flight prepared outbound packet, scoped to
// the socket that registered it.
type PacketFd int

// Socket is a process's handle onto the network subsystem: protocol
// state, the pending-packet table between PreparePacket and
// FinalizePacket, and the inbound delivery queue the dispatcher and
// WaitForPacket rendezvous on.
type Socket struct {
	Fd       Fd
	Domain   Domain
	Type     Type
	Protocol Protocol

	Listen    bool
	Connected bool

	LocalPort    uint16
	ServerPort   uint16
	ServerAddr   net.IP

	// TCPConn is set only for STREAM/TCP sockets once Connected; it is
	// the live gVisor-backed stream the core's TCP bridge drives.
	TCPConn io.ReadWriteCloser

	mu             sync.Mutex
	pending        map[PacketFd]*netpkt.Packet
	nextPacketFd   PacketFd
	listenPackets  []*netpkt.Packet
	waitCond       *sync.Cond
}

func newSocket(fd Fd, domain Domain, typ Type, proto Protocol) *Socket {
	s := &Socket{
		Fd:       fd,
		Domain:   domain,
		Type:     typ,
		Protocol: proto,
		pending:  make(map[PacketFd]*netpkt.Packet),
	}
	s.waitCond = sync.NewCond(&s.mu)
	return s
}

// RegisterPacket stores a pending prepared packet and returns its
// socket-local packet fd.
func (s *Socket) RegisterPacket(pkt *netpkt.Packet) PacketFd {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.nextPacketFd
	s.nextPacketFd++
	s.pending[fd] = pkt
	return fd
}

// HasPacket reports whether pfd is a live pending-packet handle.
func (s *Socket) HasPacket(pfd PacketFd) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[pfd]
	return ok
}

// GetPacket returns the pending packet for pfd.
func (s *Socket) GetPacket(pfd PacketFd) (*netpkt.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkt, ok := s.pending[pfd]
	return pkt, ok
}

// ErasePacket removes pfd from the pending-packet table.
func (s *Socket) ErasePacket(pfd PacketFd) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, pfd)
}

// PushListen appends pkt to listen_packets and wakes one waiter. Called
// by the dispatcher (propagate_packet) with a packet this socket
// already owns a private clone of.
func (s *Socket) PushListen(pkt *netpkt.Packet) {
	s.mu.Lock()
	s.listenPackets = append(s.listenPackets, pkt)
	s.mu.Unlock()
	s.waitCond.Signal()
}

// popListen pops the oldest buffered inbound packet, if any.
func (s *Socket) popListen() (*netpkt.Packet, bool) {
	if len(s.listenPackets) == 0 {
		return nil, false
	}
	pkt := s.listenPackets[0]
	s.listenPackets = s.listenPackets[1:]
	return pkt, true
}

// WaitForPacket blocks (optionally bounded by timeout, 0 meaning "return
// immediately") until a packet is buffered, then pops and returns it.
// timeout < 0 means block indefinitely, matching the unbounded
// wait_for_packet form.
func (s *Socket) WaitForPacket(timeout time.Duration) (*netpkt.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pkt, ok := s.popListen(); ok {
		return pkt, true
	}
	if timeout == 0 {
		return nil, false
	}

	if timeout < 0 {
		for len(s.listenPackets) == 0 {
			s.waitCond.Wait()
		}
		pkt, _ := s.popListen()
		return pkt, true
	}

	timedOut := false
	timer := time.AfterFunc(timeout, func() {
		s.mu.Lock()
		timedOut = true
		s.mu.Unlock()
		s.waitCond.Broadcast()
	})
	defer timer.Stop()

	for len(s.listenPackets) == 0 && !timedOut {
		s.waitCond.Wait()
	}
	if pkt, ok := s.popListen(); ok {
		return pkt, true
	}
	return nil, false
}
