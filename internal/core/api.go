package core

import (
	"context"
	"net"
	"time"

	"github.com/cezamee/netcore/internal/codec/dns"
	"github.com/cezamee/netcore/internal/codec/ethernet"
	"github.com/cezamee/netcore/internal/codec/icmp"
	"github.com/cezamee/netcore/internal/codec/ipv4"
	"github.com/cezamee/netcore/internal/codec/udp"
	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/cezamee/netcore/internal/sched"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// ICMPDescriptor is the prepare_packet descriptor for RAW/ICMP sockets.
type ICMPDescriptor struct {
	TargetIP    net.IP
	PayloadSize int
	Type        header.ICMPv4Type
	Code        byte
}

// TCPDescriptor is the prepare_packet descriptor for STREAM/TCP
// sockets. Since gVisor owns TCP framing and retransmission (§1
// Non-goals), preparing a TCP packet only reserves application-payload
// space; the wire segment itself is produced by the stack once
// FinalizePacket writes to the connection.
type TCPDescriptor struct {
	PayloadSize int
}

// DNSDescriptor is the prepare_packet descriptor for DGRAM/DNS sockets.
// Response sending is unimplemented (§4.G): Query must be true.
type DNSDescriptor struct {
	Query      bool
	Name       string
	Resolver   net.IP
	SourcePort uint16 // used only when the socket's own type isn't DGRAM
}

// Open validates and registers a new socket (§4.G open).
func (s *Subsystem) Open(pid int, domain sched.Domain, typ sched.Type, proto sched.Protocol) (sched.Fd, error) {
	if domain != sched.AFInet {
		return 0, ErrInvalidDomain
	}
	switch typ {
	case sched.RAW, sched.DGRAM, sched.STREAM:
	default:
		return 0, ErrInvalidType
	}
	switch proto {
	case sched.ICMP, sched.DNS, sched.TCP:
	default:
		return 0, ErrInvalidProtocol
	}
	if typ == sched.DGRAM && proto != sched.DNS {
		return 0, ErrInvalidTypeProtocol
	}
	if typ == sched.STREAM && proto != sched.TCP {
		return 0, ErrInvalidTypeProtocol
	}
	fd := s.Table.RegisterNewSocket(pid, domain, typ, proto)
	return fd, nil
}

// Close releases fd; silent on an unknown fd (§4.G close).
func (s *Subsystem) Close(fd sched.Fd) {
	s.Table.ReleaseSocket(fd)
}

// Listen sets or clears the listen flag (§4.G listen).
func (s *Subsystem) Listen(fd sched.Fd, on bool) error {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return ErrInvalidFd
	}
	sock.Listen = on
	return nil
}

// ClientBind allocates a local port for a DGRAM socket (§4.G
// client_bind).
func (s *Subsystem) ClientBind(fd sched.Fd) (uint16, error) {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return 0, ErrInvalidFd
	}
	if sock.Type != sched.DGRAM {
		return 0, ErrInvalidType
	}
	sock.LocalPort = s.allocPort()
	return sock.LocalPort, nil
}

// Connect dials a STREAM/TCP socket out to server:port (§4.G connect).
func (s *Subsystem) Connect(fd sched.Fd, server net.IP, port uint16) (uint16, error) {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return 0, ErrInvalidFd
	}
	if sock.Type != sched.STREAM {
		return 0, ErrInvalidType
	}
	if sock.Protocol != sched.TCP {
		return 0, ErrInvalidTypeProtocol
	}

	localPort := s.allocPort()
	ifc := s.Registry.Select(server.String())
	bridge := s.tcpBridgeFor(ifc)

	conn, err := bridge.Dial(context.Background(), localPort, server, port)
	if err != nil {
		return 0, err
	}

	sock.LocalPort = localPort
	sock.ServerAddr = server
	sock.ServerPort = port
	sock.TCPConn = conn
	sock.Connected = true
	return localPort, nil
}

// Disconnect tears down a connected STREAM/TCP socket (§4.G
// disconnect). A second call on an already-disconnected socket returns
// NotConnected (§8 scenario 4).
func (s *Subsystem) Disconnect(fd sched.Fd) error {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return ErrInvalidFd
	}
	if sock.Type != sched.STREAM {
		return ErrInvalidType
	}
	if !sock.Connected {
		return ErrNotConnected
	}
	err := sock.TCPConn.Close()
	sock.Connected = false
	sock.TCPConn = nil
	return err
}

// PreparePacket implements §4.G prepare_packet: it validates
// preconditions, has the matching codec write its header(s) into buf,
// and registers the pending packet. It returns the packet fd and the
// byte offset in buf at which the caller should write application
// payload.
func (s *Subsystem) PreparePacket(fd sched.Fd, desc any, buf []byte) (sched.PacketFd, int, error) {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return 0, 0, ErrInvalidFd
	}
	if s.Registry.NumberOfInterfaces() == 0 {
		return 0, 0, ErrNoInterface
	}
	if sock.Type == sched.STREAM && !sock.Connected {
		return 0, 0, ErrNotConnected
	}

	switch sock.Protocol {
	case sched.ICMP:
		return s.prepareICMP(sock, desc, buf)
	case sched.TCP:
		return s.prepareTCP(sock, desc, buf)
	case sched.DNS:
		return s.prepareDNS(sock, desc, buf)
	default:
		return 0, 0, ErrInvalidPacketDescriptor
	}
}

func (s *Subsystem) prepareICMP(sock *sched.Socket, desc any, buf []byte) (sched.PacketFd, int, error) {
	d, ok := desc.(*ICMPDescriptor)
	if !ok {
		return 0, 0, ErrInvalidPacketDescriptor
	}
	ifc := s.Registry.Select(d.TargetIP.String())

	icmpLen := header.ICMPv4MinimumSize + d.PayloadSize
	total := ipv4.HeaderLen + icmpLen
	if len(buf) < total {
		return 0, 0, ErrInvalidPacketDescriptor
	}

	ipv4.Build(buf[:ipv4.HeaderLen], ifc.IP, d.TargetIP, header.ICMPv4ProtocolNumber, icmpLen)
	payloadOff := ipv4.HeaderLen + header.ICMPv4MinimumSize
	icmp.BuildEcho(buf[ipv4.HeaderLen:total], d.Type, d.Code, uint16(sock.Fd), 0, buf[payloadOff:total])

	pkt := netpkt.NewUser(buf[:total], ifc.ID)
	ihl, payload, typ, code := ipv4.HeaderLen, buf[:total], d.Type, d.Code
	pkt.OnFinalize = func() error {
		icmp.BuildEcho(payload[ihl:], typ, code, uint16(sock.Fd), 0, payload[payloadOff:])
		return nil
	}

	pfd := sock.RegisterPacket(pkt)
	return pfd, payloadOff, nil
}

func (s *Subsystem) prepareTCP(sock *sched.Socket, desc any, buf []byte) (sched.PacketFd, int, error) {
	d, ok := desc.(*TCPDescriptor)
	if !ok {
		return 0, 0, ErrInvalidPacketDescriptor
	}
	if len(buf) < d.PayloadSize {
		return 0, 0, ErrInvalidPacketDescriptor
	}
	ifc := s.Registry.Select(sock.ServerAddr.String())
	pkt := netpkt.NewUser(buf[:d.PayloadSize], ifc.ID)
	pfd := sock.RegisterPacket(pkt)
	return pfd, 0, nil
}

func (s *Subsystem) prepareDNS(sock *sched.Socket, desc any, buf []byte) (sched.PacketFd, int, error) {
	d, ok := desc.(*DNSDescriptor)
	if !ok {
		return 0, 0, ErrInvalidPacketDescriptor
	}
	if !d.Query {
		return 0, 0, ErrUnimplemented
	}

	srcPort := d.SourcePort
	if sock.Type == sched.DGRAM {
		srcPort = sock.LocalPort
	}

	ifc := s.Registry.Select(d.Resolver.String())
	query := dns.BuildQuery(uint16(sock.Fd), d.Name)
	total := ipv4.HeaderLen + udp.HeaderLen + len(query)
	if len(buf) < total {
		return 0, 0, ErrInvalidPacketDescriptor
	}

	ipv4.Build(buf[:ipv4.HeaderLen], ifc.IP, d.Resolver, header.UDPProtocolNumber, udp.HeaderLen+len(query))
	udp.Build(buf[ipv4.HeaderLen:total], ifc.IP, d.Resolver, srcPort, 53, query)

	pkt := netpkt.NewUser(buf[:total], ifc.ID)
	pfd := sock.RegisterPacket(pkt)
	return pfd, total, nil
}

// FinalizePacket implements §4.G finalize_packet: it fixes up checksums
// (via the packet's own OnFinalize, set during prepare) and hands the
// packet to the owning interface's send path, or — for TCP — writes the
// payload straight into the gVisor connection.
func (s *Subsystem) FinalizePacket(fd sched.Fd, pfd sched.PacketFd) error {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return ErrInvalidFd
	}
	pkt, ok := sock.GetPacket(pfd)
	if !ok {
		return ErrInvalidPacketFd
	}
	if sock.Type == sched.STREAM && !sock.Connected {
		return ErrNotConnected
	}

	if sock.Protocol == sched.TCP {
		if _, err := sock.TCPConn.Write(pkt.Payload); err != nil {
			return err
		}
		sock.ErasePacket(pfd)
		return nil
	}

	if pkt.OnFinalize != nil {
		if err := pkt.OnFinalize(); err != nil {
			// Per §7: a finalize failure leaves the pending-packet entry
			// intact, allowing the caller to retry finalize instead of
			// re-preparing.
			return err
		}
	}

	ifc := s.Registry.Interface(pkt.Interface)
	dstMAC := ethernet.ResolveDestMAC(ifc, nil)
	frame := ethernet.BuildFrame(ifc, dstMAC, pkt.Payload)
	ifc.Send(netpkt.New(frame, ifc.ID))

	sock.ErasePacket(pfd)
	return nil
}

// WaitForPacket implements §4.G wait_for_packet: timeout < 0 blocks
// indefinitely, timeout == 0 returns immediately, otherwise it blocks
// up to timeout.
func (s *Subsystem) WaitForPacket(fd sched.Fd, buf []byte, timeout time.Duration) (uint64, error) {
	sock, ok := s.Table.GetSocket(fd)
	if !ok {
		return 0, ErrInvalidFd
	}
	if !sock.Listen {
		return 0, ErrNotListen
	}
	pkt, ok := sock.WaitForPacket(timeout)
	if !ok {
		return 0, ErrTimeout
	}
	copy(buf, pkt.Payload)
	idx := pkt.Index
	pkt.Release()
	return idx, nil
}
