package core

import (
	"context"
	"fmt"
	"net"

	"github.com/cezamee/netcore/internal/codec/ethernet"
	"github.com/cezamee/netcore/internal/config"
	"github.com/cezamee/netcore/internal/iface"
	"github.com/cezamee/netcore/internal/netpkt"
	"gvisor.dev/gvisor/pkg/buffer"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"gvisor.dev/gvisor/pkg/tcpip/link/channel"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"
	"gvisor.dev/gvisor/pkg/tcpip/stack"
	"gvisor.dev/gvisor/pkg/tcpip/transport/tcp"
	"gvisor.dev/gvisor/pkg/tcpip/transport/udp"
)

const tcpNICID tcpip.NICID = 1

// tcpBridge is the TCP codec's entire contract with the interface
// layer (§6: "TCP additionally exposes connect(socket, interface) and
// disconnect(socket, interface)"). Full retransmit/flow-control is
// gVisor's job, not the core's (§1 Non-goals); the bridge's only
// responsibility is moving already-framed IP packets between gVisor's
// virtual NIC and the interface's real RX/TX queues, exactly the way
// the teacher's AF_XDP bridge moves frames between the NIC driver and
// the same stack type.
type tcpBridge struct {
	ifc    *iface.Interface
	stack  *stack.Stack
	linkEP *channel.Endpoint
}

func newTCPBridge(ifc *iface.Interface) *tcpBridge {
	s := stack.New(stack.Options{
		NetworkProtocols:   []stack.NetworkProtocolFactory{ipv4.NewProtocol},
		TransportProtocols: []stack.TransportProtocolFactory{tcp.NewProtocol, udp.NewProtocol},
	})
	linkEP := channel.New(int(config.QueueCapacity), config.InterfaceMTU, "")
	if err := s.CreateNIC(tcpNICID, linkEP); err != nil {
		panic(fmt.Sprintf("netcore: tcp bridge CreateNIC: %v", err))
	}

	addr := tcpip.ProtocolAddress{
		Protocol: ipv4.ProtocolNumber,
		AddressWithPrefix: tcpip.AddressWithPrefix{
			Address:   tcpip.AddrFromSlice(ifc.IP.To4()),
			PrefixLen: 24,
		},
	}
	if err := s.AddProtocolAddress(tcpNICID, addr, stack.AddressProperties{}); err != nil {
		panic(fmt.Sprintf("netcore: tcp bridge AddProtocolAddress: %v", err))
	}
	s.SetRouteTable([]tcpip.Route{
		{
			Destination: header.IPv4EmptySubnet,
			Gateway:     tcpip.AddrFromSlice(ifc.Gateway.To4()),
			NIC:         tcpNICID,
		},
	})

	b := &tcpBridge{ifc: ifc, stack: s, linkEP: linkEP}
	go b.pumpOutbound()
	return b
}

// pumpOutbound drains packets gVisor wants transmitted and hands them
// to the interface's own Send path, framed as Ethernet, exactly like
// any other kernel-originated packet.
func (b *tcpBridge) pumpOutbound() {
	ctx := context.Background()
	for {
		pkt := b.linkEP.ReadContext(ctx)
		if pkt == nil {
			continue
		}
		ipData := pkt.ToView().AsSlice()
		pkt.DecRef()

		dstMAC := ethernet.ResolveDestMAC(b.ifc, net.IP(nil))
		frame := ethernet.BuildFrame(b.ifc, dstMAC, ipData)
		b.ifc.Send(netpkt.New(frame, b.ifc.ID))
	}
}

// InjectInbound feeds a decoded IPv4 segment (stripped of its Ethernet
// header) into the stack, where gVisor's own TCP implementation takes
// over demuxing to the connected endpoint.
func (b *tcpBridge) InjectInbound(ipPacket []byte) {
	pb := stack.NewPacketBuffer(stack.PacketBufferOptions{
		Payload: buffer.MakeWithData(ipPacket),
	})
	b.linkEP.InjectInbound(ipv4.ProtocolNumber, pb)
	pb.DecRef()
}

// Dial opens a gVisor-backed TCP connection bound to localPort on this
// interface's address and connected to server:serverPort.
func (b *tcpBridge) Dial(ctx context.Context, localPort uint16, server net.IP, serverPort uint16) (net.Conn, error) {
	local := tcpip.FullAddress{
		NIC:  tcpNICID,
		Addr: tcpip.AddrFromSlice(b.ifc.IP.To4()),
		Port: localPort,
	}
	remote := tcpip.FullAddress{
		Addr: tcpip.AddrFromSlice(server.To4()),
		Port: serverPort,
	}
	return gonet.DialTCPWithBind(ctx, b.stack, local, remote, header.IPv4ProtocolNumber)
}
