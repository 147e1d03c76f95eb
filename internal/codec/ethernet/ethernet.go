// Package ethernet is the core's one built-in decoder (§6: "Ethernet as
// a decoder"): it peels the link-layer header off an inbound frame and
// recurses into the network-layer codec, calling back into the core at
// every layer it resolves to a registered protocol.
package ethernet

import (
	"net"

	"github.com/cezamee/netcore/internal/codec/icmp"
	"github.com/cezamee/netcore/internal/codec/ipv4"
	"github.com/cezamee/netcore/internal/codec/udp"
	"github.com/cezamee/netcore/internal/iface"
	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/cezamee/netcore/internal/sched"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// Hooks are the core callbacks the decoder chain drives. They exist so
// this package never imports the core package that imports it back
// (propagate_packet and TCP hand-off both live above the codec layer).
type Hooks struct {
	// Propagate delivers a decoded RAW/DGRAM packet to matching
	// listening sockets (§4.F). Not called for TCP.
	Propagate func(pkt *netpkt.Packet, proto sched.Protocol)

	// TCPInbound hands a decoded IPv4/TCP segment to the interface's
	// gVisor-backed TCP bridge; STREAM sockets never go through
	// Propagate (§4.F).
	TCPInbound func(ifc *iface.Interface, ipPacket []byte)
}

// Decode implements the RX worker's per-packet decode step. It takes
// ownership of pkt for the call's duration; the caller releases
// pkt.Payload once Decode returns.
func Decode(ifc *iface.Interface, pkt *netpkt.Packet, h Hooks) {
	buf := pkt.Payload
	if len(buf) < header.EthernetMinimumSize {
		return
	}
	pkt.SetTag(netpkt.LayerEthernet, 0)

	eth := header.Ethernet(buf[:header.EthernetMinimumSize])
	if eth.Type() != header.IPv4ProtocolNumber {
		return // IPv6/ARP/etc: out of scope (§1 Non-goals)
	}

	ipStart := header.EthernetMinimumSize
	ipBuf := buf[ipStart:]
	proto, ihl, _, _, ok := ipv4.Decode(ipBuf)
	if !ok {
		return
	}
	pkt.SetTag(netpkt.LayerNetwork, ipStart)

	switch proto {
	case uint8(header.ICMPv4ProtocolNumber):
		if !icmp.Decode(ipBuf[ihl:]) {
			return
		}
		pkt.SetTag(netpkt.LayerTransport, ipStart+ihl)
		if h.Propagate != nil {
			h.Propagate(pkt, sched.ICMP)
		}
	case uint8(header.UDPProtocolNumber):
		if !udp.Decode(ipBuf[ihl:]) {
			return
		}
		pkt.SetTag(netpkt.LayerTransport, ipStart+ihl)
		// This core only models DNS running over UDP (§4.G); any other
		// UDP traffic has no listening-socket class to match and is
		// dropped the way an un-demuxed datagram is on a real stack.
		if h.Propagate != nil {
			h.Propagate(pkt, sched.DNS)
		}
	case uint8(header.TCPProtocolNumber):
		if h.TCPInbound != nil {
			h.TCPInbound(ifc, ipBuf)
		}
	}
}

// BuildFrame prepends an Ethernet II header in front of an already-built
// IPv4(+transport) payload, addressed to dstMAC from ifc's own MAC.
// The core calls this at the end of FinalizePacket and in the TCP
// bridge's outbound pump, right before Interface.Send — mirroring the
// teacher's sendPacketTX, which also prepends the Ethernet header only
// once the IP payload is final.
func BuildFrame(ifc *iface.Interface, dstMAC [6]byte, ipPacket []byte) []byte {
	out := make([]byte, header.EthernetMinimumSize+len(ipPacket))
	eth := header.Ethernet(out[:header.EthernetMinimumSize])
	eth.Encode(&header.EthernetFields{
		SrcAddr: macToLinkAddress(ifc.MAC),
		DstAddr: macToLinkAddress(dstMAC),
		Type:    header.IPv4ProtocolNumber,
	})
	copy(out[header.EthernetMinimumSize:], ipPacket)
	return out
}

func macToLinkAddress(mac [6]byte) tcpip.LinkAddress {
	return tcpip.LinkAddress(mac[:])
}

// ResolveDestMAC is a stand-in ARP: the core has no neighbor-discovery
// layer (out of scope, §1), so it returns ifc's own MAC for every
// destination, loopback included; dst is not consulted and no gateway
// MAC is looked up.
func ResolveDestMAC(ifc *iface.Interface, dst net.IP) [6]byte {
	return ifc.MAC
}
