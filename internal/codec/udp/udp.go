// Package udp decodes and builds UDP datagrams. The only transport-layer
// protocol this core carries over UDP is DNS (§4.G); the codec itself
// stays protocol-agnostic.
package udp

import (
	"net"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// HeaderLen is the fixed UDP header length.
const HeaderLen = header.UDPMinimumSize

// Decode reports whether buf is long enough to hold a UDP header.
func Decode(buf []byte) bool {
	return len(buf) >= header.UDPMinimumSize
}

// Ports returns the source and destination ports of a UDP datagram.
func Ports(buf []byte) (src, dst uint16) {
	udp := header.UDP(buf)
	return udp.SourcePort(), udp.DestinationPort()
}

// Build writes a UDP header plus payload into buf (which must be at
// least HeaderLen+len(payload) long), addressed srcPort->dstPort between
// srcIP and dstIP for checksum purposes, and returns the checksummed
// datagram.
func Build(buf []byte, srcIP, dstIP net.IP, srcPort, dstPort uint16, payload []byte) header.UDP {
	total := HeaderLen + len(payload)
	u := header.UDP(buf[:total])
	u.Encode(&header.UDPFields{
		SrcPort: srcPort,
		DstPort: dstPort,
		Length:  uint16(total),
	})
	copy(u.Payload(), payload)

	xsum := header.PseudoHeaderChecksum(header.UDPProtocolNumber,
		tcpip.AddrFromSlice(srcIP.To4()), tcpip.AddrFromSlice(dstIP.To4()), uint16(total))
	xsum = header.Checksum(payload, xsum)
	u.SetChecksum(0)
	u.SetChecksum(^u.CalculateChecksum(xsum))
	return u
}
