// Package ipv4 builds and decodes the IPv4 header the core's ICMP and
// UDP codecs wrap their own headers in. It reuses gVisor's header
// package for field layout and checksumming instead of hand-rolled byte
// math, the same library the teacher links against for its own netstack
// bridge (internal/core/netstack.go upstream).
package ipv4

import (
	"net"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// HeaderLen is the fixed (no IP options) header length this core emits.
const HeaderLen = header.IPv4MinimumSize

// Build writes a HeaderLen-byte IPv4 header into buf (which must be at
// least HeaderLen long) addressed src->dst, carrying payloadLen bytes of
// the given transport protocol, and returns the checksummed header.
func Build(buf []byte, src, dst net.IP, protocol tcpip.TransportProtocolNumber, payloadLen int) header.IPv4 {
	ip := header.IPv4(buf[:HeaderLen])
	ip.Encode(&header.IPv4Fields{
		TOS:         0,
		TotalLength: uint16(HeaderLen + payloadLen),
		ID:          0,
		TTL:         64,
		Protocol:    uint8(protocol),
		SrcAddr:     tcpip.AddrFromSlice(src.To4()),
		DstAddr:     tcpip.AddrFromSlice(dst.To4()),
	})
	ip.SetChecksum(0)
	ip.SetChecksum(^ip.CalculateChecksum())
	return ip
}

// Decode validates buf as an IPv4 header and returns its transport
// protocol number, header length in bytes, and source/destination
// addresses. ok is false if buf is too short to hold a header.
func Decode(buf []byte) (protocol uint8, headerLen int, src, dst net.IP, ok bool) {
	if len(buf) < header.IPv4MinimumSize {
		return 0, 0, nil, nil, false
	}
	ip := header.IPv4(buf)
	hl := int(ip.HeaderLength())
	if hl < header.IPv4MinimumSize || len(buf) < hl {
		return 0, 0, nil, nil, false
	}
	return uint8(ip.TransportProtocol()), hl, net.IP(ip.SourceAddress().AsSlice()), net.IP(ip.DestinationAddress().AsSlice()), true
}
