// Package icmp decodes and builds ICMPv4 echo messages, the only ICMP
// message class this core understands (§4.G: RAW/ICMP sockets are
// ping-only).
package icmp

import "gvisor.dev/gvisor/pkg/tcpip/header"

// Decode reports whether buf holds a well-formed ICMPv4 message. It does
// not interpret Type/Code itself — that is a RAW-socket concern decided
// against the socket's own expectations once propagate_packet matches it
// (§4.F) — it only validates the buffer is long enough to be one.
func Decode(buf []byte) bool {
	return len(buf) >= header.ICMPv4MinimumSize
}

// IsEchoRequest reports whether buf is an echo request (type 8).
func IsEchoRequest(buf []byte) bool {
	if len(buf) < header.ICMPv4MinimumSize {
		return false
	}
	return header.ICMPv4(buf).Type() == header.ICMPv4Echo
}

// Ident returns the echo identifier and sequence fields, used by the
// socket layer to match a reply to the ping that requested it.
func Ident(buf []byte) (id, seq uint16) {
	icmp := header.ICMPv4(buf)
	return icmp.Ident(), icmp.Sequence()
}

// BuildEcho writes an ICMPv4 echo request or reply (typ is
// header.ICMPv4Echo or header.ICMPv4EchoReply) carrying payload into buf
// (which must be at least header.ICMPv4MinimumSize+len(payload) long),
// and returns the checksummed message. Safe to call twice on the same
// buffer (e.g. once at prepare with a zeroed payload region, again at
// finalize once the caller has written real payload bytes into buf in
// place) since the checksum is always recomputed from buf's current
// contents.
func BuildEcho(buf []byte, typ header.ICMPv4Type, code byte, id, seq uint16, payload []byte) header.ICMPv4 {
	total := header.ICMPv4MinimumSize + len(payload)
	icmp := header.ICMPv4(buf[:total])
	icmp.SetType(typ)
	icmp.SetCode(header.ICMPv4Code(code))
	icmp.SetIdent(id)
	icmp.SetSequence(seq)
	copy(icmp.Payload(), payload)
	icmp.SetChecksum(0)
	icmp.SetChecksum(^header.Checksum(icmp, 0))
	return icmp
}
