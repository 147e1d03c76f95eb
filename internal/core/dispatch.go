package core

import (
	"github.com/cezamee/netcore/internal/codec/udp"
	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/cezamee/netcore/internal/sched"
)

// Dispatch implements propagate_packet (§4.F): given a packet already
// decoded as proto, it delivers a private clone to every listening
// socket whose protocol matches and, for DGRAM sockets, whose local
// port matches the packet's UDP destination port. The source packet is
// never mutated.
func Dispatch(table *sched.Table, pkt *netpkt.Packet, proto sched.Protocol) {
	for _, sock := range table.LiveSockets() {
		if !matches(sock, pkt, proto) {
			continue
		}
		clone := pkt.Clone(len(pkt.Payload))
		sock.PushListen(clone)
	}
}

func matches(sock *sched.Socket, pkt *netpkt.Packet, proto sched.Protocol) bool {
	if !sock.Listen || sock.Protocol != proto {
		return false
	}
	switch sock.Type {
	case sched.RAW:
		return true
	case sched.DGRAM:
		off, ok := pkt.Tag(netpkt.LayerTransport)
		if !ok || off >= len(pkt.Payload) {
			return false
		}
		_, dstPort := udp.Ports(pkt.Payload[off:])
		return dstPort == sock.LocalPort
	default:
		return false
	}
}
