// Package driver holds the minimal driver-contract implementations the
// core requires (§6): init_driver/hw_send plus the ability to push
// arriving frames into an interface's rx_queue. Neither driver here
// talks to real hardware; loopback never needed it and a physical NIC
// backend is out of scope for this environment (§1: drivers are a
// deliberately external collaborator).
package driver

import (
	"net"

	"github.com/cezamee/netcore/internal/config"
	"github.com/cezamee/netcore/internal/iface"
	"github.com/cezamee/netcore/internal/netpkt"
)

// NewLoopback builds the loopback pseudo-device the registry must
// append last (§3). Its hw_send hands a transmitted frame straight back
// to the same interface's rx_queue, the way a real NIC loops back
// traffic addressed to itself — the Ethernet decoder then processes it
// exactly as it would inbound traffic from the wire.
func NewLoopback(id int) *iface.Interface {
	ip := net.ParseIP(config.LoopbackIP)
	ifc := iface.New(id, config.LoopbackName, true)
	ifc.AttachDriver("loopback", [6]byte{}, ip, ip, func(target *iface.Interface, pkt *netpkt.Packet) error {
		loop := netpkt.New(append([]byte(nil), pkt.Payload...), target.ID)
		target.PushRX(loop)
		return nil
	})
	return ifc
}
