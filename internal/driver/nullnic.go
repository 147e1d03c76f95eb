package driver

import (
	"net"

	"github.com/cezamee/netcore/internal/iface"
	"github.com/cezamee/netcore/internal/netpkt"
)

// NewNullNIC builds a physical-interface stand-in: it exercises the
// full RX/TX worker and codec path (hw_send, PushRX) without a real
// network card behind it, since no hardware is addressable in this
// environment. Frames it transmits are simply dropped; inbound traffic
// must be injected by the caller (e.g. a test) via PushRX.
func NewNullNIC(id int, name string, mac [6]byte, ip, gateway net.IP) *iface.Interface {
	ifc := iface.New(id, name, false)
	ifc.AttachDriver("nullnic", mac, ip, gateway, func(target *iface.Interface, pkt *netpkt.Packet) error {
		return nil
	})
	return ifc
}
