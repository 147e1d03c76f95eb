// Package sysfs publishes per-interface attributes and counters the way
// the teacher's sysfs layer exposes `/sys/net/<name>/name|driver|enabled
// |pci_device|mac|ip|gateway` (§6). It additionally folds in real host
// NIC byte/packet counters via gopsutil, the same library the rest of
// the retrieval pack reaches for host telemetry, so an interface backed
// by a real NIC name on the box running this process reports live
// counters alongside the simulated ones.
package sysfs

import (
	"fmt"
	"net"

	"github.com/cezamee/netcore/internal/iface"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Attributes is the published key/value view of one interface.
type Attributes struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Enabled   bool   `json:"enabled"`
	PCIDevice string `json:"pci_device"`
	MAC       string `json:"mac"`
	IP        string `json:"ip"`
	Gateway   string `json:"gateway"`
}

// Counters is the published stats view, combining this core's own
// queue-level counters with any matching real host NIC counters.
type Counters struct {
	RXPacket uint64 `json:"rx_packet"`
	RXBytes  uint64 `json:"rx_bytes"`
	TXPacket uint64 `json:"tx_packet"`
	TXBytes  uint64 `json:"tx_bytes"`

	HostRXBytes   uint64 `json:"host_rx_bytes,omitempty"`
	HostTXBytes   uint64 `json:"host_tx_bytes,omitempty"`
	HostAvailable bool   `json:"host_available"`
}

func macString(mac [6]byte) string {
	return net.HardwareAddr(mac[:]).String()
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

// Publish returns the sysfs-style attribute view of ifc.
func Publish(ifc *iface.Interface) Attributes {
	return Attributes{
		Name:      ifc.Name,
		Driver:    ifc.Driver,
		Enabled:   ifc.Enabled,
		PCIDevice: ifc.PCI,
		MAC:       macString(ifc.MAC),
		IP:        ipString(ifc.IP),
		Gateway:   ipString(ifc.Gateway),
	}
}

// PublishStats returns ifc's own counters enriched with the matching
// real host NIC's counters, when a host interface of the same name
// exists. Absence of a host match is normal (the loopback pseudo-device
// and any nullnic stand-in rarely share a name with a real host NIC)
// and is reported via HostAvailable rather than treated as an error.
func PublishStats(ifc *iface.Interface) Counters {
	st := ifc.GetStats()
	c := Counters{
		RXPacket: st.RXPacket,
		RXBytes:  st.RXBytes,
		TXPacket: st.TXPacket,
		TXBytes:  st.TXBytes,
	}

	hostCounters, err := psnet.IOCounters(true)
	if err != nil {
		return c
	}
	for _, hc := range hostCounters {
		if hc.Name != ifc.Name {
			continue
		}
		c.HostRXBytes = hc.BytesRecv
		c.HostTXBytes = hc.BytesSent
		c.HostAvailable = true
		break
	}
	return c
}

// Path returns the conventional sysfs path for ifc, for display only —
// this subsystem keeps no on-disk state (§6: "Persisted state: none").
func Path(ifc *iface.Interface) string {
	return fmt.Sprintf("/sys/net/%s/", ifc.Name)
}
