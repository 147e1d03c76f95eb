// Package config centralizes the network subsystem's tunables.
// Package config centralise les réglages du sous-système réseau.
package config

const (
	// QueueCapacity bounds every interface's rx_queue and tx_queue.
	// QueueCapacity borne les files rx_queue et tx_queue de chaque interface.
	QueueCapacity = 32

	// FirstLocalPort is the value the port allocator hands out first;
	// it then increments monotonically for the lifetime of the process.
	FirstLocalPort = 1234

	// InterfaceMTU is the MTU of each interface's gVisor TCP bridge link
	// endpoint; the drivers themselves do not check frame size.
	InterfaceMTU = 1500

	// EthernetHeaderSize is the byte length of an Ethernet II header.
	EthernetHeaderSize = 14

	// IPv4HeaderMinSize is the minimum (no-options) IPv4 header length.
	IPv4HeaderMinSize = 20

	// LoopbackName and LoopbackIP identify the pseudo-device the registry
	// always appends last.
	LoopbackName = "lo"
	LoopbackIP   = "127.0.0.1"

	// DefaultNICName is the single physical interface the core expects
	// when a driver is attached at init (multi-NIC hosts are out of scope).
	DefaultNICName = "eth0"
)
