// Package netpkt defines the owned packet buffer the rest of the
// network subsystem moves between driver, worker, and socket.
package netpkt

import "sync/atomic"

// Layer identifies which protocol header a Tag offset belongs to.
type Layer int

const (
	LayerEthernet Layer = iota
	LayerNetwork
	LayerTransport
)

var nextIndex uint64

// Packet is an owned, heap-allocated payload buffer plus the bookkeeping
// the core needs to move it across goroutine boundaries without aliasing.
//
// A Packet's Payload is owned by exactly one agent at a time. Passing it
// to a queue, a codec, or a socket's listen_packets FIFO is a transfer of
// ownership, never a copy-by-reference: callers that need to keep reading
// after handing a packet off must Clone first.
type Packet struct {
	Payload     []byte
	Interface   int // owning interface id, -1 if not yet bound
	Index       uint64
	User        bool // true for a user-originated buffer; never enqueue user=true to a TX queue
	tags        [3]int
	tagSet      [3]bool

	// OnFinalize, if set, recomputes checksums in place over Payload once
	// the caller has filled in the application bytes at the codec's
	// reported payload index. FinalizePacket calls it exactly once,
	// before handing the buffer to the interface's send path.
	OnFinalize func() error
}

// New allocates a kernel-originated packet wrapping payload.
func New(payload []byte, ifaceID int) *Packet {
	return &Packet{
		Payload:   payload,
		Interface: ifaceID,
		Index:     atomic.AddUint64(&nextIndex, 1),
		User:      false,
	}
}

// NewUser allocates a user-originated packet. Packets with User=true must
// never be pushed onto an interface's tx_queue directly; they travel
// through PreparePacket/FinalizePacket, which clone into a kernel buffer.
func NewUser(payload []byte, ifaceID int) *Packet {
	p := New(payload, ifaceID)
	p.User = true
	return p
}

// SetTag records the byte offset at which layer's header begins.
func (p *Packet) SetTag(layer Layer, offset int) {
	p.tags[layer] = offset
	p.tagSet[layer] = true
}

// Tag returns the byte offset recorded for layer, and whether a codec
// ever set one. There is no invariant linking tags across layers: a
// codec that needs an upper-layer offset must have recorded its own tag.
func (p *Packet) Tag(layer Layer) (int, bool) {
	return p.tags[layer], p.tagSet[layer]
}

// Clone returns a new kernel-owned packet with its own copy of payload,
// sized to n bytes (the source packet is left untouched). Used by the
// dispatcher to hand a separate buffer to each matching listening socket.
func (p *Packet) Clone(n int) *Packet {
	if n > len(p.Payload) {
		n = len(p.Payload)
	}
	buf := make([]byte, n)
	copy(buf, p.Payload[:n])
	out := New(buf, p.Interface)
	out.tags = p.tags
	out.tagSet = p.tagSet
	return out
}

// Release drops the packet's payload reference. Go's GC reclaims the
// backing array once nothing else holds it; Release exists so call
// sites read the same way the teacher's delete[] release points did,
// and so a released packet can't be accidentally reused.
func (p *Packet) Release() {
	p.Payload = nil
}
