package iface

import (
	"sync"

	"github.com/cezamee/netcore/internal/netpkt"
)

// ringQueue is a bounded single-producer/single-consumer FIFO of fixed
// capacity. Blocking semantics come from a condition variable paired
// with the same mutex that guards the ring, rather than the teacher's
// raw counting semaphore + separate lock, which is the same contract
// expressed with Go's native primitives (see DESIGN.md).
type ringQueue struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	buf      []*netpkt.Packet
	head     int
	count    int
}

func newRingQueue(capacity int) *ringQueue {
	q := &ringQueue{buf: make([]*netpkt.Packet, capacity)}
	q.notEmpty.L = &q.mu
	return q
}

func (q *ringQueue) cap() int { return len(q.buf) }

// push enqueues pkt, reporting false if the ring is full. The core does
// not define overflow back-pressure beyond this boolean (§4.C): callers
// that must not drop traffic (the TX mutex's producers) are expected to
// size bursts to the 32-deep ring.
func (q *ringQueue) push(pkt *netpkt.Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.buf) {
		return false
	}
	tail := (q.head + q.count) % len(q.buf)
	q.buf[tail] = pkt
	q.count++
	q.notEmpty.Signal()
	return true
}

// pop blocks until a packet is available and returns it.
func (q *ringQueue) pop() *netpkt.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 {
		q.notEmpty.Wait()
	}
	pkt := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return pkt
}

func (q *ringQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
