package sched

import (
	"testing"
	"time"

	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPacket_HasGetErase(t *testing.T) {
	s := newSocket(0, AFInet, STREAM, TCP)
	pkt := netpkt.NewUser([]byte{1, 2, 3}, 0)

	pfd := s.RegisterPacket(pkt)
	require.True(t, s.HasPacket(pfd))

	got, ok := s.GetPacket(pfd)
	require.True(t, ok)
	assert.Same(t, pkt, got)

	s.ErasePacket(pfd)
	assert.False(t, s.HasPacket(pfd))
}

func TestRegisterPacket_DistinctFdsPerCall(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	fd1 := s.RegisterPacket(netpkt.NewUser([]byte{1}, 0))
	fd2 := s.RegisterPacket(netpkt.NewUser([]byte{2}, 0))
	assert.NotEqual(t, fd1, fd2)
}

func TestWaitForPacket_ZeroTimeoutReturnsImmediatelyWhenEmpty(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	start := time.Now()
	_, ok := s.WaitForPacket(0)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitForPacket_ReturnsBufferedPacketWithoutBlocking(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	pkt := netpkt.New([]byte{9, 9}, 0)
	s.PushListen(pkt)

	got, ok := s.WaitForPacket(0)
	require.True(t, ok)
	assert.Same(t, pkt, got)
}

func TestWaitForPacket_WakesOnPush(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	done := make(chan *netpkt.Packet, 1)
	go func() {
		pkt, _ := s.WaitForPacket(-1)
		done <- pkt
	}()

	time.Sleep(20 * time.Millisecond)
	pkt := netpkt.New([]byte{1}, 0)
	s.PushListen(pkt)

	select {
	case got := <-done:
		assert.Same(t, pkt, got)
	case <-time.After(time.Second):
		t.Fatal("WaitForPacket never woke up after PushListen")
	}
}

func TestWaitForPacket_BoundedTimeoutExpires(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	start := time.Now()
	_, ok := s.WaitForPacket(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPushListen_FIFOOrder(t *testing.T) {
	s := newSocket(0, AFInet, RAW, ICMP)
	first := netpkt.New([]byte{1}, 0)
	second := netpkt.New([]byte{2}, 0)
	s.PushListen(first)
	s.PushListen(second)

	got1, _ := s.WaitForPacket(0)
	got2, _ := s.WaitForPacket(0)
	assert.Same(t, first, got1)
	assert.Same(t, second, got2)
}
