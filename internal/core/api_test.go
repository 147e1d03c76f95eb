package core_test

import (
	"net"
	"testing"
	"time"

	"github.com/cezamee/netcore/internal/codec/dns"
	"github.com/cezamee/netcore/internal/codec/ethernet"
	"github.com/cezamee/netcore/internal/codec/ipv4"
	"github.com/cezamee/netcore/internal/codec/udp"
	"github.com/cezamee/netcore/internal/core"
	"github.com/cezamee/netcore/internal/driver"
	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/cezamee/netcore/internal/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

const testPid = 1

func newLoopbackSubsystem(t *testing.T) *core.Subsystem {
	t.Helper()
	sub := core.NewSubsystem()
	sub.Registry.Append(driver.NewLoopback(0))
	sub.Finalize()
	sub.Table.EnsureProcess(testPid, sched.Running)
	return sub
}

// §8 scenario 1: loopback ICMP echo delivered to every RAW/ICMP listener.
func TestLoopbackICMPEcho_DeliveredToBothListeners(t *testing.T) {
	sub := newLoopbackSubsystem(t)

	fdA, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)
	fdB, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)
	require.NoError(t, sub.Listen(fdA, true))
	require.NoError(t, sub.Listen(fdB, true))

	desc := &core.ICMPDescriptor{
		TargetIP:    net.ParseIP("127.0.0.1"),
		PayloadSize: 4,
		Type:        header.ICMPv4Echo,
		Code:        0,
	}
	buf := make([]byte, 128)
	pfd, payloadOff, err := sub.PreparePacket(fdA, desc, buf)
	require.NoError(t, err)
	copy(buf[payloadOff:], []byte("abcd"))
	require.NoError(t, sub.FinalizePacket(fdA, pfd))

	outA := make([]byte, 256)
	_, err = sub.WaitForPacket(fdA, outA, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(outA), "abcd")

	outB := make([]byte, 256)
	_, err = sub.WaitForPacket(fdB, outB, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(outB), "abcd")
}

// §8 scenario 2: a DGRAM/DNS socket receives only the packets whose UDP
// destination port matches its own local_port.
func TestDGRAMDNS_MatchesOnlyByDestinationPort(t *testing.T) {
	sub := newLoopbackSubsystem(t)

	fdA, err := sub.Open(testPid, sched.AFInet, sched.DGRAM, sched.DNS)
	require.NoError(t, err)
	portA, err := sub.ClientBind(fdA)
	require.NoError(t, err)
	assert.Equal(t, uint16(1234), portA)

	fdB, err := sub.Open(testPid, sched.AFInet, sched.DGRAM, sched.DNS)
	require.NoError(t, err)
	portB, err := sub.ClientBind(fdB)
	require.NoError(t, err)
	assert.Equal(t, uint16(1235), portB)

	require.NoError(t, sub.Listen(fdA, true))
	require.NoError(t, sub.Listen(fdB, true))

	injectInboundDNS(t, sub, portB)

	outB := make([]byte, 512)
	_, err = sub.WaitForPacket(fdB, outB, 2*time.Second)
	require.NoError(t, err)

	outA := make([]byte, 512)
	_, err = sub.WaitForPacket(fdA, outA, 50*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

// injectInboundDNS builds a UDP/DNS response-shaped datagram addressed to
// dstPort and pushes it straight into the loopback interface's rx_queue,
// standing in for "a driver hands the core a frame it received" (§6).
func injectInboundDNS(t *testing.T, sub *core.Subsystem, dstPort uint16) {
	t.Helper()
	ifc := sub.Registry.Interface(0)

	query := dns.BuildQuery(7, "example.com")
	total := ipv4.HeaderLen + udp.HeaderLen + len(query)
	buf := make([]byte, total)
	ipv4.Build(buf[:ipv4.HeaderLen], ifc.IP, ifc.IP, header.UDPProtocolNumber, udp.HeaderLen+len(query))
	udp.Build(buf[ipv4.HeaderLen:total], ifc.IP, ifc.IP, 53, dstPort, query)

	frame := ethernet.BuildFrame(ifc, ifc.MAC, buf)
	require.True(t, ifc.PushRX(netpkt.New(frame, ifc.ID)))
}

// §8 scenario 3: STREAM sockets reject prepare_packet until connected.
func TestPrepareTCP_RequiresConnected(t *testing.T) {
	sub := newLoopbackSubsystem(t)

	fd, err := sub.Open(testPid, sched.AFInet, sched.STREAM, sched.TCP)
	require.NoError(t, err)

	_, _, err = sub.PreparePacket(fd, &core.TCPDescriptor{PayloadSize: 4}, make([]byte, 16))
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

// Disconnect on a STREAM socket that was never connected fails with
// NOT_CONNECTED (the not-connected check §8 scenario 4 relies on).
func TestDisconnect_NotConnectedWhenNeverConnected(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.STREAM, sched.TCP)
	require.NoError(t, err)

	err = sub.Disconnect(fd)
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestDisconnect_WrongTypeRejected(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)
	err = sub.Disconnect(fd)
	assert.ErrorIs(t, err, core.ErrInvalidType)
}

func TestConnect_WrongTypeRejected(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)
	_, err = sub.Connect(fd, net.ParseIP("127.0.0.1"), 80)
	assert.ErrorIs(t, err, core.ErrInvalidType)
}

// §8 open() validation matrix, including scenario 5 and boundary cases.
func TestOpen_ValidatesDomainTypeProtocol(t *testing.T) {
	sub := newLoopbackSubsystem(t)

	_, err := sub.Open(testPid, sched.Domain(99), sched.RAW, sched.ICMP)
	assert.ErrorIs(t, err, core.ErrInvalidDomain)

	_, err = sub.Open(testPid, sched.AFInet, sched.Type(99), sched.ICMP)
	assert.ErrorIs(t, err, core.ErrInvalidType)

	_, err = sub.Open(testPid, sched.AFInet, sched.RAW, sched.Protocol(99))
	assert.ErrorIs(t, err, core.ErrInvalidProtocol)

	_, err = sub.Open(testPid, sched.AFInet, sched.STREAM, sched.ICMP)
	assert.ErrorIs(t, err, core.ErrInvalidTypeProtocol)

	_, err = sub.Open(testPid, sched.AFInet, sched.DGRAM, sched.TCP)
	assert.ErrorIs(t, err, core.ErrInvalidTypeProtocol)

	_, err = sub.Open(testPid, sched.AFInet, sched.DGRAM, sched.ICMP)
	assert.ErrorIs(t, err, core.ErrInvalidTypeProtocol)
}

// §8 scenario 6: close on an unknown fd is a silent no-op.
func TestClose_UnknownFdIsNoop(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	assert.NotPanics(t, func() { sub.Close(sched.Fd(99999)) })
}

func TestClose_ThenSubsequentCallsAreInvalidFd(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)

	sub.Close(fd)
	err = sub.Listen(fd, true)
	assert.ErrorIs(t, err, core.ErrInvalidFd)
}

// §8 boundary: wait_for_packet(fd, 0) with nothing queued returns
// TIMEOUT without blocking.
func TestWaitForPacket_ZeroTimeoutNoBlock(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)
	require.NoError(t, sub.Listen(fd, true))

	start := time.Now()
	_, err = sub.WaitForPacket(fd, make([]byte, 16), 0)
	assert.ErrorIs(t, err, core.ErrTimeout)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

// listen(true) -> listen(false) restores NOT_LISTEN.
func TestListen_RoundTrip(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)

	require.NoError(t, sub.Listen(fd, true))
	require.NoError(t, sub.Listen(fd, false))

	_, err = sub.WaitForPacket(fd, make([]byte, 16), 0)
	assert.ErrorIs(t, err, core.ErrNotListen)
}

// §8 boundary: prepare_packet with zero interfaces returns NO_INTERFACE.
func TestPreparePacket_NoInterfaceRegistered(t *testing.T) {
	sub := core.NewSubsystem()
	sub.Table.EnsureProcess(testPid, sched.Running)
	fd, err := sub.Open(testPid, sched.AFInet, sched.RAW, sched.ICMP)
	require.NoError(t, err)

	desc := &core.ICMPDescriptor{TargetIP: net.ParseIP("127.0.0.1"), PayloadSize: 4, Type: header.ICMPv4Echo}
	_, _, err = sub.PreparePacket(fd, desc, make([]byte, 64))
	assert.ErrorIs(t, err, core.ErrNoInterface)
}

// DNS prepare_packet is query-only; a response request is UNIMPLEMENTED.
func TestPrepareDNS_ResponseUnimplemented(t *testing.T) {
	sub := newLoopbackSubsystem(t)
	fd, err := sub.Open(testPid, sched.AFInet, sched.DGRAM, sched.DNS)
	require.NoError(t, err)
	_, err = sub.ClientBind(fd)
	require.NoError(t, err)

	desc := &core.DNSDescriptor{Query: false, Name: "example.com", Resolver: net.ParseIP("127.0.0.1")}
	_, _, err = sub.PreparePacket(fd, desc, make([]byte, 64))
	assert.ErrorIs(t, err, core.ErrUnimplemented)
}
