package ipv4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

func TestBuildDecode_RoundTrips(t *testing.T) {
	src := net.ParseIP("10.0.0.2")
	dst := net.ParseIP("10.0.0.1")

	buf := make([]byte, HeaderLen)
	Build(buf, src, dst, header.ICMPv4ProtocolNumber, 8)

	proto, hl, gotSrc, gotDst, ok := Decode(buf)
	require.True(t, ok)
	assert.Equal(t, uint8(header.ICMPv4ProtocolNumber), proto)
	assert.Equal(t, HeaderLen, hl)
	assert.True(t, gotSrc.Equal(src.To4()))
	assert.True(t, gotDst.Equal(dst.To4()))
}

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, _, _, _, ok := Decode(make([]byte, HeaderLen-1))
	assert.False(t, ok)
}

func TestBuild_EncodesTotalLength(t *testing.T) {
	buf := make([]byte, HeaderLen)
	ip := Build(buf, net.ParseIP("1.1.1.1"), net.ParseIP("2.2.2.2"), header.UDPProtocolNumber, 16)
	assert.Equal(t, uint16(HeaderLen+16), ip.TotalLength())
}
