package netpkt_test

import (
	"testing"

	"github.com/cezamee/netcore/internal/netpkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AssignsMonotonicIndex(t *testing.T) {
	a := netpkt.New([]byte{1, 2, 3}, 0)
	b := netpkt.New([]byte{4, 5, 6}, 0)
	assert.Greater(t, b.Index, a.Index)
	assert.False(t, a.User)
}

func TestNewUser_SetsUserFlag(t *testing.T) {
	p := netpkt.NewUser([]byte{1}, 0)
	assert.True(t, p.User)
}

func TestTag_UnsetReturnsFalse(t *testing.T) {
	p := netpkt.New([]byte{1, 2, 3}, 0)
	off, ok := p.Tag(netpkt.LayerNetwork)
	assert.False(t, ok)
	assert.Equal(t, 0, off)
}

func TestSetTag_RoundTrips(t *testing.T) {
	p := netpkt.New(make([]byte, 32), 0)
	p.SetTag(netpkt.LayerEthernet, 0)
	p.SetTag(netpkt.LayerNetwork, 14)
	p.SetTag(netpkt.LayerTransport, 34)

	off, ok := p.Tag(netpkt.LayerNetwork)
	require.True(t, ok)
	assert.Equal(t, 14, off)
}

func TestClone_CopiesBytesAndLeavesSourceUntouched(t *testing.T) {
	src := netpkt.New([]byte{1, 2, 3, 4}, 7)
	src.SetTag(netpkt.LayerNetwork, 1)

	clone := src.Clone(2)
	require.Len(t, clone.Payload, 2)
	assert.Equal(t, []byte{1, 2}, clone.Payload)
	assert.NotSame(t, &src.Payload[0], &clone.Payload[0])
	assert.Equal(t, 7, clone.Interface)
	assert.False(t, clone.User)

	off, ok := clone.Tag(netpkt.LayerNetwork)
	assert.True(t, ok)
	assert.Equal(t, 1, off)

	// Source is unaffected by the clone.
	assert.Equal(t, []byte{1, 2, 3, 4}, src.Payload)
}

func TestRelease_ClearsPayload(t *testing.T) {
	p := netpkt.New([]byte{1}, 0)
	p.Release()
	assert.Nil(t, p.Payload)
}
