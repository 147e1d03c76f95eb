package dns

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_SetsIDAndRecursionDesired(t *testing.T) {
	buf := BuildQuery(0xABCD, "example.com")
	require.GreaterOrEqual(t, len(buf), headerSize)

	id, ok := ParseAnswerID(buf)
	require.True(t, ok)
	assert.Equal(t, uint16(0xABCD), id)

	flags := binary.BigEndian.Uint16(buf[2:4])
	assert.Equal(t, RDFlag, flags)

	qd := binary.BigEndian.Uint16(buf[4:6])
	assert.Equal(t, uint16(1), qd)
}

func TestParseAnswerID_RejectsShortBuffer(t *testing.T) {
	_, ok := ParseAnswerID(make([]byte, headerSize-1))
	assert.False(t, ok)
}

func buildResponse(t *testing.T, id uint16, name string, addrs ...net.IP) []byte {
	t.Helper()
	query := BuildQuery(id, name)
	qname := query[headerSize : len(query)-4]

	buf := make([]byte, headerSize+len(qname)+4)
	binary.BigEndian.PutUint16(buf[0:2], id)
	binary.BigEndian.PutUint16(buf[2:4], QRFlag|RDFlag)
	binary.BigEndian.PutUint16(buf[4:6], 1) // QDCount
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(addrs)))
	copy(buf[headerSize:], qname)
	q := buf[headerSize+len(qname):]
	binary.BigEndian.PutUint16(q[0:2], TypeA)
	binary.BigEndian.PutUint16(q[2:4], ClassIN)

	for _, addr := range addrs {
		rr := make([]byte, 2+4+10)
		rr[0], rr[1] = 0xC0, headerSize // name: compression pointer back to the question
		binary.BigEndian.PutUint16(rr[2:4], TypeA)
		binary.BigEndian.PutUint16(rr[4:6], ClassIN)
		binary.BigEndian.PutUint32(rr[6:10], 300)
		binary.BigEndian.PutUint16(rr[10:12], 4)
		copy(rr[12:16], addr.To4())
		buf = append(buf, rr...)
	}
	return buf
}

func TestParseAAddresses_ExtractsARecords(t *testing.T) {
	resp := buildResponse(t, 1, "example.com", net.ParseIP("93.184.216.34"))
	addrs, err := ParseAAddresses(resp)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Equal(net.ParseIP("93.184.216.34")))
}

func TestParseAAddresses_NoAnswerRecords(t *testing.T) {
	resp := buildResponse(t, 1, "example.com")
	_, err := ParseAAddresses(resp)
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestParseAAddresses_RejectsNonResponse(t *testing.T) {
	query := BuildQuery(1, "example.com")
	_, err := ParseAAddresses(query)
	assert.ErrorIs(t, err, ErrMalformed)
}
