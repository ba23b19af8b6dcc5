package wireproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttrRoundTrip(t *testing.T) {
	b := NewBuilder(nil)
	b.PutUint32(AttrPriority, 20)
	b.PutAddr(AttrDst, []byte{10, 0, 0, 0})
	b.NestBegin(AttrMetrics)
	b.PutUint32(AttrMTU, 1500)
	b.NestEnd()

	attrs, err := ParseAttrs(b.Bytes())
	require.NoError(t, err)

	priority, ok := attrs.Get(AttrPriority)
	require.True(t, ok)
	require.Equal(t, uint32(20), leUint32(priority))

	dst, ok := attrs.Get(AttrDst)
	require.True(t, ok)
	require.Equal(t, []byte{10, 0, 0, 0}, dst)

	metrics, ok := attrs.Get(AttrMetrics)
	require.True(t, ok)
	nested, err := ParseAttrs(metrics)
	require.NoError(t, err)
	mtu, ok := nested.Get(AttrMTU)
	require.True(t, ok)
	require.Equal(t, uint32(1500), leUint32(mtu))
}

func TestParseAttrsRejectsOverrun(t *testing.T) {
	// length field claims 100 bytes but only the header is present.
	buf := []byte{100, 0, 1, 0}
	_, err := ParseAttrs(buf)
	require.Error(t, err)
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
}

func TestParseAttrsRejectsShortHeader(t *testing.T) {
	_, err := ParseAttrs([]byte{1, 2})
	require.Error(t, err)
}

func TestBuildParseRouteRoundTrip(t *testing.T) {
	body := RouteBody{
		Family:   FamilyIPv4,
		DstLen:   8,
		Table:    TableMain,
		Protocol: ProtoStatic,
		Scope:    ScopeUniverse,
		Type:     TypeUnicast,
	}
	data := BuildRoute(body, func(b *Builder) {
		b.PutAddr(AttrDst, []byte{10, 0, 0, 0})
		b.PutUint32(AttrPriority, 20)
		EncodeSingleNexthop(b, FamilyIPv4, NexthopSpec{
			Ifindex:    3,
			GatewayFam: GatewayV4,
			Gateway:    []byte{192, 0, 2, 1},
		})
	})

	gotBody, attrs, err := ParseRoute(data)
	require.NoError(t, err)
	require.Equal(t, body, gotBody)

	gw, ok := attrs.Get(AttrGateway)
	require.True(t, ok)
	require.Equal(t, []byte{192, 0, 2, 1}, gw)

	oif, ok := attrs.Get(AttrOif)
	require.True(t, ok)
	require.Equal(t, uint32(3), leUint32(oif))
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
