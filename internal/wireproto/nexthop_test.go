package wireproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAreFirstHopsSameV4IfindexLess(t *testing.T) {
	a := NexthopSpec{GatewayFam: GatewayV4, Gateway: []byte{192, 0, 2, 1}}
	b := NexthopSpec{GatewayFam: GatewayV4, Gateway: []byte{192, 0, 2, 1}, Ifindex: 4}
	require.True(t, AreFirstHopsSame(a, b), "ifindex-less v4 must compare equal to the same v4 gateway with an ifindex")
}

func TestAreFirstHopsSameDifferentGateway(t *testing.T) {
	a := NexthopSpec{GatewayFam: GatewayV4, Gateway: []byte{192, 0, 2, 1}}
	b := NexthopSpec{GatewayFam: GatewayV4, Gateway: []byte{198, 51, 100, 1}}
	require.False(t, AreFirstHopsSame(a, b))
}

func TestAreFirstHopsSameIfindexOnlyComparesToItself(t *testing.T) {
	a := NexthopSpec{GatewayFam: GatewayNone, Ifindex: 4}
	b := NexthopSpec{GatewayFam: GatewayNone, Ifindex: 5}
	require.False(t, AreFirstHopsSame(a, b))

	c := NexthopSpec{GatewayFam: GatewayNone, Ifindex: 4}
	require.True(t, AreFirstHopsSame(a, c))
}

func TestEncodeSingleNexthopCrossFamilySubstitutesOnlinkGateway(t *testing.T) {
	b := NewBuilder(nil)
	EncodeSingleNexthop(b, FamilyIPv4, NexthopSpec{
		Ifindex:    7,
		GatewayFam: GatewayV6,
		Gateway:    make([]byte, 16),
	})
	attrs, err := ParseAttrs(b.Bytes())
	require.NoError(t, err)
	gw, ok := attrs.Get(AttrGateway)
	require.True(t, ok)
	require.Equal(t, ONLinkGateway[:], gw)
}

func TestEncodeMultipathRecordWeight(t *testing.T) {
	b := NewBuilder(nil)
	b.NestBegin(AttrMultipath)
	EncodeMultipathRecord(b, FamilyIPv4, NexthopSpec{
		Ifindex:    2,
		GatewayFam: GatewayV4,
		Gateway:    []byte{192, 0, 2, 1},
		Weight:     4,
	})
	b.NestEnd()

	attrs, err := ParseAttrs(b.Bytes())
	require.NoError(t, err)
	mp, ok := attrs.Get(AttrMultipath)
	require.True(t, ok)

	records, err := DecodeMultipath(mp)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint8(4), records[0].Weight)
	require.Equal(t, uint32(2), records[0].Ifindex)
}
