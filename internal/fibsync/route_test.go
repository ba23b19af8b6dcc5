package fibsync

import (
	"net/netip"
	"testing"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
	"github.com/stretchr/testify/require"
)

func mustPrefix(t *testing.T, s string, bits int) addr.Prefix {
	t.Helper()
	p, err := addr.NewIPv4(netip.MustParseAddr(s), bits)
	require.NoError(t, err)
	return p
}

// TestBuildRouteSinglepathMatchesWorkedExample mirrors spec.md §8
// scenario 1: static v4 route, single gateway+ifindex (distance is not
// part of the wire message, so the RE leaves it unset).
func TestBuildRouteSinglepathMatchesWorkedExample(t *testing.T) {
	s := New(nil, nil, nil, 1)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	nh := addr.NewV4GatewayIfindex(netip.MustParseAddr("192.0.2.1"), 7).SetFlag(addr.NexthopActive)
	re := &rib.RE{Origin: wireproto.OriginStatic, Table: addr.TableMain, Nexthops: []addr.Nexthop{nh}}

	data := s.buildRoute(prefix, re, []addr.Nexthop{nh})
	body, attrs, err := wireproto.ParseRoute(data)
	require.NoError(t, err)
	require.Equal(t, uint8(wireproto.TableMain), body.Table)
	require.Equal(t, wireproto.ProtoStatic, body.Protocol)

	gw, ok := attrs.Get(wireproto.AttrGateway)
	require.True(t, ok)
	require.Equal(t, []byte{192, 0, 2, 1}, gw)

	oif, ok := attrs.Get(wireproto.AttrOif)
	require.True(t, ok)
	require.Equal(t, uint32(7), leUint32(oif))

	_, hasMultipath := attrs.Get(wireproto.AttrMultipath)
	require.False(t, hasMultipath)
}

// TestBuildRouteECMPSuppressesDuplicateFirstHops mirrors spec.md §8
// scenario 3: three nexthops, one a duplicate first-hop, so MULTIPATH
// should carry two records.
func TestBuildRouteECMPSuppressesDuplicateFirstHops(t *testing.T) {
	s := New(nil, nil, nil, 8)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	gw := netip.MustParseAddr("192.0.2.1")
	other := netip.MustParseAddr("198.51.100.1")

	nhs := []addr.Nexthop{
		addr.NewV4Gateway(gw).SetFlag(addr.NexthopActive),
		addr.NewV4GatewayIfindex(gw, 3).SetFlag(addr.NexthopActive),
		addr.NewV4GatewayIfindex(other, 4).SetFlag(addr.NexthopActive),
	}
	re := &rib.RE{Origin: wireproto.OriginBGP, Table: addr.TableMain, Nexthops: nhs}

	data := s.buildRoute(prefix, re, nhs)
	_, attrs, err := wireproto.ParseRoute(data)
	require.NoError(t, err)

	mp, ok := attrs.Get(wireproto.AttrMultipath)
	require.True(t, ok)
	records, err := wireproto.DecodeMultipath(mp)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestBuildRouteBlackholeSetsType(t *testing.T) {
	s := New(nil, nil, nil, 1)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	nh := addr.NewBlackhole().SetFlag(addr.NexthopActive)
	re := &rib.RE{Origin: wireproto.OriginStatic, Table: addr.TableMain, Flags: rib.FlagBlackhole, Nexthops: []addr.Nexthop{nh}}

	data := s.buildRoute(prefix, re, []addr.Nexthop{nh})
	body, _, err := wireproto.ParseRoute(data)
	require.NoError(t, err)
	require.Equal(t, wireproto.TypeBlackhole, body.Type)
}

func TestFlattenExpandsRecursiveMarker(t *testing.T) {
	leaf := addr.NewIfindexNexthop(3).SetFlag(addr.NexthopActive)
	parent := addr.NewV4Gateway(netip.MustParseAddr("192.0.2.1")).SetFlag(addr.NexthopRecursive)
	parent.Children = []addr.Nexthop{leaf}

	out := flatten([]addr.Nexthop{parent})
	require.Len(t, out, 1)
	require.Equal(t, addr.KindIfindex, out[0].Kind)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
