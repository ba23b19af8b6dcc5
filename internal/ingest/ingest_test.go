package ingest

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
)

func buildRouteData(t *testing.T, body wireproto.RouteBody, fill func(*wireproto.Builder)) []byte {
	t.Helper()
	return wireproto.BuildRoute(body, fill)
}

func mustPrefix(t *testing.T, s string, bits int) addr.Prefix {
	t.Helper()
	p, err := addr.NewIPv4(netip.MustParseAddr(s), bits)
	require.NoError(t, err)
	return p
}

func TestIngestDropsSelfOriginatedAdd(t *testing.T) {
	r := rib.New(nil)
	in := New(r, zap.NewNop(), nil, true)

	body := wireproto.RouteBody{
		Family: wireproto.FamilyIPv4, DstLen: 8,
		Table: wireproto.TableMain, Protocol: wireproto.ProtoStatic,
		Type: wireproto.TypeUnicast,
	}
	data := buildRouteData(t, body, func(b *wireproto.Builder) {
		b.PutAddr(wireproto.AttrDst, []byte{10, 0, 0, 0})
		b.PutUint32(wireproto.AttrOif, 3)
	})

	require.NoError(t, in.HandleRoute(wireproto.MsgNewRoute, data))

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, mustPrefix(t, "10.0.0.0", 8))
	require.Nil(t, node, "self-originated ADD must be dropped silently")
}

func TestIngestExternalAddCreatesKernelRoute(t *testing.T) {
	r := rib.New(nil)
	in := New(r, zap.NewNop(), nil, true)

	body := wireproto.RouteBody{
		Family: wireproto.FamilyIPv4, DstLen: 8,
		Table: wireproto.TableMain, Protocol: 200, // not a daemon-owned proto id
		Type: wireproto.TypeUnicast,
	}
	data := buildRouteData(t, body, func(b *wireproto.Builder) {
		b.PutAddr(wireproto.AttrDst, []byte{10, 0, 0, 0})
		b.PutUint32(wireproto.AttrOif, 3)
	})

	require.NoError(t, in.HandleRoute(wireproto.MsgNewRoute, data))

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, mustPrefix(t, "10.0.0.0", 8))
	require.NotNil(t, node)
	require.NotNil(t, node.Selected())
	require.Equal(t, wireproto.OriginKernel, node.Selected().Origin)
}

func TestIngestSelfOriginatedDeleteRemovesRoute(t *testing.T) {
	r := rib.New(nil)
	r.Add(rib.AddParams{
		Family: addr.FamilyIPv4, Origin: wireproto.OriginStatic,
		Prefix:   mustPrefix(t, "10.0.0.0", 8),
		Nexthops: []addr.Nexthop{addr.NewIfindexNexthop(3).SetFlag(addr.NexthopActive)},
	})
	in := New(r, zap.NewNop(), nil, true)

	body := wireproto.RouteBody{
		Family: wireproto.FamilyIPv4, DstLen: 8,
		Table: wireproto.TableMain, Protocol: wireproto.ProtoStatic,
		Type: wireproto.TypeUnicast,
	}
	data := buildRouteData(t, body, func(b *wireproto.Builder) {
		b.PutAddr(wireproto.AttrDst, []byte{10, 0, 0, 0})
	})

	require.NoError(t, in.HandleRoute(wireproto.MsgDelRoute, data))

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, mustPrefix(t, "10.0.0.0", 8))
	require.Nil(t, node)
}

func TestIngestExternalDeleteIgnoredWhenAllowDeleteFalse(t *testing.T) {
	r := rib.New(nil)
	r.AddMultipath(addr.FamilyIPv4, addr.DefaultVRF, addr.SAFIUnicast,
		mustPrefix(t, "10.0.0.0", 8),
		&rib.RE{
			Origin:   wireproto.OriginKernel,
			Nexthops: []addr.Nexthop{addr.NewIfindexNexthop(3).SetFlag(addr.NexthopActive)},
		})
	in := New(r, zap.NewNop(), nil, false)

	body := wireproto.RouteBody{
		Family: wireproto.FamilyIPv4, DstLen: 8,
		Table: wireproto.TableMain, Protocol: 200, // not daemon-owned
		Type: wireproto.TypeUnicast,
	}
	data := buildRouteData(t, body, func(b *wireproto.Builder) {
		b.PutAddr(wireproto.AttrDst, []byte{10, 0, 0, 0})
	})

	require.NoError(t, in.HandleRoute(wireproto.MsgDelRoute, data))

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, mustPrefix(t, "10.0.0.0", 8))
	require.NotNil(t, node, "external DEL must be ignored when allow_delete is false")
}

func TestIngestSkipsMPLSFamily(t *testing.T) {
	r := rib.New(nil)
	in := New(r, zap.NewNop(), nil, true)

	body := wireproto.RouteBody{Family: wireproto.FamilyMPLS, Protocol: 200, Type: wireproto.TypeUnicast}
	data := buildRouteData(t, body, nil)
	require.NoError(t, in.HandleRoute(wireproto.MsgNewRoute, data))
}

func TestIngestDropsClonedRoutes(t *testing.T) {
	r := rib.New(nil)
	in := New(r, zap.NewNop(), nil, true)

	body := wireproto.RouteBody{
		Family: wireproto.FamilyIPv4, DstLen: 8, Protocol: 200,
		Type: wireproto.TypeUnicast, Flags: wireproto.RouteFlagCloned,
	}
	data := buildRouteData(t, body, func(b *wireproto.Builder) {
		b.PutAddr(wireproto.AttrDst, []byte{10, 0, 0, 0})
	})
	require.NoError(t, in.HandleRoute(wireproto.MsgNewRoute, data))

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, mustPrefix(t, "10.0.0.0", 8))
	require.Nil(t, node)
}
