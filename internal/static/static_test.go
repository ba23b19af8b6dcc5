package static

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/resolve"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
)

type allLinksUp struct{}

func (allLinksUp) IsUsable(uint32) bool { return true }

func mustPrefix(t *testing.T, s string, bits int) addr.Prefix {
	t.Helper()
	p, err := addr.NewIPv4(netip.MustParseAddr(s), bits)
	require.NoError(t, err)
	return p
}

func TestReinjectResolvesAndInstallsStaticRoute(t *testing.T) {
	ribs := rib.New(nil)
	connected := mustPrefix(t, "192.0.2.0", 24)
	ribs.Add(rib.AddParams{
		Family: addr.FamilyIPv4, Prefix: connected, Origin: wireproto.OriginConnected,
		Nexthops: []addr.Nexthop{addr.NewIfindexNexthop(3).SetFlag(addr.NexthopActive)},
	})

	resolver := resolve.New(ribs, allLinksUp{}, resolve.Policy{})

	tbl := New()
	dest := mustPrefix(t, "10.0.0.0", 8)
	tbl.Set(Route{
		VRF:     addr.DefaultVRF,
		Family:  addr.FamilyIPv4,
		Prefix:  dest,
		Nexthop: addr.NewV4Gateway(netip.MustParseAddr("192.0.2.1")),
		Distance: 1,
	})

	Reinject(tbl, resolver, ribs)

	node := ribs.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, dest)
	require.NotNil(t, node)
}

func TestRemoveDropsConfiguredRoute(t *testing.T) {
	tbl := New()
	dest := mustPrefix(t, "10.0.0.0", 8)
	tbl.Set(Route{VRF: addr.DefaultVRF, Family: addr.FamilyIPv4, Prefix: dest})
	require.Len(t, tbl.All(), 1)

	tbl.Remove(addr.DefaultVRF, addr.FamilyIPv4, dest)
	require.Empty(t, tbl.All())
}
