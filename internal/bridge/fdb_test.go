package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/iface"
	"github.com/routeflow/zfibd/internal/wireproto"
)

type fakeProgrammer struct {
	programmed []MACEntry
	withdrawn  []MACEntry
}

func (f *fakeProgrammer) ProgramRemoteMAC(e MACEntry, vlanAware bool) error {
	f.programmed = append(f.programmed, e)
	return nil
}

func (f *fakeProgrammer) WithdrawRemoteMAC(e MACEntry, vlanAware bool) error {
	f.withdrawn = append(f.withdrawn, e)
	return nil
}

const (
	bridgeSlaveIfindex = 10
	vxlanIfindex       = 20
)

func newTestRegistry() *iface.Registry {
	links := iface.New()
	links.Set(iface.Info{Index: bridgeSlaveIfindex, Kind: iface.KindBridgeSlave, Master: 5, EVPN: true, Up: true})
	links.Set(iface.Info{Index: vxlanIfindex, Kind: iface.KindVxlan, Master: 5, EVPN: true, Up: true})
	return links
}

func neighborData(t *testing.T, ifindex uint32, state uint16, mac addr.EtherAddr) []byte {
	t.Helper()
	body := wireproto.NeighborBody{Family: wireproto.FamilyBridge, Ifindex: ifindex, State: state}
	return wireproto.BuildNeighbor(body, func(b *wireproto.Builder) {
		b.PutBytes(wireproto.AttrLLAddr, mac[:])
	})
}

func TestLearnLocalEntryOnBridgeSlave(t *testing.T) {
	a := New(newTestRegistry(), nil, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:01")
	require.NoError(t, err)

	data := neighborData(t, bridgeSlaveIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, data))

	entry, ok := a.Lookup(mac, 0)
	require.True(t, ok)
	require.Equal(t, OriginLocal, entry.Origin)
}

func TestLearnRemoteEntryOnVxlanWithdrawsLocal(t *testing.T) {
	prog := &fakeProgrammer{}
	a := New(newTestRegistry(), prog, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:02")
	require.NoError(t, err)

	local := neighborData(t, bridgeSlaveIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, local))
	_, ok := a.Lookup(mac, 0)
	require.True(t, ok)

	remote := neighborData(t, vxlanIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, remote))

	entry, ok := a.Lookup(mac, 0)
	require.True(t, ok)
	require.Equal(t, OriginRemoteVxlan, entry.Origin)
	require.Len(t, prog.programmed, 1)
}

func TestStickyLocalEntrySurvivesRemoteLearn(t *testing.T) {
	prog := &fakeProgrammer{}
	a := New(newTestRegistry(), prog, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:03")
	require.NoError(t, err)
	a.fdb[macKey{mac, 0}] = MACEntry{MAC: mac, Origin: OriginLocal, Sticky: true}

	remote := neighborData(t, vxlanIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, remote))

	entry, ok := a.Lookup(mac, 0)
	require.True(t, ok)
	require.Equal(t, OriginLocal, entry.Origin, "sticky local entry must not be overwritten by remote learn")
	require.Empty(t, prog.programmed)
}

func TestPermanentEntriesIgnored(t *testing.T) {
	a := New(newTestRegistry(), nil, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:04")
	require.NoError(t, err)

	data := neighborData(t, bridgeSlaveIfindex, wireproto.NeighStatePermanent, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, data))

	_, ok := a.Lookup(mac, 0)
	require.False(t, ok)
}

func TestWithdrawLocalEntry(t *testing.T) {
	a := New(newTestRegistry(), nil, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:05")
	require.NoError(t, err)

	add := neighborData(t, bridgeSlaveIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, add))

	del := neighborData(t, bridgeSlaveIfindex, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgDelNeighbor, del))

	_, ok := a.Lookup(mac, 0)
	require.False(t, ok)
}

func TestNonBridgeSlaveIgnored(t *testing.T) {
	links := iface.New()
	links.Set(iface.Info{Index: 99, Kind: iface.KindOther, Up: true})
	a := New(links, nil, zap.NewNop())
	mac, err := addr.ParseEtherAddr("aa:bb:cc:dd:ee:06")
	require.NoError(t, err)

	data := neighborData(t, 99, wireproto.NeighStateReachable, mac)
	require.NoError(t, a.HandleNeighbor(wireproto.MsgNewNeighbor, data))

	_, ok := a.Lookup(mac, 0)
	require.False(t, ok)
}
