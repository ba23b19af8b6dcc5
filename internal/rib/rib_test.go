package rib

import (
	"net/netip"
	"testing"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
	"github.com/routeflow/zfibd/internal/zerrors"
	"github.com/stretchr/testify/require"
)

type fakeInstaller struct {
	calls []installCall
}

type installCall struct {
	prefix addr.Prefix
	old    *RE
	new_   *RE
}

func (f *fakeInstaller) Install(prefix addr.Prefix, vrf addr.VRFID, old, new_ *RE) {
	f.calls = append(f.calls, installCall{prefix, old, new_})
}

func mustPrefix(t *testing.T, s string, bits int) addr.Prefix {
	t.Helper()
	p, err := addr.NewIPv4(netip.MustParseAddr(s), bits)
	require.NoError(t, err)
	return p
}

func activeNH(t *testing.T) addr.Nexthop {
	nh := addr.NewIfindexNexthop(3)
	return nh.SetFlag(addr.NexthopActive)
}

func TestAddSelectsLowestDistance(t *testing.T) {
	inst := &fakeInstaller{}
	r := New(inst)
	prefix := mustPrefix(t, "10.0.0.0", 8)

	r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 5, Nexthops: []addr.Nexthop{activeNH(t)},
	})
	r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginBGP,
		Instance: 1, Distance: 20, Nexthops: []addr.Nexthop{activeNH(t)},
	})

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, prefix)
	require.NotNil(t, node)
	require.Equal(t, wireproto.OriginStatic, node.Selected().Origin)
	require.True(t, node.Selected().HasFlag(FlagSelected))
}

func TestAddWithoutActiveNexthopLeavesNoSelection(t *testing.T) {
	r := New(nil)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 1, Nexthops: []addr.Nexthop{addr.NewIfindexNexthop(3)}, // not ACTIVE
	})
	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, prefix)
	require.Nil(t, node.Selected())
}

func TestDeleteRemovesEmptyNode(t *testing.T) {
	r := New(nil)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 1, Nexthops: []addr.Nexthop{activeNH(t)},
	})
	r.Delete(DeleteParams{Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic})

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, prefix)
	require.Nil(t, node)
}

func TestLockedNodeSurvivesEmptyDelete(t *testing.T) {
	r := New(nil)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	node, err := r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 1, Nexthops: []addr.Nexthop{activeNH(t)},
	})
	require.NoError(t, err)
	node.Lock()
	r.Delete(DeleteParams{Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic})

	still := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, prefix)
	require.NotNil(t, still, "locked node must not be removed while refs are outstanding")
	still.Unlock()
}

func TestLookupLongestFindsMostSpecific(t *testing.T) {
	r := New(nil)
	outer := mustPrefix(t, "10.0.0.0", 8)
	inner := mustPrefix(t, "10.1.2.0", 24)
	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: outer, Origin: wireproto.OriginStatic, Nexthops: []addr.Nexthop{activeNH(t)}})
	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: inner, Origin: wireproto.OriginStatic, Nexthops: []addr.Nexthop{activeNH(t)}})

	query := mustPrefix(t, "10.1.2.5", 32)
	node := r.LookupLongest(addr.DefaultVRF, addr.FamilyIPv4, query)
	require.True(t, node.Prefix.Equal(inner))
}

func TestIterPrefixLongerVisitsDescendants(t *testing.T) {
	r := New(nil)
	outer := mustPrefix(t, "10.0.0.0", 8)
	inner := mustPrefix(t, "10.1.2.0", 24)
	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: outer, Origin: wireproto.OriginStatic, Nexthops: []addr.Nexthop{activeNH(t)}})
	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: inner, Origin: wireproto.OriginStatic, Nexthops: []addr.Nexthop{activeNH(t)}})

	var seen []addr.Prefix
	r.IterPrefixLonger(addr.DefaultVRF, addr.FamilyIPv4, outer, func(n *Node) {
		seen = append(seen, n.Prefix)
	})
	require.Len(t, seen, 2)
}

func TestAddIdenticalResubmitReturnsDuplicateRoute(t *testing.T) {
	r := New(nil)
	prefix := mustPrefix(t, "10.0.0.0", 8)
	params := AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 1, Nexthops: []addr.Nexthop{activeNH(t)},
	}

	_, err := r.Add(params)
	require.NoError(t, err)

	_, err = r.Add(params)
	require.ErrorIs(t, err, zerrors.ErrDuplicateRoute)

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyIPv4, prefix)
	require.Len(t, node.REs(), 1, "an identical resubmit replaces, not duplicates, the RE list")
}

func TestAddChangedContentIsNotDuplicateRoute(t *testing.T) {
	r := New(nil)
	prefix := mustPrefix(t, "10.0.0.0", 8)

	_, err := r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 1, Nexthops: []addr.Nexthop{activeNH(t)},
	})
	require.NoError(t, err)

	_, err = r.Add(AddParams{
		Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic,
		Distance: 5, Nexthops: []addr.Nexthop{activeNH(t)},
	})
	require.NoError(t, err, "a genuine attribute change is a REPLACE, not a duplicate")
}

func TestMPLSAddIsIdempotentOnExactLabel(t *testing.T) {
	r := New(nil)
	label, err := addr.NewMPLS(200)
	require.NoError(t, err)

	_, addErr := r.Add(AddParams{
		Family: addr.FamilyMPLS, Prefix: label, Origin: wireproto.OriginStatic,
		Nexthops: []addr.Nexthop{activeNH(t)},
	})
	require.NoError(t, addErr)
	_, addErr = r.Add(AddParams{
		Family: addr.FamilyMPLS, Prefix: label, Origin: wireproto.OriginStatic,
		Nexthops: []addr.Nexthop{activeNH(t)},
	})
	require.ErrorIs(t, addErr, zerrors.ErrDuplicateRoute)

	node := r.LookupExact(addr.DefaultVRF, addr.FamilyMPLS, label)
	require.NotNil(t, node, "a resubmitted MPLS label must find the existing node, not create a second one")
	require.Len(t, node.REs(), 1)

	r.Delete(DeleteParams{Family: addr.FamilyMPLS, Prefix: label, Origin: wireproto.OriginStatic})
	require.Nil(t, r.LookupExact(addr.DefaultVRF, addr.FamilyMPLS, label), "delete must locate the MPLS node by exact label")
}

func TestSelectionChangeNotifiesInstallerWithOldAndNew(t *testing.T) {
	inst := &fakeInstaller{}
	r := New(inst)
	prefix := mustPrefix(t, "10.0.0.0", 8)

	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginStatic, Distance: 10, Nexthops: []addr.Nexthop{activeNH(t)}})
	require.Len(t, inst.calls, 1)
	require.Nil(t, inst.calls[0].old)
	require.NotNil(t, inst.calls[0].new_)

	r.Add(AddParams{Family: addr.FamilyIPv4, Prefix: prefix, Origin: wireproto.OriginConnected, Distance: 0, Nexthops: []addr.Nexthop{activeNH(t)}})
	require.Len(t, inst.calls, 2)
	require.Equal(t, wireproto.OriginStatic, inst.calls[1].old.Origin)
	require.Equal(t, wireproto.OriginConnected, inst.calls[1].new_.Origin)
}
