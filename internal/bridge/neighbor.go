package bridge

import (
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// HandleARP is SPEC_FULL.md's supplemented neighbor-table ingest
// (original_source/zebra/rt_netlink.c's ARP/ND handlers): a
// NUD_REACHABLE/NUD_STALE IPv4/IPv6 neighbor entry learned on a VxLAN
// interface is a directly-attached host the EVPN adjunct needs for ARP
// suppression, so it is folded into the same FDB C8 maintains rather
// than tracked in a parallel table.
func (a *Adjunct) HandleARP(msgType uint16, data []byte) error {
	body, attrs, err := wireproto.ParseNeighbor(data)
	if err != nil {
		a.log.Warn("bridge: malformed ARP/ND neighbor message, discarding", zap.Error(err))
		return nil
	}
	if body.Family != wireproto.FamilyIPv4 && body.Family != wireproto.FamilyIPv6 {
		return nil
	}
	if body.State != wireproto.NeighStateReachable && body.State != wireproto.NeighStateStale {
		return nil
	}
	if !a.links.IsVxlan(body.Ifindex) {
		return nil
	}
	if msgType != wireproto.MsgNewNeighbor {
		return nil
	}

	raw, ok := attrs.Get(wireproto.AttrLLAddr)
	if !ok || len(raw) != 6 {
		return nil
	}
	var mac addr.EtherAddr
	copy(mac[:], raw)

	info, _ := a.links.Get(body.Ifindex)
	key := macKey{mac, 0}
	if existing, ok := a.fdb[key]; ok && existing.Sticky {
		return nil
	}
	a.fdb[key] = MACEntry{
		MAC: mac, VLAN: 0, BridgeIfindex: info.Master,
		LearnIfindex: body.Ifindex, Origin: OriginLocal,
	}
	return nil
}
