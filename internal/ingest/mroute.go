package ingest

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/routeflow/zfibd/internal/wireproto"
)

// MrouteNotification is spec.md §4.7's parsed (S,G) multicast-route-cache
// notification: "parse IIF, group, source, list of OIF ifindexes and a
// lastused counter".
type MrouteNotification struct {
	IIF      uint32
	Group    netip.Addr
	Source   netip.Addr
	OIFs     []uint32
	LastUsed uint64
}

// handleMroute parses an mroute-cache route message and delivers it to
// the registered sink, if any, else drops it per spec.md §4.7.
func (i *Ingest) handleMroute(body wireproto.RouteBody, attrs wireproto.AttrMap) {
	if i.mcast == nil {
		return
	}
	n := MrouteNotification{}
	if raw, ok := attrs.Get(wireproto.AttrIif); ok && len(raw) >= 4 {
		n.IIF = leUint32(raw)
	}
	if raw, ok := attrs.Get(wireproto.AttrDst); ok {
		if a, valid := netip.AddrFromSlice(raw); valid {
			n.Group = a
		}
	}
	if raw, ok := attrs.Get(wireproto.AttrSrc); ok {
		if a, valid := netip.AddrFromSlice(raw); valid {
			n.Source = a
		}
	}
	for _, a := range attrs.All(wireproto.AttrOif) {
		if len(a.Data) >= 4 {
			n.OIFs = append(n.OIFs, leUint32(a.Data))
		}
	}
	if raw, ok := attrs.Get(wireproto.AttrType(unix.RTA_EXPIRES)); ok && len(raw) >= 8 {
		n.LastUsed = uint64(leUint32(raw[0:4])) | uint64(leUint32(raw[4:8]))<<32
	}
	i.mcast.Deliver(n)
}
