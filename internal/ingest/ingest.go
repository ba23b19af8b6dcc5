// Package ingest implements spec.md §4.7's Kernel Event Ingest: the
// notify-channel consumer that classifies unsolicited route and mroute
// messages and feeds the RIB (or a one-shot multicast sink). Bridge/FDB
// and neighbor notifications are C8's concern (internal/bridge); this
// package only looks at family != BRIDGE route messages, matching
// spec.md §2's "C7 reads from C2 and updates C4 ... C8 is a parallel
// pipeline using the same codec/transport with neighbor-table messages."
package ingest

import (
	"net/netip"

	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// Ingest consumes route-change notifications and drives the RIB,
// spec.md §4.7.
type Ingest struct {
	ribs         *rib.RIB
	log          *zap.Logger
	mcast        MulticastSink
	importRanges []wireproto.TableRange
	allowDelete  bool
}

// MulticastSink receives (S,G) mroute cache notifications, spec.md
// §4.7's "write to a one-shot sink if one is registered, else drop."
type MulticastSink interface {
	Deliver(MrouteNotification)
}

// New builds an Ingest over ribs. importRanges is the SPEC_FULL.md
// "is_zebra_valid_kernel_table" allow list consulted for table ids not
// bound to any known VRF. allowDelete is spec.md §5's global allow_delete
// mutable: whether a kernel DEL notification for a route this daemon
// does not itself own is allowed to remove the corresponding RIB entry.
// A self-owned route's DEL always propagates regardless (spec.md §8
// scenario 6) — allow_delete only gates externally originated routes.
func New(ribs *rib.RIB, log *zap.Logger, importRanges []wireproto.TableRange, allowDelete bool) *Ingest {
	return &Ingest{ribs: ribs, log: log, importRanges: importRanges, allowDelete: allowDelete}
}

// SetMulticastSink installs (or clears, with nil) the one-shot mroute
// sink.
func (i *Ingest) SetMulticastSink(sink MulticastSink) {
	i.mcast = sink
}

// HandleRoute processes one RTM_NEWROUTE/RTM_DELROUTE message's Data
// payload, spec.md §4.7.
func (i *Ingest) HandleRoute(msgType uint16, data []byte) error {
	body, attrs, err := wireproto.ParseRoute(data)
	if err != nil {
		i.log.Warn("ingest: malformed route message, discarding", zap.Error(err))
		return nil
	}

	if body.Family == wireproto.FamilyMPLS {
		// MPLS is handled through a different program state machine,
		// spec.md §4.7.
		return nil
	}
	if body.Flags&wireproto.RouteFlagCloned != 0 {
		return nil
	}
	if body.Protocol == wireproto.ProtoRedirect || body.Protocol == wireproto.ProtoKernel {
		return nil
	}
	if body.Type == wireproto.TypeMulticast {
		i.handleMroute(body, attrs)
		return nil
	}

	family := familyFromWire(body.Family)
	prefix, err := buildPrefix(family, body, attrs)
	if err != nil {
		i.log.Warn("ingest: route message with invalid prefix, discarding", zap.Error(err))
		return nil
	}

	table := resolveTable(body, attrs)
	vrf, known := i.ribs.VRFForTable(table)
	var importDistance uint8
	if !known {
		rng, ok := wireproto.ValidKernelTable(uint32(table), i.importRanges)
		if !ok {
			i.log.Debug("ingest: route on unbound table outside import range, discarding",
				zap.Uint32("table", uint32(table)))
			return nil
		}
		importDistance = rng.Distance
	}

	self := wireproto.IsSelfOriginated(body.Protocol)
	isAdd := msgType == wireproto.MsgNewRoute
	origin := wireproto.OriginForProto(body.Protocol)

	if self && isAdd {
		// We authored this route ourselves; the kernel is just echoing
		// our own install back to us. spec.md §9 Open Question (a).
		return nil
	}

	if !isAdd {
		if self {
			if node := i.ribs.LookupExact(vrf, family, prefix); node != nil {
				for _, re := range node.REs() {
					if re.Origin == origin && re.Instance == 0 {
						re.Flags |= rib.FlagSelfRoute
					}
				}
			}
		} else if !i.allowDelete {
			i.log.Debug("ingest: external route delete ignored, allow_delete is false",
				zap.Stringer("prefix", prefix))
			return nil
		}
		i.ribs.Delete(rib.DeleteParams{
			Family: family, VRF: vrf, SAFI: addr.SAFIUnicast,
			Origin: origin, Instance: 0, Prefix: prefix, Table: table,
		})
		return nil
	}

	nexthops := buildNexthops(body, attrs)
	if len(nexthops) == 0 {
		return nil
	}
	re := &rib.RE{
		Origin:   origin,
		Distance: importDistance,
		VRF:      vrf,
		Table:    table,
		Nexthops: nexthops,
	}
	if _, err := i.ribs.AddMultipath(family, vrf, addr.SAFIUnicast, prefix, re); err != nil {
		// zerrors.ErrDuplicateRoute: the kernel re-announced a route this
		// daemon already holds identically; the RIB entry is still
		// refreshed above, nothing further to do.
		i.log.Debug("ingest: duplicate route resubmit", zap.Stringer("prefix", prefix), zap.Error(err))
	}
	return nil
}

func familyFromWire(f uint8) addr.Family {
	if f == wireproto.FamilyIPv6 {
		return addr.FamilyIPv6
	}
	return addr.FamilyIPv4
}

func buildPrefix(family addr.Family, body wireproto.RouteBody, attrs wireproto.AttrMap) (addr.Prefix, error) {
	dst, ok := attrs.Get(wireproto.AttrDst)
	var ip netip.Addr
	var err error
	if ok {
		ip, ok = netip.AddrFromSlice(dst)
		if !ok {
			return addr.Prefix{}, addr.ErrInvalid
		}
	} else if family == addr.FamilyIPv6 {
		ip = netip.IPv6Unspecified()
	} else {
		ip = netip.IPv4Unspecified()
	}
	if family == addr.FamilyIPv6 {
		return addr.NewIPv6(ip, int(body.DstLen))
	}
	var p addr.Prefix
	p, err = addr.NewIPv4(ip, int(body.DstLen))
	return p, err
}

// resolveTable is spec.md §6's "wire table id is 8 bits inline (0 =
// unspec -> use attribute RTA_TABLE with u32)".
func resolveTable(body wireproto.RouteBody, attrs wireproto.AttrMap) addr.TableID {
	if body.Table != 0 {
		return addr.TableID(body.Table)
	}
	if raw, ok := attrs.Get(wireproto.AttrTable); ok && len(raw) >= 4 {
		return addr.TableID(leUint32(raw))
	}
	return addr.TableID(body.Table)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// buildNexthops translates a parsed route message's nexthop attributes
// (single GATEWAY/OIF or a MULTIPATH subtree) into addr.Nexthop values,
// already marked ACTIVE+FIB since a kernel-reported route is by
// definition already in the forwarding table.
func buildNexthops(body wireproto.RouteBody, attrs wireproto.AttrMap) []addr.Nexthop {
	if raw, ok := attrs.Get(wireproto.AttrMultipath); ok {
		records, err := wireproto.DecodeMultipath(raw)
		if err != nil {
			return nil
		}
		out := make([]addr.Nexthop, 0, len(records))
		for _, rec := range records {
			out = append(out, nexthopFromAttrs(body, rec.Ifindex, rec.Attrs, rec.Weight))
		}
		return out
	}

	ifindex := uint32(0)
	if raw, ok := attrs.Get(wireproto.AttrOif); ok && len(raw) >= 4 {
		ifindex = leUint32(raw)
	}
	nh := nexthopFromAttrs(body, ifindex, attrs, 0)
	return []addr.Nexthop{nh}
}

func nexthopFromAttrs(body wireproto.RouteBody, ifindex uint32, attrs wireproto.AttrMap, weight uint8) addr.Nexthop {
	var nh addr.Nexthop
	switch {
	case body.Type == wireproto.TypeBlackhole || body.Type == wireproto.TypeUnreachable:
		nh = addr.NewBlackhole()
	default:
		if gw, ok := attrs.Get(wireproto.AttrGateway); ok {
			addrVal, valid := netip.AddrFromSlice(gw)
			if valid && addrVal.Is4() {
				if ifindex != 0 {
					nh = addr.NewV4GatewayIfindex(addrVal, ifindex)
				} else {
					nh = addr.NewV4Gateway(addrVal)
				}
			} else if valid {
				if ifindex != 0 {
					nh = addr.NewV6GatewayIfindex(addrVal, ifindex)
				} else {
					nh = addr.NewV6Gateway(addrVal)
				}
			}
		} else {
			nh = addr.NewIfindexNexthop(ifindex)
		}
	}
	if weight > 1 {
		nh.Weight = weight
	}
	if src, ok := attrs.Get(wireproto.AttrPrefSrc); ok {
		if a, valid := netip.AddrFromSlice(src); valid {
			nh.SrcHint = a
		}
	}
	nh = nh.SetFlag(addr.NexthopActive).SetFlag(addr.NexthopFIB)
	return nh
}
