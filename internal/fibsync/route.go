package fibsync

import (
	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// buildRoute assembles the wire payload for re at prefix using the given
// candidate nexthops (already filtered to ACTIVE-for-ADD or FIB-for-DEL
// by the caller), spec.md §4.6.
func (s *Synchronizer) buildRoute(prefix addr.Prefix, re *rib.RE, candidates []addr.Nexthop) []byte {
	family := wireFamily(prefix.Family())

	typ := uint8(wireproto.TypeUnicast)
	switch {
	case re.HasFlag(rib.FlagBlackhole):
		typ = wireproto.TypeBlackhole
	case re.HasFlag(rib.FlagReject):
		typ = wireproto.TypeUnreachable
	}

	body := wireproto.RouteBody{
		Family:   family,
		DstLen:   uint8(prefix.Bits()),
		Table:    tableByte(re.Table),
		Protocol: wireproto.ProtoForOrigin(re.Origin),
		Scope:    wireproto.ScopeUniverse,
		Type:     typ,
	}

	return wireproto.BuildRoute(body, func(b *wireproto.Builder) {
		if prefix.Family() != addr.FamilyMPLS {
			b.PutAddr(wireproto.AttrDst, prefix.Addr().AsSlice())
		}
		b.PutUint32(wireproto.AttrPriority, DefaultPriority)
		wireproto.EncodeTable(b, uint32(re.Table))

		if mtu := s.effectiveMTU(re, candidates); mtu != 0 {
			wireproto.EncodeMTU(b, mtu)
		}

		s.encodeNexthops(b, family, candidates)
		s.encodeLabels(b, family, re)
	})
}

// encodeNexthops picks singlepath vs multipath encoding per spec.md
// §4.6: singlepath if exactly one candidate or multipath_num==1;
// otherwise a MULTIPATH subtree, deduped by first-hop and capped at
// multipath_num entries.
func (s *Synchronizer) encodeNexthops(b *wireproto.Builder, outerFamily uint8, candidates []addr.Nexthop) {
	if len(candidates) == 1 || s.multipathNum == 1 {
		wireproto.EncodeSingleNexthop(b, outerFamily, toSpec(candidates[0]))
		return
	}

	var kept []wireproto.NexthopSpec
	for _, nh := range candidates {
		spec := toSpec(nh)
		dup := false
		for _, k := range kept {
			if wireproto.AreFirstHopsSame(spec, k) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, spec)
		if len(kept) == s.multipathNum {
			break
		}
	}

	b.NestBegin(wireproto.AttrMultipath)
	for _, spec := range kept {
		wireproto.EncodeMultipathRecord(b, outerFamily, spec)
	}
	b.NestEnd()
}

// encodeLabels implements spec.md §4.6's MPLS handling: NEWDST when the
// outer route family is itself MPLS, else an ENCAP subtree. Nexthops
// carry the label stack in this daemon (not the RE), so the first of
// re's nexthops with a non-empty stack supplies it and the others are
// not consulted; EncodeLabelStack then strips implicit-null entries, and
// when nothing is left no label attribute is emitted.
func (s *Synchronizer) encodeLabels(b *wireproto.Builder, outerFamily uint8, re *rib.RE) {
	var labels []uint32
	for _, nh := range re.Nexthops {
		if len(nh.Labels) > 0 {
			labels = nh.Labels
			break
		}
	}
	encoded := wireproto.EncodeLabelStack(labels)
	if len(encoded) == 0 {
		return
	}
	if outerFamily == wireproto.FamilyMPLS {
		b.PutBytes(wireproto.AttrNewDst, encoded)
		return
	}
	b.PutUint16(wireproto.AttrEncapType, wireproto.EncapTypeMPLS)
	b.NestBegin(wireproto.AttrEncap)
	b.PutBytes(wireproto.AttrMPLSIPTunnelDst, encoded)
	b.NestEnd()
}

func wireFamily(f addr.Family) uint8 {
	switch f {
	case addr.FamilyIPv4:
		return wireproto.FamilyIPv4
	case addr.FamilyIPv6:
		return wireproto.FamilyIPv6
	default:
		return wireproto.FamilyMPLS
	}
}

func tableByte(t addr.TableID) uint8 {
	if t > 255 {
		return 0 // extended RTA_TABLE attribute carries the real value
	}
	return uint8(t)
}

func (s *Synchronizer) effectiveMTU(re *rib.RE, candidates []addr.Nexthop) uint32 {
	best := re.MTU
	if s.mtus == nil {
		return best
	}
	for _, nh := range candidates {
		m := s.mtus.MTU(nh.Ifindex)
		if m != 0 && (best == 0 || m < best) {
			best = m
		}
	}
	return best
}
