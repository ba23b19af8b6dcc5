package addr

import "net/netip"

// NexthopKind tags which of spec.md §3's six Nexthop cases a Nexthop
// holds. Kept as an explicit sum type rather than an interface hierarchy:
// the encoders and the resolver switch on the tag, and the variants'
// rules (e.g. cross-family substitution) differ non-uniformly enough
// that an interface hierarchy would just be a detour back to a switch.
type NexthopKind uint8

const (
	KindIfindex NexthopKind = iota
	KindV4Gateway
	KindV4GatewayIfindex
	KindV6Gateway
	KindV6GatewayIfindex
	KindBlackhole
)

// NexthopFlag is one of the four bits spec.md §3 lists per nexthop.
type NexthopFlag uint8

const (
	NexthopActive NexthopFlag = 1 << iota
	NexthopFIB
	NexthopOnlink
	NexthopRecursive
)

// MaxLabels bounds the label stack a single nexthop may carry.
const MaxLabels = 16

// Nexthop is spec.md §3's tagged variant. Gateway is valid for the four
// *Gateway* kinds, Ifindex for Ifindex/*Ifindex kinds; Blackhole uses
// neither. Weight is the SPEC_FULL ECMP supplement (rtnh_hops, 1-255,
// zero means "unweighted / equal cost").
type Nexthop struct {
	Kind    NexthopKind
	Gateway netip.Addr
	Ifindex uint32
	Flags   NexthopFlag
	Weight  uint8

	// SrcHint is the config-supplied preferred source address; RmapSrc,
	// when set, is a route-map override that takes priority over it
	// (spec.md §4.5's preferred-source selection order).
	SrcHint netip.Addr
	RmapSrc netip.Addr

	Labels []uint32

	// Children is the recursive chain a RECURSIVE nexthop owns. It is an
	// owned snapshot re-built on every resolve, never a shared reference
	// back into the RIB (spec.md's REDESIGN note on owned trees vs
	// back-references).
	Children []Nexthop
}

// HasFlag reports whether f is set.
func (n Nexthop) HasFlag(f NexthopFlag) bool { return n.Flags&f != 0 }

// SetFlag returns a copy of n with f set.
func (n Nexthop) SetFlag(f NexthopFlag) Nexthop {
	n.Flags |= f
	return n
}

// ClearFlag returns a copy of n with f cleared.
func (n Nexthop) ClearFlag(f NexthopFlag) Nexthop {
	n.Flags &^= f
	return n
}

// IsRecursive reports whether the nexthop names a gateway that must be
// resolved through the RIB rather than a directly attached ifindex.
func (n Nexthop) IsRecursive() bool {
	switch n.Kind {
	case KindV4Gateway, KindV6Gateway:
		return true
	default:
		return false
	}
}

// EffectiveSrc applies spec.md §4.5's priority order: route-map override,
// then the config-supplied hint, then the zero Addr (caller inherits).
func (n Nexthop) EffectiveSrc() netip.Addr {
	if n.RmapSrc.IsValid() {
		return n.RmapSrc
	}
	return n.SrcHint
}

// NewIfindexNexthop builds an Ifindex(idx) nexthop.
func NewIfindexNexthop(idx uint32) Nexthop {
	return Nexthop{Kind: KindIfindex, Ifindex: idx}
}

// NewV4Gateway builds a V4Gateway(addr) nexthop.
func NewV4Gateway(gw netip.Addr) Nexthop {
	return Nexthop{Kind: KindV4Gateway, Gateway: gw}
}

// NewV4GatewayIfindex builds a V4GatewayIfindex(addr, idx) nexthop.
func NewV4GatewayIfindex(gw netip.Addr, idx uint32) Nexthop {
	return Nexthop{Kind: KindV4GatewayIfindex, Gateway: gw, Ifindex: idx}
}

// NewV6Gateway builds a V6Gateway(addr) nexthop.
func NewV6Gateway(gw netip.Addr) Nexthop {
	return Nexthop{Kind: KindV6Gateway, Gateway: gw}
}

// NewV6GatewayIfindex builds a V6GatewayIfindex(addr, idx) nexthop.
func NewV6GatewayIfindex(gw netip.Addr, idx uint32) Nexthop {
	return Nexthop{Kind: KindV6GatewayIfindex, Gateway: gw, Ifindex: idx}
}

// NewBlackhole builds the Blackhole nexthop.
func NewBlackhole() Nexthop {
	return Nexthop{Kind: KindBlackhole}
}
