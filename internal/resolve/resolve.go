// Package resolve implements spec.md §4.5's Nexthop Resolver: walking a
// gateway-only nexthop down through the RIB via longest-prefix match
// until it terminates at a directly attached, usable interface.
package resolve

import (
	"net/netip"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
	"github.com/routeflow/zfibd/internal/zerrors"
	"github.com/routeflow/zfibd/internal/zmetrics"
)

// MaxDepth bounds the recursive walk, spec.md §4.5.
const MaxDepth = 32

// LinkStatus reports whether an interface is up and usable as a nexthop
// egress, the ambient piece spec.md leaves to "directly attached ... on
// a usable interface" without naming its source; callers back this with
// whatever link-state tracking the daemon maintains.
type LinkStatus interface {
	IsUsable(ifindex uint32) bool
}

// Policy carries the per-family resolve-via-default switch spec.md §4.5
// calls out as globally configurable.
type Policy struct {
	ResolveViaDefaultV4 bool
	ResolveViaDefaultV6 bool
}

func (p Policy) allowDefault(family addr.Family) bool {
	switch family {
	case addr.FamilyIPv4:
		return p.ResolveViaDefaultV4
	case addr.FamilyIPv6:
		return p.ResolveViaDefaultV6
	default:
		return false
	}
}

// Resolver ties a RIB and link-status source together to resolve
// nexthops for one VRF at a time (callers pass the VRF per call since a
// daemon typically holds one Resolver for all VRFs, sharing the RIB).
type Resolver struct {
	ribs    *rib.RIB
	links   LinkStatus
	policy  Policy
	metrics *zmetrics.Metrics
}

// New builds a Resolver over the given RIB and link-status source.
func New(ribs *rib.RIB, links LinkStatus, policy Policy) *Resolver {
	return &Resolver{ribs: ribs, links: links, policy: policy}
}

// SetMetrics wires in the ambient "nexthops marked unresolvable"
// counter spec.md's metrics section names. Nil-safe when unset.
func (r *Resolver) SetMetrics(m *zmetrics.Metrics) { r.metrics = m }

// Resolve resolves a single nexthop, spec.md §4.5. Nexthops that already
// name a directly attached ifindex (Ifindex, *GatewayIfindex, Blackhole)
// are returned otherwise unchanged, with ACTIVE set when their ifindex
// is usable (or no interface registry is configured) and cleared when it
// is not (Blackhole is always "active": it's a terminal instruction, not
// a lookup target).
func (r *Resolver) Resolve(vrf addr.VRFID, family addr.Family, nh addr.Nexthop) (addr.Nexthop, error) {
	if !nh.IsRecursive() {
		switch nh.Kind {
		case addr.KindBlackhole:
			return nh.SetFlag(addr.NexthopActive), nil
		default:
			if r.links == nil || r.links.IsUsable(nh.Ifindex) {
				return nh.SetFlag(addr.NexthopActive), nil
			}
			return nh.ClearFlag(addr.NexthopActive), nil
		}
	}
	return r.walk(vrf, family, nh, 0, make(map[netip.Addr]bool))
}

// ResolveAll resolves each nexthop in nhs independently and collects the
// results, spec.md §4.5's multipath rule. A single unresolvable nexthop
// does not abort the others; it is returned without ACTIVE set.
func (r *Resolver) ResolveAll(vrf addr.VRFID, family addr.Family, nhs []addr.Nexthop) []addr.Nexthop {
	out := make([]addr.Nexthop, len(nhs))
	for i, nh := range nhs {
		resolved, err := r.Resolve(vrf, family, nh)
		if err != nil {
			r.metrics.ObserveUnresolvableNexthop()
			out[i] = nh.ClearFlag(addr.NexthopActive)
			continue
		}
		out[i] = resolved
	}
	return out
}

func (r *Resolver) walk(vrf addr.VRFID, family addr.Family, nh addr.Nexthop, depth int, seen map[netip.Addr]bool) (addr.Nexthop, error) {
	if depth >= MaxDepth {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	gw := nh.Gateway
	if seen[gw] {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	seen[gw] = true

	query, err := queryPrefix(family, gw)
	if err != nil {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}

	node := r.ribs.LookupLongest(vrf, family, query)
	if node == nil || node.Selected() == nil {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	if node.Prefix.IsDefault() && !r.policy.allowDefault(family) {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}

	selected := node.Selected()
	if selected.Origin == wireproto.OriginConnected {
		return r.terminate(nh, selected)
	}

	// Recursive: descend through the matched route's own nexthops,
	// collecting an owned child chain rather than sharing the RIB's REs.
	var children []addr.Nexthop
	active := false
	for _, childNH := range selected.Nexthops {
		resolved, rerr := r.resolveChild(vrf, family, childNH, depth+1, seen)
		if rerr == nil && resolved.HasFlag(addr.NexthopActive) {
			active = true
		}
		children = append(children, resolved)
	}

	out := nh.SetFlag(addr.NexthopRecursive)
	out.Children = children
	if !active {
		out = out.ClearFlag(addr.NexthopActive)
		return out, zerrors.ErrUnresolvable
	}
	out = out.SetFlag(addr.NexthopActive)
	if !out.EffectiveSrc().IsValid() {
		for _, c := range children {
			if c.EffectiveSrc().IsValid() {
				out.SrcHint = c.EffectiveSrc()
				break
			}
		}
	}
	return out, nil
}

func (r *Resolver) resolveChild(vrf addr.VRFID, family addr.Family, nh addr.Nexthop, depth int, seen map[netip.Addr]bool) (addr.Nexthop, error) {
	if !nh.IsRecursive() {
		if r.links == nil || r.links.IsUsable(nh.Ifindex) {
			return nh.SetFlag(addr.NexthopActive), nil
		}
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	return r.walk(vrf, family, nh, depth, seen)
}

func (r *Resolver) terminate(nh addr.Nexthop, connected *rib.RE) (addr.Nexthop, error) {
	if len(connected.Nexthops) == 0 {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	attach := connected.Nexthops[0]
	if r.links != nil && !r.links.IsUsable(attach.Ifindex) {
		return nh.ClearFlag(addr.NexthopActive), zerrors.ErrUnresolvable
	}
	out := nh.SetFlag(addr.NexthopActive)
	out.Ifindex = attach.Ifindex
	if !out.EffectiveSrc().IsValid() {
		out.SrcHint = attach.EffectiveSrc()
	}
	return out, nil
}

func queryPrefix(family addr.Family, gw netip.Addr) (addr.Prefix, error) {
	switch family {
	case addr.FamilyIPv4:
		return addr.NewIPv4(gw, 32)
	case addr.FamilyIPv6:
		return addr.NewIPv6(gw, 128)
	default:
		return addr.Prefix{}, zerrors.ErrInvalid
	}
}
