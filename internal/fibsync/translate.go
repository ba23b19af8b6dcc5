package fibsync

import (
	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// toSpec translates the richer, RIB-facing addr.Nexthop into wireproto's
// plain NexthopSpec. The two types stay separate (wireproto can't import
// addr without an import cycle back through rib), so this is the one
// place the translation happens.
func toSpec(nh addr.Nexthop) wireproto.NexthopSpec {
	spec := wireproto.NexthopSpec{
		Ifindex: nh.Ifindex,
		Onlink:  nh.HasFlag(addr.NexthopOnlink),
		Weight:  nh.Weight,
	}
	switch nh.Kind {
	case addr.KindV4Gateway, addr.KindV4GatewayIfindex:
		spec.GatewayFam = wireproto.GatewayV4
		spec.Gateway = nh.Gateway.AsSlice()
	case addr.KindV6Gateway, addr.KindV6GatewayIfindex:
		spec.GatewayFam = wireproto.GatewayV6
		spec.Gateway = nh.Gateway.AsSlice()
	default:
		spec.GatewayFam = wireproto.GatewayNone
	}
	if src := nh.EffectiveSrc(); src.IsValid() {
		spec.PrefSrc = src.AsSlice()
	}
	return spec
}

// flatten expands RECURSIVE marker nexthops into their resolved child
// chain (spec.md §4.6: "skip recursive-marker nexthops"), returning only
// the concrete, directly encodable leaves.
func flatten(nhs []addr.Nexthop) []addr.Nexthop {
	var out []addr.Nexthop
	for _, nh := range nhs {
		if nh.HasFlag(addr.NexthopRecursive) {
			out = append(out, flatten(nh.Children)...)
			continue
		}
		out = append(out, nh)
	}
	return out
}
