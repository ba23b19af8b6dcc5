// Package rib implements the per-(VRF, family) radix trie spec.md §4.4
// calls the RIB: route entries sorted at each node by distance then
// origin order, selection re-evaluated on every mutation, lock-counted
// nodes so pending references survive a transient empty node.
package rib

import (
	"reflect"
	"time"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// Flag is one of the RE-level bits spec.md §3 lists.
type Flag uint8

const (
	FlagSelected Flag = 1 << iota
	FlagBlackhole
	FlagReject
	FlagSelfRoute
	FlagInternalBGP
)

// originRank implements the glossary's origin-order tiebreaker:
// connected < kernel-imported < static < protocol routes (by distance,
// so relative protocol rank here only matters among ties at the same
// distance). Lower ranks first.
var originRank = map[wireproto.Origin]int{
	wireproto.OriginConnected: 0,
	wireproto.OriginKernel:    1,
	wireproto.OriginStatic:    2,
	wireproto.OriginBGP:       3,
	wireproto.OriginOSPF:      3,
	wireproto.OriginISIS:      3,
	wireproto.OriginRIP:       3,
	wireproto.OriginRIPng:     3,
}

// RE is one originating source of a prefix, spec.md §3's Route Entry.
type RE struct {
	Origin   wireproto.Origin
	Instance uint32
	Distance uint8
	Metric   uint32
	MTU      uint32 // 0 means "no override"
	Tag      uint32
	VRF      addr.VRFID
	Table    addr.TableID
	Uptime   time.Time

	Flags    Flag
	Nexthops []addr.Nexthop
	Refcount int

	// seq records insertion order at the node, the glossary's final
	// tiebreaker after distance and origin-order.
	seq uint64
}

// HasFlag reports whether f is set.
func (r *RE) HasFlag(f Flag) bool { return r.Flags&f != 0 }

func (r *RE) setFlag(f Flag)   { r.Flags |= f }
func (r *RE) clearFlag(f Flag) { r.Flags &^= f }

// hasActiveNexthop reports whether any nexthop in the RE is ACTIVE,
// spec.md §4.4's selection precondition.
func (r *RE) hasActiveNexthop() bool {
	for _, nh := range r.Nexthops {
		if nh.HasFlag(addr.NexthopActive) {
			return true
		}
	}
	return false
}

// less implements the (distance ASC, origin-order, insertion-order)
// comparison spec.md §4.4 and the glossary describe.
func (r *RE) less(o *RE) bool {
	if r.Distance != o.Distance {
		return r.Distance < o.Distance
	}
	ra, oa := originRank[r.Origin], originRank[o.Origin]
	if ra != oa {
		return ra < oa
	}
	return r.seq < o.seq
}

// key identifies the (origin, instance) tuple add/delete replace on.
type key struct {
	origin   wireproto.Origin
	instance uint32
}

func (r *RE) key() key { return key{r.Origin, r.Instance} }

// equalContent reports whether r and o carry the same caller-supplied
// attributes, ignoring the bookkeeping fields (seq, Uptime, Refcount,
// and FlagSelected, which selection manages rather than the caller).
// Used to detect spec.md §7's DuplicateRoute case: an identical
// (origin, instance) resubmit during a REPLACE.
func (r *RE) equalContent(o *RE) bool {
	if r.key() != o.key() {
		return false
	}
	if r.Distance != o.Distance || r.Metric != o.Metric || r.MTU != o.MTU ||
		r.Tag != o.Tag || r.VRF != o.VRF || r.Table != o.Table {
		return false
	}
	if r.Flags&^FlagSelected != o.Flags&^FlagSelected {
		return false
	}
	return reflect.DeepEqual(r.Nexthops, o.Nexthops)
}
