// Package static implements spec.md §3's Static Route: a
// configuration-owned entry that "lives in the static trie until
// (re)injected into the RIB by the resolver." Static routes call C5
// directly (kernel ingest, C7, stores nexthops as received), since a
// static route's nexthop is frequently a bare gateway address with no
// ifindex, and only the resolver can walk that down to a usable egress.
package static

import (
	"sync"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/resolve"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// Route is spec.md §3's Static Route: "prefix, type (v4 gateway / v6
// gateway / ifindex / blackhole), optional ifindex, tag, administrative
// distance, VRF id."
type Route struct {
	VRF      addr.VRFID
	Family   addr.Family
	Prefix   addr.Prefix
	Nexthop  addr.Nexthop
	Tag      uint32
	Distance uint8
}

// Table is the static trie: routes configuration owns, independent of
// whatever the RIB currently holds for the same prefix. Keyed by
// (vrf, family, prefix) since spec.md's Lifecycle note says static
// routes "create RIB entries as side effects" rather than being RIB
// entries themselves.
type Table struct {
	mu     sync.Mutex
	routes map[routeKey]Route
}

type routeKey struct {
	vrf    addr.VRFID
	family addr.Family
	prefix addr.Prefix
}

// New builds an empty static route table.
func New() *Table {
	return &Table{routes: make(map[routeKey]Route)}
}

// Set adds or replaces a configured static route.
func (t *Table) Set(r Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[routeKey{r.VRF, r.Family, r.Prefix}] = r
}

// Remove drops a configured static route from the table only. The
// OriginStatic RE an earlier Reinject created stays in the RIB; Reinject
// does not remove it, as it only (re)adds routes still in the table.
func (t *Table) Remove(vrf addr.VRFID, family addr.Family, prefix addr.Prefix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.routes, routeKey{vrf, family, prefix})
}

// All returns a snapshot of every configured static route.
func (t *Table) All() []Route {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	return out
}

// Reinject resolves every static route's nexthop against ribs via
// resolver and (re)installs it as an OriginStatic RE, spec.md §3's
// "(re)injected into the RIB by the resolver." Called once at startup
// and again whenever link state or an intermediate route changes enough
// that a previously unresolvable static route might now resolve (or vice
// versa) — the event loop's concern, not this package's.
func Reinject(t *Table, resolver *resolve.Resolver, ribs *rib.RIB) {
	for _, r := range t.All() {
		resolved := resolver.ResolveAll(r.VRF, r.Family, []addr.Nexthop{r.Nexthop})
		vrf := ribs.VRF(r.VRF, "", addr.TableMain)
		ribs.Add(rib.AddParams{
			Family:   r.Family,
			VRF:      r.VRF,
			SAFI:     addr.SAFIUnicast,
			Origin:   wireproto.OriginStatic,
			Prefix:   r.Prefix,
			Table:    vrf.MainTable,
			Tag:      r.Tag,
			Distance: r.Distance,
			Nexthops: resolved,
		})
	}
}
