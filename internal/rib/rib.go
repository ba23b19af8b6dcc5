package rib

import (
	"sync"
	"time"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
	"github.com/routeflow/zfibd/internal/zerrors"
)

// Installer is C6's contract as seen from the RIB: spec.md §4.4 says
// selection changes "call C6 with old and new selections (either may be
// null)". fibsync implements this; rib only depends on the interface so
// the dependency runs one way.
type Installer interface {
	Install(prefix addr.Prefix, vrf addr.VRFID, old, new_ *RE)
}

// RIB owns every VRF, spec.md §3's "the default VRF always exists".
type RIB struct {
	mu        sync.Mutex
	vrfs      map[addr.VRFID]*VRF
	installer Installer
}

// New builds a RIB with the default VRF and the given installer (C6).
func New(installer Installer) *RIB {
	r := &RIB{
		vrfs:      make(map[addr.VRFID]*VRF),
		installer: installer,
	}
	r.vrfs[addr.DefaultVRF] = newVRF(addr.DefaultVRF, DefaultVRFName, addr.TableMain)
	return r
}

// VRF returns an existing VRF, creating it if necessary.
func (r *RIB) VRF(id addr.VRFID, name string, mainTable addr.TableID) *VRF {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vrfs[id]
	if !ok {
		v = newVRF(id, name, mainTable)
		r.vrfs[id] = v
	}
	return v
}

// AddParams is the argument bundle for Add, mirroring spec.md §4.4's
// add(family, vrf, safi, origin, instance, flags, prefix, ... table,
// metric, mtu, tag, distance, nexthops[]).
type AddParams struct {
	Family   addr.Family
	VRF      addr.VRFID
	SAFI     addr.SAFI
	Origin   wireproto.Origin
	Instance uint32
	Flags    Flag
	Prefix   addr.Prefix
	Table    addr.TableID
	Metric   uint32
	MTU      uint32
	Tag      uint32
	Distance uint8
	Nexthops []addr.Nexthop
}

// Add inserts or replaces the RE for (origin, instance) at prefix and
// recomputes selection, spec.md §4.4's add operation. It returns
// zerrors.ErrDuplicateRoute (alongside the node, which is still updated
// normally) when this call is an identical resubmit of the (origin,
// instance) tuple already present, spec.md §7's DuplicateRoute case.
func (r *RIB) Add(p AddParams) (*Node, error) {
	v := r.VRF(p.VRF, "", p.Table)
	re := &RE{
		Origin:   p.Origin,
		Instance: p.Instance,
		Distance: p.Distance,
		Metric:   p.Metric,
		MTU:      p.MTU,
		Tag:      p.Tag,
		VRF:      p.VRF,
		Table:    p.Table,
		Uptime:   uptimeNow(),
		Flags:    p.Flags,
		Nexthops: p.Nexthops,
	}
	return r.upsertAndSelect(v, p.Family, p.Prefix, re)
}

// AddMultipath is spec.md §4.4's add_multipath: an atomic insert of a
// pre-built RE (including its nexthop list), used by kernel ingest. See
// Add's doc comment for the duplicate-resubmit return.
func (r *RIB) AddMultipath(family addr.Family, vrf addr.VRFID, safi addr.SAFI, prefix addr.Prefix, re *RE) (*Node, error) {
	v := r.VRF(vrf, "", addr.TableMain)
	re.VRF = vrf
	if re.Uptime.IsZero() {
		re.Uptime = uptimeNow()
	}
	return r.upsertAndSelect(v, family, prefix, re)
}

func (r *RIB) upsertAndSelect(v *VRF, family addr.Family, prefix addr.Prefix, re *RE) (*Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := v.rib(family)
	node := t.getOrCreate(prefix)
	_, duplicate := node.upsert(re)
	old, new_ := node.reselect()
	t.noteVersion(node.Version())
	if r.installer != nil && changed(old, new_) {
		r.installer.Install(prefix, v.ID, old, new_)
	}
	if duplicate {
		return node, zerrors.ErrDuplicateRoute
	}
	return node, nil
}

// DeleteParams mirrors spec.md §4.4's delete(...) signature.
type DeleteParams struct {
	Family   addr.Family
	VRF      addr.VRFID
	SAFI     addr.SAFI
	Origin   wireproto.Origin
	Instance uint32
	Prefix   addr.Prefix
	Table    addr.TableID
}

// Delete removes the RE for (origin, instance) at prefix, recomputes
// selection, and removes the node if it becomes empty and unlocked.
func (r *RIB) Delete(p DeleteParams) {
	v := r.VRF(p.VRF, "", p.Table)
	r.mu.Lock()
	defer r.mu.Unlock()

	t := v.rib(p.Family)
	node := t.lookupExact(p.Prefix)
	if node == nil {
		return
	}
	node.removeByKey(key{p.Origin, p.Instance})
	old, new_ := node.reselect()
	t.noteVersion(node.Version())
	if r.installer != nil && changed(old, new_) {
		r.installer.Install(p.Prefix, v.ID, old, new_)
	}
	if node.removable() {
		t.removeIfEmpty(p.Prefix)
	}
}

// LookupExact is spec.md §4.4's lookup_exact.
func (r *RIB) LookupExact(vrf addr.VRFID, family addr.Family, prefix addr.Prefix) *Node {
	v := r.VRF(vrf, "", addr.TableMain)
	r.mu.Lock()
	defer r.mu.Unlock()
	return v.rib(family).lookupExact(prefix)
}

// LookupLongest is spec.md §4.4's lookup_longest, the basis of C5's
// recursive nexthop resolution.
func (r *RIB) LookupLongest(vrf addr.VRFID, family addr.Family, query addr.Prefix) *Node {
	v := r.VRF(vrf, "", addr.TableMain)
	r.mu.Lock()
	defer r.mu.Unlock()
	return v.rib(family).lookupLongest(query)
}

// IterPrefixLonger is spec.md §4.4's iter_prefix_longer.
func (r *RIB) IterPrefixLonger(vrf addr.VRFID, family addr.Family, base addr.Prefix, fn func(*Node)) {
	v := r.VRF(vrf, "", addr.TableMain)
	r.mu.Lock()
	defer r.mu.Unlock()
	v.rib(family).iterPrefixLonger(base, fn)
}

// Walk visits every node in vrf's family trie, in arbitrary order. Used
// by C6's periodic reconciliation sweep, spec.md §5/§7: a talk()
// timeout "leaves the target route in an indeterminate state — the next
// resync sweep (C6 reconciliation) corrects it."
func (r *RIB) Walk(vrf addr.VRFID, family addr.Family, fn func(*Node)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vrfs[vrf]
	if !ok {
		return
	}
	v.rib(family).walkAll(fn)
}

// MaxVersion returns the highest Node.Version() observed in vrf's family
// trie, spec.md §3's trie-level high-water mark.
func (r *RIB) MaxVersion(vrf addr.VRFID, family addr.Family) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vrfs[vrf]
	if !ok {
		return 0
	}
	return v.rib(family).MaxVersion()
}

func changed(old, new_ *RE) bool {
	return old != new_
}

// VRFForTable resolves a wire table id to a VRF, spec.md §6's "Table
// mapping": iterate known VRFs and compare their registered table id;
// unknown table ids in the "main" range fall back to the default VRF.
// Special-table ids (254 main, 253 default, 255 local) always resolve to
// the default VRF regardless of whether a VRF happens to register that
// same table id, matching the original's main-table shortcut.
func (r *RIB) VRFForTable(table addr.TableID) (addr.VRFID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch table {
	case addr.TableMain, addr.TableDefault, addr.TableLocal, addr.TableUnspec:
		return addr.DefaultVRF, true
	}
	for id, v := range r.vrfs {
		if v.MainTable == table {
			return id, true
		}
	}
	return addr.DefaultVRF, false
}

// VRFIDs returns every known VRF id.
func (r *RIB) VRFIDs() []addr.VRFID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]addr.VRFID, 0, len(r.vrfs))
	for id := range r.vrfs {
		out = append(out, id)
	}
	return out
}

// uptimeNow returns the timestamp recorded as a new RE's Uptime.
func uptimeNow() time.Time { return time.Now() }
