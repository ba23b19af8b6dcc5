package rib

import (
	"sort"

	"github.com/routeflow/zfibd/internal/addr"
)

// Node is spec.md §3's Prefix Node: one radix-trie node, owning an
// ordered list of RE candidates and a monotonically increasing version.
// Invariant: at most one RE has FlagSelected set.
type Node struct {
	Prefix    addr.Prefix
	res       []*RE
	version   uint64
	lockCount int
	selected  *RE
	nextSeq   uint64
}

// Version returns the node's mutation counter, bumped on every add/delete
// and consulted by callers (e.g. `show` rendering) wanting a cheap
// staleness check.
func (n *Node) Version() uint64 { return n.version }

// Selected returns the currently selected RE, or nil if none.
func (n *Node) Selected() *RE { return n.selected }

// REs returns the node's route entries, ordered by (distance, origin,
// insertion). The slice is owned by the node; callers must not mutate it.
func (n *Node) REs() []*RE { return n.res }

// Lock increments the node's external-reference count, spec.md §4.4's
// "prevent removal while external references exist".
func (n *Node) Lock() { n.lockCount++ }

// Unlock decrements the lock count. It does not itself remove the node;
// the trie checks emptiness+lock after each mutation.
func (n *Node) Unlock() {
	if n.lockCount > 0 {
		n.lockCount--
	}
}

func (n *Node) removable() bool {
	return len(n.res) == 0 && n.lockCount == 0
}

// upsert inserts re (replacing any existing RE with the same
// (origin, instance) key) and returns the prior RE with that key, if
// any, plus whether re is an identical resubmit of it — spec.md §7's
// DuplicateRoute case ("identical (origin, instance) resubmit during a
// REPLACE").
func (n *Node) upsert(re *RE) (prior *RE, duplicate bool) {
	k := re.key()
	replaced := false
	for i, existing := range n.res {
		if existing.key() == k {
			re.seq = existing.seq
			n.res[i] = re
			prior, duplicate, replaced = existing, existing.equalContent(re), true
			break
		}
	}
	if !replaced {
		re.seq = n.nextSeq
		n.nextSeq++
		n.res = append(n.res, re)
	}
	sort.SliceStable(n.res, func(i, j int) bool { return n.res[i].less(n.res[j]) })
	return prior, duplicate
}

// removeByKey deletes the RE matching (origin, instance) and returns it,
// or nil if none matched.
func (n *Node) removeByKey(k key) *RE {
	for i, existing := range n.res {
		if existing.key() == k {
			n.res = append(n.res[:i], n.res[i+1:]...)
			return existing
		}
	}
	return nil
}

// reselect re-evaluates selection per spec.md §4.4 and returns the
// previous and new selections (either may be nil). It always bumps the
// version, even when the selection itself doesn't change, since callers
// use version to detect "something about this node changed".
func (n *Node) reselect() (old, new_ *RE) {
	n.version++
	old = n.selected

	var best *RE
	for _, re := range n.res {
		if !re.hasActiveNexthop() {
			continue
		}
		if best == nil || re.less(best) {
			best = re
		}
	}

	if old != nil {
		old.clearFlag(FlagSelected)
	}
	if best != nil {
		best.setFlag(FlagSelected)
	}
	n.selected = best
	return old, best
}
