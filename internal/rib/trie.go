package rib

import "github.com/routeflow/zfibd/internal/addr"

// trie is the per-(VRF, family) radix trie, an edge-based tree keyed by
// addr.Prefix: each edge owns the subtree of prefixes it contains, so
// lookup descends only as far as the query's own specificity. Adapted
// from the teacher's net.IPNet edge trie, generalized to addr.Prefix and
// to carry a *Node payload instead of a single next hop.
type trie struct {
	root       *trieNode
	maxVersion uint64
}

type trieNode struct {
	edges []*trieEdge
}

type trieEdge struct {
	target *trieNode
	node   *Node
}

func newTrie() *trie {
	return &trie{root: &trieNode{}}
}

// getOrCreate returns the Node for prefix, creating it (and re-homing
// any existing more-specific edges under it) if absent.
func (t *trie) getOrCreate(prefix addr.Prefix) *Node {
	host := t.root
	best := t.lookupEdge(host, prefix)
	if best != nil && best.node.Prefix.Equal(prefix) {
		return best.node
	}

	parent := t.root
	if best != nil {
		parent = best.target
	}

	fresh := &trieEdge{target: &trieNode{}, node: &Node{Prefix: prefix}}
	parent.edges = append(parent.edges, fresh)

	// Any sibling edge fresh's prefix contains moves under fresh.
	remaining := parent.edges[:0]
	for _, e := range parent.edges {
		if e != fresh && prefix.Contains(e.node.Prefix) {
			fresh.target.edges = append(fresh.target.edges, e)
			continue
		}
		remaining = append(remaining, e)
	}
	parent.edges = remaining

	return fresh.node
}

// lookupEdge finds the most specific edge containing prefix, descending
// as deep as possible (the teacher's recursive "keep going while a
// deeper match exists" shape).
func (t *trie) lookupEdge(n *trieNode, prefix addr.Prefix) *trieEdge {
	var best *trieEdge
	for _, e := range n.edges {
		if e.node.Prefix.Contains(prefix) {
			best = e
			if deeper := t.lookupEdge(e.target, prefix); deeper != nil {
				return deeper
			}
			return best
		}
	}
	return best
}

// lookupExact returns the Node stored at exactly prefix, if any.
func (t *trie) lookupExact(prefix addr.Prefix) *Node {
	e := t.lookupEdge(t.root, prefix)
	if e == nil || !e.node.Prefix.Equal(prefix) {
		return nil
	}
	return e.node
}

// lookupLongest returns the most specific Node whose prefix contains
// query, spec.md §4.4's lookup_longest.
func (t *trie) lookupLongest(query addr.Prefix) *Node {
	e := t.lookupEdge(t.root, query)
	if e == nil {
		return nil
	}
	return e.node
}

// iterPrefixLonger calls fn for every node whose prefix is contained by
// (i.e. at least as specific as) base, spec.md §4.4's iter_prefix_longer
// — used e.g. to cascade a withdrawal to more-specific dependents.
func (t *trie) iterPrefixLonger(base addr.Prefix, fn func(*Node)) {
	t.walk(t.root, func(n *Node) {
		if base.Contains(n.Prefix) {
			fn(n)
		}
	})
}

func (t *trie) walk(n *trieNode, fn func(*Node)) {
	for _, e := range n.edges {
		fn(e.node)
		t.walk(e.target, fn)
	}
}

// walkAll visits every node the trie holds, regardless of the
// length-based containment iterPrefixLonger applies. Used by C6's
// periodic reconciliation sweep (spec.md §5/§7's "the next resync sweep
// corrects it"), which needs every selected RE, not just ones longer
// than some base prefix.
func (t *trie) walkAll(fn func(*Node)) {
	t.walk(t.root, fn)
}

// noteVersion folds v into the trie's high-water mark, spec.md §3's "the
// containing trie tracks the max version seen."
func (t *trie) noteVersion(v uint64) {
	if v > t.maxVersion {
		t.maxVersion = v
	}
}

// MaxVersion returns the highest Node.Version() this trie has observed.
func (t *trie) MaxVersion() uint64 { return t.maxVersion }

// removeIfEmpty deletes prefix's edge from the trie if its Node has
// become removable, re-homing its children onto its parent. Returns
// true if the edge was removed.
func (t *trie) removeIfEmpty(prefix addr.Prefix) bool {
	return t.removeFrom(t.root, prefix)
}

func (t *trie) removeFrom(n *trieNode, prefix addr.Prefix) bool {
	for i, e := range n.edges {
		if e.node.Prefix.Equal(prefix) {
			if !e.node.removable() {
				return false
			}
			n.edges = append(n.edges[:i], n.edges[i+1:]...)
			n.edges = append(n.edges, e.target.edges...)
			return true
		}
		if e.node.Prefix.Contains(prefix) {
			return t.removeFrom(e.target, prefix)
		}
	}
	return false
}
