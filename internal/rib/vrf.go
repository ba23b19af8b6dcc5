package rib

import "github.com/routeflow/zfibd/internal/addr"

// VRF is spec.md §3's {id, name, main table id, per-family RIB trie,
// per-family static-route trie}.
type VRF struct {
	ID      addr.VRFID
	Name    string
	MainTable addr.TableID

	ribs    map[addr.Family]*trie
	statics map[addr.Family]*trie
}

// newVRF builds an empty VRF with one trie per family.
func newVRF(id addr.VRFID, name string, mainTable addr.TableID) *VRF {
	return &VRF{
		ID:        id,
		Name:      name,
		MainTable: mainTable,
		ribs: map[addr.Family]*trie{
			addr.FamilyIPv4: newTrie(),
			addr.FamilyIPv6: newTrie(),
			addr.FamilyMPLS: newTrie(),
		},
		statics: map[addr.Family]*trie{
			addr.FamilyIPv4: newTrie(),
			addr.FamilyIPv6: newTrie(),
			addr.FamilyMPLS: newTrie(),
		},
	}
}

func (v *VRF) rib(family addr.Family) *trie    { return v.ribs[family] }
func (v *VRF) static(family addr.Family) *trie { return v.statics[family] }

// DefaultVRFName is the name spec.md assumes the always-present default
// VRF carries.
const DefaultVRFName = "default"
