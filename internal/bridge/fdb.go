package bridge

import (
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/iface"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// HandleNeighbor processes one RTM_NEWNEIGH/RTM_DELNEIGH message whose
// family is BRIDGE, spec.md §4.8. Messages of any other family are the
// ARP/ND supplement's concern (HandleARP in neighbor.go), not this one.
func (a *Adjunct) HandleNeighbor(msgType uint16, data []byte) error {
	body, attrs, err := wireproto.ParseNeighbor(data)
	if err != nil {
		a.log.Warn("bridge: malformed neighbor message, discarding", zap.Error(err))
		return nil
	}
	if body.Family != wireproto.FamilyBridge {
		return nil
	}
	return a.handleFDBEvent(msgType, body, attrs)
}

func (a *Adjunct) handleFDBEvent(msgType uint16, body wireproto.NeighborBody, attrs wireproto.AttrMap) error {
	// "Validate the learning interface exists and is a bridge slave in
	// an EVPN-enabled VRF."
	if !a.links.IsBridgeSlaveInEVPNVRF(body.Ifindex) {
		return nil
	}
	// "Ignore entries marked PERMANENT."
	if body.State == wireproto.NeighStatePermanent {
		return nil
	}
	// "Require an LLADDR attribute exactly 6 bytes."
	raw, ok := attrs.Get(wireproto.AttrLLAddr)
	if !ok || len(raw) != 6 {
		return nil
	}
	var mac addr.EtherAddr
	copy(mac[:], raw)

	info, _ := a.links.Get(body.Ifindex)
	vlan := decodeVLAN(attrs)

	switch msgType {
	case wireproto.MsgNewNeighbor:
		return a.learn(mac, vlan, body.Ifindex, info)
	case wireproto.MsgDelNeighbor:
		return a.withdraw(mac, vlan, body.Ifindex, info)
	}
	return nil
}

// learn implements spec.md §4.8's ADD branch: a VxLAN learning interface
// means a remote MAC was announced (withdraw any conflicting local
// entry, unless it's sticky per SPEC_FULL.md's supplement); any other
// bridge-slave interface is a local learn.
func (a *Adjunct) learn(mac addr.EtherAddr, vlan uint16, ifindex uint32, info iface.Info) error {
	if a.links.IsVxlan(ifindex) {
		key := macKey{mac, vlan}
		if local, ok := a.fdb[key]; ok && local.Origin == OriginLocal {
			if local.Sticky {
				a.log.Info("bridge: refusing to overwrite sticky local entry from remote learn",
					zap.Stringer("mac", mac), zap.Uint16("vlan", vlan))
				return nil
			}
			delete(a.fdb, key)
		}
		entry := MACEntry{
			MAC: mac, VLAN: vlan, BridgeIfindex: info.Master,
			LearnIfindex: ifindex, Origin: OriginRemoteVxlan,
		}
		a.fdb[key] = entry
		a.metrics.ObserveFDBLearned()
		if a.programmer != nil {
			return a.programmer.ProgramRemoteMAC(entry, info.VLANAware)
		}
		return nil
	}

	entry := MACEntry{
		MAC: mac, VLAN: vlan, BridgeIfindex: info.Master,
		LearnIfindex: ifindex, Origin: OriginLocal,
	}
	a.fdb[entry.key()] = entry
	a.metrics.ObserveFDBLearned()
	return nil
}

// withdraw implements spec.md §4.8's DEL branch.
func (a *Adjunct) withdraw(mac addr.EtherAddr, vlan uint16, ifindex uint32, info iface.Info) error {
	key := macKey{mac, vlan}
	existing, ok := a.fdb[key]
	if !ok {
		return nil
	}
	if a.links.IsVxlan(ifindex) {
		// "consider re-advertising the remote entry (another peer may
		// still own it)" — without per-peer EVPN route state this
		// daemon cannot tell, so it logs rather than silently dropping
		// reachability for a MAC another VTEP may still advertise.
		a.log.Info("bridge: remote MAC withdrawn, other peers may still advertise it",
			zap.Stringer("mac", mac), zap.Uint16("vlan", vlan))
		return nil
	}
	if existing.Origin != OriginLocal {
		return nil
	}
	delete(a.fdb, key)
	a.metrics.ObserveFDBWithdrawn()
	if existing.RemoteVTEP.IsValid() && a.programmer != nil {
		return a.programmer.WithdrawRemoteMAC(existing, info.VLANAware)
	}
	return nil
}

func decodeVLAN(attrs wireproto.AttrMap) uint16 {
	raw, ok := attrs.Get(wireproto.AttrVlan)
	if !ok || len(raw) < 2 {
		return 0
	}
	return uint16(raw[0]) | uint16(raw[1])<<8
}
