// Package iface tracks the daemon's view of kernel interfaces: whether
// each ifindex is usable as a nexthop egress, its link MTU, and which
// kind of L2 interface it is for C8's bridge/EVPN adjunct.
//
// spec.md's design notes call out "Inheritance of l2if": the original
// downcasts a base struct pointer by interface type. We replace that
// with a tagged variant, Kind, the same way internal/addr replaces
// Nexthop's inheritance with NexthopKind.
package iface

import (
	"sync"

	"github.com/routeflow/zfibd/internal/wireproto"
)

// Kind tags which of the four interface roles spec.md §4.8/§9 names.
type Kind uint8

const (
	KindOther Kind = iota
	KindVxlan
	KindBridge
	KindBridgeSlave
)

// Info is one interface's state as the daemon knows it.
type Info struct {
	Index   uint32
	Name    string
	Up      bool
	MTU     uint32
	Kind    Kind
	// Master is the bridge ifindex this interface is enslaved to, valid
	// for KindBridgeSlave and KindVxlan (a VxLAN device is itself
	// usually a bridge slave).
	Master uint32
	// VRF is the VRF an EVPN-enabled bridge/slave belongs to, spec.md
	// §4.8's "bridge slave in an EVPN-enabled VRF" precondition.
	VRF        uint32
	VLANAware  bool
	EVPN       bool
}

// Registry is the daemon's link-state table, shared by C5 (as a
// resolve.LinkStatus and fibsync.MTUSource) and C8 (as an l2if lookup).
// Mutated only by whatever netlink link-dump/notify path populates it;
// reads are safe for concurrent use the same way internal/queue.Queue is.
type Registry struct {
	mu    sync.Mutex
	byIdx map[uint32]Info
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{byIdx: make(map[uint32]Info)}
}

// Set records or replaces an interface's state.
func (r *Registry) Set(info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIdx[info.Index] = info
}

// Remove drops an interface, e.g. on RTM_DELLINK.
func (r *Registry) Remove(ifindex uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byIdx, ifindex)
}

// Get returns an interface's recorded state.
func (r *Registry) Get(ifindex uint32) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byIdx[ifindex]
	return info, ok
}

// IsUsable implements internal/resolve.LinkStatus: an interface resolves
// nexthops only while administratively and operationally up.
func (r *Registry) IsUsable(ifindex uint32) bool {
	info, ok := r.Get(ifindex)
	return ok && info.Up
}

// MTU implements internal/fibsync.MTUSource.
func (r *Registry) MTU(ifindex uint32) uint32 {
	info, ok := r.Get(ifindex)
	if !ok {
		return 0
	}
	return info.MTU
}

// IsBridgeSlaveInEVPNVRF is C8's learning-interface precondition, spec.md
// §4.8: "Validate the learning interface exists and is a bridge slave in
// an EVPN-enabled VRF."
func (r *Registry) IsBridgeSlaveInEVPNVRF(ifindex uint32) bool {
	info, ok := r.Get(ifindex)
	if !ok {
		return false
	}
	if info.Kind != KindBridgeSlave && info.Kind != KindVxlan {
		return false
	}
	return info.EVPN
}

// IsVxlan reports whether ifindex is a VxLAN device, C8's remote-vs-local
// MAC learn branch.
func (r *Registry) IsVxlan(ifindex uint32) bool {
	info, ok := r.Get(ifindex)
	return ok && info.Kind == KindVxlan
}

// ApplyLinkMessage updates the registry from one RTM_NEWLINK/DELLINK
// message, the link-dump/notify path the package doc promises: a
// one-shot dump at startup (cmd/zfibd) plus live RTM_NEWLINK/DELLINK
// notifications (internal/loopd) keep this populated.
func (r *Registry) ApplyLinkMessage(msgType uint16, data []byte) error {
	body, attrs, err := wireproto.ParseLink(data)
	if err != nil {
		return err
	}
	if msgType == wireproto.MsgDelLink {
		r.Remove(body.Index)
		return nil
	}

	info := Info{
		Index: body.Index,
		Up:    body.Flags&wireproto.LinkFlagUp != 0,
	}
	if raw, ok := attrs.Get(wireproto.AttrIfname); ok {
		info.Name = string(trimNull(raw))
	}
	if raw, ok := attrs.Get(wireproto.AttrLinkMTU); ok && len(raw) >= 4 {
		info.MTU = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	}
	if raw, ok := attrs.Get(wireproto.AttrLinkMaster); ok && len(raw) >= 4 {
		info.Master = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	}

	// Preserve the EVPN/VLAN-aware flags an operator or prior dump set;
	// neither is carried on the wire by this message, spec.md §9's
	// "l2if" design note leaves EVPN enablement a control-plane decision.
	if existing, ok := r.Get(body.Index); ok {
		info.EVPN = existing.EVPN
		info.VLANAware = existing.VLANAware
	}

	switch wireproto.LinkKind(attrs) {
	case "bridge":
		info.Kind = KindBridge
	case "vxlan":
		info.Kind = KindVxlan
	default:
		if info.Master != 0 {
			info.Kind = KindBridgeSlave
		} else {
			info.Kind = KindOther
		}
	}

	r.Set(info)
	return nil
}

// SetEVPN marks ifindex as belonging to an EVPN-enabled bridge domain, a
// control-plane decision (config, not wire state) per spec.md §9.
func (r *Registry) SetEVPN(ifindex uint32, evpn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.byIdx[ifindex]
	info.Index = ifindex
	info.EVPN = evpn
	r.byIdx[ifindex] = info
}

func trimNull(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
