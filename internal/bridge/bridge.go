// Package bridge implements spec.md §4.8's Bridge/EVPN Adjunct: learning
// MAC/VLAN adjacencies on bridge-slave interfaces and pushing remote MAC
// entries into the kernel bridge FDB. It shares C1/C2 (internal/wireproto,
// internal/nlsock) with the route-sync pipeline but runs as the parallel
// pipeline spec.md §2 describes, driven by family=BRIDGE neighbor
// notifications.
package bridge

import (
	"net/netip"

	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/iface"
	"github.com/routeflow/zfibd/internal/zmetrics"
)

// Origin tags where a BridgeMACEntry's reachability info came from,
// spec.md §3's Bridge MAC Entry.
type Origin uint8

const (
	OriginLocal Origin = iota
	OriginRemoteVxlan
)

// MACEntry is spec.md §3's Bridge MAC Entry, plus SPEC_FULL.md's
// supplemented Sticky bit (zebra_vxlan.h's locally-pinned MAC flag).
type MACEntry struct {
	MAC           addr.EtherAddr
	VLAN          uint16
	BridgeIfindex uint32
	LearnIfindex  uint32
	Origin        Origin
	RemoteVTEP    netip.Addr // valid only for OriginRemoteVxlan
	Sticky        bool
}

type macKey struct {
	mac  addr.EtherAddr
	vlan uint16
}

func (e MACEntry) key() macKey { return macKey{e.MAC, e.VLAN} }

// Adjunct owns the learned FDB and the interface registry it consults
// for bridge-slave/VxLAN classification, spec.md §4.8 and §9's "l2if"
// design note.
type Adjunct struct {
	links *iface.Registry
	log   *zap.Logger
	fdb   map[macKey]MACEntry

	programmer Programmer
	metrics    *zmetrics.Metrics
}

// SetMetrics wires in the ambient "bridge FDB entries learned/withdrawn"
// counters spec.md's metrics section names. Nil-safe when unset.
func (a *Adjunct) SetMetrics(m *zmetrics.Metrics) { a.metrics = m }

// Programmer pushes a remote MAC into the kernel bridge FDB,
// spec.md §4.8's "Programming remote MACs into the kernel bridge FDB".
// Implemented by KernelProgrammer in program.go; kept as an
// interface here so Adjunct's learn/withdraw logic is testable without a
// real kernel socket.
type Programmer interface {
	ProgramRemoteMAC(entry MACEntry, vlanAware bool) error
	WithdrawRemoteMAC(entry MACEntry, vlanAware bool) error
}

// New builds an Adjunct over the given interface registry and remote-MAC
// programmer.
func New(links *iface.Registry, programmer Programmer, log *zap.Logger) *Adjunct {
	return &Adjunct{
		links:      links,
		log:        log,
		fdb:        make(map[macKey]MACEntry),
		programmer: programmer,
	}
}

// Lookup returns the learned entry for (mac, vlan), if any.
func (a *Adjunct) Lookup(mac addr.EtherAddr, vlan uint16) (MACEntry, bool) {
	e, ok := a.fdb[macKey{mac, vlan}]
	return e, ok
}
