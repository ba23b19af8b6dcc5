// Package fibsync implements spec.md §4.6's FIB Synchronizer: given an
// old/new selection change from the RIB, program the kernel forwarding
// table to match, or withdraw it.
package fibsync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/nlsock"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/wireproto"
	"github.com/routeflow/zfibd/internal/zerrors"
	"github.com/routeflow/zfibd/internal/zmetrics"
)

// DefaultPriority is the fixed daemon-chosen metric spec.md's worked
// example installs every route with (PRIORITY=20).
const DefaultPriority = 20

// MTUSource resolves an interface's link MTU, the ambient piece spec.md
// §4.6 leans on ("smallest nexthop MTU") without naming its source.
type MTUSource interface {
	MTU(ifindex uint32) uint32 // 0 = unknown
}

// ConnSource hands back the command socket for a VRF; daemons typically
// keep one nlsock.Conn per VRF, opened lazily.
type ConnSource interface {
	Conn(vrf addr.VRFID) (*nlsock.Conn, error)
}

// Synchronizer implements rib.Installer, spec.md §4.6's install(old,new)
// contract.
type Synchronizer struct {
	conns        ConnSource
	mtus         MTUSource
	log          *zap.Logger
	multipathNum int
	metrics      *zmetrics.Metrics
}

// New builds a Synchronizer. multipathNum is the global multipath_num
// cap spec.md §4.6 references; 1 forces singlepath encoding always.
func New(conns ConnSource, mtus MTUSource, log *zap.Logger, multipathNum int) *Synchronizer {
	if multipathNum < 1 {
		multipathNum = 1
	}
	return &Synchronizer{conns: conns, mtus: mtus, log: log, multipathNum: multipathNum}
}

// SetMetrics wires the ambient prometheus collectors in, spec.md's
// ambient-stack metrics section ("install() calls by action", "kernel
// talk() round trips by result"). Nil-safe: an un-set Synchronizer just
// skips observation.
func (s *Synchronizer) SetMetrics(m *zmetrics.Metrics) { s.metrics = m }

func (s *Synchronizer) observeTalk(err error) {
	switch {
	case err == nil:
		s.metrics.ObserveTalk(zmetrics.TalkOK)
	case errors.As(err, new(*zerrors.KernelError)):
		s.metrics.ObserveTalk(zmetrics.TalkKernelError)
	case errors.Is(err, zerrors.ErrTimeout):
		s.metrics.ObserveTalk(zmetrics.TalkTimeout)
	default:
		s.metrics.ObserveTalk(zmetrics.TalkMalformed)
	}
}

var _ rib.Installer = (*Synchronizer)(nil)

// Install is rib.Installer's single entry point. Exactly one of no-op,
// ADD, DEL, or ADD|REPLACE is taken, per spec.md §4.6's four cases.
func (s *Synchronizer) Install(prefix addr.Prefix, vrf addr.VRFID, old, new_ *rib.RE) {
	switch {
	case old == nil && new_ == nil:
		return
	case new_ != nil && old == nil:
		s.apply(prefix, vrf, new_, false)
	case old != nil && new_ == nil:
		s.withdraw(prefix, vrf, old)
	default:
		s.apply(prefix, vrf, new_, true)
	}
}

func (s *Synchronizer) apply(prefix addr.Prefix, vrf addr.VRFID, re *rib.RE, replace bool) {
	candidates := flatten(re.Nexthops)
	var active []addr.Nexthop
	for _, nh := range candidates {
		if nh.HasFlag(addr.NexthopActive) {
			active = append(active, nh)
		}
	}
	if len(active) == 0 {
		s.logf("install skipped: no active nexthops", prefix, vrf)
		return
	}

	conn, err := s.connFor(vrf)
	if err != nil {
		s.logf("install skipped: no connection: "+err.Error(), prefix, vrf)
		return
	}

	flags := wireproto.FlagRequest | wireproto.FlagCreate
	if replace {
		flags |= wireproto.FlagReplace
	} else {
		flags |= wireproto.FlagExcl
	}

	data := s.buildRoute(prefix, re, active)
	req := nlsock.NewRequest(wireproto.MsgNewRoute, flags, data)

	err = conn.Talk(context.Background(), req, nil, nil)
	s.observeTalk(err)
	if err != nil {
		s.onInstallError(re.Nexthops)
		s.logf("kernel rejected route install: "+err.Error(), prefix, vrf)
		return
	}
	if replace {
		s.metrics.ObserveInstall(zmetrics.InstallReplace)
	} else {
		s.metrics.ObserveInstall(zmetrics.InstallAdd)
	}
	for i := range re.Nexthops {
		re.Nexthops[i] = re.Nexthops[i].SetFlag(addr.NexthopFIB)
	}
}

func (s *Synchronizer) withdraw(prefix addr.Prefix, vrf addr.VRFID, re *rib.RE) {
	candidates := flatten(re.Nexthops)
	var installed []addr.Nexthop
	for _, nh := range candidates {
		if nh.HasFlag(addr.NexthopFIB) {
			installed = append(installed, nh)
		}
	}
	if len(installed) == 0 {
		s.logf("withdraw skipped: nothing marked FIB", prefix, vrf)
		return
	}

	conn, err := s.connFor(vrf)
	if err != nil {
		s.logf("withdraw skipped: no connection: "+err.Error(), prefix, vrf)
		return
	}

	data := s.buildRoute(prefix, re, installed)
	req := nlsock.NewRequest(wireproto.MsgDelRoute, wireproto.FlagRequest, data)

	err = conn.Talk(context.Background(), req, nil, nil)
	s.observeTalk(err)
	if err != nil {
		s.logf("kernel rejected route withdraw: "+err.Error(), prefix, vrf)
		return
	}
	s.metrics.ObserveInstall(zmetrics.InstallDelete)
	for i := range re.Nexthops {
		re.Nexthops[i] = re.Nexthops[i].ClearFlag(addr.NexthopFIB)
	}
}

// onInstallError clears FIB on the attempted nexthops so a later full
// sync retries, spec.md §4.6/§7: install errors never fail RIB mutation.
func (s *Synchronizer) onInstallError(nhs []addr.Nexthop) {
	for i := range nhs {
		nhs[i] = nhs[i].ClearFlag(addr.NexthopFIB)
	}
}

func (s *Synchronizer) connFor(vrf addr.VRFID) (*nlsock.Conn, error) {
	return s.conns.Conn(vrf)
}

func (s *Synchronizer) logf(msg string, prefix addr.Prefix, vrf addr.VRFID) {
	if s.log == nil {
		return
	}
	s.log.Info(msg, zap.Stringer("prefix", prefix), zap.Uint32("vrf", uint32(vrf)))
}

// resyncFamilies is every family Resync walks. MPLS routes are included
// since a transit LSP's install can time out exactly like an IP route's.
var resyncFamilies = [3]addr.Family{addr.FamilyIPv4, addr.FamilyIPv6, addr.FamilyMPLS}

// Resync implements spec.md §5/§7's periodic reconciliation sweep: a
// talk() timeout "leaves the target route in an indeterminate state —
// the next resync sweep (C6 reconciliation) corrects it." It walks every
// selected RE across vrfs and re-applies any whose active nexthops
// haven't all reached FIB, retrying a dropped ack or transient kernel
// error without an operator having to resubmit the route. Returns the
// number of REs it resynced.
func (s *Synchronizer) Resync(ribs *rib.RIB, vrfs []addr.VRFID) int {
	resynced := 0
	for _, vrf := range vrfs {
		for _, family := range resyncFamilies {
			ribs.Walk(vrf, family, func(n *rib.Node) {
				re := n.Selected()
				if re == nil || !needsResync(re) {
					return
				}
				s.apply(n.Prefix, vrf, re, true)
				resynced++
			})
		}
	}
	return resynced
}

// needsResync reports whether re has an ACTIVE nexthop the kernel hasn't
// acknowledged as installed yet.
func needsResync(re *rib.RE) bool {
	for _, nh := range re.Nexthops {
		if nh.HasFlag(addr.NexthopActive) && !nh.HasFlag(addr.NexthopFIB) {
			return true
		}
	}
	return false
}
