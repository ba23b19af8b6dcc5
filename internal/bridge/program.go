package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/nlsock"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// KernelProgrammer is the real Programmer, building the neighbor-family
// message spec.md §4.8 describes: "{LLADDR, DST = remote VTEP v4 address,
// MASTER = bridge ifindex, VLAN = vlan-aware bridges only}", and
// correlating the response through C2's ack filter (Conn.Talk).
type KernelProgrammer struct {
	conns ConnSource
	log   *zap.Logger
}

// ConnSource hands back the command socket for a VRF, mirroring
// internal/fibsync.ConnSource.
type ConnSource interface {
	Conn(vrf addr.VRFID) (*nlsock.Conn, error)
}

// NewKernelProgrammer builds a KernelProgrammer over conns.
func NewKernelProgrammer(conns ConnSource, log *zap.Logger) *KernelProgrammer {
	return &KernelProgrammer{conns: conns, log: log}
}

var _ Programmer = (*KernelProgrammer)(nil)

// ProgramRemoteMAC installs entry into the kernel bridge FDB.
func (k *KernelProgrammer) ProgramRemoteMAC(entry MACEntry, vlanAware bool) error {
	return k.talk(wireproto.MsgNewNeighbor, wireproto.FlagRequest|wireproto.FlagCreate|wireproto.FlagReplace, entry, vlanAware)
}

// WithdrawRemoteMAC removes entry from the kernel bridge FDB.
func (k *KernelProgrammer) WithdrawRemoteMAC(entry MACEntry, vlanAware bool) error {
	return k.talk(wireproto.MsgDelNeighbor, wireproto.FlagRequest, entry, vlanAware)
}

func (k *KernelProgrammer) talk(msgType, flags uint16, entry MACEntry, vlanAware bool) error {
	body := wireproto.NeighborBody{
		Family:  wireproto.FamilyBridge,
		Ifindex: entry.LearnIfindex,
		State:   wireproto.NeighStateReachable,
	}
	data := wireproto.BuildNeighbor(body, func(b *wireproto.Builder) {
		b.PutBytes(wireproto.AttrLLAddr, entry.MAC[:])
		if entry.RemoteVTEP.IsValid() {
			b.PutAddr(wireproto.AttrNDADst, entry.RemoteVTEP.AsSlice())
		}
		b.PutUint32(wireproto.AttrMaster, entry.BridgeIfindex)
		if vlanAware && entry.VLAN != 0 {
			b.PutUint16(wireproto.AttrVlan, entry.VLAN)
		}
	})
	req := nlsock.NewRequest(msgType, flags, data)

	conn, err := k.conns.Conn(addr.DefaultVRF)
	if err != nil {
		k.log.Warn("bridge: no connection to program remote MAC", zap.Error(err))
		return err
	}
	return conn.Talk(context.Background(), req, nil, nil)
}
