package loopd

import (
	"context"

	"github.com/mdlayher/netlink"

	"github.com/routeflow/zfibd/internal/iface"
	"github.com/routeflow/zfibd/internal/nlsock"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// SeedLinks issues a one-shot RTM_GETLINK dump over conn and populates
// links from the response, so the registry IsUsable/MTU/IsVxlan queries
// C5/C6/C8 depend on are correct before the first route/neighbor event
// arrives. Called once per VRF socket at startup; live RTM_NEWLINK/DELLINK
// notifications (internal/loopd.Loop.dispatch) keep the registry current
// afterward.
func SeedLinks(ctx context.Context, conn *nlsock.Conn, links *iface.Registry) error {
	req := nlsock.NewRequest(wireproto.MsgGetLink, wireproto.FlagDump, wireproto.BuildLink(wireproto.LinkBody{}, nil))
	return conn.Dump(ctx, req, func(m netlink.Message) {
		if err := links.ApplyLinkMessage(uint16(m.Header.Type), m.Data); err != nil {
			return
		}
	})
}
