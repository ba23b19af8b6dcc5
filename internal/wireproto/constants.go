package wireproto

import "golang.org/x/sys/unix"

// Attribute type constants. Where the kernel's rtnetlink ABI already
// assigns one (RTA_DST, RTA_GATEWAY, ...), we reuse golang.org/x/sys/unix
// rather than re-declaring the numbers, per SPEC_FULL.md's domain-stack
// wiring.
const (
	AttrDst       = AttrType(unix.RTA_DST)
	AttrSrc       = AttrType(unix.RTA_SRC)
	AttrIif       = AttrType(unix.RTA_IIF)
	AttrOif       = AttrType(unix.RTA_OIF)
	AttrGateway   = AttrType(unix.RTA_GATEWAY)
	AttrPriority  = AttrType(unix.RTA_PRIORITY)
	AttrPrefSrc   = AttrType(unix.RTA_PREFSRC)
	AttrMetrics   = AttrType(unix.RTA_METRICS)
	AttrMultipath = AttrType(unix.RTA_MULTIPATH)
	AttrFlow      = AttrType(unix.RTA_FLOW)
	AttrTable     = AttrType(unix.RTA_TABLE)
	AttrVia       = AttrType(unix.RTA_VIA)
	AttrNewDst    = AttrType(unix.RTA_NEWDST)
	AttrEncap     = AttrType(unix.RTA_ENCAP)
	AttrEncapType = AttrType(unix.RTA_ENCAP_TYPE)
	AttrMark      = AttrType(unix.RTA_MARK)

	// AttrMTU is RTA_METRICS's one nested member this daemon sets,
	// spec.md §4.6's "METRICS subtree carrying the effective MTU".
	AttrMTU = AttrType(unix.RTAX_MTU)

	// Neighbor/FDB attributes, spec.md §4.8.
	AttrLLAddr = AttrType(unix.NDA_LLADDR)
	AttrNDADst = AttrType(unix.NDA_DST)
	AttrMaster = AttrType(unix.NDA_MASTER)
	AttrVlan   = AttrType(unix.NDA_VLAN)

	// Link attributes, SPEC_FULL.md's supplemented link-state ingest
	// (internal/iface.Registry's population path).
	AttrIfname   = AttrType(unix.IFLA_IFNAME)
	AttrLinkMTU  = AttrType(unix.IFLA_MTU)
	AttrLinkMaster = AttrType(unix.IFLA_MASTER)
	AttrLinkInfo = AttrType(unix.IFLA_LINKINFO)
	AttrInfoKind = AttrType(unix.IFLA_INFO_KIND)
)

// Message types, spec.md §6. RTM_NEWROUTE/DELROUTE/GETROUTE and their
// neighbor counterparts come straight from x/sys/unix.
const (
	MsgNewRoute = uint16(unix.RTM_NEWROUTE)
	MsgDelRoute = uint16(unix.RTM_DELROUTE)
	MsgGetRoute = uint16(unix.RTM_GETROUTE)

	MsgNewNeighbor = uint16(unix.RTM_NEWNEIGH)
	MsgDelNeighbor = uint16(unix.RTM_DELNEIGH)
	MsgGetNeighbor = uint16(unix.RTM_GETNEIGH)

	MsgNewLink = uint16(unix.RTM_NEWLINK)
	MsgDelLink = uint16(unix.RTM_DELLINK)
	MsgGetLink = uint16(unix.RTM_GETLINK)

	MsgDone = uint16(unix.NLMSG_DONE)
	MsgErr  = uint16(unix.NLMSG_ERROR)
)

// LinkFlagUp is ifinfomsg's IFF_UP bit, spec.md's link-state supplement:
// an interface is administratively up when this flag is set.
const LinkFlagUp uint32 = uint32(unix.IFF_UP)

// Request flags, spec.md §4.6 step "Header: command ADD or DEL, flags
// CREATE|REQUEST (plus REPLACE when updating)".
const (
	FlagRequest = uint16(unix.NLM_F_REQUEST)
	FlagCreate  = uint16(unix.NLM_F_CREATE)
	FlagExcl    = uint16(unix.NLM_F_EXCL)
	FlagReplace = uint16(unix.NLM_F_REPLACE)
	FlagAck     = uint16(unix.NLM_F_ACK)
	FlagDump    = uint16(unix.NLM_F_DUMP | unix.NLM_F_REQUEST)
	FlagMulti   = uint16(unix.NLM_F_MULTI)
)

// Address families.
const (
	FamilyIPv4   uint8 = unix.AF_INET
	FamilyIPv6   uint8 = unix.AF_INET6
	FamilyMPLS   uint8 = unix.AF_MPLS
	FamilyBridge uint8 = unix.AF_BRIDGE
)

// Scope and route type, spec.md §4.6.
const (
	ScopeUniverse uint8 = unix.RT_SCOPE_UNIVERSE
	ScopeLink     uint8 = unix.RT_SCOPE_LINK

	TypeUnicast     uint8 = unix.RTN_UNICAST
	TypeBlackhole   uint8 = unix.RTN_BLACKHOLE
	TypeUnreachable uint8 = unix.RTN_UNREACHABLE
	// TypeMulticast tags an (S,G) multicast-route-cache notification,
	// spec.md §4.7's "multicast mroute notifications".
	TypeMulticast uint8 = unix.RTN_MULTICAST
)

// Route flags, spec.md §4.6's ONLINK nexthop flag and §4.7's CLONED
// filter.
const (
	RouteFlagOnlink  uint32 = unix.RTNH_F_ONLINK
	RouteFlagCloned  uint32 = unix.RTM_F_CLONED
	RouteFlagReplace uint32 = unix.RTM_F_REPLACE
)

// Ingest-only protocol ids, spec.md §4.7's "ignore ... KERNEL-origin ...
// messages" filter and the original's REDIRECT skip (an ICMP-redirect
// learned route, never one this daemon should import).
const (
	ProtoKernel   uint8 = unix.RTPROT_KERNEL
	ProtoRedirect uint8 = unix.RTPROT_REDIRECT
)

// Neighbor states, spec.md §9's supplemented ARP/ND ingest: only
// REACHABLE/STALE entries are usable FDB/ARP-suppression sources.
const (
	NeighStateReachable uint16 = unix.NUD_REACHABLE
	NeighStateStale     uint16 = unix.NUD_STALE
	NeighStatePermanent uint16 = unix.NUD_PERMANENT
)

// AttrMPLSIPTunnelDst is the lwtunnel MPLS encap's one nested attribute
// (MPLS_IPTUNNEL_DST in the kernel's uapi/linux/mpls_iptunnel.h),
// carrying the label stack inside an ENCAP subtree.
const AttrMPLSIPTunnelDst = AttrType(1)

// EncapTypeMPLS is RTA_ENCAP_TYPE's value for an MPLS tunnel encap,
// spec.md §4.6's "ENCAP-TYPE sibling specifying MPLS tunnel encap".
// The kernel's lwtunnel_encap_types enum assigns this constant; it is
// not exposed by golang.org/x/sys/unix, so it is named here directly.
const EncapTypeMPLS uint16 = 1

// ONLinkGateway is the RFC 3927 link-local trick address substituted for
// a cross-family gateway (a v6 link-local nexthop advertised for a v4
// route — "BGP unnumbered"), spec.md §4.1/§4.6.
var ONLinkGateway = [4]byte{169, 254, 0, 1}
