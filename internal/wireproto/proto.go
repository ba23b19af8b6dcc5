package wireproto

import "golang.org/x/sys/unix"

// Origin identifies which daemon subsystem originated a route entry,
// spec.md §3's "origin type".
type Origin uint8

const (
	OriginConnected Origin = iota
	OriginKernel
	OriginStatic
	OriginBGP
	OriginOSPF
	OriginISIS
	OriginRIP
	OriginRIPng
)

// Daemon-owned kernel protocol ids, spec.md §6's protocol id map. These
// are zebra's own high-numbered allocations out of the kernel's
// RTPROT_* space, not generic constants x/sys/unix carries, so they are
// defined here rather than borrowed from the unix package.
const (
	ProtoBGP     uint8 = 186
	ProtoISIS    uint8 = 187
	ProtoOSPF    uint8 = 188
	ProtoRIP     uint8 = 189
	ProtoRIPng   uint8 = 190
	ProtoStatic  uint8 = unix.RTPROT_STATIC
	ProtoDefault uint8 = unix.RTPROT_ZEBRA // "Default/other" in spec.md's table
)

// protoByOrigin maps an Origin to the kernel protocol id the daemon
// stamps on routes it installs.
var protoByOrigin = map[Origin]uint8{
	OriginStatic: ProtoStatic,
	OriginBGP:    ProtoBGP,
	OriginOSPF:   ProtoOSPF,
	OriginISIS:   ProtoISIS,
	OriginRIP:    ProtoRIP,
	OriginRIPng:  ProtoRIPng,
}

// ProtoForOrigin returns the kernel protocol id the daemon installs
// routes of the given origin with. Connected and kernel origins never
// originate an install, so they fall back to ProtoDefault.
func ProtoForOrigin(o Origin) uint8 {
	if p, ok := protoByOrigin[o]; ok {
		return p
	}
	return ProtoDefault
}

// selfProtocols is the set of kernel protocol ids the daemon recognizes
// as its own, used by C7 ingest to decide SELFROUTE.
var selfProtocols = map[uint8]bool{
	ProtoBGP:     true,
	ProtoISIS:    true,
	ProtoOSPF:    true,
	ProtoRIP:     true,
	ProtoRIPng:   true,
	ProtoStatic:  true,
	ProtoDefault: true,
}

// IsSelfOriginated reports whether a wire protocol id matches one of the
// daemon's own, per spec.md §6: "A route is considered self-originated
// when its wire protocol id equals any of the above."
func IsSelfOriginated(proto uint8) bool {
	return selfProtocols[proto]
}

// originByProto is protoByOrigin inverted, used by C7 ingest to tag a
// kernel-origin RE with the protocol tag a wire proto id maps back to.
var originByProto = map[uint8]Origin{
	ProtoBGP:    OriginBGP,
	ProtoOSPF:   OriginOSPF,
	ProtoISIS:   OriginISIS,
	ProtoRIP:    OriginRIP,
	ProtoRIPng:  OriginRIPng,
	ProtoStatic: OriginStatic,
}

// OriginForProto returns the Origin tag a kernel wire protocol id maps
// to. A proto id the daemon doesn't recognize as one of its own (an
// external routing daemon's allocation) maps to OriginKernel, spec.md
// §4.7's "construct a kernel-origin RE" for anything not self-owned.
func OriginForProto(proto uint8) Origin {
	if o, ok := originByProto[proto]; ok {
		return o
	}
	return OriginKernel
}

// Special kernel table ids, spec.md §6 "Special tables".
const (
	TableMain    uint8 = 254
	TableDefault uint8 = 253
	TableLocal   uint8 = 255
	// TableUnspec (0) means "use the RTA_TABLE u32 attribute instead of
	// the inline 8-bit field", spec.md §6 "Table mapping".
	TableUnspec uint8 = 0
)

// TableRange is one entry of the user-configured "ip import-table"
// allow list (SPEC_FULL.md's "is_zebra_valid_kernel_table" supplement),
// optionally overriding the administrative distance imported routes in
// that range get.
type TableRange struct {
	Low, High uint32
	Distance  uint8 // 0 means "use the route's own distance"
}

// ValidKernelTable reports whether id falls in one of the configured
// import ranges, matching the original's is_zebra_valid_kernel_table.
func ValidKernelTable(id uint32, ranges []TableRange) (TableRange, bool) {
	for _, r := range ranges {
		if id >= r.Low && id <= r.High {
			return r, true
		}
	}
	return TableRange{}, false
}
