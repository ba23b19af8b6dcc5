package wireproto

import "encoding/binary"

// GatewayFamily tags which address family a NexthopSpec's gateway bytes
// are in. It is deliberately distinct from wireproto's route-level
// family constants: a nexthop's gateway family can differ from the
// route's own family (the "BGP unnumbered" case spec.md §4.1 and §8
// scenario 4 describe).
type GatewayFamily uint8

const (
	GatewayNone GatewayFamily = iota
	GatewayV4
	GatewayV6
)

// NexthopSpec is the wire-codec's view of one resolved nexthop: plain
// fields, no knowledge of the RIB's recursive-resolution bookkeeping.
// Callers (internal/fibsync) translate an internal/rib Nexthop into one
// of these immediately before encoding.
type NexthopSpec struct {
	Ifindex    uint32
	GatewayFam GatewayFamily
	Gateway    []byte // 4 bytes for GatewayV4, 16 for GatewayV6
	PrefSrc    []byte // optional, same family as the route's destination
	Onlink     bool
	// Weight selects the rtnh_hops field's weighted-ECMP encoding
	// (SPEC_FULL.md's supplemented feature); 0 means "equal weight".
	Weight uint8
}

// crossFamily reports whether nh's gateway family differs from the
// route's own outer family, the "BGP unnumbered" substitution trigger.
func crossFamily(outerFamily uint8, nh NexthopSpec) bool {
	switch nh.GatewayFam {
	case GatewayV4:
		return outerFamily != FamilyIPv4
	case GatewayV6:
		return outerFamily != FamilyIPv6
	default:
		return false
	}
}

// EncodeSingleNexthop appends the GATEWAY/OIF/PREFSRC attribute trio for
// singlepath encoding, spec.md §4.6. When the gateway's family doesn't
// match the route's own family it substitutes the onlink trick address
// per §4.1 rather than emitting a VIA attribute; the install path never
// emits VIA.
func EncodeSingleNexthop(b *Builder, outerFamily uint8, nh NexthopSpec) {
	if crossFamily(outerFamily, nh) {
		b.PutAddr(AttrGateway, ONLinkGateway[:])
	} else if nh.GatewayFam != GatewayNone {
		b.PutAddr(AttrGateway, nh.Gateway)
	}
	if nh.Ifindex != 0 {
		b.PutUint32(AttrOif, nh.Ifindex)
	}
	if len(nh.PrefSrc) > 0 {
		b.PutAddr(AttrPrefSrc, nh.PrefSrc)
	}
}

// EncodeVia appends a VIA attribute carrying a family-tagged gateway,
// spec.md §4.1's encoding for a gateway whose family differs from the
// outer route family. Nothing in this daemon calls it; cross-family
// gateways are installed with the onlink trick address instead.
func EncodeVia(b *Builder, nh NexthopSpec) {
	family := uint16(FamilyIPv4)
	if nh.GatewayFam == GatewayV6 {
		family = uint16(FamilyIPv6)
	}
	payload := make([]byte, 2+len(nh.Gateway))
	binary.LittleEndian.PutUint16(payload[0:2], family)
	copy(payload[2:], nh.Gateway)
	b.PutBytes(AttrVia, payload)
}

const rtnhHeaderLen = 8 // u16 len, u8 flags, u8 hops(pad), u32 ifindex — see note below

// EncodeMultipathRecord appends one rtnh-shaped record to b: spec.md §6
// "Nexthop record inside MULTIPATH: u16 len, u8 flags, u8 hops, u32
// ifindex followed by nested attributes." The weighted-ECMP hops field
// carries nh.Weight-1 (0 when unset), the kernel's native encoding of
// nexthop weight — no separate attribute is needed for it.
func EncodeMultipathRecord(b *Builder, outerFamily uint8, nh NexthopSpec) {
	offset := len(b.Bytes())
	header := make([]byte, rtnhHeaderLen)
	var flags uint8
	if nh.Onlink || crossFamily(outerFamily, nh) {
		flags |= uint8(RouteFlagOnlink)
	}
	header[2] = flags
	if nh.Weight > 0 {
		header[3] = nh.Weight - 1
	}
	binary.LittleEndian.PutUint32(header[4:8], nh.Ifindex)
	b.buf = append(b.buf, header...)

	if crossFamily(outerFamily, nh) {
		b.PutAddr(AttrGateway, ONLinkGateway[:])
	} else if nh.GatewayFam != GatewayNone {
		b.PutAddr(AttrGateway, nh.Gateway)
	}
	if len(nh.PrefSrc) > 0 {
		b.PutAddr(AttrPrefSrc, nh.PrefSrc)
	}

	total := len(b.buf) - offset
	if pad := align4(total) - total; pad > 0 {
		b.buf = append(b.buf, make([]byte, pad)...)
	}
	binary.LittleEndian.PutUint16(b.buf[offset:offset+2], uint16(total))
}

// DecodedNexthopRecord is one parsed rtnh record from a MULTIPATH
// attribute's payload.
type DecodedNexthopRecord struct {
	Ifindex uint32
	Flags   uint8
	Weight  uint8 // hops+1; 1 means "unset/equal weight" was encoded as 0
	Attrs   AttrMap
}

// DecodeMultipath walks a MULTIPATH attribute's payload into its
// constituent rtnh records.
func DecodeMultipath(buf []byte) ([]DecodedNexthopRecord, error) {
	var out []DecodedNexthopRecord
	for len(buf) > 0 {
		if len(buf) < rtnhHeaderLen {
			return nil, malformed("multipath record truncated: %d bytes left", len(buf))
		}
		length := int(binary.LittleEndian.Uint16(buf[0:2]))
		if length < rtnhHeaderLen || length > len(buf) {
			return nil, malformed("multipath record has impossible length %d", length)
		}
		flags := buf[2]
		hops := buf[3]
		ifindex := binary.LittleEndian.Uint32(buf[4:8])
		attrs, err := ParseAttrs(buf[rtnhHeaderLen:length])
		if err != nil {
			return nil, err
		}
		out = append(out, DecodedNexthopRecord{
			Ifindex: ifindex,
			Flags:   flags,
			Weight:  hops + 1,
			Attrs:   attrs,
		})
		buf = buf[align4(length):]
	}
	return out, nil
}

// AreFirstHopsSame implements spec.md §4.6/§9's conservative
// duplicate-first-hop test: an ifindex-less gateway of a given family is
// treated as equal to the same gateway bearing an explicit ifindex, but
// an ifindex-only nexthop is only ever equal to itself. This is by
// design more aggressive than strict equality — the kernel rejects a
// MULTIPATH containing a strict duplicate, so reimplementers must keep
// this behavior rather than tighten it.
func AreFirstHopsSame(a, b NexthopSpec) bool {
	if a.GatewayFam != b.GatewayFam {
		return false
	}
	if a.GatewayFam == GatewayNone {
		return a.Ifindex == b.Ifindex
	}
	return bytesEqual(a.Gateway, b.Gateway)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
