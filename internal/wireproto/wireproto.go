// Package wireproto implements the kernel control message wire format
// described in spec.md §4.1/§6: a fixed route body followed by a
// sequence of 4-byte-aligned, optionally nested TLV attributes.
//
// This package owns the body+attribute payload that rides inside a
// netlink message (github.com/mdlayher/netlink's Message.Data); the
// surrounding header (total length, type, flags, sequence, sender) maps
// directly onto that library's Header and is filled in by
// internal/nlsock, which assigns Sequence/PID while this package decides
// Type/Flags per spec.md §4.6.
package wireproto

import (
	"encoding/binary"
	"fmt"
)

// MalformedError reports a wire message or attribute that failed to
// parse: a truncated buffer, an overrunning attribute length, or a
// length that does not round-trip through the 4-byte alignment rule.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("wireproto: malformed message: %s", e.Reason)
}

func malformed(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// align4 rounds n up to the next multiple of 4, the attribute padding
// rule spec.md §4.1 specifies.
func align4(n int) int {
	return (n + 3) &^ 3
}

// RouteBody is the address-family-specific fixed body that follows the
// netlink header on a route message: spec.md §6's
// "u8 family, u8 dst_len, u8 src_len, u8 tos, u8 table, u8 protocol,
// u8 scope, u8 type, u32 flags".
type RouteBody struct {
	Family   uint8
	DstLen   uint8
	SrcLen   uint8
	TOS      uint8
	Table    uint8
	Protocol uint8
	Scope    uint8
	Type     uint8
	Flags    uint32
}

const routeBodyLen = 12

func (b RouteBody) marshal() []byte {
	out := make([]byte, routeBodyLen)
	out[0] = b.Family
	out[1] = b.DstLen
	out[2] = b.SrcLen
	out[3] = b.TOS
	out[4] = b.Table
	out[5] = b.Protocol
	out[6] = b.Scope
	out[7] = b.Type
	binary.BigEndian.PutUint32(out[8:12], b.Flags)
	return out
}

func unmarshalRouteBody(buf []byte) (RouteBody, error) {
	if len(buf) < routeBodyLen {
		return RouteBody{}, malformed("route body truncated: have %d want %d", len(buf), routeBodyLen)
	}
	return RouteBody{
		Family:   buf[0],
		DstLen:   buf[1],
		SrcLen:   buf[2],
		TOS:      buf[3],
		Table:    buf[4],
		Protocol: buf[5],
		Scope:    buf[6],
		Type:     buf[7],
		Flags:    binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// NeighborBody is the fixed body for a neighbor/FDB message (spec.md
// §4.8): family, ifindex, state, flags, type. It shares the attribute
// tail with RouteBody but has a different fixed layout.
type NeighborBody struct {
	Family  uint8
	Ifindex uint32
	State   uint16
	Flags   uint8
	Type    uint8
}

const neighborBodyLen = 12

func (b NeighborBody) marshal() []byte {
	out := make([]byte, neighborBodyLen)
	out[0] = b.Family
	binary.BigEndian.PutUint32(out[4:8], b.Ifindex)
	binary.BigEndian.PutUint16(out[8:10], b.State)
	out[10] = b.Flags
	out[11] = b.Type
	return out
}

func unmarshalNeighborBody(buf []byte) (NeighborBody, error) {
	if len(buf) < neighborBodyLen {
		return NeighborBody{}, malformed("neighbor body truncated: have %d want %d", len(buf), neighborBodyLen)
	}
	return NeighborBody{
		Family:  buf[0],
		Ifindex: binary.BigEndian.Uint32(buf[4:8]),
		State:   binary.BigEndian.Uint16(buf[8:10]),
		Flags:   buf[10],
		Type:    buf[11],
	}, nil
}

// LinkBody is ifinfomsg's fixed body (RTM_NEWLINK/DELLINK), SPEC_FULL.md's
// supplemented link-state ingest feeding internal/iface.Registry.
type LinkBody struct {
	Family uint8
	Type   uint16 // ARPHRD_*
	Index  uint32
	Flags  uint32
	Change uint32
}

const linkBodyLen = 16

func (b LinkBody) marshal() []byte {
	out := make([]byte, linkBodyLen)
	out[0] = b.Family
	binary.BigEndian.PutUint16(out[2:4], b.Type)
	binary.BigEndian.PutUint32(out[4:8], b.Index)
	binary.BigEndian.PutUint32(out[8:12], b.Flags)
	binary.BigEndian.PutUint32(out[12:16], b.Change)
	return out
}

func unmarshalLinkBody(buf []byte) (LinkBody, error) {
	if len(buf) < linkBodyLen {
		return LinkBody{}, malformed("link body truncated: have %d want %d", len(buf), linkBodyLen)
	}
	return LinkBody{
		Family: buf[0],
		Type:   binary.BigEndian.Uint16(buf[2:4]),
		Index:  binary.BigEndian.Uint32(buf[4:8]),
		Flags:  binary.BigEndian.Uint32(buf[8:12]),
		Change: binary.BigEndian.Uint32(buf[12:16]),
	}, nil
}
