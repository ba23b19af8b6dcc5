package wireproto

import "encoding/binary"

// AttrType identifies a TLV attribute. The concrete values (RTA_DST,
// RTA_GATEWAY, RTA_MULTIPATH, ...) live in golang.org/x/sys/unix and are
// re-exported as typed constants in constants.go so callers never juggle
// bare uint16s.
type AttrType uint16

const attrHeaderLen = 4 // u16 len, u16 type

// Builder appends TLV attributes to an in-progress message body. NestBegin
// reserves space for an attribute whose payload is itself a TLV sequence
// (ENCAP, MULTIPATH's per-hop subtrees) and NestEnd back-patches its
// length once the nested attributes have been written, per spec.md §4.1.
type Builder struct {
	buf   []byte
	nests []int // stack of offsets where the nested attribute's length field lives
}

// NewBuilder creates a Builder seeded with buf (typically the fixed
// route/neighbor body already marshaled).
func NewBuilder(buf []byte) *Builder {
	return &Builder{buf: buf}
}

// Bytes returns the accumulated buffer. It is an error to call this with
// an unbalanced NestBegin/NestEnd pair; callers that construct well-formed
// requests never do so.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// PutBytes appends a raw-payload attribute, padding it to the 4-byte
// alignment boundary.
func (b *Builder) PutBytes(t AttrType, payload []byte) {
	total := attrHeaderLen + len(payload)
	header := make([]byte, attrHeaderLen)
	binary.LittleEndian.PutUint16(header[0:2], uint16(total))
	binary.LittleEndian.PutUint16(header[2:4], uint16(t))
	b.buf = append(b.buf, header...)
	b.buf = append(b.buf, payload...)
	if pad := align4(total) - total; pad > 0 {
		b.buf = append(b.buf, make([]byte, pad)...)
	}
}

// PutUint8 appends a single-byte attribute.
func (b *Builder) PutUint8(t AttrType, v uint8) {
	b.PutBytes(t, []byte{v})
}

// PutUint32 appends a 4-byte little-endian attribute (netlink attributes
// are host-byte-order, which on every platform this daemon targets is
// little-endian).
func (b *Builder) PutUint32(t AttrType, v uint32) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, v)
	b.PutBytes(t, payload)
}

// PutUint16 appends a 2-byte little-endian attribute (ENCAP_TYPE's width).
func (b *Builder) PutUint16(t AttrType, v uint16) {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, v)
	b.PutBytes(t, payload)
}

// PutAddr appends a raw network-order address payload (4 bytes for IPv4,
// 16 for IPv6) — addresses are the one field netlink keeps big-endian
// regardless of host order, matching RTA_DST/RTA_GATEWAY semantics.
func (b *Builder) PutAddr(t AttrType, addr []byte) {
	b.PutBytes(t, addr)
}

// NestBegin opens a nested attribute and returns the offset of its
// header; NestEnd takes no argument and closes the innermost open nest.
// The length field is written as a placeholder and back-patched by
// NestEnd once the nested payload's size is known.
func (b *Builder) NestBegin(t AttrType) int {
	offset := len(b.buf)
	header := make([]byte, attrHeaderLen)
	binary.LittleEndian.PutUint16(header[2:4], uint16(t))
	b.buf = append(b.buf, header...)
	b.nests = append(b.nests, offset)
	return offset
}

// NestEnd closes the most recently opened nest, padding its payload to
// the 4-byte boundary and writing the final length into the placeholder
// NestBegin reserved.
func (b *Builder) NestEnd() {
	n := len(b.nests) - 1
	offset := b.nests[n]
	b.nests = b.nests[:n]
	total := len(b.buf) - offset
	if pad := align4(total) - total; pad > 0 {
		b.buf = append(b.buf, make([]byte, pad)...)
	}
	binary.LittleEndian.PutUint16(b.buf[offset:offset+2], uint16(total))
}

// Attr is one decoded attribute: its type and raw, unpadded payload.
type Attr struct {
	Type AttrType
	Data []byte
}

// AttrMap indexes decoded attributes by type. Attributes may legally
// repeat (e.g. a MULTIPATH's nexthop records each carry their own RTA_VIA
// sibling), so every type maps to a slice in arrival order.
type AttrMap map[AttrType][]Attr

// Get returns the first attribute of type t, if any.
func (m AttrMap) Get(t AttrType) ([]byte, bool) {
	if attrs := m[t]; len(attrs) > 0 {
		return attrs[0].Data, true
	}
	return nil, false
}

// All returns every attribute of type t, in arrival order.
func (m AttrMap) All(t AttrType) []Attr {
	return m[t]
}

// ParseAttrs walks buf as a sequence of 4-byte-aligned TLV attributes and
// returns them indexed by type. It does not recurse into nested
// attributes (ENCAP, per-hop MULTIPATH subtrees) — callers that know an
// attribute nests call ParseAttrs again on its Data.
func ParseAttrs(buf []byte) (AttrMap, error) {
	out := make(AttrMap)
	for len(buf) > 0 {
		if len(buf) < attrHeaderLen {
			return nil, malformed("attribute header truncated: %d bytes left", len(buf))
		}
		length := int(binary.LittleEndian.Uint16(buf[0:2]))
		typ := AttrType(binary.LittleEndian.Uint16(buf[2:4]))
		if length < attrHeaderLen {
			return nil, malformed("attribute %d has impossible length %d", typ, length)
		}
		if length > len(buf) {
			return nil, malformed("attribute %d overruns message: len=%d remaining=%d", typ, length, len(buf))
		}
		out[typ] = append(out[typ], Attr{Type: typ, Data: buf[attrHeaderLen:length]})
		consumed := align4(length)
		if consumed > len(buf) {
			// A short final attribute is not padded; stop rather than
			// walking off the end.
			consumed = length
		}
		buf = buf[consumed:]
	}
	return out, nil
}
