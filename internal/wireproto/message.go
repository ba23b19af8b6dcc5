package wireproto

// RouteMessage is the logical request/response this package builds and
// parses: the Type/Flags a caller (internal/nlsock) copies into a
// netlink.Header, plus the RouteBody and attributes that make up
// netlink.Message.Data. spec.md §4.1's "build(req) -> bytes" and
// "parse(bytes) -> Message" operations are BuildRoute/ParseRoute below,
// scoped to this Data payload — the surrounding nlmsghdr framing
// (total length, sequence, sender) is github.com/mdlayher/netlink's job,
// not duplicated here.
type RouteMessage struct {
	Type  uint16
	Flags uint16
	Body  RouteBody
	Attrs AttrMap
}

// BuildRoute renders body and the attributes appended through fill into
// the Data payload for a route message, aligning every attribute per
// spec.md §4.1.
func BuildRoute(body RouteBody, fill func(b *Builder)) []byte {
	b := NewBuilder(body.marshal())
	if fill != nil {
		fill(b)
	}
	return b.Bytes()
}

// ParseRoute decodes a route message's Data payload into its fixed body
// and attribute map. A truncated body or an attribute whose length
// over/underruns the buffer fails with MalformedError, spec.md §4.1.
func ParseRoute(data []byte) (RouteBody, AttrMap, error) {
	body, err := unmarshalRouteBody(data)
	if err != nil {
		return RouteBody{}, nil, err
	}
	attrs, err := ParseAttrs(data[routeBodyLen:])
	if err != nil {
		return RouteBody{}, nil, err
	}
	return body, attrs, nil
}

// BuildNeighbor renders a neighbor/FDB message's Data payload, spec.md
// §4.8.
func BuildNeighbor(body NeighborBody, fill func(b *Builder)) []byte {
	b := NewBuilder(body.marshal())
	if fill != nil {
		fill(b)
	}
	return b.Bytes()
}

// ParseNeighbor decodes a neighbor/FDB message's Data payload.
func ParseNeighbor(data []byte) (NeighborBody, AttrMap, error) {
	body, err := unmarshalNeighborBody(data)
	if err != nil {
		return NeighborBody{}, nil, err
	}
	attrs, err := ParseAttrs(data[neighborBodyLen:])
	if err != nil {
		return NeighborBody{}, nil, err
	}
	return body, attrs, nil
}

// BuildLink renders an RTM_GETLINK dump request's Data payload. Callers
// doing a startup link dump pass a zeroed LinkBody{} and no fill func.
func BuildLink(body LinkBody, fill func(b *Builder)) []byte {
	b := NewBuilder(body.marshal())
	if fill != nil {
		fill(b)
	}
	return b.Bytes()
}

// ParseLink decodes an RTM_NEWLINK/DELLINK message's Data payload into its
// fixed ifinfomsg body and attribute map.
func ParseLink(data []byte) (LinkBody, AttrMap, error) {
	body, err := unmarshalLinkBody(data)
	if err != nil {
		return LinkBody{}, nil, err
	}
	attrs, err := ParseAttrs(data[linkBodyLen:])
	if err != nil {
		return LinkBody{}, nil, err
	}
	return body, attrs, nil
}

// LinkKind reads IFLA_LINKINFO/IFLA_INFO_KIND out of a link message's
// attributes, e.g. "bridge" or "vxlan". Returns "" when absent.
func LinkKind(attrs AttrMap) string {
	nested, ok := attrs.Get(AttrLinkInfo)
	if !ok {
		return ""
	}
	inner, err := ParseAttrs(nested)
	if err != nil {
		return ""
	}
	kind, ok := inner.Get(AttrInfoKind)
	if !ok {
		return ""
	}
	return string(bytesTrimNull(kind))
}

func bytesTrimNull(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// EncodeTable appends spec.md §6's table-id attribute: inline in the
// fixed body when id < 256 (the caller is expected to have already set
// RouteBody.Table to uint8(id) in that case) or, for ids that don't fit
// in a byte, as the extended RTA_TABLE u32 attribute.
func EncodeTable(b *Builder, id uint32) {
	if id < 256 {
		return
	}
	b.PutUint32(AttrTable, id)
}

// EncodeMTU wraps the effective MTU into a METRICS subtree, spec.md
// §4.6: "optional METRICS subtree carrying the effective MTU".
func EncodeMTU(b *Builder, mtu uint32) {
	if mtu == 0 {
		return
	}
	b.NestBegin(AttrMetrics)
	b.PutUint32(AttrMTU, mtu)
	b.NestEnd()
}
