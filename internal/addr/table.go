package addr

// TableID identifies a kernel routing table. It is a thin wrapper so
// call sites read table.ID rather than a bare uint32; the well-known
// values mirror wireproto's kernel-table constants (duplicated rather
// than imported, to keep addr's value types free of the wire layer).
type TableID uint32

const (
	TableUnspec TableID = 0
	TableMain   TableID = 254
	TableDefault TableID = 253
	TableLocal  TableID = 255
)

// VRFID identifies a VRF; 0 is the always-present default VRF.
type VRFID uint32

const DefaultVRF VRFID = 0

// SAFI distinguishes unicast from multicast within a family, spec.md §3.
type SAFI uint8

const (
	SAFIUnicast SAFI = iota
	SAFIMulticast
)
