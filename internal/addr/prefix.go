// Package addr holds the pure value types spec.md §3/§4.3 calls the
// Address Model: prefixes, nexthop variants, ethernet addresses, and
// table ids. Equality is bitwise; nothing here talks to a socket or a
// RIB trie.
package addr

import (
	"fmt"
	"net/netip"
)

// Family tags which of the three prefix kinds spec.md §3 describes a
// Prefix holds.
type Family uint8

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyMPLS
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	case FamilyMPLS:
		return "mpls"
	default:
		return "unknown"
	}
}

// MaxMPLSLabel is the largest value a 20-bit MPLS label can hold.
const MaxMPLSLabel = 1<<20 - 1

// Prefix is spec.md §3's tagged union {IPv4(addr, len), IPv6(addr, len),
// MPLS(label)}. The zero value is not a valid Prefix; use one of the
// New* constructors, which enforce the masking invariant ("host bits
// below len are zero after masking").
type Prefix struct {
	family Family
	ip     netip.Addr // set for FamilyIPv4/FamilyIPv6, always masked
	bits   int        // prefix length for IPv4/IPv6
	label  uint32      // set for FamilyMPLS, 20 bits
}

// NewIPv4 builds a masked IPv4 prefix. bits must be 0-32.
func NewIPv4(ip netip.Addr, bits int) (Prefix, error) {
	return newIPPrefix(FamilyIPv4, ip, bits, 32)
}

// NewIPv6 builds a masked IPv6 prefix. bits must be 0-128.
func NewIPv6(ip netip.Addr, bits int) (Prefix, error) {
	return newIPPrefix(FamilyIPv6, ip, bits, 128)
}

func newIPPrefix(family Family, ip netip.Addr, bits, maxBits int) (Prefix, error) {
	if bits < 0 || bits > maxBits {
		return Prefix{}, fmt.Errorf("%w: prefix length %d out of range 0-%d", ErrInvalid, bits, maxBits)
	}
	np, err := ip.Prefix(bits)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	return Prefix{family: family, ip: np.Masked().Addr(), bits: bits}, nil
}

// NewMPLS builds an MPLS label prefix (an exact match on a single 20-bit
// label, spec.md §3).
func NewMPLS(label uint32) (Prefix, error) {
	if label > MaxMPLSLabel {
		return Prefix{}, fmt.Errorf("%w: label %d exceeds 20 bits", ErrInvalid, label)
	}
	return Prefix{family: FamilyMPLS, label: label}, nil
}

// Family reports which variant p holds.
func (p Prefix) Family() Family { return p.family }

// Addr returns the masked address for an IPv4/IPv6 prefix. Calling it on
// an MPLS prefix returns the zero netip.Addr.
func (p Prefix) Addr() netip.Addr { return p.ip }

// Bits returns the prefix length for an IPv4/IPv6 prefix.
func (p Prefix) Bits() int { return p.bits }

// Label returns the MPLS label for an MPLS prefix.
func (p Prefix) Label() uint32 { return p.label }

// Equal reports bitwise equality, spec.md §4.3.
func (p Prefix) Equal(o Prefix) bool {
	if p.family != o.family {
		return false
	}
	if p.family == FamilyMPLS {
		return p.label == o.label
	}
	return p.bits == o.bits && p.ip == o.ip
}

// Less orders prefixes by family first, then within a family by length
// then by bits (MPLS prefixes by label), spec.md §4.3's
// "length-then-bits ordering".
func (p Prefix) Less(o Prefix) bool {
	if p.family != o.family {
		return p.family < o.family
	}
	if p.family == FamilyMPLS {
		return p.label < o.label
	}
	if p.bits != o.bits {
		return p.bits < o.bits
	}
	return p.ip.Less(o.ip)
}

// Contains reports whether candidate's leading p.Bits() bits equal p's,
// spec.md §4.3's prefix-match test. An MPLS prefix is an exact match on
// a single label (there is no length to compare), so Contains degrades
// to label equality for that family rather than always failing — the
// trie's edge lookup relies on this to find/replace an existing MPLS
// node instead of inserting a duplicate one.
func (p Prefix) Contains(candidate Prefix) bool {
	if p.family != candidate.family {
		return false
	}
	if p.family == FamilyMPLS {
		return p.label == candidate.label
	}
	if p.bits > candidate.bits {
		return false
	}
	np, err := candidate.ip.Prefix(p.bits)
	if err != nil {
		return false
	}
	return np.Masked().Addr() == p.ip
}

// IsDefault reports whether p is the zero-length default route for its
// family, spec.md §4.5's resolve-via-default gate.
func (p Prefix) IsDefault() bool {
	return p.family != FamilyMPLS && p.bits == 0
}

func (p Prefix) String() string {
	switch p.family {
	case FamilyMPLS:
		return fmt.Sprintf("mpls/%d", p.label)
	default:
		return fmt.Sprintf("%s/%d", p.ip, p.bits)
	}
}
