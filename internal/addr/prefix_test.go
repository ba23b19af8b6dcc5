package addr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIPv4MasksHostBits(t *testing.T) {
	ip := netip.MustParseAddr("10.0.0.123")
	p, err := NewIPv4(ip, 8)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0", p.Addr().String())
	require.Equal(t, 8, p.Bits())
}

func TestNewIPv4RejectsOutOfRangeLength(t *testing.T) {
	_, err := NewIPv4(netip.MustParseAddr("10.0.0.0"), 33)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNewMPLSRejectsOverflow(t *testing.T) {
	_, err := NewMPLS(MaxMPLSLabel + 1)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestContainsLongestPrefixMatch(t *testing.T) {
	outer, err := NewIPv4(netip.MustParseAddr("10.0.0.0"), 8)
	require.NoError(t, err)
	inner, err := NewIPv4(netip.MustParseAddr("10.1.2.0"), 24)
	require.NoError(t, err)
	require.True(t, outer.Contains(inner))
	require.False(t, inner.Contains(outer))
}

func TestContainsMPLSIsExactLabelMatch(t *testing.T) {
	a, err := NewMPLS(100)
	require.NoError(t, err)
	b, err := NewMPLS(100)
	require.NoError(t, err)
	c, err := NewMPLS(200)
	require.NoError(t, err)
	require.True(t, a.Contains(b))
	require.False(t, a.Contains(c))
}

func TestIsDefault(t *testing.T) {
	def, err := NewIPv4(netip.MustParseAddr("0.0.0.0"), 0)
	require.NoError(t, err)
	require.True(t, def.IsDefault())
}

func TestLessOrdersByFamilyThenLength(t *testing.T) {
	v4, _ := NewIPv4(netip.MustParseAddr("10.0.0.0"), 8)
	v6, _ := NewIPv6(netip.MustParseAddr("2001:db8::"), 32)
	require.True(t, v4.Less(v6))
}

func TestNexthopEffectiveSrcPrefersRmapOverride(t *testing.T) {
	hint := netip.MustParseAddr("192.0.2.1")
	override := netip.MustParseAddr("192.0.2.2")
	n := NewV4Gateway(netip.MustParseAddr("192.0.2.254"))
	n.SrcHint = hint
	require.Equal(t, hint, n.EffectiveSrc())
	n.RmapSrc = override
	require.Equal(t, override, n.EffectiveSrc())
}

func TestNexthopIsRecursiveOnlyForGatewayOnlyKinds(t *testing.T) {
	require.True(t, NewV4Gateway(netip.MustParseAddr("192.0.2.1")).IsRecursive())
	require.False(t, NewV4GatewayIfindex(netip.MustParseAddr("192.0.2.1"), 3).IsRecursive())
	require.False(t, NewIfindexNexthop(3).IsRecursive())
	require.False(t, NewBlackhole().IsRecursive())
}

func TestEtherAddrRoundTrip(t *testing.T) {
	e, err := ParseEtherAddr("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", e.String())
}
