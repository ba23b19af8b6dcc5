package wireproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeLabelStackSetsBOSOnLast(t *testing.T) {
	out := EncodeLabelStack([]uint32{100, 200})
	require.Len(t, out, 8)

	labels, err := DecodeLabelStack(out)
	require.NoError(t, err)
	require.Equal(t, []uint32{100, 200}, labels)
}

func TestEncodeLabelStackStripsImplicitNull(t *testing.T) {
	out := EncodeLabelStack([]uint32{LabelImplicitNull})
	require.Empty(t, out)
}

func TestEncodeLabelStackStripsImplicitNullFromMiddle(t *testing.T) {
	// An implicit-null never legitimately appears mid-stack, but
	// stripping must not corrupt the remaining entries' BOS bit.
	out := EncodeLabelStack([]uint32{100, LabelImplicitNull, 200})
	labels, err := DecodeLabelStack(out)
	require.NoError(t, err)
	require.Equal(t, []uint32{100, 200}, labels)
}

func TestLabelEntryPacksBitsPerSpec(t *testing.T) {
	v := labelEntry(200, 0, true, 0)
	label, _, bos, _ := unpackLabelEntry(v)
	require.Equal(t, uint32(200), label)
	require.True(t, bos)
}
