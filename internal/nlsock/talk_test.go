package nlsock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseErrorCodeZeroMeansAck(t *testing.T) {
	require.Equal(t, 0, parseErrorCode([]byte{0, 0, 0, 0}))
}

func TestParseErrorCodeNegatesKernelErrno(t *testing.T) {
	// the kernel encodes -EEXIST (-17) little-endian in the first 4 bytes
	buf := []byte{0xef, 0xff, 0xff, 0xff} // -17 as int32 LE
	require.Equal(t, 17, parseErrorCode(buf))
}

func TestParseErrorCodeShortBufferIsZero(t *testing.T) {
	require.Equal(t, 0, parseErrorCode([]byte{1, 2}))
}

func TestDeadlineFromZeroIsNoDeadline(t *testing.T) {
	require.True(t, deadlineFrom(0).IsZero())
}

func TestDeadlineFromPositiveIsInFuture(t *testing.T) {
	d := deadlineFrom(time.Second)
	require.True(t, d.After(time.Now()))
}
