package zlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsProductionLogger(t *testing.T) {
	log, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Sync()
}

func TestNewBuildsDebugLogger(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Sync()
}

func TestFieldHelpers(t *testing.T) {
	require.Equal(t, "vrf", VRF(1).Key)
	require.Equal(t, "prefix", Prefix("10.0.0.0/8").Key)
	require.Equal(t, "seq", Seq(1).Key)
	require.Equal(t, "msg_type", MsgType(1).Key)
	require.Equal(t, "proto", Proto(1).Key)
}
