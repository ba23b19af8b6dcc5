package zconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routeflow/zfibd/internal/addr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "zfibd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "allow_delete: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.MultipathNum)
	require.True(t, cfg.AllowDelete)
}

func TestLoadParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
multipath_num: 8
resolve_via_default_v4: true
resolve_via_default_v6: false
allow_delete: false
import_table_ranges:
  - low: 100
    high: 199
    distance: 250
vrfs:
  - name: red
    id: 1
    table: 100
static_routes:
  - vrf: 0
    prefix: 10.0.0.0/8
    gateway: 192.0.2.1
    tag: 7
    distance: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.MultipathNum)
	require.True(t, cfg.ResolveViaDefault4)
	require.False(t, cfg.ResolveViaDefault6)

	ranges := cfg.TableRanges()
	require.Len(t, ranges, 1)
	require.EqualValues(t, 100, ranges[0].Low)
	require.EqualValues(t, 199, ranges[0].High)
	require.EqualValues(t, 250, ranges[0].Distance)

	table, ok := cfg.VRFTable(addr.VRFID(1))
	require.True(t, ok)
	require.Equal(t, addr.TableID(100), table)

	_, ok = cfg.VRFTable(addr.VRFID(2))
	require.False(t, ok)

	require.Len(t, cfg.StaticRoutes, 1)
	require.Equal(t, "10.0.0.0/8", cfg.StaticRoutes[0].Prefix)
	require.Equal(t, "192.0.2.1", cfg.StaticRoutes[0].Gateway)
	require.EqualValues(t, 7, cfg.StaticRoutes[0].Tag)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
