// Package zconf loads the daemon's process-wide read-only configuration,
// the context struct spec.md §5 calls for ("pass them through a context
// struct rather than module-level globals") rather than scattering
// package-level config globals the way the teacher's old/ tree did.
package zconf

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/wireproto"
)

// VRFBinding maps a configured VRF name/id to the kernel table backing
// its main RIB, spec.md §6's "per-VRF table-id bindings".
type VRFBinding struct {
	Name      string       `koanf:"name"`
	ID        addr.VRFID   `koanf:"id"`
	MainTable addr.TableID `koanf:"table"`
}

// ImportRange mirrors wireproto.TableRange in koanf's tag shape; config
// parses into this and then converts, keeping the wire package free of
// struct tags it has no other reason to carry.
type ImportRange struct {
	Low      uint32 `koanf:"low"`
	High     uint32 `koanf:"high"`
	Distance uint8  `koanf:"distance"`
}

// StaticRouteEntry is a configured static route in its raw, string-typed
// wire shape (CIDR/gateway text), spec.md §3's Static Route: "prefix,
// type (v4 gateway / v6 gateway / ifindex / blackhole), optional
// ifindex, tag, administrative distance, VRF id." Left unparsed here —
// cmd/zfibd converts these into addr.Prefix/addr.Nexthop at startup,
// since addr's constructors validate shape (masking, family) that a
// config loader has no business reimplementing.
type StaticRouteEntry struct {
	VRF       addr.VRFID `koanf:"vrf"`
	Prefix    string     `koanf:"prefix"`
	Gateway   string     `koanf:"gateway"`
	Ifindex   uint32     `koanf:"ifindex"`
	Blackhole bool       `koanf:"blackhole"`
	Tag       uint32     `koanf:"tag"`
	Distance  uint8      `koanf:"distance"`
}

// Config holds every process-wide knob spec.md §5 names: multipath_num,
// resolve_via_default (v4/v6), allow_delete, the zebra-valid kernel table
// import ranges, and per-VRF table-id bindings. Nothing about the VTY/CLI
// grammar lives here, per spec.md §1's non-goal.
type Config struct {
	MultipathNum       int                `koanf:"multipath_num"`
	ResolveViaDefault4 bool               `koanf:"resolve_via_default_v4"`
	ResolveViaDefault6 bool               `koanf:"resolve_via_default_v6"`
	AllowDelete        bool               `koanf:"allow_delete"`
	ImportRanges       []ImportRange      `koanf:"import_table_ranges"`
	VRFs               []VRFBinding       `koanf:"vrfs"`
	StaticRoutes       []StaticRouteEntry `koanf:"static_routes"`
}

// defaults mirrors the teacher's speaker.go default-value pattern: zero
// values that aren't safe defaults get filled in before merge.
func defaults() Config {
	return Config{
		MultipathNum: 1,
	}
}

// Load reads path as YAML via koanf's file provider and parser, merged
// over defaults(). Grounded on pobradovic08-route-beacon-ri and
// dantte-lp-gobfd's koanf-based daemon config loaders.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := defaults()
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("zconf: load %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("zconf: unmarshal %s: %w", path, err)
	}
	if cfg.MultipathNum < 1 {
		cfg.MultipathNum = 1
	}
	return cfg, nil
}

// TableRanges converts the configured import ranges to wireproto's shape
// for internal/ingest's ValidKernelTable lookup.
func (c Config) TableRanges() []wireproto.TableRange {
	out := make([]wireproto.TableRange, len(c.ImportRanges))
	for i, r := range c.ImportRanges {
		out[i] = wireproto.TableRange{Low: r.Low, High: r.High, Distance: r.Distance}
	}
	return out
}

// VRFTable returns the kernel table bound to vrf, if one was configured.
func (c Config) VRFTable(vrf addr.VRFID) (addr.TableID, bool) {
	for _, v := range c.VRFs {
		if v.ID == vrf {
			return v.MainTable, true
		}
	}
	return 0, false
}
