// Package main is zfibd's daemon entrypoint. spec.md §1 explicitly
// excludes the operator CLI/VTY grammar ("a large flat table of command
// variants... trivial shell over the RIB API"); this file is only the
// process shell spec.md §6 still requires: parse a config path, build
// every component, run the event loop, and exit with the documented
// code. Grounded on aldrin-isaac-newtron and dantte-lp-gobfd, both
// cobra-fronted network daemons in the retrieval pack, replacing the
// teacher's bare cmd/main.go sequential dial-and-run shape.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routeflow/zfibd/internal/addr"
	"github.com/routeflow/zfibd/internal/bridge"
	"github.com/routeflow/zfibd/internal/fibsync"
	"github.com/routeflow/zfibd/internal/iface"
	"github.com/routeflow/zfibd/internal/ingest"
	"github.com/routeflow/zfibd/internal/loopd"
	"github.com/routeflow/zfibd/internal/resolve"
	"github.com/routeflow/zfibd/internal/rib"
	"github.com/routeflow/zfibd/internal/static"
	"github.com/routeflow/zfibd/internal/zconf"
	"github.com/routeflow/zfibd/internal/zlog"
	"github.com/routeflow/zfibd/internal/zmetrics"
)

var (
	configPath string
	vrfFilter  string
	debugLog   bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zfibd",
		Short: "Kernel FIB synchronization core",
		Long: "zfibd reconciles an in-memory RIB with the kernel forwarding " +
			"table over a netlink control socket.",
		RunE: runDaemon,
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/zfibd/zfibd.yaml", "path to the YAML configuration file")
	cmd.Flags().StringVar(&vrfFilter, "vrf", "", "only run the named VRF (default: all configured VRFs)")
	cmd.Flags().BoolVar(&debugLog, "debug", false, "enable debug-level logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runDaemon builds every component and runs the event loop until
// SIGINT/SIGTERM. Per spec.md §6: 0 on a clean shutdown, non-zero on a
// fatal socket error at startup.
func runDaemon(cmd *cobra.Command, args []string) error {
	log, err := zlog.New(debugLog)
	if err != nil {
		return fmt.Errorf("zfibd: build logger: %w", err)
	}
	defer log.Sync()

	cfg, err := zconf.Load(configPath)
	if err != nil {
		log.Error("zfibd: failed to load config", zap.Error(err))
		return err
	}

	metrics := zmetrics.New(prometheus.DefaultRegisterer)

	links := iface.New()
	conns := loopd.NewVRFConns(log)
	defer conns.Close()

	sync_ := fibsync.New(conns, links, log, cfg.MultipathNum)
	sync_.SetMetrics(metrics)
	ribs := buildRIB(cfg, sync_)

	policy := resolve.Policy{
		ResolveViaDefaultV4: cfg.ResolveViaDefault4,
		ResolveViaDefaultV6: cfg.ResolveViaDefault6,
	}
	resolver := resolve.New(ribs, links, policy)
	resolver.SetMetrics(metrics)

	statics, err := buildStaticTable(cfg)
	if err != nil {
		log.Error("zfibd: invalid static route entry", zap.Error(err))
		return err
	}
	static.Reinject(statics, resolver, ribs)

	ing := ingest.New(ribs, log, cfg.TableRanges(), cfg.AllowDelete)

	programmer := bridge.NewKernelProgrammer(conns, log)
	adj := bridge.New(links, programmer, log)
	adj.SetMetrics(metrics)

	vrfs, err := vrfsToRun(cfg, vrfFilter)
	if err != nil {
		log.Error("zfibd: invalid --vrf filter", zap.Error(err))
		return err
	}

	loop := loopd.New(log, conns, links, ing, adj, sync_, ribs, metrics, vrfs)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, vrf := range vrfs {
		conn, err := conns.Conn(vrf)
		if err != nil {
			log.Error("zfibd: dial failed", zap.Uint32("vrf", uint32(vrf)), zap.Error(err))
			return err
		}
		if err := loopd.SeedLinks(ctx, conn, links); err != nil {
			log.Warn("zfibd: link dump failed, starting with an empty registry",
				zap.Uint32("vrf", uint32(vrf)), zap.Error(err))
		}
	}

	log.Info("zfibd: starting event loop", zap.Int("vrfs", len(vrfs)))
	if err := loop.Run(ctx); err != nil {
		log.Error("zfibd: event loop exited with error", zap.Error(err))
		return err
	}
	log.Info("zfibd: clean shutdown")
	return nil
}

// buildRIB registers every configured VRF binding up front, spec.md §3's
// "the default VRF always exists" plus the configured extras.
func buildRIB(cfg zconf.Config, installer *fibsync.Synchronizer) *rib.RIB {
	ribs := rib.New(installer)
	for _, v := range cfg.VRFs {
		ribs.VRF(v.ID, v.Name, v.MainTable)
	}
	return ribs
}

// buildStaticTable converts zconf's raw string-typed static route
// entries into internal/static.Route values, parsing CIDR/gateway text
// through internal/addr's validating constructors.
func buildStaticTable(cfg zconf.Config) (*static.Table, error) {
	tbl := static.New()
	for _, e := range cfg.StaticRoutes {
		cidr, err := netip.ParsePrefix(e.Prefix)
		if err != nil {
			return nil, fmt.Errorf("static route %q: %w", e.Prefix, err)
		}
		var (
			family addr.Family
			prefix addr.Prefix
		)
		if cidr.Addr().Is4() {
			family = addr.FamilyIPv4
			prefix, err = addr.NewIPv4(cidr.Addr(), cidr.Bits())
		} else {
			family = addr.FamilyIPv6
			prefix, err = addr.NewIPv6(cidr.Addr(), cidr.Bits())
		}
		if err != nil {
			return nil, fmt.Errorf("static route %q: %w", e.Prefix, err)
		}

		nh, err := buildStaticNexthop(e, family)
		if err != nil {
			return nil, fmt.Errorf("static route %q: %w", e.Prefix, err)
		}

		tbl.Set(static.Route{
			VRF:      e.VRF,
			Family:   family,
			Prefix:   prefix,
			Nexthop:  nh,
			Tag:      e.Tag,
			Distance: e.Distance,
		})
	}
	return tbl, nil
}

// buildStaticNexthop picks spec.md §3's Static Route nexthop variant:
// blackhole, bare ifindex, or a gateway (optionally with ifindex) in the
// route's own family.
func buildStaticNexthop(e zconf.StaticRouteEntry, family addr.Family) (addr.Nexthop, error) {
	switch {
	case e.Blackhole:
		return addr.NewBlackhole(), nil
	case e.Gateway == "":
		return addr.NewIfindexNexthop(e.Ifindex), nil
	}
	gw, err := netip.ParseAddr(e.Gateway)
	if err != nil {
		return addr.Nexthop{}, fmt.Errorf("gateway %q: %w", e.Gateway, err)
	}
	switch {
	case family == addr.FamilyIPv4 && e.Ifindex != 0:
		return addr.NewV4GatewayIfindex(gw, e.Ifindex), nil
	case family == addr.FamilyIPv4:
		return addr.NewV4Gateway(gw), nil
	case e.Ifindex != 0:
		return addr.NewV6GatewayIfindex(gw, e.Ifindex), nil
	default:
		return addr.NewV6Gateway(gw), nil
	}
}

// vrfsToRun resolves the --vrf flag to a concrete VRF id list: empty
// means "every configured VRF plus the default", a name must match one
// of cfg.VRFs.
func vrfsToRun(cfg zconf.Config, name string) ([]addr.VRFID, error) {
	if name == "" {
		out := []addr.VRFID{addr.DefaultVRF}
		for _, v := range cfg.VRFs {
			out = append(out, v.ID)
		}
		return out, nil
	}
	for _, v := range cfg.VRFs {
		if v.Name == name {
			return []addr.VRFID{v.ID}, nil
		}
	}
	return nil, fmt.Errorf("no configured vrf named %q", name)
}
