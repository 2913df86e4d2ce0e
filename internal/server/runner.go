package server

import (
	"context"
	"log/slog"
	"net"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jroosing/triedns/internal/config"
	"github.com/jroosing/triedns/internal/helpers"
	"github.com/jroosing/triedns/internal/resolvers"
	"github.com/jroosing/triedns/internal/zone"
)

// StopTimeout bounds how long shutdown waits for in-flight requests.
const StopTimeout = 5 * time.Second

// Runner orchestrates the DNS server startup, configuration, and shutdown.
type Runner struct {
	logger *slog.Logger
	stats  *Stats
}

// NewRunner creates a new server runner. stats may be shared with the
// management API; nil disables statistics.
func NewRunner(logger *slog.Logger, stats *Stats) *Runner {
	return &Runner{logger: logger, stats: stats}
}

// RunWithContext starts the DNS server and blocks until ctx is canceled or a
// receive loop fails.
//
// Server lifecycle:
//  1. Configure runtime (GOMAXPROCS based on workers setting)
//  2. Build the resolver chain (zone, then forwarding if upstreams are set)
//  3. Bind the UDP sockets
//  4. Serve until ctx is done
//  5. Close the sockets and wait up to StopTimeout for in-flight requests
func (r *Runner) RunWithContext(ctx context.Context, cfg *config.Config, store *zone.Store) error {
	desiredProcs := r.configureRuntime(cfg)
	maxConc := calculateMaxConcurrency(cfg, desiredProcs)
	upPool := calculateUpstreamPoolSize(cfg, maxConc)

	resolver := BuildResolver(cfg, store, upPool)
	defer resolver.Close()

	access, err := NewAccessList(cfg.Access.Allow)
	if err != nil {
		return err
	}
	limits := rateLimitSettings(cfg)

	h := &QueryHandler{
		Logger:   r.logger,
		Resolver: resolver,
		Timeout:  cfg.Server.HandlerTimeoutDuration(),
		Stats:    r.stats,
	}
	udp := &UDPServer{
		Logger:           r.logger,
		Handler:          h,
		Limiter:          NewRateLimiter(limits),
		Access:           access,
		Stats:            r.stats,
		Sockets:          cfg.Server.Sockets,
		WorkersPerSocket: maxConc,
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	conns, err := udp.Listen(addr)
	if err != nil {
		return err
	}
	r.logStartup(cfg, conns[0].LocalAddr().String(), store, maxConc, upPool, limits)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return udp.Serve(gctx, conns) })
	g.Go(func() error {
		<-gctx.Done()
		return udp.Stop(StopTimeout)
	})
	err = g.Wait()
	if r.logger != nil {
		r.logger.Info("dns stopped", "err", err)
	}
	return err
}

// BuildResolver creates the resolver chain. Without upstreams the zone
// answers authoritatively, reporting NXDOMAIN for misses. With upstreams any
// local miss forwards the whole request.
func BuildResolver(cfg *config.Config, store *zone.Store, upPool int) resolvers.Resolver {
	opts := []resolvers.ZoneOption{resolvers.WithTTL(helpers.ClampIntToInt32(cfg.Zone.TTL))}
	if cfg.Zone.EchoQuestions {
		opts = append(opts, resolvers.WithEchoQuestions())
	}
	if len(cfg.Upstream.Servers) == 0 {
		return resolvers.NewZoneResolver(store, opts...)
	}

	opts = append(opts, resolvers.WithFallthrough())
	fwd := resolvers.NewForwardingResolver(
		cfg.Upstream.Servers,
		upPool,
		cfg.Upstream.TimeoutDuration(),
		cfg.Upstream.MaxRetries,
	)
	return &resolvers.Chained{Resolvers: []resolvers.Resolver{
		resolvers.NewZoneResolver(store, opts...),
		fwd,
	}}
}

// configureRuntime sets GOMAXPROCS based on worker configuration.
// Workers can reduce but never increase parallelism beyond the default.
func (r *Runner) configureRuntime(cfg *config.Config) int {
	baseProcs := max(runtime.GOMAXPROCS(0), 1)
	desiredProcs := baseProcs

	if cfg.Server.Workers.Mode == config.WorkersFixed {
		w := max(cfg.Server.Workers.Value, 1)
		desiredProcs = min(w, desiredProcs)
	}

	prev := runtime.GOMAXPROCS(desiredProcs)
	actual := runtime.GOMAXPROCS(0)
	if r.logger != nil {
		r.logger.Info("runtime", "gomaxprocs", actual, "prev", prev, "base", baseProcs)
	}
	return actual
}

// calculateMaxConcurrency determines the maximum concurrent handlers per socket.
func calculateMaxConcurrency(cfg *config.Config, procs int) int {
	if cfg.Server.MaxConcurrency > 0 {
		return cfg.Server.MaxConcurrency
	}
	return helpers.ClampInt(max(procs, 1)*256, 1, 2048)
}

// calculateUpstreamPoolSize determines the idle socket pool per upstream.
func calculateUpstreamPoolSize(cfg *config.Config, maxConc int) int {
	if cfg.Upstream.PoolSize > 0 {
		return cfg.Upstream.PoolSize
	}
	return helpers.ClampInt(maxConc, resolvers.DefaultUDPPoolSize, 1024)
}

func rateLimitSettings(cfg *config.Config) RateLimitSettings {
	return RateLimitSettings{
		CleanupSeconds:   cfg.RateLimit.CleanupSeconds,
		MaxIPEntries:     cfg.RateLimit.MaxIPEntries,
		MaxPrefixEntries: cfg.RateLimit.MaxPrefixEntries,
		GlobalQPS:        cfg.RateLimit.GlobalQPS,
		GlobalBurst:      cfg.RateLimit.GlobalBurst,
		PrefixQPS:        cfg.RateLimit.PrefixQPS,
		PrefixBurst:      cfg.RateLimit.PrefixBurst,
		IPQPS:            cfg.RateLimit.IPQPS,
		IPBurst:          cfg.RateLimit.IPBurst,
	}
}

// logStartup logs server configuration at startup.
func (r *Runner) logStartup(
	cfg *config.Config,
	addr string,
	store *zone.Store,
	maxConc, upPool int,
	limits RateLimitSettings,
) {
	if r.logger == nil {
		return
	}
	mode := "authoritative"
	if len(cfg.Upstream.Servers) > 0 {
		mode = "forwarding"
	}
	r.logger.Info(
		"dns listening",
		"addr", addr,
		"sockets", max(cfg.Server.Sockets, 1),
		"mode", mode,
		"zone_entries", store.Len(),
		"upstreams", cfg.Upstream.Servers,
		"max_concurrency", maxConc,
		"upstream_pool", upPool,
		"access_rules", len(cfg.Access.Allow),
	)
	r.logger.Info("rate limits", "limits", FormatRateLimitsLog(limits))
}
