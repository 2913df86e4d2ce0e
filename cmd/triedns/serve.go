package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jroosing/triedns/internal/api"
	"github.com/jroosing/triedns/internal/api/handlers"
	"github.com/jroosing/triedns/internal/config"
	"github.com/jroosing/triedns/internal/database"
	"github.com/jroosing/triedns/internal/logging"
	"github.com/jroosing/triedns/internal/server"
	"github.com/jroosing/triedns/internal/zone"
)

type serveOptions struct {
	host      string
	port      int
	sockets   int
	workers   string
	zoneFile  string
	zoneDB    string
	upstreams []string
	api       bool
	jsonLogs  bool
	debug     bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DNS server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.ResolveConfigPath(root.configPath))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "Override bind host")
	f.IntVar(&opts.port, "port", 0, "Override bind port")
	f.IntVar(&opts.sockets, "sockets", 0, "Override number of receive sockets (SO_REUSEPORT when > 1)")
	f.StringVar(&opts.workers, "workers", "", `Override GOMAXPROCS clamp ("auto" or a number)`)
	f.StringVar(&opts.zoneFile, "zone-file", "", "Zone description file")
	f.StringVar(&opts.zoneDB, "zone-db", "", "Zone SQLite database (takes precedence over --zone-file)")
	f.StringSliceVar(&opts.upstreams, "upstream", nil, "Upstream server HOST[:PORT], repeatable (max 3)")
	f.BoolVar(&opts.api, "api", false, "Enable the management API")
	f.BoolVar(&opts.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

// apply copies the flags the user set onto cfg and revalidates it.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Server.Host = o.host
	}
	if f.Changed("port") {
		cfg.Server.Port = o.port
	}
	if f.Changed("sockets") {
		cfg.Server.Sockets = o.sockets
	}
	if f.Changed("workers") {
		cfg.Server.WorkersRaw = o.workers
	}
	if f.Changed("zone-file") {
		cfg.Zone.File = o.zoneFile
	}
	if f.Changed("zone-db") {
		cfg.Zone.Database = o.zoneDB
	}
	if f.Changed("upstream") {
		cfg.Upstream.Servers = o.upstreams
	}
	if f.Changed("api") {
		cfg.API.Enabled = o.api
	}
	if o.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if o.debug {
		cfg.Logging.Level = "DEBUG"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
		File:             cfg.Logging.File,
		MaxSizeMB:        cfg.Logging.MaxSizeMB,
		MaxBackups:       cfg.Logging.MaxBackups,
		MaxAgeDays:       cfg.Logging.MaxAgeDays,
	})
	logger.Info("TrieDNS starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"sockets", cfg.Server.Sockets,
		"workers", cfg.Server.Workers.String(),
		"upstreams", len(cfg.Upstream.Servers),
	)

	store, db, err := loadStore(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := server.NewStats()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.NewRunner(logger, stats).RunWithContext(gctx, cfg, store)
	})
	if cfg.API.Enabled {
		apiServer := api.New(cfg, handlers.Deps{Store: store, Stats: stats, DB: db}, logger)
		g.Go(func() error { return apiServer.Run(gctx, nil) })
	}
	return g.Wait()
}

// loadStore builds the authoritative store from the configured source.
// The database is returned open so the API can report on it.
func loadStore(cfg *config.Config, logger *slog.Logger) (*zone.Store, *database.DB, error) {
	switch {
	case cfg.Zone.Database != "":
		db, err := database.Open(cfg.Zone.Database)
		if err != nil {
			return nil, nil, err
		}
		entries, err := db.LoadZone()
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to load zone from %s: %w", cfg.Zone.Database, err)
		}
		logger.Info("zone loaded", "source", "database", "path", cfg.Zone.Database, "records", len(entries))
		return zone.Build(entries), db, nil

	case cfg.Zone.File != "":
		entries, err := zone.LoadFile(cfg.Zone.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load zone: %w", err)
		}
		logger.Info("zone loaded", "source", "file", "path", cfg.Zone.File, "records", len(entries))
		return zone.Build(entries), nil, nil
	}

	logger.Warn("no zone configured; every query misses the store")
	return zone.NewStore(), nil, nil
}
