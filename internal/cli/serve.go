package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhuston/livingmap/internal/config"
	"github.com/dhuston/livingmap/internal/metrics"
	"github.com/dhuston/livingmap/internal/server"
	"github.com/dhuston/livingmap/pkg/cache"
	"github.com/dhuston/livingmap/pkg/layout"
	"github.com/dhuston/livingmap/pkg/pipeline"
	"github.com/dhuston/livingmap/pkg/store"
)

// serveCommand creates the serve command running the HTTP layout API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout API",
		Long: `Run the HTTP layout API.

Serves POST /api/v1/layout and /api/v1/render, plus /healthz and /metrics.
Configuration comes from a TOML file (--config); flags override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to livingmap.toml")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	layoutCache, err := c.buildCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	snapshots, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("initialize snapshot store: %w", err)
	}
	defer func() { _ = snapshots.Close(context.Background()) }()

	m := metrics.New()
	m.Register()

	sched := layout.NewScheduler(cfg.Server.LayoutTimeout.Std(), c.Logger)
	runner := pipeline.NewRunner(layoutCache, nil, snapshots, sched, c.Logger)
	defer runner.Close()

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		Runner:         runner,
		Snapshots:      snapshots,
		Logger:         c.Logger,
		MetricsHandler: m.Handler(),
		LayoutDefaults: cfg.Settings(),
	})
	return srv.Run(ctx, cfg.Server.ShutdownTimeout.Std())
}

// buildCache constructs the configured cache backend.
func (c *CLI) buildCache(ctx context.Context, cfg config.CacheC) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return cache.NewNullCache(), nil
	case config.CacheBackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Pass,
			DB:       cfg.DB,
		})
	case config.CacheBackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// buildStore constructs the configured snapshot store. Without a Mongo URI
// snapshots live in process memory and vanish on restart.
func buildStore(ctx context.Context, cfg config.Store) (store.SnapshotStore, error) {
	if cfg.MongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoOptions{
		URI:        cfg.MongoURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	})
}
