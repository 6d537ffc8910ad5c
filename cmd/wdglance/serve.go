package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wdglance/internal/server"
)

// cachePurgeInterval is how often expired cache entries are removed
// while the server runs.
const cachePurgeInterval = time.Hour

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wdglance HTTP and WebSocket server",
		Long: `Serve starts the HTTP server answering dashboard queries.

Endpoints (relative to urlRootPath):
  GET  /conf/wdglance.json        tile and layout configuration
  GET  /conf/tiles                active tiles
  GET  /api/query?q=<word>        run a query, JSON result of all tiles
  GET  /api/query-matches?q=<w>   lemmas matching a word
  GET  /ws/query?q=<word>         WebSocket stream of tile events
  GET  /<tile>/source-info        corpus information of a tile
  POST /<tile>/authenticate       exchange the token for a backend session
  GET  /healthz                   health check

Examples:
  # Serve with conf.json and wdglance.json from the current directory
  wdglance serve

  # Override the listening port and log JSON records
  wdglance serve --port 8080 --json-log`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("address", "", "Listening address (overrides conf.json)")
	cmd.Flags().IntP("port", "p", 0, "Listening port (overrides conf.json)")
	cmd.Flags().DurationP("timeout", "t", 0, "Timeout of a whole query (default 2m)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.Server.Address = addr
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout != 0 {
		cfg.QueryTimeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Server.Upstream.ProxyAddress != "" {
		if err := a.client.CheckProxy(ctx).Error(); err != nil {
			return fmt.Errorf("proxy %s: %w", cfg.Server.Upstream.ProxyAddress, err)
		}
		logger.Info("backend calls use proxy", "address", cfg.Server.Upstream.ProxyAddress)
	}

	srv, err := server.New(cfg.Server, cfg.Client, a.newDashboard,
		server.WithLogger(logger),
		server.WithUpstream(a.client),
	)
	if err != nil {
		return err
	}
	defer srv.Close()

	if a.db != nil {
		go a.purgeCache(ctx, cachePurgeInterval)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wdglance listening on %s\n", cfg.Server.ListenAddr())
	return srv.ListenAndServe(ctx)
}

// purgeCache removes expired cache entries now and then every interval
// until ctx ends.
func (a *app) purgeCache(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := a.db.PurgeExpired(ctx)
		if err != nil {
			a.logger.Warn("failed to purge cache", "error", err)
		} else if n > 0 {
			a.logger.Info("purged expired cache entries", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
