package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/database"
	"github.com/nao1215/wdglance/internal/freqdb"
	wlog "github.com/nao1215/wdglance/internal/log"
	"github.com/nao1215/wdglance/internal/upstream"
)

// app holds the resources shared by the dashboards of one process.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *database.DB
	freqDBs freqdb.Registry
	client  *upstream.Client
}

// buildConfig creates a Config from the global flags and loads both
// configuration files. Environment variables override the server
// configuration.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.JSONLog, err = flags.GetBool("json-log"); err != nil {
		return nil, err
	}
	if cfg.ServerConfPath, err = flags.GetString("server-conf"); err != nil {
		return nil, err
	}
	if cfg.ClientConfPath, err = flags.GetString("conf"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache

	// A missing conf.json is fine unless it was requested explicitly.
	serverPath := config.FindConfigFile(cfg.ServerConfPath, config.DefaultServerConfFile)
	switch {
	case serverPath != "":
		if cfg.Server, err = config.LoadServerConf(serverPath); err != nil {
			return nil, fmt.Errorf("failed to load server configuration %s: %w", serverPath, err)
		}
	case cfg.ServerConfPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ServerConfPath)
	default:
		cfg.Server = config.NewServerConf()
	}
	cfg.Server.ApplyEnv(config.NewEnv())
	cfg.UpstreamTimeout = cfg.Server.UpstreamTimeout()

	clientPath := config.FindConfigFile(cfg.ClientConfPath, config.DefaultClientConfFile)
	if clientPath == "" {
		name := cfg.ClientConfPath
		if name == "" {
			name = config.DefaultClientConfFile
		}
		return nil, fmt.Errorf("%w: %s (run 'wdglance init' to create one)", config.ErrConfigNotFound, name)
	}
	if cfg.Client, err = config.LoadClientConf(clientPath); err != nil {
		return nil, fmt.Errorf("failed to load tile configuration %s: %w", clientPath, err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger based on the log flags.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return wlog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return wlog.NewSecureLogger(w, cfg.Verbose)
}

// newApp opens the databases and creates the backend client. The caller
// must Close the returned app.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.DBDir != "" {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
		logger.Debug("database opened", "path", db.Path())
	}

	sources := make(map[string]freqdb.Source, len(cfg.Server.FreqDB.Databases))
	for lang, db := range cfg.Server.FreqDB.Databases {
		sources[lang] = freqdb.Source{Path: db.Path, CorpusSize: db.CorpusSize}
	}
	reg, err := freqdb.OpenRegistry(sources)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to open word database: %w", err)
	}
	a.freqDBs = reg

	opts := []upstream.Option{
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithUserAgent(cfg.Server.Upstream.UserAgent),
		upstream.WithHeaders(cfg.Server.Upstream.Headers),
		upstream.WithLogger(logger),
	}
	if p := cfg.Server.Upstream.ProxyAddress; p != "" {
		opts = append(opts, upstream.WithProxy(p))
	}
	if ttl := cfg.Server.CacheTTL(); cfg.UseCache && a.db != nil && ttl > 0 {
		opts = append(opts, upstream.WithCache(a.db, ttl))
	}
	if a.client, err = upstream.New(opts...); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return a, nil
}

// queryLang returns the flag value or the configured default.
func (a *app) queryLang() string {
	if a.cfg.Lang != "" {
		return a.cfg.Lang
	}
	return a.cfg.Server.QueryLang
}

// newDashboard creates a dashboard sharing the resources of the app.
func (a *app) newDashboard() (*dashboard.Dashboard, error) {
	opts := []dashboard.Option{
		dashboard.WithLogger(a.logger),
		dashboard.WithClient(a.client),
		dashboard.WithLang(a.queryLang()),
		dashboard.WithFreqDBs(a.freqDBs, a.cfg.Server.FreqDB.MinLemmaFreq),
		dashboard.WithQueryTimeout(a.cfg.QueryTimeout),
	}
	if a.db != nil {
		opts = append(opts, dashboard.WithQueryLog(a.db))
	}
	return dashboard.New(a.cfg.Client, opts...)
}

// Close releases the databases.
func (a *app) Close() error {
	var errs []error
	if a.freqDBs != nil {
		errs = append(errs, a.freqDBs.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
