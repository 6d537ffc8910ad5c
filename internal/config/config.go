package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths and the environment prefix.
	AppName = "wdglance"

	// DefaultAddress is the listening address of the server.
	DefaultAddress = "127.0.0.1"

	// DefaultPort is the listening port of the server.
	DefaultPort = 3000

	// DefaultUpstreamTimeout bounds a single call to a corpus backend.
	// Frequency queries on large corpora may take tens of seconds.
	DefaultUpstreamTimeout = 60 * time.Second

	// DefaultQueryTimeout bounds a whole dashboard query (all tiles).
	DefaultQueryTimeout = 2 * time.Minute

	// DefaultWaitForTimeout is used when a tile waits for another tile
	// and has no waitForTimeoutSecs configured.
	DefaultWaitForTimeout = 60 * time.Second

	// DefaultCacheTTL is the lifetime of cached backend responses.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultUserAgent identifies wdglance in backend requests.
	DefaultUserAgent = "wdglance/1.0 (+https://github.com/nao1215/wdglance)"

	// DefaultBatchSize is the number of queries of a batch running at once.
	DefaultBatchSize = 4

	// DefaultServerConfFile and DefaultClientConfFile are looked up when
	// no explicit path is given.
	DefaultServerConfFile = "conf.json"
	DefaultClientConfFile = "wdglance.json"
)

// Config holds the runtime options of a wdglance process: the values
// coming from CLI flags plus the loaded configuration files.
type Config struct {
	// ServerConfPath points to the server configuration (conf.json).
	ServerConfPath string

	// ClientConfPath points to the tile and layout configuration (wdglance.json).
	ClientConfPath string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches the log output to JSON records.
	JSONLog bool

	// UpstreamTimeout bounds a single backend call.
	UpstreamTimeout time.Duration

	// QueryTimeout bounds a whole dashboard query.
	QueryTimeout time.Duration

	// DBDir is the directory of the response cache database.
	// Defaults to the XDG data directory.
	DBDir string

	// UseCache enables the backend response cache.
	UseCache bool

	// JSONReport and MarkdownReport select the output of the query command.
	// They are mutually exclusive; with neither set a text report is written.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output path of the query command report.
	// An empty value means stdout.
	ReportFile string

	// Lang overrides the default query language of the server configuration.
	Lang string

	// UILang selects the language of source info and number formatting.
	UILang string

	// BatchFile lists one query per line. "-" reads stdin.
	BatchFile string

	// BatchSize is the number of batch queries running at once.
	BatchSize int

	// Words are the searched words of a single query.
	Words []string

	// Server is the loaded server configuration.
	Server *ServerConf

	// Client is the loaded tile and layout configuration.
	Client *ClientConf
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		UpstreamTimeout: DefaultUpstreamTimeout,
		QueryTimeout:    DefaultQueryTimeout,
		BatchSize:       DefaultBatchSize,
		DBDir:           XDGDataDir(),
		UseCache:        true,
	}
}

// XDGDataDir returns the data directory of wdglance (cache database).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the configuration directory of wdglance.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the runtime options and the loaded configuration files.
// The first problem found is returned.
func (c *Config) Validate() error {
	if c.UpstreamTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.QueryTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseCache && c.DBDir == "" {
		return ErrNoCacheDir
	}
	if c.Server != nil {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}
	if c.Client != nil {
		if err := c.Client.Validate(); err != nil {
			return err
		}
	}
	return nil
}
