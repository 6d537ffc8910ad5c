package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wdglance/internal/api/factory"
	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/database"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/tile"
	"github.com/nao1215/wdglance/internal/upstream"
)

// QueryLogger stores finished queries. *database.DB implements it.
type QueryLogger interface {
	LogQuery(ctx context.Context, rec *database.QueryRecord) (int64, error)
}

// Dashboard is a running set of tiles.
type Dashboard struct {
	conf   *config.ClientConf
	bus    *bus.Bus
	tiles  []*tile.Model
	byName map[string]*tile.Model
	logger *slog.Logger

	lang         string
	freqDBs      freqdb.Registry
	minLemmaFreq int
	queryLog     QueryLogger
	queryTimeout time.Duration
	now          func() time.Time

	nextID  atomic.Uint64
	queryMu sync.Mutex

	cancel  context.CancelFunc
	runners errgroup.Group
	closed  atomic.Bool
}

// Option configures a Dashboard.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	client       *upstream.Client
	lang         string
	freqDBs      freqdb.Registry
	minLemmaFreq int
	queryLog     QueryLogger
	queryTimeout time.Duration
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClient sets the HTTP client shared by all backend APIs.
func WithClient(c *upstream.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithLang sets the default query language. It also selects the word
// distribution database used by tiles with the local apiType.
func WithLang(lang string) Option {
	return func(o *options) {
		o.lang = lang
	}
}

// WithFreqDBs sets the word distribution databases used to match
// searched words to lemmas. Lemmas below minLemmaFreq are ignored.
func WithFreqDBs(r freqdb.Registry, minLemmaFreq int) Option {
	return func(o *options) {
		o.freqDBs = r
		o.minLemmaFreq = minLemmaFreq
	}
}

// WithQueryLog stores every finished query.
func WithQueryLog(l QueryLogger) Option {
	return func(o *options) {
		o.queryLog = l
	}
}

// WithQueryTimeout bounds a whole query. Zero means no limit.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.queryTimeout = d
	}
}

// New validates the configuration, creates all active tiles and starts
// them. Configuration errors (unknown tile or API types, broken
// dependencies) are reported here, before any query runs.
func New(conf *config.ClientConf, opts ...Option) (*Dashboard, error) {
	o := &options{queryTimeout: config.DefaultQueryTimeout}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		conf:         conf,
		bus:          bus.New(bus.WithLogger(o.logger)),
		byName:       make(map[string]*tile.Model),
		logger:       o.logger,
		lang:         o.lang,
		freqDBs:      o.freqDBs,
		minLemmaFreq: o.minLemmaFreq,
		queryLog:     o.queryLog,
		queryTimeout: o.queryTimeout,
		now:          time.Now,
	}

	deps := tile.Deps{
		Bus:    d.bus,
		API:    factory.Deps{Client: o.client, FreqDB: o.freqDBs[o.lang]},
		Logger: o.logger,
	}
	for _, name := range conf.ActiveTiles() {
		m, err := tile.New(name, conf.Tiles[name], deps)
		if err != nil {
			d.bus.Close()
			return nil, err
		}
		d.tiles = append(d.tiles, m)
		d.byName[name] = m
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	for _, m := range d.tiles {
		d.runners.Go(func() error {
			return m.Run(ctx)
		})
	}
	d.logger.Debug("dashboard started", "tiles", len(d.tiles), "lang", d.lang)
	return d, nil
}

// Close stops all tiles and waits for them to exit.
func (d *Dashboard) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.cancel()
	err := d.runners.Wait()
	d.bus.Close()
	return err
}

// Layout returns the tile groups of the single word query layout.
func (d *Dashboard) Layout() config.LayoutConf {
	return d.conf.Layouts.Single
}

// TileInfo describes a tile of the dashboard.
type TileInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Label   string `json:"label,omitempty"`
	WaitFor string `json:"waitFor,omitempty"`
}

// Tiles describes the tiles ordered by name.
func (d *Dashboard) Tiles() []TileInfo {
	ans := make([]TileInfo, len(d.tiles))
	for i, m := range d.tiles {
		ans[i] = TileInfo{
			Name:    m.Name(),
			Kind:    m.Kind(),
			Label:   d.conf.Tiles[m.Name()].Label,
			WaitFor: m.WaitFor(),
		}
	}
	return ans
}

// Snapshots returns the current state of all tiles ordered by name.
func (d *Dashboard) Snapshots() []tile.Snapshot {
	ans := make([]tile.Snapshot, len(d.tiles))
	for i, m := range d.tiles {
		ans[i] = m.Snapshot()
	}
	return ans
}

// Snapshot returns the current state of one tile.
func (d *Dashboard) Snapshot(name string) (tile.Snapshot, error) {
	m, ok := d.byName[name]
	if !ok {
		return tile.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownTile, name)
	}
	return m.Snapshot(), nil
}

// Dispatch sends a UI action (paging, tweak or alternative view mode)
// to a tile. The tile publishes TileStateChanged once applied.
func (d *Dashboard) Dispatch(name bus.ActionName, tileName string) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if !slices.Contains(bus.UIActions, name) {
		return fmt.Errorf("%w: %q", ErrNotUIAction, name)
	}
	if _, ok := d.byName[tileName]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTile, tileName)
	}
	d.bus.Publish(bus.Action{Name: name, Tile: tileName})
	return nil
}

// Subscribe returns a subscription to the dashboard bus. The caller
// must close it.
func (d *Dashboard) Subscribe(pred bus.Predicate) *bus.Subscription {
	return d.bus.Subscribe(pred)
}

// SourceInfo describes the data source of a tile.
func (d *Dashboard) SourceInfo(ctx context.Context, tileName, uiLang string) (*model.SourceDetails, error) {
	m, ok := d.byName[tileName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTile, tileName)
	}
	return m.SourceInfo(ctx, uiLang)
}

// QueryMatches returns the lemmas a word may belong to, the most
// relevant one (highest ARF) marked as current.
func (d *Dashboard) QueryMatches(ctx context.Context, lang, word string) ([]model.QueryMatch, error) {
	if lang == "" {
		lang = d.lang
	}
	db, err := d.freqDBs.Get(lang)
	if err != nil {
		return nil, err
	}
	matches, err := db.FindQueryMatches(ctx, word, d.minLemmaFreq)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		matches[0].IsCurrent = true
	}
	return matches, nil
}

// matchWord pairs a searched word with its current lemma. Words unknown
// to the database (or queried without one) are matched to themselves.
func (d *Dashboard) matchWord(ctx context.Context, lang, word string) (tile.QueryWord, error) {
	matches, err := d.QueryMatches(ctx, lang, word)
	switch {
	case errors.Is(err, freqdb.ErrNoDatabase):
		return tile.NewQueryWord(word), nil
	case err != nil:
		return tile.QueryWord{}, fmt.Errorf("failed to match %q: %w", word, err)
	case len(matches) == 0:
		return tile.NewQueryWord(word), nil
	}
	return tile.QueryWord{Value: word, Match: matches[0]}, nil
}
