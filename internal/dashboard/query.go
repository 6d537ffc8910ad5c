package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/database"
	"github.com/nao1215/wdglance/internal/tile"
)

// Request is a dashboard query.
type Request struct {
	// Words are the searched words. Empty values are ignored.
	Words []string

	// Lang is the language of the words. Empty means the dashboard language.
	Lang string

	// UILang is the user interface language.
	UILang string

	// OnEvent receives the TileDataLoaded and PartialTileDataLoaded events
	// of the query in publication order. It is called from a single
	// goroutine and returns before Query does.
	OnEvent func(Event)
}

// Event is a tile event of a running query.
type Event struct {
	Type     bus.ActionName `json:"type"`
	Tile     string         `json:"tile"`
	QueryID  uint64         `json:"queryId"`
	Error    string         `json:"error,omitempty"`
	Snapshot tile.Snapshot  `json:"snapshot"`
}

// Result is the outcome of a query.
type Result struct {
	QueryID  uint64          `json:"queryId"`
	Query    tile.Query      `json:"query"`
	Started  time.Time       `json:"started"`
	Duration time.Duration   `json:"duration"`
	Tiles    []tile.Snapshot `json:"tiles"`
}

// NumErrors returns the number of failed tiles.
func (r *Result) NumErrors() int {
	n := 0
	for _, s := range r.Tiles {
		if s.Status == tile.StatusError {
			n++
		}
	}
	return n
}

// Tile returns the snapshot of the named tile.
func (r *Result) Tile(name string) (tile.Snapshot, bool) {
	for _, s := range r.Tiles {
		if s.Tile == name {
			return s, true
		}
	}
	return tile.Snapshot{}, false
}

func normalizeWords(words []string) []string {
	ans := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			ans = append(ans, w)
		}
	}
	return ans
}

// Query sends a new query to all tiles and waits until every tile
// settled. Queries of one dashboard run one at a time.
//
// When ctx ends (or the query timeout elapses) before all tiles settled,
// the result holds the current snapshots and the context error is
// returned along with it.
func (d *Dashboard) Query(ctx context.Context, req Request) (*Result, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	words := normalizeWords(req.Words)
	if len(words) == 0 {
		return nil, tile.ErrEmptyQuery
	}
	if limit := d.conf.MaxQueryWords; limit > 0 && len(words) > limit {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyWords, len(words), limit)
	}

	d.queryMu.Lock()
	defer d.queryMu.Unlock()

	q := tile.Query{Lang: req.Lang, UILang: req.UILang}
	if q.Lang == "" {
		q.Lang = d.lang
	}
	for _, w := range words {
		qw, err := d.matchWord(ctx, q.Lang, w)
		if err != nil {
			return nil, err
		}
		q.Words = append(q.Words, qw)
	}
	q.ID = d.nextID.Add(1)

	parent := ctx
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}

	sameQuery := func(a bus.Action) bool { return a.QueryID == q.ID }
	subs := make([]*bus.Subscription, len(d.tiles))
	for i, m := range d.tiles {
		subs[i] = d.bus.Subscribe(bus.And(bus.From(bus.TileDataLoaded, m.Name()), sameQuery))
	}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()
	var events *bus.Subscription
	if req.OnEvent != nil {
		events = d.bus.Subscribe(bus.And(bus.Named(bus.TileDataLoaded, bus.PartialTileDataLoaded), sameQuery))
		defer events.Close()
	}

	started := d.now()
	d.logger.Info("query started", "queryId", q.ID, "query", q.String(), "lang", q.Lang, "tiles", len(d.tiles))
	d.bus.Publish(bus.Action{Name: bus.RequestQueryResponse, QueryID: q.ID, Payload: q})

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range d.tiles {
		g.Go(func() error {
			a, err := subs[i].Wait(gctx, 0)
			if err != nil {
				return fmt.Errorf("tile %s: %w", m.Name(), err)
			}
			if a.Error != nil {
				d.logger.Debug("tile failed", "tile", m.Name(), "queryId", q.ID, "error", a.Error)
			}
			return nil
		})
	}
	if events != nil {
		g.Go(func() error {
			d.forward(gctx, events, req.OnEvent)
			return nil
		})
	}
	err := g.Wait()

	res := &Result{
		QueryID:  q.ID,
		Query:    q,
		Started:  started,
		Duration: d.now().Sub(started),
		Tiles:    d.Snapshots(),
	}
	if err != nil {
		d.logger.Warn("query did not finish", "queryId", q.ID, "error", err)
		return res, fmt.Errorf("query %d: %w", q.ID, err)
	}
	d.logger.Info("query finished",
		"queryId", q.ID,
		"duration", res.Duration,
		"errors", res.NumErrors(),
	)
	d.logQuery(context.WithoutCancel(parent), res)
	return res, nil
}

// forward passes events to fn until every tile reported TileDataLoaded
// or ctx ends.
func (d *Dashboard) forward(ctx context.Context, events *bus.Subscription, fn func(Event)) {
	pending := len(d.tiles)
	for pending > 0 {
		var a bus.Action
		select {
		case <-ctx.Done():
			return
		case act, ok := <-events.C():
			if !ok {
				return
			}
			a = act
		}
		ev := Event{Type: a.Name, Tile: a.Tile, QueryID: a.QueryID}
		if a.Error != nil {
			ev.Error = a.Error.Error()
		}
		if m, ok := d.byName[a.Tile]; ok {
			ev.Snapshot = m.Snapshot()
		}
		fn(ev)
		if a.Name == bus.TileDataLoaded {
			pending--
		}
	}
}

func (d *Dashboard) logQuery(ctx context.Context, res *Result) {
	if d.queryLog == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		d.logger.Warn("failed to serialize query result", "queryId", res.QueryID, "error", err)
		return
	}
	id, err := d.queryLog.LogQuery(ctx, &database.QueryRecord{
		Query:      res.Query.String(),
		Lang:       res.Query.Lang,
		Timestamp:  res.Started,
		NumTiles:   len(res.Tiles),
		NumErrors:  res.NumErrors(),
		Duration:   res.Duration,
		ResultJSON: data,
	})
	if err != nil {
		d.logger.Warn("failed to log query", "queryId", res.QueryID, "error", err)
		return
	}
	d.logger.Debug("query logged", "queryId", res.QueryID, "recordId", id)
}
