package tile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/model"
)

// kind is the data specific part of a tile. All methods are called from
// the tile goroutine only.
type kind interface {
	// reset drops the data of the previous query.
	reset()

	// plan returns the chunks of a query. dep holds the concordances of
	// the tile the kind waits for, or nil.
	plan(q Query, dep Concordances) ([]chunk, error)

	// apply merges chunk data into the state.
	apply(chunkID string, data any)

	// numPages returns the number of pages of the current data.
	numPages() int

	// data returns a copy of the kind specific state.
	data() any

	// result is the payload of the final TileDataLoaded action.
	result() any

	backlinks() []*model.BacklinkWithArgs
}

// chunk is one backend call of a query. run may call emit any number of
// times with partial data before it returns the final data (or nil).
type chunk struct {
	id  string
	run func(ctx context.Context, emit func(any)) (any, error)
}

type chunkResult struct {
	queryID uint64
	chunkID string
	data    any
	err     error
	partial bool
}

// Model runs one tile.
type Model struct {
	name     string
	kindName string
	label    string
	waitFor  string
	waitTime time.Duration

	bus    *bus.Bus
	sub    *bus.Subscription
	logger *slog.Logger
	k      kind

	corpName string
	source   api.SourceInfoAPI

	results chan chunkResult
	done    chan struct{}

	// state owned by the Run goroutine
	queryCtx     context.Context
	cancelQuery  context.CancelFunc
	query        Query
	status       Status
	err          string
	page         int
	tweakMode    bool
	altViewMode  bool
	waiting      bool
	waitTimer    *time.Timer
	unfinished   map[string]struct{}
	numChunks    int
	failedChunks int
	lastErr      error

	mu   sync.RWMutex
	snap Snapshot
}

type modelOptions struct {
	name     string
	kindName string
	label    string
	waitFor  string
	waitTime time.Duration
}

func newModel(b *bus.Bus, logger *slog.Logger, opts modelOptions, k kind) *Model {
	m := &Model{
		name:     opts.name,
		kindName: opts.kindName,
		label:    opts.label,
		waitFor:  opts.waitFor,
		waitTime: opts.waitTime,
		bus:      b,
		logger:   logger.With("tile", opts.name),
		k:        k,
		results:  make(chan chunkResult),
		done:     make(chan struct{}),
		status:   StatusIdle,
		page:     1,
	}
	preds := []bus.Predicate{
		bus.Named(bus.RequestQueryResponse),
		bus.And(bus.Named(bus.UIActions...), func(a bus.Action) bool { return a.Tile == opts.name }),
	}
	if opts.waitFor != "" {
		preds = append(preds, bus.From(bus.TileDataLoaded, opts.waitFor))
	}
	// Subscribing here rather than in Run guarantees no query published
	// after construction is missed.
	m.sub = b.Subscribe(bus.Or(preds...))
	m.updateSnapshot()
	return m
}

// Name returns the tile name.
func (m *Model) Name() string {
	return m.name
}

// Kind returns the tile type.
func (m *Model) Kind() string {
	return m.kindName
}

// WaitFor returns the name of the tile this tile depends on.
func (m *Model) WaitFor() string {
	return m.waitFor
}

// Snapshot returns a copy of the current tile state.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Run processes actions until ctx ends or the bus is closed.
func (m *Model) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.sub.Close()
	defer m.stopWaiting()
	defer m.cancelRunning()

	for {
		var timeout <-chan time.Time
		if m.waitTimer != nil {
			timeout = m.waitTimer.C
		}
		select {
		case <-ctx.Done():
			return nil
		case a, ok := <-m.sub.C():
			if !ok {
				return nil
			}
			m.handleAction(ctx, a)
		case r := <-m.results:
			m.handleResult(r)
		case <-timeout:
			m.waitTimer = nil
			m.waiting = false
			m.fail(fmt.Errorf("%w: %s: %w", ErrDependencyFailed, m.waitFor, bus.ErrWaitTimeout))
		}
	}
}

func (m *Model) handleAction(ctx context.Context, a bus.Action) {
	switch a.Name {
	case bus.RequestQueryResponse:
		q, ok := a.Payload.(Query)
		if !ok {
			m.logger.Warn("query action without query", "queryId", a.QueryID)
			return
		}
		m.handleQuery(ctx, q)
	case bus.TileDataLoaded:
		m.handleDependency(a)
	case bus.NextPage:
		m.page = min(m.page+1, m.pages())
		m.stateChanged()
	case bus.PreviousPage:
		m.page = max(m.page-1, 1)
		m.stateChanged()
	case bus.EnableTileTweakMode:
		m.tweakMode = true
		m.stateChanged()
	case bus.DisableTileTweakMode:
		m.tweakMode = false
		m.stateChanged()
	case bus.EnableAltViewMode:
		m.altViewMode = true
		m.stateChanged()
	case bus.DisableAltViewMode:
		m.altViewMode = false
		m.stateChanged()
	}
}

func (m *Model) handleQuery(ctx context.Context, q Query) {
	if q.ID <= m.query.ID {
		m.logger.Warn("dropping stale query", "queryId", q.ID, "current", m.query.ID)
		return
	}
	m.stopWaiting()
	// Calls of the previous query are cancelled; whatever they still
	// deliver is dropped as stale.
	m.cancelRunning()
	m.queryCtx, m.cancelQuery = context.WithCancel(ctx)
	m.query = q
	m.status = StatusBusy
	m.err = ""
	m.page = 1
	m.unfinished = nil
	m.numChunks = 0
	m.failedChunks = 0
	m.lastErr = nil
	m.k.reset()

	if m.waitFor != "" {
		m.waiting = true
		m.waitTimer = time.NewTimer(m.waitTime)
		m.updateSnapshot()
		return
	}
	m.start(nil)
}

func (m *Model) handleDependency(a bus.Action) {
	if !m.waiting || a.QueryID != m.query.ID {
		m.logger.Debug("dropping stale dependency data", "queryId", a.QueryID, "current", m.query.ID)
		return
	}
	m.stopWaiting()
	if a.Error != nil {
		m.fail(fmt.Errorf("%w: %s: %w", ErrDependencyFailed, m.waitFor, a.Error))
		return
	}
	concs, ok := a.Payload.(Concordances)
	if !ok {
		m.fail(fmt.Errorf("%w: %s provides no concordance", ErrDependencyFailed, m.waitFor))
		return
	}
	m.start(concs)
}

func (m *Model) start(dep Concordances) {
	chunks, err := m.k.plan(m.query, dep)
	if err != nil {
		m.fail(err)
		return
	}
	if len(chunks) == 0 {
		m.finish()
		return
	}
	m.numChunks = len(chunks)
	m.unfinished = make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		m.unfinished[c.id] = struct{}{}
	}
	m.updateSnapshot()

	for _, c := range chunks {
		go m.runChunk(m.queryCtx, m.query.ID, c)
	}
}

func (m *Model) runChunk(ctx context.Context, queryID uint64, c chunk) {
	emit := func(data any) {
		m.deliver(ctx, chunkResult{queryID: queryID, chunkID: c.id, data: data, partial: true})
	}
	data, err := c.run(ctx, emit)
	m.deliver(ctx, chunkResult{queryID: queryID, chunkID: c.id, data: data, err: err})
}

func (m *Model) deliver(ctx context.Context, r chunkResult) {
	select {
	case m.results <- r:
	case <-ctx.Done():
	case <-m.done:
	}
}

func (m *Model) handleResult(r chunkResult) {
	if r.queryID != m.query.ID {
		m.logger.Info("dropping stale response", "queryId", r.queryID, "current", m.query.ID, "chunk", r.chunkID)
		return
	}
	if _, ok := m.unfinished[r.chunkID]; !ok {
		return
	}
	if r.partial {
		m.k.apply(r.chunkID, r.data)
		m.updateSnapshot()
		m.publish(bus.PartialTileDataLoaded, r.data, nil)
		return
	}

	delete(m.unfinished, r.chunkID)
	if r.err != nil {
		m.failedChunks++
		m.lastErr = r.err
		m.logger.Warn("chunk failed", "chunk", r.chunkID, "error", r.err)
	} else if r.data != nil {
		m.k.apply(r.chunkID, r.data)
	}

	if len(m.unfinished) > 0 {
		m.updateSnapshot()
		m.publish(bus.PartialTileDataLoaded, r.data, r.err)
		return
	}
	if m.failedChunks == m.numChunks {
		m.fail(m.lastErr)
		return
	}
	m.finish()
}

func (m *Model) finish() {
	m.status = StatusReady
	m.unfinished = nil
	m.updateSnapshot()
	m.publish(bus.TileDataLoaded, m.k.result(), nil)
}

func (m *Model) fail(err error) {
	m.status = StatusError
	m.err = err.Error()
	m.waiting = false
	m.unfinished = nil
	m.logger.Warn("tile failed", "queryId", m.query.ID, "error", err)
	m.updateSnapshot()
	m.publish(bus.TileDataLoaded, nil, err)
}

func (m *Model) stateChanged() {
	m.updateSnapshot()
	m.publish(bus.TileStateChanged, m.Snapshot(), nil)
}

func (m *Model) publish(name bus.ActionName, payload any, err error) {
	m.bus.Publish(bus.Action{
		Name:    name,
		Tile:    m.name,
		QueryID: m.query.ID,
		Payload: payload,
		Error:   err,
	})
}

func (m *Model) cancelRunning() {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
}

func (m *Model) stopWaiting() {
	if m.waitTimer != nil {
		m.waitTimer.Stop()
		m.waitTimer = nil
	}
	m.waiting = false
}

func (m *Model) pages() int {
	return max(m.k.numPages(), 1)
}

func (m *Model) updateSnapshot() {
	s := Snapshot{
		Tile:          m.name,
		Kind:          m.kindName,
		Label:         m.label,
		QueryID:       m.query.ID,
		Status:        m.status,
		Error:         m.err,
		Page:          min(m.page, m.pages()),
		NumPages:      m.pages(),
		IsTweakMode:   m.tweakMode,
		IsAltViewMode: m.altViewMode,
		PendingChunks: len(m.unfinished),
		FailedChunks:  m.failedChunks,
		Backlinks:     m.k.backlinks(),
		Data:          m.k.data(),
	}
	if m.waiting {
		s.WaitingFor = m.waitFor
	}
	m.mu.Lock()
	m.snap = s
	m.mu.Unlock()
}
