package tile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeConcAPI struct {
	fn func(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error)
}

func (f *fakeConcAPI) Call(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
	return f.fn(ctx, args)
}

func (f *fakeConcAPI) MkMatchQuery(qm model.QueryMatch, _ []string) string {
	return `[word="` + qm.Word + `"]`
}

func (f *fakeConcAPI) Backlink(tpl *model.Backlink, resp *model.ConcResponse) *model.BacklinkWithArgs {
	return model.NewBacklinkWithArgs(tpl, "view", model.Arg("q", "~"+resp.ConcID))
}

type fakeFreqAPI struct {
	mu   sync.Mutex
	args []api.FreqArgs
}

func (f *fakeFreqAPI) Call(_ context.Context, args api.FreqArgs) (*api.FreqResponse, error) {
	f.mu.Lock()
	f.args = append(f.args, args)
	f.mu.Unlock()
	return &api.FreqResponse{
		ConcID:   args.ConcID,
		ConcSize: 3,
		Rows: []model.DataRow{
			{Name: "fiction", Freq: 1},
			{Name: "news", Freq: 1},
			{Name: "science", Freq: 1},
		},
	}, nil
}

func (f *fakeFreqAPI) Backlink(_ *model.Backlink, _ api.FreqArgs) *model.BacklinkWithArgs {
	return nil
}

func (f *fakeFreqAPI) calls() []api.FreqArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.FreqArgs(nil), f.args...)
}

type fakeTimeAPI struct {
	fn func(ctx context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error
}

func (f *fakeTimeAPI) Call(ctx context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
	return f.fn(ctx, args, emit)
}

func (f *fakeTimeAPI) Backlink(_ *model.Backlink, _ api.TimeDistribArgs) *model.BacklinkWithArgs {
	return nil
}

type fakeDocsAPI struct {
	n int
}

func (f *fakeDocsAPI) Call(_ context.Context, _ api.MatchingDocsArgs) ([]model.MatchingDoc, error) {
	docs := make([]model.MatchingDoc, f.n)
	for i := range docs {
		docs[i] = model.MatchingDoc{DisplayValues: []string{fmt.Sprintf("doc%d", i)}, Score: float64(f.n - i)}
	}
	return docs, nil
}

func (f *fakeDocsAPI) Backlink(_ *model.Backlink, _ api.MatchingDocsArgs) *model.BacklinkWithArgs {
	return nil
}

// harness runs tiles on a private bus.
type harness struct {
	t      *testing.T
	bus    *bus.Bus
	events *bus.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
	nextID uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, bus: bus.New(bus.WithLogger(discardLogger))}
	h.events = h.bus.Subscribe(bus.Named(bus.TileDataLoaded, bus.PartialTileDataLoaded, bus.TileStateChanged))
	t.Cleanup(h.stop)
	return h
}

func (h *harness) add(name, waitFor string, waitTime time.Duration, k kind) *Model {
	m := newModel(h.bus, discardLogger, modelOptions{
		name:     name,
		kindName: "TestTile",
		waitFor:  waitFor,
		waitTime: waitTime,
	}, k)
	ctx, cancel := context.WithCancel(context.Background())
	prev := h.cancel
	h.cancel = func() {
		cancel()
		if prev != nil {
			prev()
		}
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		_ = m.Run(ctx)
	}()
	return m
}

func (h *harness) query(words ...string) uint64 {
	h.nextID++
	q := Query{ID: h.nextID, Lang: "en"}
	for _, w := range words {
		q.Words = append(q.Words, NewQueryWord(w))
	}
	h.bus.Publish(bus.Action{Name: bus.RequestQueryResponse, QueryID: q.ID, Payload: q})
	return q.ID
}

func (h *harness) waitFor(name bus.ActionName, tile string) bus.Action {
	h.t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case a := <-h.events.C():
			if a.Name == name && a.Tile == tile {
				return a
			}
		case <-deadline:
			h.t.Fatalf("no %s from %s", name, tile)
			return bus.Action{}
		}
	}
}

func (h *harness) stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	h.events.Close()
	h.bus.Close()
}

func concTile(fn func(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error)) *concordanceTile {
	return &concordanceTile{
		api:  &fakeConcAPI{fn: fn},
		conf: &config.TileConf{CorpName: "syn2020", Backlink: &model.Backlink{URL: "https://kontext.example", Label: "KonText"}},
	}
}

func okConc(_ context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
	return &model.ConcResponse{
		ConcID:   "conc-" + args.Query,
		Query:    args.Query,
		CorpName: args.CorpName,
		ConcSize: 10,
		Lines:    []model.ConcLine{{Toknum: 42}},
	}, nil
}

func TestModel_ConcordanceLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("conc", "", 0, concTile(okConc))
	assert.Equal(t, StatusIdle, m.Snapshot().Status)

	qid := h.query("house", "home")
	a := h.waitFor(bus.TileDataLoaded, "conc")
	require.NoError(t, a.Error)
	assert.Equal(t, qid, a.QueryID)

	concs, ok := a.Payload.(Concordances)
	require.True(t, ok)
	require.Len(t, concs, 2)
	assert.Equal(t, `conc-[word="house"]`, concs[0].ConcID)
	assert.Equal(t, `conc-[word="home"]`, concs[1].ConcID)

	snap := m.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, qid, snap.QueryID)
	assert.Equal(t, 2, snap.NumPages)
	assert.Equal(t, 0, snap.PendingChunks)
	require.Len(t, snap.Backlinks, 2)
	assert.Equal(t, "https://kontext.example/view", snap.Backlinks[0].URL)
	data, ok := snap.Data.(ConcData)
	require.True(t, ok)
	assert.Len(t, data.Concordances, 2)
}

func TestModel_BackendError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("conc", "", 0, concTile(func(context.Context, api.ConcArgs) (*model.ConcResponse, error) {
		return nil, &model.RequestError{Status: 500, Message: "boom", URL: "http://x"}
	}))

	h.query("house")
	a := h.waitFor(bus.TileDataLoaded, "conc")
	require.Error(t, a.Error)
	_, ok := model.AsRequestError(a.Error)
	assert.True(t, ok)

	snap := m.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Contains(t, snap.Error, "boom")
}

func TestModel_WaitsForDependency(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	freqAPI := &fakeFreqAPI{}
	h.add("conc", "", 0, concTile(okConc))
	freq := h.add("freq", "conc", time.Second, &freqTile{
		single:     freqAPI,
		conf:       &config.TileConf{CorpName: "syn2020", FCrit: []string{"doc.genre 0"}},
		withRatios: true,
	})

	h.query("house")
	a := h.waitFor(bus.TileDataLoaded, "freq")
	require.NoError(t, a.Error)

	calls := freqAPI.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `conc-[word="house"]`, calls[0].ConcID)
	assert.Equal(t, "doc.genre 0", calls[0].FCrit)

	snap := freq.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	data := snap.Data.(FreqData)
	require.Len(t, data.Blocks, 1)
	assert.True(t, data.Blocks[0].IsReady)
	var sum float64
	for _, r := range data.Blocks[0].Rows {
		sum += r.Ratio
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.InDelta(t, 33.4, data.Blocks[0].Rows[0].Ratio, 1e-9)
}

func TestModel_DependencyTimeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	freq := h.add("freq", "conc", 20*time.Millisecond, &freqTile{
		single: &fakeFreqAPI{},
		conf:   &config.TileConf{FCrit: []string{"doc.genre 0"}},
	})

	h.query("house")
	a := h.waitFor(bus.TileDataLoaded, "freq")
	assert.ErrorIs(t, a.Error, ErrDependencyFailed)
	assert.ErrorIs(t, a.Error, bus.ErrWaitTimeout)

	snap := freq.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.True(t, strings.HasPrefix(snap.Error, "failed to obtain required data"))
}

func TestModel_DependencyFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	freqAPI := &fakeFreqAPI{}
	h.add("conc", "", 0, concTile(func(context.Context, api.ConcArgs) (*model.ConcResponse, error) {
		return nil, errors.New("conc failed")
	}))
	freq := h.add("freq", "conc", time.Second, &freqTile{
		single: freqAPI,
		conf:   &config.TileConf{FCrit: []string{"doc.genre 0"}},
	})

	h.query("house")
	a := h.waitFor(bus.TileDataLoaded, "freq")
	assert.ErrorIs(t, a.Error, ErrDependencyFailed)
	assert.Equal(t, StatusError, freq.Snapshot().Status)
	assert.Empty(t, freqAPI.calls())
}

func TestModel_DropsStaleResponses(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	h := newHarness(t)
	m := h.add("conc", "", 0, concTile(func(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
		if strings.Contains(args.Query, "slow") {
			<-release
		}
		return okConc(ctx, args)
	}))

	h.query("slow")
	waitStatus(t, m, StatusBusy)

	second := h.query("fast")
	a := h.waitFor(bus.TileDataLoaded, "conc")
	assert.Equal(t, second, a.QueryID)
	close(release)

	// Give the released call the chance to deliver its result.
	time.Sleep(50 * time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, second, snap.QueryID)
	assert.Equal(t, StatusReady, snap.Status)
	data := snap.Data.(ConcData)
	require.Len(t, data.Concordances, 1)
	assert.Equal(t, `conc-[word="fast"]`, data.Concordances[0].ConcID)
}

func TestModel_IgnoresOlderQuery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("conc", "", 0, concTile(okConc))

	h.nextID = 5
	h.query("house")
	h.waitFor(bus.TileDataLoaded, "conc")

	h.bus.Publish(bus.Action{
		Name:    bus.RequestQueryResponse,
		QueryID: 3,
		Payload: Query{ID: 3, Words: []QueryWord{NewQueryWord("old")}},
	})
	h.bus.Publish(bus.Action{Name: bus.EnableTileTweakMode, Tile: "conc"})
	h.waitFor(bus.TileStateChanged, "conc")

	snap := m.Snapshot()
	assert.Equal(t, uint64(6), snap.QueryID)
	assert.Equal(t, StatusReady, snap.Status)
}

func waitStatus(t *testing.T, m *Model, want Status) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := m.Snapshot(); s.Status == want {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("tile %s never reached %s", m.Name(), want)
	return Snapshot{}
}

func TestModel_PaginationClamps(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("docs", "", 0, &matchingDocsTile{
		api:  &fakeDocsAPI{n: 25},
		conf: &config.TileConf{MaxNumCategoriesPerPage: 10},
	})

	h.query("house")
	h.waitFor(bus.TileDataLoaded, "docs")
	assert.Equal(t, 3, m.Snapshot().NumPages)

	send := func(name bus.ActionName) Snapshot {
		h.bus.Publish(bus.Action{Name: name, Tile: "docs"})
		a := h.waitFor(bus.TileStateChanged, "docs")
		return a.Payload.(Snapshot)
	}

	assert.Equal(t, 1, send(bus.PreviousPage).Page)
	assert.Equal(t, 2, send(bus.NextPage).Page)
	assert.Equal(t, 3, send(bus.NextPage).Page)
	assert.Equal(t, 3, send(bus.NextPage).Page)
	assert.Equal(t, 2, send(bus.PreviousPage).Page)

	last := send(bus.NextPage)
	docs := last.Data.(MatchingDocsData).Page(last.Page)
	require.Len(t, docs, 5)
	assert.Equal(t, "doc20", docs[0].DisplayValues[0])

	// Actions for other tiles are not applied.
	h.bus.Publish(bus.Action{Name: bus.PreviousPage, Tile: "other"})
	assert.Equal(t, 2, send(bus.PreviousPage).Page)
}

func TestModel_TweakAndAltViewModes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("conc", "", 0, concTile(okConc))

	tests := []struct {
		action    bus.ActionName
		wantTweak bool
		wantAlt   bool
	}{
		{bus.EnableTileTweakMode, true, false},
		{bus.EnableAltViewMode, true, true},
		{bus.DisableTileTweakMode, false, true},
		{bus.DisableAltViewMode, false, false},
	}
	for _, tt := range tests {
		h.bus.Publish(bus.Action{Name: tt.action, Tile: "conc"})
		h.waitFor(bus.TileStateChanged, "conc")
		snap := m.Snapshot()
		assert.Equal(t, tt.wantTweak, snap.IsTweakMode, tt.action)
		assert.Equal(t, tt.wantAlt, snap.IsAltViewMode, tt.action)
		assert.Equal(t, StatusIdle, snap.Status, tt.action)
	}
}

func TestModel_MultiChunkPartialFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	timeAPI := &fakeTimeAPI{fn: func(_ context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
		if strings.Contains(args.ConcID, "broken") {
			return errors.New("backend down")
		}
		emit(api.TimeDistribResponse{Items: []model.TimeDistribItem{{Datetime: "2000", Freq: 10, Norm: 1000}}})
		emit(api.TimeDistribResponse{Items: []model.TimeDistribItem{{Datetime: "2000", Freq: 5, Norm: 500}}})
		return nil
	}}
	m := h.add("mwtime", "", 0, &multiWordTimeTile{
		api:   timeAPI,
		conf:  &config.TileConf{CorpName: "syn2020"},
		alpha: stats.DefaultAlpha,
	})

	h.query("house", "broken")
	a := h.waitFor(bus.TileDataLoaded, "mwtime")
	require.NoError(t, a.Error)

	snap := m.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 1, snap.FailedChunks)
	data := snap.Data.(MultiWordTimeDistribData)
	require.Len(t, data.Words, 2)
	require.Len(t, data.Words[0].Data, 1)
	item := data.Words[0].Data[0]
	assert.InDelta(t, 15.0, item.Freq, 1e-9)
	assert.InDelta(t, 1500.0, item.Norm, 1e-9)
	assert.InDelta(t, 10000.0, item.IPM, 1e-9)
	assert.Empty(t, data.Words[1].Data)
}

func TestModel_AllChunksFailed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("time", "", 0, &timeDistribTile{
		api: &fakeTimeAPI{fn: func(context.Context, api.TimeDistribArgs, func(api.TimeDistribResponse)) error {
			return errors.New("backend down")
		}},
		conf:  &config.TileConf{Subcorpora: []string{"a", "b"}},
		alpha: stats.DefaultAlpha,
	})

	h.query("house")
	a := h.waitFor(bus.TileDataLoaded, "time")
	require.Error(t, a.Error)
	assert.Equal(t, StatusError, m.Snapshot().Status)
	assert.Equal(t, 2, m.Snapshot().FailedChunks)
}

func TestModel_TimeDistribOverwrite(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	m := h.add("time", "", 0, &timeDistribTile{
		api: &fakeTimeAPI{fn: func(_ context.Context, _ api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
			emit(api.TimeDistribResponse{Items: []model.TimeDistribItem{{Datetime: "2001", Freq: 1, Norm: 100}}, Overwrite: true})
			emit(api.TimeDistribResponse{Items: []model.TimeDistribItem{
				{Datetime: "2001", Freq: 2, Norm: 100},
				{Datetime: "1999", Freq: 1, Norm: 100},
			}, Overwrite: true})
			return nil
		}},
		conf:  &config.TileConf{},
		alpha: stats.DefaultAlpha,
	})

	h.query("house")
	partial := h.waitFor(bus.PartialTileDataLoaded, "time")
	assert.NotNil(t, partial.Payload)
	h.waitFor(bus.TileDataLoaded, "time")

	data := m.Snapshot().Data.(TimeDistribData)
	require.Len(t, data.Data, 2)
	assert.Equal(t, "1999", data.Data[0].Datetime)
	assert.Equal(t, "2001", data.Data[1].Datetime)
	assert.InDelta(t, 2.0, data.Data[1].Freq, 1e-9)
}

func TestProcessWordForms(t *testing.T) {
	t.Parallel()

	items := []model.WordFormItem{
		{Value: "houses", Freq: 30},
		{Value: "house", Freq: 70},
		{Value: "housez", Freq: 0},
	}
	got := processWordForms(items, 0, stats.DefaultAlpha)
	require.Len(t, got, 3)
	assert.Equal(t, "house", got[0].Value)
	assert.InDelta(t, 70.0, got[0].Ratio, 1e-9)
	assert.InDelta(t, 30.0, got[1].Ratio, 1e-9)
	for _, f := range got {
		assert.NotEmpty(t, f.InteractionID)
	}
	assert.NotEqual(t, got[0].InteractionID, got[1].InteractionID)

	filtered := processWordForms(items, 1e8, stats.DefaultAlpha)
	for _, f := range filtered {
		assert.NotEqual(t, "housez", f.Value)
	}
}

func TestConcID(t *testing.T) {
	t.Parallel()

	conf := &config.TileConf{}
	q := Query{Words: []QueryWord{NewQueryWord("dům"), NewQueryWord("byt")}}

	assert.Equal(t, `[word="byt"]`, concID(conf, q, nil, 1))
	dep := Concordances{{ConcID: "abc"}}
	assert.Equal(t, "abc", concID(conf, q, dep, 0))
	assert.Equal(t, "abc", concID(conf, q, dep, 1))
	assert.Empty(t, concID(conf, q, nil, 5))
}

func TestFreqTileRows_PieRatiosNotNegative(t *testing.T) {
	t.Parallel()

	freqs := []float64{239, 39, 291, 9, 956, 360, 153, 9, 9, 9, 9, 9, 9, 9, 12, 3, 77, 41, 5, 1}
	src := make([]model.DataRow, len(freqs))
	for i, f := range freqs {
		src[i] = model.DataRow{Name: fmt.Sprint(i), Freq: f}
	}

	rows := (&freqTile{withRatios: true}).rows(src)
	require.Len(t, rows, len(src))
	var sum float64
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Ratio, 0.0, "row freq=%v", r.Freq)
		sum += r.Ratio
	}
	assert.InDelta(t, 100, sum, 1e-9)
}
