package tile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/api/factory"
	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/stats"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		conf    *config.TileConf
		wantErr error
	}{
		{
			name: "kontext concordance",
			conf: &config.TileConf{
				TileType: config.TileTypeConcordance,
				APIType:  "kontext",
				APIURL:   "http://kontext.example",
				CorpName: "syn2020",
			},
		},
		{
			name: "noske multi criteria frequency",
			conf: &config.TileConf{
				TileType: config.TileTypeFreqBar,
				APIType:  "noske",
				APIURL:   "http://noske.example",
				CorpName: "bnc",
				FCrit:    []string{"doc.genre", "doc.year"},
			},
		},
		{
			name: "mquery frequency falls back to single criterion calls",
			conf: &config.TileConf{
				TileType: config.TileTypeFreqPie,
				APIType:  "mquery",
				APIURL:   "http://mquery.example",
				CorpName: "syn2020",
				FCrit:    []string{"doc.genre", "doc.year"},
			},
		},
		{
			name: "unsupported api type",
			conf: &config.TileConf{
				TileType: config.TileTypeConcordance,
				APIType:  "bogus",
				APIURL:   "http://bogus.example",
				CorpName: "syn2020",
			},
			wantErr: api.ErrUnsupportedAPIType,
		},
		{
			name: "speeches not supported by noske",
			conf: &config.TileConf{
				TileType: config.TileTypeSpeeches,
				APIType:  "noske",
				APIURL:   "http://noske.example",
				CorpName: "oral",
				WaitFor:  "conc",
			},
			wantErr: api.ErrUnsupportedAPIType,
		},
		{
			name: "invalid configuration",
			conf: &config.TileConf{
				TileType: config.TileTypeConcordance,
				APIType:  "kontext",
				APIURL:   "http://kontext.example",
			},
			wantErr: config.ErrMissingCorpname,
		},
		{
			name: "local word forms without database",
			conf: &config.TileConf{
				TileType: config.TileTypeWordForms,
				APIType:  config.LocalWordFormsAPIType,
			},
			wantErr: factory.ErrNoFreqDB,
		},
		{
			name: "unknown alpha level",
			conf: &config.TileConf{
				TileType:   config.TileTypeTimeDistrib,
				APIType:    "kontext",
				APIURL:     "http://kontext.example",
				CorpName:   "syn2020",
				AlphaLevel: "0.3",
			},
			wantErr: stats.ErrUnknownAlphaLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := bus.New(bus.WithLogger(discardLogger))
			defer b.Close()

			m, err := New("tile", tt.conf, Deps{Bus: b, Logger: discardLogger})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				assert.Equal(t, 0, b.NumSubscriptions())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tile", m.Name())
			assert.Equal(t, tt.conf.TileType, m.Kind())
			assert.Equal(t, StatusIdle, m.Snapshot().Status)
			assert.Equal(t, 1, b.NumSubscriptions())
		})
	}
}

func TestNew_MultiBlockSelection(t *testing.T) {
	t.Parallel()

	b := bus.New(bus.WithLogger(discardLogger))
	defer b.Close()

	conf := &config.TileConf{
		TileType: config.TileTypeFreqBar,
		APIType:  "mquery",
		APIURL:   "http://mquery.example",
		CorpName: "syn2020",
		FCrit:    []string{"doc.genre", "doc.year"},
	}
	m, err := New("freq", conf, Deps{Bus: b, Logger: discardLogger})
	require.NoError(t, err)

	ft, ok := m.k.(*freqTile)
	require.True(t, ok)
	assert.Nil(t, ft.multi)

	chunks, err := ft.plan(Query{Words: []QueryWord{NewQueryWord("a")}}, nil)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestModel_SourceInfoWithoutAPI(t *testing.T) {
	t.Parallel()

	b := bus.New(bus.WithLogger(discardLogger))
	defer b.Close()

	conf := &config.TileConf{
		TileType: config.TileTypeMatchingDocs,
		APIType:  "elasticsearch",
		APIURL:   "http://es.example",
		Label:    "Documents",
		CorpName: "news",
	}
	m, err := New("docs", conf, Deps{Bus: b, Logger: discardLogger})
	require.NoError(t, err)

	info, err := m.SourceInfo(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "docs", info.Tile)
	assert.Equal(t, "Documents", info.Title)
	assert.Equal(t, "news", info.Description)
}
