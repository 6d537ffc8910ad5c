package tile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/api/factory"
	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

// Deps are the resources shared by all tiles of a dashboard.
type Deps struct {
	Bus    *bus.Bus
	API    factory.Deps
	Logger *slog.Logger
}

// New creates the tile described by conf. All API implementations are
// selected here so an unsupported apiType fails before any query runs.
// The tile is subscribed to the bus on return; start it with Run.
func New(name string, conf *config.TileConf, deps Deps) (*Model, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	alpha, err := stats.ParseAlphaLevel(conf.AlphaLevel)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}

	k, err := newKind(conf, deps.API, alpha)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}

	m := newModel(deps.Bus, logger, modelOptions{
		name:     name,
		kindName: conf.TileType,
		label:    conf.Label,
		waitFor:  conf.WaitFor,
		waitTime: conf.WaitForTimeout(),
	}, k)
	m.corpName = conf.CorpName

	// Source info is optional; tiles of backends without it are described
	// by their configuration.
	src, err := factory.NewSourceInfoAPI(conf.APIType, deps.API, apiOptions(conf))
	switch {
	case err == nil:
		m.source = src
	case errors.Is(err, api.ErrUnsupportedAPIType), errors.Is(err, factory.ErrNoFreqDB):
	default:
		m.sub.Close()
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}
	return m, nil
}

func apiOptions(conf *config.TileConf) api.Options {
	return api.Options{
		URL:        conf.APIURL,
		Headers:    conf.APIHeaders,
		CustomArgs: conf.CustomArgs,
	}
}

func newKind(conf *config.TileConf, deps factory.Deps, alpha stats.AlphaLevel) (kind, error) {
	opts := apiOptions(conf)
	switch conf.TileType {
	case config.TileTypeConcordance:
		a, err := factory.NewConcordanceAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &concordanceTile{api: a, conf: conf}, nil

	case config.TileTypeFreqBar, config.TileTypeFreqPie:
		single, err := factory.NewFreqDistribAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		t := &freqTile{
			single:     single,
			conf:       conf,
			withRatios: conf.TileType == config.TileTypeFreqPie,
		}
		if len(conf.FCrit) > 1 {
			// Backends without multi criteria support get one call per criterion.
			multi, err := factory.NewMultiBlockFreqDistribAPI(conf.APIType, deps, opts)
			if err != nil && !errors.Is(err, api.ErrUnsupportedAPIType) {
				return nil, err
			}
			t.multi = multi
		}
		return t, nil

	case config.TileTypeTimeDistrib:
		a, err := factory.NewTimeDistribAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &timeDistribTile{api: a, conf: conf, alpha: alpha}, nil

	case config.TileTypeMultiWordTime:
		a, err := factory.NewTimeDistribAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &multiWordTimeTile{api: a, conf: conf, alpha: alpha}, nil

	case config.TileTypeMatchingDocs:
		a, err := factory.NewMatchingDocsAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &matchingDocsTile{api: a, conf: conf}, nil

	case config.TileTypeWordForms:
		a, err := factory.NewWordFormsAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &wordFormsTile{api: a, conf: conf, alpha: alpha}, nil

	case config.TileTypeSpeeches:
		a, err := factory.NewSpeechesAPI(conf.APIType, deps, opts)
		if err != nil {
			return nil, err
		}
		return &speechesTile{api: a, conf: conf, parser: newSpeechParser(conf)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTileType, conf.TileType)
}

// SourceInfo describes the data source of the tile in the given UI
// language.
func (m *Model) SourceInfo(ctx context.Context, uiLang string) (*model.SourceDetails, error) {
	if m.source == nil {
		return &model.SourceDetails{
			Tile:        m.name,
			Title:       m.label,
			Description: m.corpName,
		}, nil
	}
	info, err := m.source.SourceInfo(ctx, m.corpName, uiLang)
	if err != nil {
		return nil, err
	}
	info.Tile = m.name
	return info, nil
}
