// Package factory selects an API implementation by the apiType string of
// a tile configuration. Unknown types fail immediately with an error
// naming the supported values.
package factory

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/api/elastic"
	"github.com/nao1215/wdglance/internal/api/freqdbapi"
	"github.com/nao1215/wdglance/internal/api/kontext"
	"github.com/nao1215/wdglance/internal/api/mquery"
	"github.com/nao1215/wdglance/internal/api/noske"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/upstream"
)

// Supported API types.
const (
	KonText             = "kontext"
	KonTextAPI          = "kontext-api"
	KonTextLiveattrs    = "kontext-liveattrs"
	KonTextAPILiveattrs = "kontext-api-liveattrs"
	NoSke               = "noske"
	MQuery              = "mquery"
	Elasticsearch       = "elasticsearch"
	WdGlance            = "wdglance"
)

// ErrNoFreqDB is returned for the wdglance API type when no word
// distribution database is available.
var ErrNoFreqDB = errors.New("no word distribution database configured")

// Deps are the shared resources API implementations are built from.
type Deps struct {
	Client *upstream.Client
	FreqDB *freqdb.DB
}

type constructor[T any] func(deps Deps, opts api.Options) (T, error)

func remote[T any](fn func(*upstream.Client, api.Options) T, webApp bool) constructor[T] {
	return func(deps Deps, opts api.Options) (T, error) {
		opts.IsWebApp = webApp
		return fn(deps.Client, opts), nil
	}
}

func local[T any](fn func(*freqdb.DB) T) constructor[T] {
	return func(deps Deps, _ api.Options) (T, error) {
		if deps.FreqDB == nil {
			var zero T
			return zero, ErrNoFreqDB
		}
		return fn(deps.FreqDB), nil
	}
}

func build[T any](kind, apiType string, table map[string]constructor[T], deps Deps, opts api.Options) (T, error) {
	fn, ok := table[apiType]
	if !ok {
		var zero T
		supported := make([]string, 0, len(table))
		for k := range table {
			supported = append(supported, k)
		}
		slices.Sort(supported)
		return zero, fmt.Errorf("%w: API type %q not supported for %s (supported: %s)",
			api.ErrUnsupportedAPIType, apiType, kind, strings.Join(supported, ", "))
	}
	return fn(deps, opts)
}

var freqAPIs = map[string]constructor[api.FreqDistribAPI]{
	KonText:    remote(toFreq(kontext.NewFreqDistribAPI), true),
	KonTextAPI: remote(toFreq(kontext.NewFreqDistribAPI), false),
	NoSke:      remote(toFreq(noske.NewFreqDistribAPI), false),
	MQuery:     remote(toFreq(mquery.NewFreqDistribAPI), false),
}

var multiBlockFreqAPIs = map[string]constructor[api.MultiBlockFreqDistribAPI]{
	KonText:    remote(toMultiFreq(kontext.NewFreqDistribAPI), true),
	KonTextAPI: remote(toMultiFreq(kontext.NewFreqDistribAPI), false),
	NoSke:      remote(toMultiFreq(noske.NewFreqDistribAPI), false),
}

var timeDistribAPIs = map[string]constructor[api.TimeDistribAPI]{
	KonText:    remote(toTimeDistrib(kontext.NewTimeDistribAPI), true),
	KonTextAPI: remote(toTimeDistrib(kontext.NewTimeDistribAPI), false),
	NoSke:      remote(toTimeDistrib(noske.NewTimeDistribAPI), false),
	MQuery:     remote(toTimeDistrib(mquery.NewTimeDistribAPI), false),
}

var matchingDocsAPIs = map[string]constructor[api.MatchingDocsAPI]{
	KonText:             remote(toMatchingDocs(kontext.NewMatchingDocsAPI), true),
	KonTextAPI:          remote(toMatchingDocs(kontext.NewMatchingDocsAPI), false),
	KonTextLiveattrs:    remote(toMatchingDocs(kontext.NewLiveattrsMatchingDocsAPI), true),
	KonTextAPILiveattrs: remote(toMatchingDocs(kontext.NewLiveattrsMatchingDocsAPI), false),
	Elasticsearch:       remote(toMatchingDocs(elastic.NewMatchingDocsAPI), false),
}

var wordFormsAPIs = map[string]constructor[api.WordFormsAPI]{
	KonText:    remote(toWordForms(kontext.NewWordFormsAPI), true),
	KonTextAPI: remote(toWordForms(kontext.NewWordFormsAPI), false),
	MQuery:     remote(toWordForms(mquery.NewWordFormsAPI), false),
	WdGlance: local(func(db *freqdb.DB) api.WordFormsAPI {
		return freqdbapi.NewWordFormsAPI(db)
	}),
}

var concordanceAPIs = map[string]constructor[api.ConcordanceAPI]{
	KonText:    remote(toConc(kontext.NewConcAPI), true),
	KonTextAPI: remote(toConc(kontext.NewConcAPI), false),
	NoSke:      remote(toConc(noske.NewConcAPI), false),
	MQuery:     remote(toConc(mquery.NewConcAPI), false),
}

var speechesAPIs = map[string]constructor[api.SpeechesAPI]{
	KonText:    remote(toSpeeches(kontext.NewSpeechesAPI), true),
	KonTextAPI: remote(toSpeeches(kontext.NewSpeechesAPI), false),
}

var sourceInfoAPIs = map[string]constructor[api.SourceInfoAPI]{
	KonText:    remote(toSourceInfo(kontext.NewCorpusInfoAPI), true),
	KonTextAPI: remote(toSourceInfo(kontext.NewCorpusInfoAPI), false),
	NoSke:      remote(toSourceInfo(noske.NewCorpusInfoAPI), false),
	MQuery:     remote(toSourceInfo(mquery.NewCorpusInfoAPI), false),
	WdGlance: local(func(db *freqdb.DB) api.SourceInfoAPI {
		return freqdbapi.NewSourceInfoAPI(db)
	}),
}

// NewFreqDistribAPI returns a single criterion frequency API.
func NewFreqDistribAPI(apiType string, deps Deps, opts api.Options) (api.FreqDistribAPI, error) {
	return build("frequency distribution", apiType, freqAPIs, deps, opts)
}

// NewMultiBlockFreqDistribAPI returns a multi criteria frequency API.
func NewMultiBlockFreqDistribAPI(apiType string, deps Deps, opts api.Options) (api.MultiBlockFreqDistribAPI, error) {
	return build("multi-block frequency distribution", apiType, multiBlockFreqAPIs, deps, opts)
}

// NewTimeDistribAPI returns a time distribution API.
func NewTimeDistribAPI(apiType string, deps Deps, opts api.Options) (api.TimeDistribAPI, error) {
	return build("time distribution", apiType, timeDistribAPIs, deps, opts)
}

// NewMatchingDocsAPI returns a matching documents API.
func NewMatchingDocsAPI(apiType string, deps Deps, opts api.Options) (api.MatchingDocsAPI, error) {
	return build("matching documents", apiType, matchingDocsAPIs, deps, opts)
}

// NewWordFormsAPI returns a word forms API.
func NewWordFormsAPI(apiType string, deps Deps, opts api.Options) (api.WordFormsAPI, error) {
	return build("word forms", apiType, wordFormsAPIs, deps, opts)
}

// NewConcordanceAPI returns a concordance API.
func NewConcordanceAPI(apiType string, deps Deps, opts api.Options) (api.ConcordanceAPI, error) {
	return build("concordance", apiType, concordanceAPIs, deps, opts)
}

// NewSpeechesAPI returns a speeches API.
func NewSpeechesAPI(apiType string, deps Deps, opts api.Options) (api.SpeechesAPI, error) {
	return build("speeches", apiType, speechesAPIs, deps, opts)
}

// NewSourceInfoAPI returns a source description API.
func NewSourceInfoAPI(apiType string, deps Deps, opts api.Options) (api.SourceInfoAPI, error) {
	return build("source info", apiType, sourceInfoAPIs, deps, opts)
}

// The converters below turn concrete constructors into constructors of
// the interface type the tables hold.

func toFreq[T api.FreqDistribAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.FreqDistribAPI {
	return func(c *upstream.Client, o api.Options) api.FreqDistribAPI { return fn(c, o) }
}

func toMultiFreq[T api.MultiBlockFreqDistribAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.MultiBlockFreqDistribAPI {
	return func(c *upstream.Client, o api.Options) api.MultiBlockFreqDistribAPI { return fn(c, o) }
}

func toTimeDistrib[T api.TimeDistribAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.TimeDistribAPI {
	return func(c *upstream.Client, o api.Options) api.TimeDistribAPI { return fn(c, o) }
}

func toMatchingDocs[T api.MatchingDocsAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.MatchingDocsAPI {
	return func(c *upstream.Client, o api.Options) api.MatchingDocsAPI { return fn(c, o) }
}

func toWordForms[T api.WordFormsAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.WordFormsAPI {
	return func(c *upstream.Client, o api.Options) api.WordFormsAPI { return fn(c, o) }
}

func toConc[T api.ConcordanceAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.ConcordanceAPI {
	return func(c *upstream.Client, o api.Options) api.ConcordanceAPI { return fn(c, o) }
}

func toSpeeches[T api.SpeechesAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.SpeechesAPI {
	return func(c *upstream.Client, o api.Options) api.SpeechesAPI { return fn(c, o) }
}

func toSourceInfo[T api.SourceInfoAPI](fn func(*upstream.Client, api.Options) T) func(*upstream.Client, api.Options) api.SourceInfoAPI {
	return func(c *upstream.Client, o api.Options) api.SourceInfoAPI { return fn(c, o) }
}
