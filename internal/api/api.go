package api

import (
	"context"

	"github.com/nao1215/wdglance/internal/model"
)

// Options are passed to every API constructor.
type Options struct {
	// URL is the root URL of the backend.
	URL string

	// Headers are sent with every request of the tile.
	Headers map[string]string

	// CustomArgs are backend specific arguments from the tile configuration.
	CustomArgs map[string]string

	// IsWebApp makes KonText clients identify themselves as the web
	// application (X-Is-Web-App header) instead of an API consumer.
	IsWebApp bool
}

// FreqArgs describes a frequency distribution query over an existing
// concordance.
type FreqArgs struct {
	CorpName        string
	SubcName        string
	ConcID          string
	FCrit           string
	FreqType        string
	FLimit          int
	FreqSort        string
	FPage           int
	FTTIncludeEmpty bool
	MaxItems        int
}

// FreqResponse is a normalized single block frequency distribution.
type FreqResponse struct {
	ConcID   string
	CorpName string
	SubcName string
	ConcSize int
	Rows     []model.DataRow
}

// FreqDistribAPI fetches a single criterion frequency distribution.
type FreqDistribAPI interface {
	Call(ctx context.Context, args FreqArgs) (*FreqResponse, error)
	Backlink(tpl *model.Backlink, args FreqArgs) *model.BacklinkWithArgs
}

// MultiBlockFreqResponse holds one block of rows per requested criterion.
type MultiBlockFreqResponse struct {
	ConcID   string
	CorpName string
	SubcName string
	ConcSize int
	Blocks   [][]model.DataRow
}

// MultiBlockFreqDistribAPI fetches several criteria in one call.
// args.FCrit is ignored in favor of fcrit.
type MultiBlockFreqDistribAPI interface {
	CallMulti(ctx context.Context, args FreqArgs, fcrit []string) (*MultiBlockFreqResponse, error)
	Backlink(tpl *model.Backlink, args FreqArgs) *model.BacklinkWithArgs
}

// TimeDistribArgs describes a time distribution query.
type TimeDistribArgs struct {
	CorpName string
	SubcName string
	// ConcID is the concordance identifier, or the query itself for
	// backends without persistent concordances.
	ConcID string
}

// TimeDistribResponse is one (possibly partial) time distribution answer.
type TimeDistribResponse struct {
	CorpName string
	SubcName string
	ConcID   string
	Items    []model.TimeDistribItem

	// Overwrite tells the consumer the items replace everything previously
	// emitted by the same call (cumulative streams).
	Overwrite bool
}

// TimeDistribAPI fetches a time distribution. Implementations call emit
// once per received chunk, in arrival order, from the calling goroutine.
// Call returns after the last chunk.
type TimeDistribAPI interface {
	Call(ctx context.Context, args TimeDistribArgs, emit func(TimeDistribResponse)) error
	Backlink(tpl *model.Backlink, args TimeDistribArgs) *model.BacklinkWithArgs
}

// MatchingDocsArgs describes a matching documents query.
type MatchingDocsArgs struct {
	CorpName     string
	SubcName     string
	ConcID       string
	Query        string
	SearchAttrs  []string
	DisplayAttrs []string
	MinFreq      int
	MaxItems     int
}

// MatchingDocsAPI fetches documents matching a query.
type MatchingDocsAPI interface {
	Call(ctx context.Context, args MatchingDocsArgs) ([]model.MatchingDoc, error)
	Backlink(tpl *model.Backlink, args MatchingDocsArgs) *model.BacklinkWithArgs
}

// WordFormsArgs describes a word forms query. Concordance based backends
// use ConcID, lemma based ones use Lemma and Pos.
type WordFormsArgs struct {
	CorpName string
	SubcName string
	ConcID   string
	Lemma    string
	Pos      []string
}

// WordFormsAPI fetches the word forms of a lemma. Ratio and InteractionID
// of the returned items are left for the caller to fill in.
type WordFormsAPI interface {
	Call(ctx context.Context, args WordFormsArgs) ([]model.WordFormItem, error)
	Backlink(tpl *model.Backlink, args WordFormsArgs) *model.BacklinkWithArgs
}

// ConcArgs describes a concordance query. When ConcID is set the existing
// concordance is paged instead of submitting Query.
type ConcArgs struct {
	CorpName     string
	SubcName     string
	Query        string
	ConcID       string
	PageSize     int
	Page         int
	KwicLeftCtx  int
	KwicRightCtx int
}

// ConcordanceAPI creates concordances.
type ConcordanceAPI interface {
	Call(ctx context.Context, args ConcArgs) (*model.ConcResponse, error)
	MkMatchQuery(qm model.QueryMatch, generator []string) string
	Backlink(tpl *model.Backlink, resp *model.ConcResponse) *model.BacklinkWithArgs
}

// SpeechArgs describes a wide context (speech transcript) request around
// a concordance line.
type SpeechArgs struct {
	CorpName string
	Pos      int
	Structs  []string
	LeftCtx  int
	RightCtx int
}

// ExpandArgs are the arguments for loading more context on one side.
type ExpandArgs struct {
	LeftCtx  int `json:"detail_left_ctx"`
	RightCtx int `json:"detail_right_ctx"`
	Pos      int `json:"pos"`
}

// SpeechResponse is a wide context of a concordance line.
type SpeechResponse struct {
	Pos         int
	Content     []model.LineElement
	ExpandLeft  *ExpandArgs
	ExpandRight *ExpandArgs
}

// SpeechesAPI fetches speech transcripts.
type SpeechesAPI interface {
	Call(ctx context.Context, args SpeechArgs) (*SpeechResponse, error)
}

// SourceInfoAPI describes the data source of a tile.
type SourceInfoAPI interface {
	SourceInfo(ctx context.Context, corpName, lang string) (*model.SourceDetails, error)
}
