package config

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/nao1215/wdglance/internal/model"
)

// Supported tile types.
const (
	TileTypeConcordance   = "ConcordanceTile"
	TileTypeFreqBar       = "FreqBarTile"
	TileTypeFreqPie       = "FreqPieTile"
	TileTypeTimeDistrib   = "TimeDistribTile"
	TileTypeMultiWordTime = "MultiWordTimeDistribTile"
	TileTypeMatchingDocs  = "MatchingDocsTile"
	TileTypeWordForms     = "WordFormsTile"
	TileTypeSpeeches      = "SpeechesTile"
)

// TileTypes lists all supported tile types.
var TileTypes = []string{
	TileTypeConcordance,
	TileTypeFreqBar,
	TileTypeFreqPie,
	TileTypeTimeDistrib,
	TileTypeMultiWordTime,
	TileTypeMatchingDocs,
	TileTypeWordForms,
	TileTypeSpeeches,
}

// LocalWordFormsAPIType selects the word forms stored in the local word
// distribution database. Such tiles need no apiURL.
const LocalWordFormsAPIType = "wdglance"

// ClientConf is the tile and layout configuration (wdglance.json).
type ClientConf struct {
	// RootURL is the public URL of the installation.
	RootURL string `yaml:"rootURL" json:"rootURL"`

	// MaxQueryWords limits the number of words in a multi-word query.
	MaxQueryWords int `yaml:"maxQueryWords" json:"maxQueryWords"`

	// Tiles maps tile names to their configuration. A configured tile is
	// active even when it is missing from the layout, which allows hidden
	// tiles providing data to others (typically a concordance).
	Tiles map[string]*TileConf `yaml:"tiles" json:"tiles"`

	// Layouts defines the visible tile groups.
	Layouts LayoutsConf `yaml:"layouts" json:"layouts"`
}

// LayoutsConf holds one layout per query type.
type LayoutsConf struct {
	Single LayoutConf `yaml:"single" json:"single"`
}

// LayoutConf is an ordered list of tile groups.
type LayoutConf struct {
	Groups []GroupConf `yaml:"groups" json:"groups"`
}

// GroupConf is one group of tiles.
type GroupConf struct {
	GroupLabel string    `yaml:"groupLabel" json:"groupLabel"`
	Tiles      []TileRef `yaml:"tiles" json:"tiles"`
}

// TileRef places a tile into a group.
type TileRef struct {
	Tile  string `yaml:"tile" json:"tile"`
	Width int    `yaml:"width" json:"width"`
}

// TileConf configures a single tile. Options not relevant to a tile
// type are ignored.
type TileConf struct {
	TileType           string            `yaml:"tileType" json:"tileType"`
	APIType            string            `yaml:"apiType" json:"apiType"`
	APIURL             string            `yaml:"apiURL" json:"apiURL"`
	Label              string            `yaml:"label" json:"label"`
	IsDisabled         bool              `yaml:"isDisabled" json:"isDisabled,omitempty"`
	WaitFor            string            `yaml:"waitFor" json:"waitFor,omitempty"`
	WaitForTimeoutSecs int               `yaml:"waitForTimeoutSecs" json:"waitForTimeoutSecs,omitempty"`
	Backlink           *model.Backlink   `yaml:"backlink" json:"backlink,omitempty"`
	APIHeaders         map[string]string `yaml:"apiHeaders" json:"-"`

	CorpName   string   `yaml:"corpname" json:"corpname,omitempty"`
	SubcName   string   `yaml:"subcname" json:"subcname,omitempty"`
	Subcorpora []string `yaml:"subcorpora" json:"subcorpora,omitempty"`

	// Frequency distribution options (KonText/NoSke parameter semantics).
	FCrit           []string          `yaml:"fcrit" json:"fcrit,omitempty"`
	CritLabels      []string          `yaml:"critLabels" json:"critLabels,omitempty"`
	FreqType        string            `yaml:"freqType" json:"freqType,omitempty"`
	FLimit          int               `yaml:"flimit" json:"flimit,omitempty"`
	FreqSort        string            `yaml:"freqSort" json:"freqSort,omitempty"`
	FPage           int               `yaml:"fpage" json:"fpage,omitempty"`
	FTTIncludeEmpty bool              `yaml:"fttIncludeEmpty" json:"fttIncludeEmpty,omitempty"`
	FMaxItems       int               `yaml:"fmaxitems" json:"fmaxitems,omitempty"`
	CustomArgs      map[string]string `yaml:"customArgs" json:"customArgs,omitempty"`

	// Concordance options.
	PageSize          int      `yaml:"pageSize" json:"pageSize,omitempty"`
	KwicLeftCtx       int      `yaml:"kwicLeftCtx" json:"kwicLeftCtx,omitempty"`
	KwicRightCtx      int      `yaml:"kwicRightCtx" json:"kwicRightCtx,omitempty"`
	PosQueryGenerator []string `yaml:"posQueryGenerator" json:"posQueryGenerator,omitempty"`

	// AlphaLevel is the significance level of confidence intervals and
	// of the rare word form filter.
	AlphaLevel string `yaml:"alphaLevel" json:"alphaLevel,omitempty"`

	// Matching documents options.
	SearchAttrs             []string `yaml:"searchAttrs" json:"searchAttrs,omitempty"`
	DisplayAttrs            []string `yaml:"displayAttrs" json:"displayAttrs,omitempty"`
	MinFreq                 int      `yaml:"minFreq" json:"minFreq,omitempty"`
	MaxNumCategories        int      `yaml:"maxNumCategories" json:"maxNumCategories,omitempty"`
	MaxNumCategoriesPerPage int      `yaml:"maxNumCategoriesPerPage" json:"maxNumCategoriesPerPage,omitempty"`

	// CorpusSize is used by the rare word form filter.
	CorpusSize float64 `yaml:"corpusSize" json:"corpusSize,omitempty"`

	// Speech options. Attribute pairs are [structure, attribute].
	SpeakerIDAttr     []string `yaml:"speakerIdAttr" json:"speakerIdAttr,omitempty"`
	SpeechSegment     []string `yaml:"speechSegment" json:"speechSegment,omitempty"`
	SpeechOverlapAttr []string `yaml:"speechOverlapAttr" json:"speechOverlapAttr,omitempty"`
	SpeechOverlapVal  string   `yaml:"speechOverlapVal" json:"speechOverlapVal,omitempty"`
	SpkOverlapMode    string   `yaml:"spkOverlapMode" json:"spkOverlapMode,omitempty"`
	MaxNumSpeeches    int      `yaml:"maxNumSpeeches" json:"maxNumSpeeches,omitempty"`
}

// WaitForTimeout returns how long the tile waits for its dependency.
func (t *TileConf) WaitForTimeout() time.Duration {
	if t.WaitForTimeoutSecs <= 0 {
		return DefaultWaitForTimeout
	}
	return time.Duration(t.WaitForTimeoutSecs) * time.Second
}

// needsCorpname reports whether the tile type queries a specific corpus.
func (t *TileConf) needsCorpname() bool {
	switch t.TileType {
	case TileTypeMatchingDocs:
		return false
	case TileTypeWordForms:
		return t.APIType != LocalWordFormsAPIType
	default:
		return true
	}
}

// Validate checks a single tile configuration.
func (t *TileConf) Validate() error {
	if !slices.Contains(TileTypes, t.TileType) {
		return fmt.Errorf("%w: %q", ErrUnknownTileType, t.TileType)
	}
	if t.APIType == "" {
		return ErrMissingAPIType
	}
	if t.APIURL == "" && t.APIType != LocalWordFormsAPIType {
		return ErrMissingAPIURL
	}
	if t.needsCorpname() && t.CorpName == "" {
		return ErrMissingCorpname
	}
	switch t.TileType {
	case TileTypeFreqBar, TileTypeFreqPie:
		if len(t.FCrit) == 0 {
			return ErrMissingFCrit
		}
	case TileTypeSpeeches:
		if t.WaitFor == "" {
			return ErrMissingWaitFor
		}
	}
	return nil
}

// ActiveTiles returns the names of all enabled tiles in sorted order.
func (c *ClientConf) ActiveTiles() []string {
	ans := make([]string, 0, len(c.Tiles))
	for name, t := range c.Tiles {
		if !t.IsDisabled {
			ans = append(ans, name)
		}
	}
	sort.Strings(ans)
	return ans
}

// Validate checks the tile configurations, their dependencies and the layout.
func (c *ClientConf) Validate() error {
	active := c.ActiveTiles()
	if len(active) == 0 {
		return ErrNoTiles
	}
	for _, name := range active {
		t := c.Tiles[name]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tile %s: %w", name, err)
		}
		if t.WaitFor != "" {
			dep, ok := c.Tiles[t.WaitFor]
			if !ok || dep.IsDisabled {
				return fmt.Errorf("tile %s: %w: %q", name, ErrUnknownDependency, t.WaitFor)
			}
		}
	}
	if err := c.checkCycles(active); err != nil {
		return err
	}
	for _, g := range c.Layouts.Single.Groups {
		for _, ref := range g.Tiles {
			t, ok := c.Tiles[ref.Tile]
			if !ok || t.IsDisabled {
				return fmt.Errorf("group %q: %w: %q", g.GroupLabel, ErrUnknownLayoutTile, ref.Tile)
			}
		}
	}
	return nil
}

func (c *ClientConf) checkCycles(active []string) error {
	for _, start := range active {
		seen := map[string]bool{start: true}
		for curr := c.Tiles[start].WaitFor; curr != ""; curr = c.Tiles[curr].WaitFor {
			if seen[curr] {
				return fmt.Errorf("tile %s: %w", start, ErrDependencyCycle)
			}
			seen[curr] = true
		}
	}
	return nil
}
