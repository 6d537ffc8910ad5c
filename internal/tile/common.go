package tile

import (
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
)

// Concordances is the result of a concordance tile: one concordance per
// searched word. Tiles waiting for a concordance tile receive it as the
// payload of its TileDataLoaded action.
type Concordances []*model.ConcResponse

// forWord returns the concordance of the i-th word. Tiles querying more
// words than the concordance tile provides reuse the first concordance.
func (c Concordances) forWord(i int) *model.ConcResponse {
	if i < len(c) && c[i] != nil {
		return c[i]
	}
	if len(c) > 0 {
		return c[0]
	}
	return nil
}

// concID returns the concordance identifier a tile uses for the i-th
// word. Without a concordance to wait for the CQL query itself is used,
// which is what backends without persistent concordances expect.
func concID(conf *config.TileConf, q Query, dep Concordances, i int) string {
	if c := dep.forWord(i); c != nil {
		return c.ConcID
	}
	if i >= len(q.Words) {
		return ""
	}
	return api.MkMatchQuery(q.Words[i].Match, conf.PosQueryGenerator, api.EscapeQuote)
}

// subcorpora returns the subcorpora a tile queries; an empty name stands
// for the whole corpus.
func subcorpora(conf *config.TileConf) []string {
	if len(conf.Subcorpora) > 0 {
		return conf.Subcorpora
	}
	return []string{conf.SubcName}
}

func chunkID(wordIdx int, subc string) string {
	return strconv.Itoa(wordIdx) + ":" + subc
}

func compactBacklinks(links ...*model.BacklinkWithArgs) []*model.BacklinkWithArgs {
	var ans []*model.BacklinkWithArgs
	for _, l := range links {
		if l != nil {
			ans = append(ans, l)
		}
	}
	return ans
}

func numPagesOf(n, perPage int) int {
	if perPage <= 0 || n == 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}
