package tile

import (
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

// WordTimeDistrib is the time distribution of one searched word.
type WordTimeDistrib struct {
	Word string                  `json:"word"`
	Data []model.DataItemWithWCI `json:"data"`
}

// MultiWordTimeDistribData is the state of a multi-word time
// distribution tile.
type MultiWordTimeDistribData struct {
	CorpName string            `json:"corpname"`
	Words    []WordTimeDistrib `json:"words"`
}

// multiWordTimeTile loads one chunk per word and subcorpus. Each arriving
// chunk is merged into the series of its word right away.
type multiWordTimeTile struct {
	api   api.TimeDistribAPI
	conf  *config.TileConf
	alpha stats.AlphaLevel

	chunks timeChunks
	words  []WordTimeDistrib
}

func (t *multiWordTimeTile) reset() {
	t.chunks = timeChunks{}
	t.words = nil
}

func (t *multiWordTimeTile) plan(q Query, dep Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	t.words = make([]WordTimeDistrib, len(q.Words))
	var chunks []chunk
	for i, w := range q.Words {
		t.words[i] = WordTimeDistrib{Word: w.Value}
		for _, subc := range subcorpora(t.conf) {
			args := api.TimeDistribArgs{
				CorpName: t.conf.CorpName,
				SubcName: subc,
				ConcID:   concID(t.conf, q, dep, i),
			}
			chunks = append(chunks, chunk{
				id:  chunkID(i, subc),
				run: timeDistribRunner(t.api, args),
			})
		}
	}
	return chunks, nil
}

func wordOfChunk(chunkID string) int {
	idx, _, _ := strings.Cut(chunkID, ":")
	i, err := strconv.Atoi(idx)
	if err != nil {
		return -1
	}
	return i
}

func (t *multiWordTimeTile) apply(chunkID string, data any) {
	resp, ok := data.(api.TimeDistribResponse)
	if !ok {
		return
	}
	i := wordOfChunk(chunkID)
	if i < 0 || i >= len(t.words) {
		return
	}
	t.chunks.add(chunkID, resp)

	words := make([]WordTimeDistrib, len(t.words))
	copy(words, t.words)
	words[i].Data = t.chunks.merge(t.alpha, func(id string) bool { return wordOfChunk(id) == i })
	t.words = words
}

func (t *multiWordTimeTile) numPages() int {
	return 1
}

func (t *multiWordTimeTile) data() any {
	words := make([]WordTimeDistrib, len(t.words))
	copy(words, t.words)
	return MultiWordTimeDistribData{CorpName: t.conf.CorpName, Words: words}
}

func (t *multiWordTimeTile) result() any {
	return t.data()
}

func (t *multiWordTimeTile) backlinks() []*model.BacklinkWithArgs {
	return nil
}
