package stats

import (
	"sort"
	"strconv"

	"github.com/nao1215/wdglance/internal/model"
)

// MergeTimeChunks merges a chunk of raw time distribution items into
// already accumulated data. Items sharing a datetime key are combined by
// summing Freq and Norm; IPM and IPMInterval are then recomputed from
// the sums. The result is sorted by numeric datetime.
//
// acc is not modified.
func MergeTimeChunks(acc []model.DataItemWithWCI, chunk []model.TimeDistribItem, alpha AlphaLevel) []model.DataItemWithWCI {
	byDate := make(map[string]*model.DataItemWithWCI, len(acc)+len(chunk))
	keys := make([]string, 0, len(acc)+len(chunk))

	for _, item := range acc {
		if cur, ok := byDate[item.Datetime]; ok {
			cur.Freq += item.Freq
			cur.Norm += item.Norm
			continue
		}
		copied := item
		byDate[item.Datetime] = &copied
		keys = append(keys, item.Datetime)
	}

	for _, item := range chunk {
		if cur, ok := byDate[item.Datetime]; ok {
			cur.Freq += item.Freq
			cur.Norm += item.Norm
			continue
		}
		byDate[item.Datetime] = &model.DataItemWithWCI{
			Datetime: item.Datetime,
			Freq:     item.Freq,
			Norm:     item.Norm,
		}
		keys = append(keys, item.Datetime)
	}

	ans := make([]model.DataItemWithWCI, 0, len(keys))
	for _, k := range keys {
		item := byDate[k]
		item.IPM = CalcIPM(item.Freq, item.Norm)
		item.IPMInterval = IPMInterval(item.Freq, item.Norm, alpha)
		ans = append(ans, *item)
	}
	sort.SliceStable(ans, func(i, j int) bool {
		return lessDatetime(ans[i].Datetime, ans[j].Datetime)
	})
	return ans
}

// lessDatetime compares datetime keys numerically when both are integers
// (years) and lexically otherwise.
func lessDatetime(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
