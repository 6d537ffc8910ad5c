package noske

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// CorpusInfoAPI reads corpus details from /corp_info.
type CorpusInfoAPI struct {
	client
}

// NewCorpusInfoAPI creates a NoSke corpus info API.
func NewCorpusInfoAPI(c *upstream.Client, opts api.Options) *CorpusInfoAPI {
	return &CorpusInfoAPI{client: newClient(c, opts)}
}

type corpInfoResponse struct {
	Name  string `json:"name"`
	Info  string `json:"info"`
	Sizes struct {
		// NoSke reports sizes as strings.
		TokenCount string `json:"tokencount"`
	} `json:"sizes"`
}

// SourceInfo implements api.SourceInfoAPI.
func (a *CorpusInfoAPI) SourceInfo(ctx context.Context, corpName, _ string) (*model.SourceDetails, error) {
	v := url.Values{}
	v.Set("corpname", corpName)
	v.Set("struct_attr_stats", "1")
	v.Set("subcorpora", "1")
	v.Set("format", "json")
	var resp corpInfoResponse
	if err := a.http.GetJSON(ctx, a.endpoint("corp_info"), v, a.headers, &resp); err != nil {
		return nil, err
	}
	size, _ := strconv.ParseInt(resp.Sizes.TokenCount, 10, 64) //nolint:errcheck // unknown size stays zero
	return &model.SourceDetails{
		Title:       resp.Name,
		Description: resp.Info,
		Size:        size,
		CitationInfo: model.CitationInfo{
			SourceName: resp.Name,
			Papers:     []string{},
		},
	}, nil
}
