package kontext

import (
	"context"
	"net/url"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// CorpusInfoAPI describes a KonText corpus.
type CorpusInfoAPI struct {
	client
}

// NewCorpusInfoAPI creates a corpus details API.
func NewCorpusInfoAPI(c *upstream.Client, opts api.Options) *CorpusInfoAPI {
	opts.IsWebApp = true
	return &CorpusInfoAPI{client: newClient(c, opts)}
}

type corpDetailsResponse struct {
	CorpName     string `json:"corpname"`
	Description  string `json:"description"`
	Size         int64  `json:"size"`
	WebURL       string `json:"web_url"`
	CitationInfo *struct {
		ArticleRef        []string `json:"article_ref"`
		DefaultRef        string   `json:"default_ref"`
		OtherBibliography string   `json:"other_bibliography"`
	} `json:"citationInfo"`
}

// SourceInfo implements api.SourceInfoAPI. KonText ignores the UI language.
func (a *CorpusInfoAPI) SourceInfo(ctx context.Context, corpName, _ string) (*model.SourceDetails, error) {
	v := url.Values{}
	v.Set("corpname", corpName)
	v.Set("format", "json")
	var resp corpDetailsResponse
	if err := a.http.GetJSON(ctx, a.endpoint("corpora/ajax_get_corp_details"), v, a.headers, &resp); err != nil {
		return nil, err
	}
	ans := &model.SourceDetails{
		Title:       resp.CorpName,
		Description: resp.Description,
		Href:        resp.WebURL,
		Size:        resp.Size,
		CitationInfo: model.CitationInfo{
			SourceName: resp.CorpName,
			Papers:     []string{},
		},
	}
	if ci := resp.CitationInfo; ci != nil {
		ans.CitationInfo.Main = ci.DefaultRef
		if ci.ArticleRef != nil {
			ans.CitationInfo.Papers = ci.ArticleRef
		}
		ans.CitationInfo.OtherBibliography = ci.OtherBibliography
	}
	return ans, nil
}
