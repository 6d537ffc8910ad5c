package mquery

import (
	"context"
	"net/url"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// CorpusInfoAPI reads corpus details from /info.
type CorpusInfoAPI struct {
	client
}

// NewCorpusInfoAPI creates an MQuery corpus info API.
func NewCorpusInfoAPI(c *upstream.Client, opts api.Options) *CorpusInfoAPI {
	return &CorpusInfoAPI{client: newClient(c, opts)}
}

type infoResponse struct {
	Corpus struct {
		Data struct {
			CorpName     string `json:"corpname"`
			Description  string `json:"description"`
			Size         int64  `json:"size"`
			WebURL       string `json:"webUrl"`
			CitationInfo *struct {
				DefaultRef        string   `json:"default_ref"`
				ArticleRef        []string `json:"article_ref"`
				OtherBibliography string   `json:"other_bibliography"`
			} `json:"citationInfo"`
		} `json:"data"`
		Error string `json:"error"`
	} `json:"corpus"`
}

// SourceInfo implements api.SourceInfoAPI; descriptions are localized.
func (a *CorpusInfoAPI) SourceInfo(ctx context.Context, corpName, lang string) (*model.SourceDetails, error) {
	v := url.Values{}
	setNonEmpty(v, "lang", lang)
	u := a.endpoint("info", corpName)
	var resp infoResponse
	if err := a.http.GetJSON(ctx, u, v, a.headers, &resp); err != nil {
		return nil, err
	}
	if resp.Corpus.Error != "" {
		return nil, &model.RequestError{URL: u, Message: resp.Corpus.Error}
	}
	d := resp.Corpus.Data
	ans := &model.SourceDetails{
		Title:       d.CorpName,
		Description: d.Description,
		Href:        d.WebURL,
		Size:        d.Size,
		CitationInfo: model.CitationInfo{
			SourceName: d.CorpName,
			Papers:     []string{},
		},
	}
	if ci := d.CitationInfo; ci != nil {
		ans.CitationInfo.Main = ci.DefaultRef
		if ci.ArticleRef != nil {
			ans.CitationInfo.Papers = ci.ArticleRef
		}
		ans.CitationInfo.OtherBibliography = ci.OtherBibliography
	}
	return ans, nil
}
