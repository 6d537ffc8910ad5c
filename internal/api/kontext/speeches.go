package kontext

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// SpeechesAPI loads the wide context of a concordance line including the
// structural tags needed to split it into speeches.
type SpeechesAPI struct {
	client
}

// NewSpeechesAPI creates a KonText speeches API. The web application
// header is always sent as widectx is not part of the public API.
func NewSpeechesAPI(c *upstream.Client, opts api.Options) *SpeechesAPI {
	opts.IsWebApp = true
	return &SpeechesAPI{client: newClient(c, opts)}
}

type widectxResponse struct {
	Pos         int                 `json:"pos"`
	Content     []model.LineElement `json:"content"`
	ExpandLeft  *api.ExpandArgs     `json:"expand_left_args"`
	ExpandRight *api.ExpandArgs     `json:"expand_right_args"`
}

// Call fetches the wide context around args.Pos.
func (a *SpeechesAPI) Call(ctx context.Context, args api.SpeechArgs) (*api.SpeechResponse, error) {
	v := url.Values{}
	v.Set("corpname", args.CorpName)
	v.Set("attrs", "word")
	v.Set("attr_allpos", "all")
	v.Set("ctxattrs", "word")
	v.Set("pos", strconv.Itoa(args.Pos))
	v.Set("structs", strings.Join(args.Structs, ","))
	if args.LeftCtx > 0 {
		v.Set("detail_left_ctx", strconv.Itoa(args.LeftCtx))
	}
	if args.RightCtx > 0 {
		v.Set("detail_right_ctx", strconv.Itoa(args.RightCtx))
	}
	v.Set("format", "json")

	var resp widectxResponse
	if err := a.http.GetJSON(ctx, a.endpoint("widectx"), v, a.headers, &resp); err != nil {
		return nil, err
	}
	return &api.SpeechResponse{
		Pos:         resp.Pos,
		Content:     resp.Content,
		ExpandLeft:  resp.ExpandLeft,
		ExpandRight: resp.ExpandRight,
	}, nil
}
