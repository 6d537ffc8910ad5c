package model

import (
	"net/url"
	"strings"
)

// Backlink describes a link back to the source corpus tool.
// It usually comes from tile configuration and acts as a template
// for BacklinkWithArgs.
type Backlink struct {
	URL      string `json:"url" yaml:"url"`
	Label    string `json:"label" yaml:"label"`
	Method   string `json:"method,omitempty" yaml:"method,omitempty"`
	SubcName string `json:"subcname,omitempty" yaml:"subcname,omitempty"`
}

// BacklinkArg is a single query argument of a backlink.
type BacklinkArg struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BacklinkWithArgs is a fully specified backlink. It is built once per
// query from the tile state and the API identifiers and never modified.
type BacklinkWithArgs struct {
	URL    string        `json:"url"`
	Label  string        `json:"label"`
	Method string        `json:"method"`
	Args   []BacklinkArg `json:"args"`
}

// NewBacklinkWithArgs creates a backlink from a template. Arguments are
// kept in the given order. A nil template yields nil.
func NewBacklinkWithArgs(tpl *Backlink, path string, args ...BacklinkArg) *BacklinkWithArgs {
	if tpl == nil {
		return nil
	}
	method := tpl.Method
	if method == "" {
		method = "GET"
	}
	u := strings.TrimRight(tpl.URL, "/")
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	copied := make([]BacklinkArg, 0, len(args))
	for _, a := range args {
		if a.Value == "" {
			continue
		}
		copied = append(copied, a)
	}
	return &BacklinkWithArgs{
		URL:    u,
		Label:  tpl.Label,
		Method: strings.ToUpper(method),
		Args:   copied,
	}
}

// Arg is a shorthand constructor for BacklinkArg.
func Arg(key, value string) BacklinkArg {
	return BacklinkArg{Key: key, Value: value}
}

// FinalURL renders the backlink URL including its query arguments.
func (b *BacklinkWithArgs) FinalURL() string {
	if b == nil {
		return ""
	}
	if len(b.Args) == 0 {
		return b.URL
	}
	var sb strings.Builder
	sb.WriteString(b.URL)
	sb.WriteByte('?')
	for i, a := range b.Args {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(a.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(a.Value))
	}
	return sb.String()
}
