package api

import (
	"fmt"
	"strings"

	"github.com/nao1215/wdglance/internal/model"
)

// PosQueryFunc converts a part of speech value into the value used in a
// CQL attribute query.
type PosQueryFunc func(pos string) string

// Penn Treebank tag patterns of the positional tag values.
var pennTreebankLabels = map[string]string{
	"J": "CC",
	"C": "CD",
	"R": "IN",
	"A": "J.*",
	"N": "N.*",
	"P": "PRP.*",
	"D": "R.*",
	"T": "RP",
	"I": "UH",
	"V": "V.*",
}

// PosQueryFactory returns the conversion named by a posQueryGenerator
// configuration ("directPos", "ppTagset" or "pennTreebank"). Unknown names
// fall back to directPos.
func PosQueryFactory(name string) PosQueryFunc {
	switch name {
	case "ppTagset":
		return func(pos string) string { return strings.ToUpper(pos) + ".+" }
	case "pennTreebank":
		return func(pos string) string { return pennTreebankLabels[pos] }
	default:
		return func(pos string) string { return pos }
	}
}

// EscapeQuote escapes double quotes inside a CQL string literal.
func EscapeQuote(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

var regexpEscaper = strings.NewReplacer(
	`"`, `\"`,
	`?`, `\?`,
	`!`, `\!`,
	`.`, `\.`,
	`*`, `\*`,
	`+`, `\+`,
)

// EscapeRegexp escapes double quotes and the regular expression operators
// MQuery interprets inside attribute values.
func EscapeRegexp(v string) string {
	return regexpEscaper.Replace(v)
}

// MkMatchQuery builds a CQL query matching qm. A lemma query is produced
// when qm carries parts of speech, otherwise a word query. generator is
// the [attribute, conversion] pair from posQueryGenerator.
func MkMatchQuery(qm model.QueryMatch, generator []string, escape func(string) string) string {
	if len(qm.Pos) > 0 {
		attr, conv := "pos", "directPos"
		if len(generator) > 0 && generator[0] != "" {
			attr = generator[0]
		}
		if len(generator) > 1 {
			conv = generator[1]
		}
		fn := PosQueryFactory(conv)
		lemmas := strings.Split(qm.Lemma, " ")
		parts := make([]string, len(lemmas))
		for i, lemma := range lemmas {
			if i < len(qm.Pos) {
				parts[i] = fmt.Sprintf(`[lemma="%s" & %s="%s"]`, escape(lemma), attr, fn(qm.Pos[i]))
			} else {
				parts[i] = fmt.Sprintf(`[lemma="%s"]`, escape(lemma))
			}
		}
		return strings.Join(parts, " ")
	}
	if qm.Word == "" {
		return ""
	}
	var sb strings.Builder
	for _, w := range strings.Split(qm.Word, " ") {
		fmt.Fprintf(&sb, `[word="%s"]`, escape(w))
	}
	return sb.String()
}
