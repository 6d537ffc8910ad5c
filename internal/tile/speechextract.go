package tile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
)

// Overlap modes of speech transcripts.
const (
	// OverlapModeFull joins overlapping speeches into one line.
	OverlapModeFull = "full"

	// OverlapModeSimple keeps overlap markup inside the speech text.
	OverlapModeSimple = "simple"
)

// Line element classes used by KonText.
const (
	classStructure = "strc"
	classKwic      = "coll"
)

var attrNameRe = regexp.MustCompile(`([a-zA-Z0-9_]+)=`)

// attrPair is a [structure, attribute] pair.
type attrPair struct {
	structure string
	attr      string
}

func newAttrPair(v []string) attrPair {
	var p attrPair
	if len(v) > 0 {
		p.structure = v[0]
	}
	if len(v) > 1 {
		p.attr = v[1]
	}
	return p
}

func (p attrPair) String() string {
	if p.structure == "" || p.attr == "" {
		return ""
	}
	return p.structure + "." + p.attr
}

// speechParser splits a wide context into speeches.
type speechParser struct {
	speaker     attrPair
	segment     attrPair
	overlap     attrPair
	overlapVal  string
	overlapMode string

	speakerTag *regexp.Regexp
	segmentTag *regexp.Regexp
	overlapTag *regexp.Regexp
}

func tagRegexp(name string) *regexp.Regexp {
	return regexp.MustCompile(`<` + regexp.QuoteMeta(name) + `(\s+[^>]+)>`)
}

func newSpeechParser(conf *config.TileConf) *speechParser {
	p := &speechParser{
		speaker:     newAttrPair(conf.SpeakerIDAttr),
		segment:     newAttrPair(conf.SpeechSegment),
		overlap:     newAttrPair(conf.SpeechOverlapAttr),
		overlapVal:  conf.SpeechOverlapVal,
		overlapMode: conf.SpkOverlapMode,
	}
	if p.overlapMode == "" {
		p.overlapMode = OverlapModeSimple
	}
	p.speakerTag = tagRegexp(p.speaker.structure)
	p.segmentTag = tagRegexp(p.segment.structure)
	p.overlapTag = regexp.MustCompile(`</?(` + regexp.QuoteMeta(p.overlap.structure) + `)(>|[^>]+>)`)
	return p
}

// parseTag returns the attributes of the first opening tag matched by re
// or nil when there is none.
func parseTag(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	body := strings.TrimSpace(m[1])
	locs := attrNameRe.FindAllStringSubmatchIndex(body, -1)
	ans := make(map[string]string, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		ans[body[loc[2]:loc[3]]] = strings.TrimSpace(body[loc[1]:end])
	}
	return ans
}

func (p *speechParser) newSpeech(speakerID string, attrs map[string]string) *model.Speech {
	metadata := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if k != p.segment.attr && k != p.speaker.attr {
			metadata[k] = v
		}
	}
	return &model.Speech{
		SpeakerID: speakerID,
		Text:      []model.LineElement{},
		Segments:  []model.SpeechSegment{},
		Metadata:  metadata,
	}
}

// extract splits the wide context into speech lines. Speeches overlapping
// in time share a line when the full overlap mode is active.
func (p *speechParser) extract(content []model.LineElement) []model.SpeechLine {
	curr := p.newSpeech("", nil)
	var (
		prev     *model.Speech
		speeches []*model.Speech
	)
	for _, item := range content {
		if item.Class != classStructure {
			curr.Text = append(curr.Text, item)
			continue
		}
		if attrs := parseTag(p.speakerTag, item.Str); attrs != nil && attrs[p.speaker.attr] != "" {
			if len(curr.Text) > 0 || curr.SpeakerID != "" {
				speeches = append(speeches, curr)
			}
			prev = curr
			curr = p.newSpeech(attrs[p.speaker.attr], attrs)
		}
		if p.segment.structure != "" && strings.Contains(item.Str, "<"+p.segment.structure) {
			if attrs := parseTag(p.segmentTag, item.Str); attrs != nil {
				curr.Segments = append(curr.Segments, model.SpeechSegment{LineIdx: -1, Value: attrs[p.segment.attr]})
			}
		}
		if p.overlapMode == OverlapModeSimple && p.overlap.structure != "" {
			for _, tag := range p.overlapTag.FindAllString(item.Str, -1) {
				el := model.LineElement{Class: item.Class, Str: tag}
				if strings.HasPrefix(tag, "</") && strings.Index(item.Str, "<"+p.speaker.structure) > 0 && prev != nil {
					prev.Text = append(prev.Text, el)
				} else {
					curr.Text = append(curr.Text, el)
				}
			}
		}
	}
	if len(curr.Text) > 0 {
		speeches = append(speeches, curr)
	}
	return p.mergeOverlaps(speeches)
}

func (p *speechParser) isOverlap(s1, s2 *model.Speech) bool {
	if s1 == nil || s2 == nil || p.overlapMode != OverlapModeFull {
		return false
	}
	flag1 := s1.Metadata[p.overlap.attr]
	flag2 := s2.Metadata[p.overlap.attr]
	return flag1 == flag2 &&
		flag2 == p.overlapVal &&
		len(s1.Segments) > 0 && len(s2.Segments) > 0 &&
		s1.Segments[0].Value == s2.Segments[0].Value
}

func (p *speechParser) mergeOverlaps(speeches []*model.Speech) []model.SpeechLine {
	var (
		ans  []model.SpeechLine
		prev *model.Speech
	)
	for _, s := range speeches {
		if p.isOverlap(prev, s) {
			line := append(ans[len(ans)-1], *s)
			sort.SliceStable(line, func(i, j int) bool { return line[i].SpeakerID < line[j].SpeakerID })
			ans[len(ans)-1] = line
		} else {
			ans = append(ans, model.SpeechLine{*s})
		}
		prev = s
	}
	return withLineIndexes(ans)
}

// withLineIndexes points the segments of every speech to its line.
func withLineIndexes(lines []model.SpeechLine) []model.SpeechLine {
	for i, line := range lines {
		for j := range line {
			segs := make([]model.SpeechSegment, len(line[j].Segments))
			for k, seg := range line[j].Segments {
				segs[k] = model.SpeechSegment{LineIdx: i, Value: seg.Value}
			}
			line[j].Segments = segs
		}
	}
	return lines
}

// kwicLine returns the index of the last line containing the KWIC or -1.
func kwicLine(lines []model.SpeechLine) int {
	ans := -1
	for i, line := range lines {
		for _, s := range line {
			for _, el := range s.Text {
				if el.Class == classKwic {
					ans = i
				}
			}
		}
	}
	return ans
}

// normalizeSpeechesRange keeps at most maxNumSpeeches lines around the
// KWIC. A non-positive maximum keeps all lines.
func normalizeSpeechesRange(lines []model.SpeechLine, maxNumSpeeches int) []model.SpeechLine {
	if maxNumSpeeches <= 0 {
		return lines
	}
	kwic := kwicLine(lines)
	lft, rgt := 0, len(lines)
	for rgt-lft > maxNumSpeeches {
		if kwic-lft > rgt-1-kwic {
			lft++
		} else {
			rgt--
		}
	}
	return withLineIndexes(lines[lft:rgt])
}

// speakers returns the distinct speaker ids in order of appearance.
func speakers(lines []model.SpeechLine) []string {
	seen := make(map[string]bool)
	var ans []string
	for _, line := range lines {
		for _, s := range line {
			if s.SpeakerID != "" && !seen[s.SpeakerID] {
				seen[s.SpeakerID] = true
				ans = append(ans, s.SpeakerID)
			}
		}
	}
	return ans
}
