package subtitle

import (
	"regexp"
	"strings"

	"youtube-ai-summary/internal/domain/model"
)

const (
	maxSentenceRunes = 200
	// how far past the limit a '.' or ' ' may sit and still be used as the cut
	sentenceSlack = 20
)

var (
	cueSeparator = regexp.MustCompile(`(\r?\n){2,}`)
	lineBreak    = regexp.MustCompile(`\r?\n`)
	bracketTag   = regexp.MustCompile(`\[.*?\]`)
	inlineTag    = regexp.MustCompile(`<[^>]*>`)
)

// Sentence is a cleaned line of speech with the cue time it started at.
type Sentence struct {
	Start string
	Text  string
}

// Processor turns a VTT or SRT caption file into "start:sentence" lines.
// Rolling auto-captions repeat the tail of the previous cue; only the new
// part of each cue is kept.
type Processor struct {
	maxLen int
}

func NewProcessor() *Processor {
	return &Processor{maxLen: maxSentenceRunes}
}

func (p *Processor) Process(raw string) string {
	sentences := p.Sentences(raw)
	lines := make([]string, 0, len(sentences))
	for _, s := range sentences {
		lines = append(lines, s.Start+":"+s.Text)
	}
	return strings.Join(lines, "\n")
}

func (p *Processor) Sentences(raw string) []Sentence {
	var (
		out      []Sentence
		buf      []rune
		bufStart string
		last     string
	)

	for _, block := range cueSeparator.Split(raw, -1) {
		start, text, ok := parseCue(block)
		if !ok || text == "" {
			continue
		}

		phrase := strings.TrimSpace(text[model.OverlapLen(last, text):])
		last = text
		if phrase == "" {
			continue
		}
		if len(buf) == 0 {
			bufStart = start
		} else {
			buf = append(buf, ' ')
		}
		buf = append(buf, []rune(phrase)...)

		for len(buf) > p.maxLen {
			cut := p.cutIndex(buf)
			if s := strings.TrimSpace(string(buf[:cut+1])); s != "" {
				out = append(out, Sentence{Start: bufStart, Text: s})
			}
			buf = []rune(strings.TrimLeft(string(buf[cut+1:]), " "))
			// the remainder started somewhere inside this cue
			bufStart = start
		}
	}

	if s := strings.TrimSpace(string(buf)); s != "" {
		out = append(out, Sentence{Start: bufStart, Text: s})
	}
	return out
}

// cutIndex prefers the last '.', then the last space, within the limit
// plus slack, and falls back to a hard cut.
func (p *Processor) cutIndex(buf []rune) int {
	limit := p.maxLen + sentenceSlack
	if len(buf) < limit {
		limit = len(buf)
	}
	window := buf[:limit]
	for _, sep := range []rune{'.', ' '} {
		for i := len(window) - 1; i >= 0; i-- {
			if window[i] == sep {
				return i
			}
		}
	}
	return p.maxLen
}

// parseCue finds the timing line by its arrow; everything after it is text.
func parseCue(block string) (start, text string, ok bool) {
	lines := lineBreak.Split(strings.TrimSpace(block), -1)
	for i, line := range lines {
		if !strings.Contains(line, "-->") {
			continue
		}
		start = strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
		body := strings.Join(lines[i+1:], " ")
		body = inlineTag.ReplaceAllString(body, "")
		body = bracketTag.ReplaceAllString(body, "")
		return start, strings.Join(strings.Fields(body), " "), true
	}
	return "", "", false
}
