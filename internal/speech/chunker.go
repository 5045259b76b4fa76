package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the per-utterance limit most platform speech engines accept.
const DefaultMaxChunkSize = 3500

// SplitSentences splits text after '.', '!', '?' or the Devanagari danda when the mark is
// followed by whitespace or the end of input. Marks stay attached to their sentence and
// blank sentences are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if !isSentenceEnd(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}

// Chunk groups sentences greedily into chunks of at most maxChunkSize runes.
// A sentence longer than the bound is split on whitespace, and a single word
// longer than the bound is cut into bound-sized pieces. maxChunkSize <= 0
// selects DefaultMaxChunkSize. Blank input yields no chunks.
func Chunk(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	acc := newAccumulator(maxChunkSize)
	for _, sentence := range SplitSentences(text) {
		if runeLen(sentence) <= maxChunkSize {
			acc.add(sentence)
			continue
		}
		for _, word := range strings.Fields(sentence) {
			if runeLen(word) <= maxChunkSize {
				acc.add(word)
				continue
			}
			for _, piece := range hardSplit(word, maxChunkSize) {
				acc.add(piece)
			}
		}
	}
	return acc.finish()
}

type accumulator struct {
	max    int
	cur    strings.Builder
	curLen int
	out    []string
}

func newAccumulator(max int) *accumulator {
	return &accumulator{max: max}
}

// add appends unit (already <= max runes) to the current chunk, flushing first
// when the joined result would exceed the bound.
func (a *accumulator) add(unit string) {
	n := runeLen(unit)
	if a.curLen > 0 && a.curLen+1+n > a.max {
		a.flush()
	}
	if a.curLen > 0 {
		a.cur.WriteByte(' ')
		a.curLen++
	}
	a.cur.WriteString(unit)
	a.curLen += n
}

func (a *accumulator) flush() {
	if a.curLen == 0 {
		return
	}
	a.out = append(a.out, a.cur.String())
	a.cur.Reset()
	a.curLen = 0
}

func (a *accumulator) finish() []string {
	a.flush()
	return a.out
}

func hardSplit(word string, max int) []string {
	runes := []rune(word)
	out := make([]string, 0, len(runes)/max+1)
	for len(runes) > 0 {
		n := max
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
