package textnorm

import (
	"fmt"
	"html"
	"strings"
	"unicode"
)

type mathSpan struct {
	placeholder string
	body        string
	display     bool
}

// NormalizeHTML is the export variant of Normalize. Math spans are cut out
// before normalization and re-inserted wrapped in marker elements for the
// PDF renderer: block math ($$..$$, \[..\]) as <div class="math">, inline math
// ($..$, \(..\)) as <span class="math-inline">. Everything else is HTML-escaped.
func NormalizeHTML(text string, p Profile) string {
	if strings.TrimSpace(text) == "" {
		return html.EscapeString(text)
	}
	masked, spans := extractMath(text)
	out := html.EscapeString(Normalize(masked, p))
	for _, sp := range spans {
		inner := html.EscapeString(strings.TrimSpace(Normalize(sp.body, p)))
		var wrapped string
		if sp.display {
			wrapped = `<div class="math">` + inner + `</div>`
		} else {
			wrapped = `<span class="math-inline">` + inner + `</span>`
		}
		out = strings.Replace(out, sp.placeholder, wrapped, 1)
	}
	return out
}

func extractMath(text string) (string, []mathSpan) {
	if !strings.ContainsAny(text, `$\`) {
		return text, nil
	}
	var spans []mathSpan
	out := text
	out, spans = extractDelimited(out, "$$", "$$", true, spans)
	out, spans = extractDelimited(out, `\[`, `\]`, true, spans)
	out, spans = extractDelimited(out, `\(`, `\)`, false, spans)
	out, spans = extractDelimited(out, "$", "$", false, spans)
	return out, spans
}

func extractDelimited(text, open, close string, display bool, spans []mathSpan) (string, []mathSpan) {
	if !strings.Contains(text, open) {
		return text, spans
	}
	var b strings.Builder
	b.Grow(len(text))

	isDelim := func(s, delim string, i int) bool {
		if i < 0 || i+len(delim) > len(s) || s[i:i+len(delim)] != delim {
			return false
		}
		slashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			slashes++
		}
		return slashes%2 == 0
	}
	// a lone $ must not start on the first half of $$
	single := open == "$"

	for i := 0; i < len(text); {
		if !isDelim(text, open, i) || (single && i+1 < len(text) && text[i+1] == '$') {
			b.WriteByte(text[i])
			i++
			continue
		}
		start := i + len(open)
		j := start
		for j < len(text) && !isDelim(text, close, j) {
			j++
		}
		if j >= len(text) {
			b.WriteString(text[i:start])
			i = start
			continue
		}
		body := text[start:j]
		if single && (body != strings.TrimSpace(body) || !looksLikeMath(body)) {
			b.WriteString(open)
			i = start
			continue
		}
		label := "EQ"
		if display {
			label = "EQD"
		}
		ph := fmt.Sprintf("[[%s%d]]", label, len(spans)+1)
		b.WriteString(ph)
		spans = append(spans, mathSpan{placeholder: ph, body: body, display: display})
		i = j + len(close)
	}
	return b.String(), spans
}

func looksLikeMath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	// currency: $12.99 and $1,000
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsDigit(r) || r == ',' || r == '.' {
			continue
		}
		return true
	}
	return false
}
