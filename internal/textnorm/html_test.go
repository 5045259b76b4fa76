package textnorm

import (
	"strings"
	"testing"
)

func TestNormalizeHTMLWrapsMath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "inline dollar",
			in:   `Area is $\pi r^2$.`,
			want: `Area is <span class="math-inline">π r²</span>.`,
		},
		{
			name: "block dollar",
			in:   `$$\frac{a}{b}$$`,
			want: `<div class="math">(a)/(b)</div>`,
		},
		{
			name: "bracket forms",
			in:   `\(x\) and \[y\]`,
			want: `<span class="math-inline">x</span> and <div class="math">y</div>`,
		},
		{
			name: "escapes plain text",
			in:   "**Tom** & <Jerry>",
			want: "Tom &amp; &lt;Jerry&gt;",
		},
		{
			name: "escaped ampersand",
			in:   `R\&D costs 50\%`,
			want: "R&amp;D costs 50%",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeHTML(tc.in, Export); got != tc.want {
				t.Fatalf("NormalizeHTML(%q): got=%q want=%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeHTMLCurrencyIsNotMath(t *testing.T) {
	got := NormalizeHTML("Costs $5 and $10 today", Export)
	if strings.Contains(got, "math") {
		t.Fatalf("currency wrapped as math: %q", got)
	}
	if got != "Costs 5 and 10 today" {
		t.Fatalf("currency: got=%q", got)
	}
}

func TestNormalizeHTMLUnterminatedMath(t *testing.T) {
	got := NormalizeHTML(`start $x + 1`, Export)
	if strings.Contains(got, "math") {
		t.Fatalf("unterminated span wrapped: %q", got)
	}
	if got != "start x + 1" {
		t.Fatalf("unterminated: got=%q", got)
	}
}

func TestNormalizeHTMLBlank(t *testing.T) {
	if got := NormalizeHTML("", Export); got != "" {
		t.Fatalf("empty: got=%q", got)
	}
}

func TestExtractMathPlaceholders(t *testing.T) {
	masked, spans := extractMath(`a $x$ b $$y$$ c \$5`)
	if len(spans) != 2 {
		t.Fatalf("spans: got=%d want=2 (%q)", len(spans), masked)
	}
	if !spans[0].display || spans[0].body != "y" {
		t.Fatalf("first span: got=%+v", spans[0])
	}
	if spans[1].display || spans[1].body != "x" {
		t.Fatalf("second span: got=%+v", spans[1])
	}
	if want := `a [[EQ2]] b [[EQD1]] c \$5`; masked != want {
		t.Fatalf("masked: got=%q want=%q", masked, want)
	}
}
