package textnorm

import (
	"regexp"
	"strings"
)

// basePasses plus one pass per input byte bounds the fixed-point loop in
// Normalize. Rule cascades consume at least one byte of markup per pass, so
// the loop always settles inside the budget.
const basePasses = 8

type step struct {
	rule  Rule
	apply func(string) string
}

var (
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	headingRe    = regexp.MustCompile(`(?m)^(?:[ \t]*#{1,6}[ \t]+)+`)
	listMarkerRe = regexp.MustCompile(`(?m)^([ \t]*)(?:[-*][ \t]+)+`)
	tablePipeRe  = regexp.MustCompile(`(?m)^(?:[ \t]*\|)+[ \t]*`)

	textMacroRe = regexp.MustCompile(`\\(?:text|mathrm|mathbf|textit|textbf)\{([^{}]*)\}`)
	accentRe    = regexp.MustCompile(`\\(overline|underline|vec|hat|bar|tilde)\{([^{}]*)\}`)

	environmentRe = regexp.MustCompile(`\\(?:begin|end)\{[^{}]*\}`)

	fracRe = regexp.MustCompile(`\\[dt]?frac\{([^}]+)\}\{([^}]+)\}`)

	cbrtRe = regexp.MustCompile(`\\sqrt\[3\]\{([^}]+)\}`)
	qrtRe  = regexp.MustCompile(`\\sqrt\[4\]\{([^}]+)\}`)
	sqrtRe = regexp.MustCompile(`\\sqrt\{([^}]+)\}`)

	macroNameRe = regexp.MustCompile(`\\([A-Za-z]+)`)

	supGroupRe = regexp.MustCompile(`\^\{([^{}]*)\}`)
	subGroupRe = regexp.MustCompile(`_\{([^{}]*)\}`)
	subBareRe  = regexp.MustCompile(`_([A-Za-z0-9])\b`)

	backslashRunRe = regexp.MustCompile(`\\{2,}`)

	speechMarkRe   = regexp.MustCompile("[*#`~]")
	speechQuoteRe  = regexp.MustCompile(`(?m)^(?:[ \t]*>[ \t]?)+`)
	speechBulletRe = regexp.MustCompile(`(?m)^([ \t]*)(?:•[ \t]*)+`)
)

var delimiterReplacer = strings.NewReplacer(
	`\left\{`, "{",
	`\right\}`, "}",
	`\left(`, "(",
	`\right)`, ")",
	`\left[`, "[",
	`\right]`, "]",
	`\left|`, "|",
	`\right|`, "|",
	`\left.`, "",
	`\right.`, "",
	`\displaystyle`, "",
	`\limits`, "",
	`\qquad`, " ",
	`\quad`, " ",
	`\[`, "",
	`\]`, "",
	`\(`, "",
	`\)`, "",
	`$$`, "",
	`$`, "",
	`\,`, " ",
	`\;`, " ",
	`\:`, " ",
	`\!`, "",
)

var superscriptReplacer = strings.NewReplacer(
	"^2", "²",
	"^3", "³",
	"^1", "¹",
	"^0", "⁰",
)

var escapeReplacer = strings.NewReplacer(
	`\%`, "%",
	`\&`, "&",
)

var steps = []step{
	{RuleEmphasis, stripEmphasis},
	{RuleMacros, func(s string) string { return replaceStable(textMacroRe, s, "$1") }},
	{RuleAccents, func(s string) string { return replaceAccents(s, false) }},
	{RuleAccentMarks, func(s string) string { return replaceAccents(s, true) }},
	{RuleDelimiters, stripDelimiters},
	{RuleFractions, func(s string) string { return fracRe.ReplaceAllString(s, "($1)/($2)") }},
	{RuleRoots, replaceRoots},
	{RuleSymbols, replaceSymbols},
	{RuleScripts, replaceScripts},
	{RuleEscapes, unescapeLiterals},
	{RuleSpeech, stripForSpeech},
}

// Normalize converts model-generated Markdown with LaTeX-style math into plain
// Unicode text using the categories enabled in p. It never fails: anything a
// rule does not recognise is passed through unchanged.
//
// The enabled steps are repeated until the text stops changing, so
// Normalize(Normalize(s, p), p) == Normalize(s, p).
func Normalize(text string, p Profile) string {
	if text == "" || p.Rules == 0 {
		return text
	}
	out := text
	for i := 0; i < basePasses+len(text); i++ {
		next := applyOnce(out, p.Rules)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func applyOnce(s string, rules Rule) string {
	for _, st := range steps {
		if rules.Has(st.rule) {
			s = st.apply(s)
		}
	}
	return s
}

func stripEmphasis(s string) string {
	if strings.Contains(s, "**") {
		s = boldRe.ReplaceAllString(s, "$1")
	}
	s = headingRe.ReplaceAllString(s, "")
	s = listMarkerRe.ReplaceAllString(s, "${1}• ")
	return tablePipeRe.ReplaceAllString(s, "")
}

// replaceStable repeats re until nothing matches, peeling nested groups
// from the inside out in a single step.
func replaceStable(re *regexp.Regexp, s, repl string) string {
	for re.MatchString(s) {
		s = re.ReplaceAllString(s, repl)
	}
	return s
}

func replaceAccents(s string, withMarks bool) string {
	for strings.Contains(s, `\`) {
		next := replaceAccentsOnce(s, withMarks)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func replaceAccentsOnce(s string, withMarks bool) string {
	return accentRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := accentRe.FindStringSubmatch(m)
		if len(sub) != 3 {
			return m
		}
		arg := sub[2]
		if !withMarks || arg == "" {
			return arg
		}
		return arg + accentMarks[sub[1]]
	})
}

func stripDelimiters(s string) string {
	s = environmentRe.ReplaceAllString(s, "")
	return delimiterReplacer.Replace(s)
}

func replaceRoots(s string) string {
	if !strings.Contains(s, `\sqrt`) {
		return s
	}
	s = cbrtRe.ReplaceAllString(s, "∛($1)")
	s = qrtRe.ReplaceAllString(s, "∜($1)")
	return sqrtRe.ReplaceAllString(s, "√($1)")
}

// replaceSymbols looks up the whole letter run after a backslash, so \in never
// eats the front of \infty or \int.
func replaceSymbols(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return macroNameRe.ReplaceAllStringFunc(s, func(m string) string {
		if sym, ok := symbolTable[m[1:]]; ok {
			return sym
		}
		return m
	})
}

func replaceScripts(s string) string {
	s = supGroupRe.ReplaceAllString(s, "^($1)")
	s = subGroupRe.ReplaceAllString(s, "_($1)")
	s = superscriptReplacer.Replace(s)
	return subBareRe.ReplaceAllString(s, "₍${1}₎")
}

func unescapeLiterals(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	s = backslashRunRe.ReplaceAllString(s, `\`)
	return escapeReplacer.Replace(s)
}

func stripForSpeech(s string) string {
	s = speechMarkRe.ReplaceAllString(s, "")
	s = speechQuoteRe.ReplaceAllString(s, "")
	s = speechBulletRe.ReplaceAllString(s, "$1")
	return strings.ReplaceAll(s, "|", " ")
}
