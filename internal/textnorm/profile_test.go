package textnorm

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRules(t *testing.T) {
	got, err := ParseRules([]string{"Emphasis", " symbols ", ""})
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if want := RuleEmphasis | RuleSymbols; got != want {
		t.Fatalf("ParseRules: got=%v want=%v", got, want)
	}

	if _, err := ParseRules([]string{"latex"}); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("ParseRules unknown: got=%v want=%v", err, ErrUnknownRule)
	}
}

func TestRuleNamesFollowExecutionOrder(t *testing.T) {
	r := RuleEscapes | RuleEmphasis | RuleFractions
	got := strings.Join(r.Names(), ",")
	if want := "emphasis,fractions,escapes"; got != want {
		t.Fatalf("Names: got=%q want=%q", got, want)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Lookup("")
	if err != nil || p.Name != ProfileNotes {
		t.Fatalf("Lookup default: got=%v err=%v", p, err)
	}
	p, err = reg.Lookup("  Question_Paper ")
	if err != nil || p.Rules != QuestionPaper.Rules {
		t.Fatalf("Lookup question_paper: got=%v err=%v", p, err)
	}
	if _, err := reg.Lookup("poetry"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("Lookup unknown: got=%v want=%v", err, ErrUnknownProfile)
	}
	if err := reg.Register(Profile{Name: " "}); !errors.Is(err, ErrEmptyProfileName) {
		t.Fatalf("Register blank: got=%v want=%v", err, ErrEmptyProfileName)
	}
	if n := len(reg.List()); n != len(builtinProfiles()) {
		t.Fatalf("List: got=%d want=%d", n, len(builtinProfiles()))
	}
}

func TestLoadProfiles(t *testing.T) {
	src := `
profiles:
  - name: worksheet
    extends: question_paper
    rules: [escapes]
  - name: flashcards
    extends: worksheet
    exclude: [scripts]
  - name: bare
    rules: [symbols]
`
	reg := NewRegistry()
	got, err := LoadProfiles(strings.NewReader(src), reg)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("LoadProfiles: got=%d profiles want=3", len(got))
	}

	worksheet, err := reg.Lookup("worksheet")
	if err != nil {
		t.Fatalf("Lookup worksheet: %v", err)
	}
	if want := QuestionPaper.Rules | RuleEscapes; worksheet.Rules != want {
		t.Fatalf("worksheet rules: got=%v want=%v", worksheet.Rules, want)
	}
	flash, _ := reg.Lookup("flashcards")
	if flash.Rules.Has(RuleScripts) || !flash.Rules.Has(RuleEscapes) {
		t.Fatalf("flashcards rules: got=%v", flash.Rules)
	}
	if out := Normalize(`\alpha x^2`, got[2]); out != "α x^2" {
		t.Fatalf("bare profile: got=%q", out)
	}
}

func TestLoadProfilesErrors(t *testing.T) {
	cases := map[string]string{
		"unknown rule":    "profiles:\n  - name: a\n    rules: [bogus]\n",
		"unknown base":    "profiles:\n  - name: a\n    extends: nope\n",
		"missing name":    "profiles:\n  - rules: [symbols]\n",
		"unknown field":   "profiles:\n  - name: a\n    colour: red\n",
		"malformed yaml":  "profiles: [",
		"exclude unknown": "profiles:\n  - name: a\n    exclude: [bogus]\n",
	}
	for name, src := range cases {
		if _, err := LoadProfiles(strings.NewReader(src), NewRegistry()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadProfilesEmpty(t *testing.T) {
	got, err := LoadProfiles(strings.NewReader(""), NewRegistry())
	if err != nil || len(got) != 0 {
		t.Fatalf("empty: got=%v err=%v", got, err)
	}
	got, err = LoadProfilesFile("", NewRegistry())
	if err != nil || got != nil {
		t.Fatalf("blank path: got=%v err=%v", got, err)
	}
}
