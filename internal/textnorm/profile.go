package textnorm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Rule is a flag set of normalization rule categories.
type Rule uint16

const (
	RuleEmphasis Rule = 1 << iota
	RuleMacros
	RuleAccents
	RuleAccentMarks
	RuleDelimiters
	RuleFractions
	RuleRoots
	RuleSymbols
	RuleScripts
	RuleEscapes
	RuleSpeech
)

// Order in which categories run. Composite macros must resolve before
// anything that could eat their argument braces.
var canonicalOrder = []Rule{
	RuleEmphasis,
	RuleMacros,
	RuleAccents,
	RuleAccentMarks,
	RuleDelimiters,
	RuleFractions,
	RuleRoots,
	RuleSymbols,
	RuleScripts,
	RuleEscapes,
	RuleSpeech,
}

var ruleNames = map[Rule]string{
	RuleEmphasis:    "emphasis",
	RuleMacros:      "macros",
	RuleAccents:     "accents",
	RuleAccentMarks: "accent_marks",
	RuleDelimiters:  "delimiters",
	RuleFractions:   "fractions",
	RuleRoots:       "roots",
	RuleSymbols:     "symbols",
	RuleScripts:     "scripts",
	RuleEscapes:     "escapes",
	RuleSpeech:      "speech",
}

func (r Rule) Has(other Rule) bool { return r&other == other }

// Names lists the categories in r in execution order.
func (r Rule) Names() []string {
	out := make([]string, 0, len(canonicalOrder))
	for _, c := range canonicalOrder {
		if r.Has(c) {
			out = append(out, ruleNames[c])
		}
	}
	return out
}

func (r Rule) String() string { return strings.Join(r.Names(), ",") }

// ParseRules converts category names into a flag set.
func ParseRules(names []string) (Rule, error) {
	var out Rule
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		found := false
		for r, n := range ruleNames {
			if n == name {
				out |= r
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrUnknownRule, raw)
		}
	}
	return out, nil
}

// Profile is a named subset of rule categories matching one caller's
// historical cleanup chain.
type Profile struct {
	Name  string
	Rules Rule
}

const (
	ProfileNotes         = "notes"
	ProfileQuiz          = "quiz"
	ProfileMindMap       = "mindmap"
	ProfileQuestionPaper = "question_paper"
	ProfileInterview     = "interview"
	ProfileGrading       = "grading"
	ProfileSpeech        = "speech"
	ProfileExport        = "export"
)

const mathCore = RuleMacros | RuleDelimiters | RuleFractions | RuleRoots | RuleSymbols | RuleScripts

var (
	Notes         = Profile{Name: ProfileNotes, Rules: RuleEmphasis | mathCore | RuleAccentMarks | RuleEscapes}
	Quiz          = Profile{Name: ProfileQuiz, Rules: RuleEmphasis | mathCore | RuleEscapes}
	MindMap       = Profile{Name: ProfileMindMap, Rules: RuleEmphasis | mathCore | RuleAccents}
	QuestionPaper = Profile{Name: ProfileQuestionPaper, Rules: RuleEmphasis | mathCore}
	Interview     = Profile{Name: ProfileInterview, Rules: RuleEmphasis | mathCore | RuleAccents | RuleEscapes}
	Grading       = Profile{Name: ProfileGrading, Rules: RuleEmphasis | mathCore | RuleAccents}
	Speech        = Profile{Name: ProfileSpeech, Rules: RuleEmphasis | mathCore | RuleAccents | RuleEscapes | RuleSpeech}
	Export        = Profile{Name: ProfileExport, Rules: RuleEmphasis | mathCore | RuleAccentMarks | RuleEscapes}

	Default = Notes
)

func builtinProfiles() []Profile {
	return []Profile{Notes, Quiz, MindMap, QuestionPaper, Interview, Grading, Speech, Export}
}

// Registry resolves profile names. It starts with the built-in profiles and
// accepts overrides loaded from configuration.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range builtinProfiles() {
		r.profiles[p.Name] = p
	}
	return r
}

func (r *Registry) Register(p Profile) error {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		return ErrEmptyProfileName
	}
	p.Name = name
	r.mu.Lock()
	r.profiles[name] = p
	r.mu.Unlock()
	return nil
}

// Lookup returns the named profile. An empty name resolves to Default.
func (r *Registry) Lookup(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	r.mu.RLock()
	p, ok := r.profiles[name]
	r.mu.RUnlock()
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

func (r *Registry) List() []Profile {
	r.mu.RLock()
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
