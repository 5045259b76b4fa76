package textnorm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk shape of custom profiles:
//
//	profiles:
//	  - name: worksheet
//	    extends: question_paper
//	    rules: [escapes]
//	  - name: flashcards
//	    rules: [emphasis, macros, symbols, scripts]
type profileFile struct {
	Profiles []profileSpec `yaml:"profiles"`
}

type profileSpec struct {
	Name    string   `yaml:"name"`
	Extends string   `yaml:"extends"`
	Rules   []string `yaml:"rules"`
	Exclude []string `yaml:"exclude"`
}

// LoadProfiles decodes profile definitions and resolves them against reg.
// Profiles may extend built-ins or profiles defined earlier in the file.
func LoadProfiles(r io.Reader, reg *Registry) ([]Profile, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	var f profileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	out := make([]Profile, 0, len(f.Profiles))
	for i, spec := range f.Profiles {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("profiles[%d]: %w", i, ErrEmptyProfileName)
		}
		var rules Rule
		if base := strings.TrimSpace(spec.Extends); base != "" {
			p, err := reg.Lookup(base)
			if err != nil {
				return nil, fmt.Errorf("profiles[%d] %s: %w", i, name, err)
			}
			rules = p.Rules
		}
		add, err := ParseRules(spec.Rules)
		if err != nil {
			return nil, fmt.Errorf("profiles[%d] %s: %w", i, name, err)
		}
		drop, err := ParseRules(spec.Exclude)
		if err != nil {
			return nil, fmt.Errorf("profiles[%d] %s: %w", i, name, err)
		}
		p := Profile{Name: name, Rules: (rules | add) &^ drop}
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		resolved, _ := reg.Lookup(name)
		out = append(out, resolved)
	}
	return out, nil
}

// LoadProfilesFile is LoadProfiles over a file path. A blank path is a no-op.
func LoadProfilesFile(path string, reg *Registry) ([]Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer fh.Close()
	return LoadProfiles(fh, reg)
}
