package model

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// LangString is a text in one language.
type LangString struct {
	Language string
	Text     string
}

// LangStringSet holds at most one text per language.
type LangStringSet []LangString

// NewLangStringSet builds a set from language/text pairs, e.g.
// NewLangStringSet("en", "Motor", "de", "Motor"). An odd trailing argument
// is ignored.
func NewLangStringSet(pairs ...string) (LangStringSet, error) {
	set := make(LangStringSet, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		set = append(set, LangString{Language: pairs[i], Text: pairs[i+1]})
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks that every entry has a well-formed BCP 47 language tag and
// non-empty text, and that no language appears twice.
func (s LangStringSet) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, ls := range s {
		if _, err := language.Parse(ls.Language); err != nil {
			return violation("", "invalid language tag %q: %v", ls.Language, err)
		}
		if ls.Text == "" {
			return violation("", "empty text for language %q", ls.Language)
		}
		key := strings.ToLower(ls.Language)
		if seen[key] {
			return violation("", "duplicate language %q", ls.Language)
		}
		seen[key] = true
	}
	return nil
}

// Get returns the text for lang, matched case-insensitively.
func (s LangStringSet) Get(lang string) (string, bool) {
	for _, ls := range s {
		if strings.EqualFold(ls.Language, lang) {
			return ls.Text, true
		}
	}
	return "", false
}

// Clone returns an independent copy; nil stays nil.
func (s LangStringSet) Clone() LangStringSet {
	return slices.Clone(s)
}

// AdministrativeInformation carries the version of an Identifiable.
type AdministrativeInformation struct {
	Version    string
	Revision   string
	Creator    *Reference
	TemplateID string
}

// Validate checks the version and revision format and that a revision is
// only given together with a version (AASd-005).
func (a *AdministrativeInformation) Validate() error {
	if a == nil {
		return nil
	}
	if a.Revision != "" && a.Version == "" {
		return violation("AASd-005", "revision %q requires a version", a.Revision)
	}
	for _, v := range []string{a.Version, a.Revision} {
		if v != "" && !versionPattern.MatchString(v) {
			return violation("", "invalid version or revision %q", v)
		}
	}
	return nil
}

func (a *AdministrativeInformation) clone() *AdministrativeInformation {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
