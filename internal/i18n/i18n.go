// Package i18n holds the immutable label table used by the report scorer,
// narrative builder and PDF renderer.
package i18n

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var labelsYAML []byte

type languageTable struct {
	Strings map[string]string   `yaml:"strings"`
	Lists   map[string][]string `yaml:"lists"`
}

// Table maps (language, key) pairs to localized strings. English is the
// default layer for every language.
type Table struct {
	langs map[domain.Language]languageTable
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table built from the embedded labels. It panics if the
// embedded file is malformed, which can only happen at build time.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(labelsYAML)
		if err != nil {
			panic(fmt.Sprintf("i18n: embedded labels: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse builds a Table from YAML keyed by language code.
func Parse(data []byte) (*Table, error) {
	var raw map[string]languageTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t := &Table{langs: make(map[domain.Language]languageTable, len(raw))}
	for code, lt := range raw {
		lang := domain.Language(code)
		if !lang.IsSupported() {
			return nil, fmt.Errorf("unsupported language %q", code)
		}
		t.langs[lang] = lt
	}
	if _, ok := t.langs[domain.LanguageEN]; !ok {
		return nil, fmt.Errorf("missing %q layer", domain.LanguageEN)
	}
	return t, nil
}

// T returns the label for key in lang. Missing keys fall back to English and
// then to the key itself.
func (t *Table) T(lang domain.Language, key string) string {
	if s, ok := t.langs[lang].Strings[key]; ok {
		return s
	}
	if s, ok := t.langs[domain.LanguageEN].Strings[key]; ok {
		return s
	}
	return key
}

// F formats the label for key with args.
func (t *Table) F(lang domain.Language, key string, args ...any) string {
	return fmt.Sprintf(t.T(lang, key), args...)
}

// List returns a copy of the list label for key in lang, falling back to
// English. Unknown keys yield an empty, non-nil slice.
func (t *Table) List(lang domain.Language, key string) []string {
	l, ok := t.langs[lang].Lists[key]
	if !ok {
		l = t.langs[domain.LanguageEN].Lists[key]
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Has reports whether lang defines key itself, without the English layer.
func (t *Table) Has(lang domain.Language, key string) bool {
	if _, ok := t.langs[lang].Strings[key]; ok {
		return true
	}
	_, ok := t.langs[lang].Lists[key]
	return ok
}

// Keys returns every string and list key of the English layer.
func (t *Table) Keys() []string {
	en := t.langs[domain.LanguageEN]
	keys := make([]string, 0, len(en.Strings)+len(en.Lists))
	for k := range en.Strings {
		keys = append(keys, k)
	}
	for k := range en.Lists {
		keys = append(keys, k)
	}
	return keys
}
