package domain

import "strings"

// Language is a supported report language code.
type Language string

const (
	LanguageEN Language = "en"
	LanguageUK Language = "uk"
	LanguageRU Language = "ru"
)

// DefaultLanguage is used for unrecognized language codes.
const DefaultLanguage = LanguageEN

// SupportedLanguages lists the languages with a complete label table.
var SupportedLanguages = []Language{LanguageEN, LanguageUK, LanguageRU}

// ParseLanguage maps a raw code (e.g. "RU", "uk-UA") to a supported Language,
// falling back to English.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	switch Language(code) {
	case LanguageUK, LanguageRU, LanguageEN:
		return Language(code)
	}
	return DefaultLanguage
}

// IsSupported reports whether l is one of SupportedLanguages.
func (l Language) IsSupported() bool {
	for _, s := range SupportedLanguages {
		if s == l {
			return true
		}
	}
	return false
}

// UsesCyrillic reports whether report text in this language must contain
// Cyrillic script.
func (l Language) UsesCyrillic() bool {
	return l == LanguageUK || l == LanguageRU
}
