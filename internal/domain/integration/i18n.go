package integration

import "regexp"

// ---------------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------------

// Language is an ISO 639-1 language code from the closed set the storefront
// supports.
type Language string

const (
	LangEN Language = "en"
	LangFR Language = "fr"
	LangDE Language = "de"
	LangNL Language = "nl"
	LangIT Language = "it"
	LangTR Language = "tr"
	LangES Language = "es"
	LangPL Language = "pl"
)

// SupportedLanguages lists every language the storefront accepts, in the
// order translation fields are produced.
var SupportedLanguages = []Language{LangEN, LangFR, LangDE, LangNL, LangIT, LangTR, LangES, LangPL}

// ErpLocale returns the ERP locale code for the language, used as the lang
// context on translated reads.
func (l Language) ErpLocale() string {
	switch l {
	case LangEN:
		return "en_US"
	case LangFR:
		return "fr_FR"
	case LangDE:
		return "de_DE"
	case LangNL:
		return "nl_NL"
	case LangIT:
		return "it_IT"
	case LangTR:
		return "tr_TR"
	case LangES:
		return "es_ES"
	case LangPL:
		return "pl_PL"
	default:
		return string(l)
	}
}

// LanguageFromLocale maps an ERP locale such as "fr_FR" back to its language
// code. Unknown locales map to English, the storefront's base language.
func LanguageFromLocale(locale string) Language {
	if len(locale) >= 2 {
		candidate := Language(locale[:2])
		for _, lang := range SupportedLanguages {
			if lang == candidate {
				return lang
			}
		}
	}
	return LangEN
}

// Translations maps a language code to the text value for that language.
type Translations map[Language]string

// ---------------------------------------------------------------------------
// Field Mapper
// ---------------------------------------------------------------------------

// CodeTagPattern strips a leading bracketed tag such as "[XYZ] " that the
// ERP prepends to display names.
var CodeTagPattern = regexp.MustCompile(`^\[[^\]]*\]\s*`)

// ExtractTranslations builds the per-language mapping for a base field.
// Each language takes the value of the "{base}_{lang}" variant when present
// and falls back to the untranslated base field otherwise. When the base
// field itself is absent the mapping still covers every language, with empty
// values. A non-nil cleanup pattern is applied to every produced value.
func ExtractTranslations(record RawRecord, base string, cleanup *regexp.Regexp) Translations {
	fallback := record.Str(base)
	out := make(Translations, len(SupportedLanguages))
	for _, lang := range SupportedLanguages {
		value := fallback
		if v := record.Str(base + "_" + string(lang)); v != "" {
			value = v
		}
		if cleanup != nil && value != "" {
			value = cleanup.ReplaceAllString(value, "")
		}
		out[lang] = value
	}
	return out
}

// FieldNames returns the base field name followed by every language-suffixed
// variant. Validators iterate this list so each variant independently
// satisfies per-field rules.
func FieldNames(base string) []string {
	names := make([]string, 0, len(SupportedLanguages)+1)
	names = append(names, base)
	for _, lang := range SupportedLanguages {
		names = append(names, base+"_"+string(lang))
	}
	return names
}
