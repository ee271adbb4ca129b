// Package lang maps arbitrary language identifiers (ISO codes,
// regional variants, display names, the "multi" auto-detect sentinel)
// to a canonical short code and a human-readable display name.
package lang

import "strings"

// Multi is the auto-detect sentinel. It canonicalizes to English for
// translation-direction purposes: auto-detect transcription can emit
// any of a small supported set, but translation needs a concrete pivot.
const Multi = "multi"

var displayNames = map[string]string{
	"multi": "Multilingual",
	"ar":    "Arabic",
	"bg":    "Bulgarian",
	"zh":    "Chinese",
	"cs":    "Czech",
	"da":    "Danish",
	"nl":    "Dutch",
	"en":    "English",
	"et":    "Estonian",
	"fi":    "Finnish",
	"fr":    "French",
	"de":    "German",
	"el":    "Greek",
	"hi":    "Hindi",
	"hu":    "Hungarian",
	"id":    "Indonesian",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"lv":    "Latvian",
	"lt":    "Lithuanian",
	"ms":    "Malay",
	"no":    "Norwegian",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"ro":    "Romanian",
	"ru":    "Russian",
	"sk":    "Slovak",
	"es":    "Spanish",
	"sv":    "Swedish",
	"th":    "Thai",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"vi":    "Vietnamese",
}

var shortCodes = map[string]string{
	"multi": "en",

	"ar": "ar",
	"bg": "bg",
	"cs": "cs",
	"da": "da",
	"de": "de",
	"el": "el",
	"en": "en",
	"es": "es",
	"et": "et",
	"fi": "fi",
	"fr": "fr",
	"hi": "hi",
	"hu": "hu",
	"id": "id",
	"it": "it",
	"ja": "ja",
	"ko": "ko",
	"lt": "lt",
	"lv": "lv",
	"ms": "ms",
	"nl": "nl",
	"no": "no",
	"pl": "pl",
	"pt": "pt",
	"ro": "ro",
	"ru": "ru",
	"sk": "sk",
	"sv": "sv",
	"th": "th",
	"tr": "tr",
	"uk": "uk",
	"vi": "vi",
	"zh": "zh",

	"arabic":     "ar",
	"bulgarian":  "bg",
	"chinese":    "zh",
	"czech":      "cs",
	"danish":     "da",
	"dutch":      "nl",
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"greek":      "el",
	"hindi":      "hi",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"korean":     "ko",
	"portuguese": "pt",
	"russian":    "ru",
	"spanish":    "es",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// ShortCode reduces any language identifier to a canonical short code
// for translation. Total over all string inputs: unknown identifiers
// come back unchanged (lowercased).
func ShortCode(language string) string {
	code := strings.ToLower(strings.TrimSpace(language))
	if short, ok := shortCodes[code]; ok {
		return short
	}
	// Regional variants: en-XYZ -> en.
	if i := strings.Index(code, "-"); i > 0 {
		base := code[:i]
		if short, ok := shortCodes[base]; ok {
			return short
		}
		return base
	}
	// Display names with qualifiers: "French (General)" -> "french".
	if i := strings.Index(code, "("); i > 0 {
		base := strings.TrimSpace(code[:i])
		if short, ok := shortCodes[base]; ok {
			return short
		}
		return base
	}
	return code
}

// DisplayName returns a human-readable name for the language
// identifier, or the input unchanged when no nicer name is known.
func DisplayName(language string) string {
	code := strings.ToLower(strings.TrimSpace(language))
	if name, ok := displayNames[code]; ok {
		return name
	}
	if short := ShortCode(language); short != code {
		if name, ok := displayNames[short]; ok {
			return name
		}
	}
	// "French (General)" is already a display name.
	if strings.Contains(language, "(") && strings.Contains(language, ")") {
		return language
	}
	return language
}

// Canonicalize returns both the translation short code and the display
// name for an identifier.
func Canonicalize(language string) (short, display string) {
	return ShortCode(language), DisplayName(language)
}

// Same reports whether two language identifiers canonicalize to the
// same translation target.
func Same(a, b string) bool {
	return ShortCode(a) == ShortCode(b)
}
