package model

import "strings"

const LanguageCodeEnglish = "en"

// whisperLanguages maps the language names Whisper reports in verbose output
// to their ISO 639-1 codes. Cantonese and Hawaiian have no two-letter code.
var whisperLanguages = map[string]string{
	"english":        "en",
	"chinese":        "zh",
	"german":         "de",
	"spanish":        "es",
	"russian":        "ru",
	"korean":         "ko",
	"french":         "fr",
	"japanese":       "ja",
	"portuguese":     "pt",
	"turkish":        "tr",
	"polish":         "pl",
	"catalan":        "ca",
	"dutch":          "nl",
	"arabic":         "ar",
	"swedish":        "sv",
	"italian":        "it",
	"indonesian":     "id",
	"hindi":          "hi",
	"finnish":        "fi",
	"vietnamese":     "vi",
	"hebrew":         "he",
	"ukrainian":      "uk",
	"greek":          "el",
	"malay":          "ms",
	"czech":          "cs",
	"romanian":       "ro",
	"danish":         "da",
	"hungarian":      "hu",
	"tamil":          "ta",
	"norwegian":      "no",
	"thai":           "th",
	"urdu":           "ur",
	"croatian":       "hr",
	"bulgarian":      "bg",
	"lithuanian":     "lt",
	"latin":          "la",
	"maori":          "mi",
	"malayalam":      "ml",
	"welsh":          "cy",
	"slovak":         "sk",
	"telugu":         "te",
	"persian":        "fa",
	"latvian":        "lv",
	"bengali":        "bn",
	"serbian":        "sr",
	"azerbaijani":    "az",
	"slovenian":      "sl",
	"kannada":        "kn",
	"estonian":       "et",
	"macedonian":     "mk",
	"breton":         "br",
	"basque":         "eu",
	"icelandic":      "is",
	"armenian":       "hy",
	"nepali":         "ne",
	"mongolian":      "mn",
	"bosnian":        "bs",
	"kazakh":         "kk",
	"albanian":       "sq",
	"swahili":        "sw",
	"galician":       "gl",
	"marathi":        "mr",
	"punjabi":        "pa",
	"sinhala":        "si",
	"khmer":          "km",
	"shona":          "sn",
	"yoruba":         "yo",
	"somali":         "so",
	"afrikaans":      "af",
	"occitan":        "oc",
	"georgian":       "ka",
	"belarusian":     "be",
	"tajik":          "tg",
	"sindhi":         "sd",
	"gujarati":       "gu",
	"amharic":        "am",
	"yiddish":        "yi",
	"lao":            "lo",
	"uzbek":          "uz",
	"faroese":        "fo",
	"haitian creole": "ht",
	"pashto":         "ps",
	"turkmen":        "tk",
	"nynorsk":        "nn",
	"maltese":        "mt",
	"sanskrit":       "sa",
	"luxembourgish":  "lb",
	"myanmar":        "my",
	"tibetan":        "bo",
	"tagalog":        "tl",
	"malagasy":       "mg",
	"assamese":       "as",
	"tatar":          "tt",
	"hawaiian":       "haw",
	"lingala":        "ln",
	"hausa":          "ha",
	"bashkir":        "ba",
	"javanese":       "jw",
	"sundanese":      "su",
	"cantonese":      "yue",
	"burmese":        "my",
	"castilian":      "es",
	"flemish":        "nl",
	"haitian":        "ht",
	"moldavian":      "ro",
	"moldovan":       "ro",
	"panjabi":        "pa",
	"pushto":         "ps",
	"sinhalese":      "si",
	"valencian":      "ca",
}

var languageAliases = map[string]struct{}{
	"burmese": {}, "castilian": {}, "flemish": {}, "haitian": {}, "moldavian": {},
	"moldovan": {}, "panjabi": {}, "pushto": {}, "sinhalese": {}, "valencian": {},
}

var languageNames = func() map[string]string {
	names := make(map[string]string, len(whisperLanguages))
	for name, code := range whisperLanguages {
		if _, alias := languageAliases[name]; alias {
			continue
		}
		names[code] = name
	}
	return names
}()

var knownLanguageCodes = func() map[string]struct{} {
	codes := make(map[string]struct{}, len(whisperLanguages))
	for _, code := range whisperLanguages {
		codes[code] = struct{}{}
	}
	return codes
}()

// NormalizeLanguageCode accepts either an ISO code ("HI", "hi") or a language
// name ("hindi") and returns the lowercase code. Unknown values are returned
// lowercased so callers can still display them.
func NormalizeLanguageCode(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	if _, ok := knownLanguageCodes[normalized]; ok {
		return normalized
	}
	if code, ok := whisperLanguages[normalized]; ok {
		return code
	}
	if idx := strings.IndexAny(normalized, "-_"); idx > 0 {
		if _, ok := knownLanguageCodes[normalized[:idx]]; ok {
			return normalized[:idx]
		}
	}
	return normalized
}

// LanguageName returns the English name for a code, or the code itself when unknown.
func LanguageName(code string) string {
	normalized := NormalizeLanguageCode(code)
	name, ok := languageNames[normalized]
	if !ok {
		return code
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
