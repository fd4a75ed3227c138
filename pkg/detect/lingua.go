package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/pemistahl/lingua-go"
)

const (
	// DefaultMinimumRelativeDistance makes near-ties between the two best
	// candidates an ErrDetection instead of a guess.
	DefaultMinimumRelativeDistance = 0.25

	// minimumLetters is the shortest input worth a guess. Han, kana and
	// Hangul characters count twice.
	minimumLetters = 3
)

// DefaultLanguages is the candidate set used when none is configured. It has a
// single Devanagari language so short Hindi input is not read as Marathi or
// Nepali, and it leaves out the small Latin-script languages that short
// English words collide with.
var DefaultLanguages = []string{
	"en", "hi", "te", "ta", "bn", "es", "fr", "de", "it", "pt", "ru", "ar", "zh", "ja", "ko",
}

// LinguaDetector is an offline statistical language detector. Building one
// loads n-gram models lazily, so it should be created once and shared.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

type Option func(*options)

type options struct {
	languages               []string
	allLanguages            bool
	minimumRelativeDistance float64
}

// WithLanguages restricts detection to the given ISO 639-1 codes. At least two
// known languages are required. No codes means DefaultLanguages.
func WithLanguages(codes ...string) Option {
	return func(o *options) {
		o.languages = append([]string(nil), codes...)
	}
}

// WithAllLanguages considers every language lingua knows. Short inputs are
// then often attributed to a related language (Hindi as Marathi).
func WithAllLanguages() Option {
	return func(o *options) {
		o.allLanguages = true
	}
}

// WithMinimumRelativeDistance makes the detector refuse to answer when the
// top candidates are closer than distance (0 to 0.99).
func WithMinimumRelativeDistance(distance float64) Option {
	return func(o *options) {
		o.minimumRelativeDistance = distance
	}
}

func NewLinguaDetector(opts ...Option) (*LinguaDetector, error) {
	resolved := options{minimumRelativeDistance: DefaultMinimumRelativeDistance}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	if resolved.minimumRelativeDistance < 0 || resolved.minimumRelativeDistance >= 1 {
		return nil, utils.WrapIfNotNil(fmt.Errorf("minimum relative distance must be in [0, 1), got %v", resolved.minimumRelativeDistance))
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var configured lingua.LanguageDetectorBuilder
	if resolved.allLanguages {
		configured = builder.FromAllLanguages()
	} else {
		codes := resolved.languages
		if len(codes) == 0 {
			codes = DefaultLanguages
		}
		languages := resolveLanguages(codes)
		if len(languages) < 2 {
			return nil, utils.WrapIfNotNil(fmt.Errorf("at least two known detector languages are required, got %q", codes))
		}
		configured = builder.FromLanguages(languages...)
	}
	if resolved.minimumRelativeDistance > 0 {
		configured = configured.WithMinimumRelativeDistance(resolved.minimumRelativeDistance)
	}

	return &LinguaDetector{detector: configured.Build()}, nil
}

func (d *LinguaDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	log := logging.NewLogger(ctx)
	if letters := letterWeight(text); letters < minimumLetters {
		err := utils.WrapWithKind(model.ErrDetection, fmt.Errorf("text is too short to detect a language (%d letters)", letters))
		log.Errorf("error: %v", err)
		return "", err
	}

	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		err := utils.WrapWithKind(model.ErrDetection, errors.New("language is ambiguous"))
		log.Errorf("error: %v", err)
		return "", err
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	log.Debugf("detect_language chars=%d language=%q", len([]rune(text)), code)
	return code, nil
}

func resolveLanguages(codes []string) []lingua.Language {
	if len(codes) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := model.NormalizeLanguageCode(code)
		if normalized != "" {
			wanted[normalized] = struct{}{}
		}
	}

	languages := make([]lingua.Language, 0, len(wanted))
	for _, language := range lingua.AllLanguages() {
		code := strings.ToLower(language.IsoCode639_1().String())
		if _, ok := wanted[code]; ok {
			languages = append(languages, language)
		}
	}
	return languages
}

func letterWeight(text string) int {
	weight := 0
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			weight += 2
		case unicode.IsLetter(r):
			weight++
		}
	}
	return weight
}
