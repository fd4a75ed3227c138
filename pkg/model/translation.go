package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTranslationChars bounds translator input; lengths at or above it are rejected.
	MaxTranslationChars = 5000
	// LanguageCodeAuto asks the translator to work out the source language itself.
	LanguageCodeAuto = "auto"
)

// TranslationOutput is the structured response LLM translators ask for.
type TranslationOutput struct {
	Translation string `json:"translation" jsonschema:"description=The translated text only, without commentary or quotes"`
}

// TranslationRequest is a normalized translate call. Text is trimmed; the
// length limit applies to the text as submitted.
type TranslationRequest struct {
	Text       string
	SourceLang string
	TargetLang string

	inputChars int
}

func NewTranslationRequest(text string, sourceLang string, targetLang string) TranslationRequest {
	source := NormalizeLanguageCode(sourceLang)
	if source == "" {
		source = LanguageCodeAuto
	}
	target := NormalizeLanguageCode(targetLang)
	if target == "" {
		target = LanguageCodeEnglish
	}
	return TranslationRequest{
		Text:       strings.TrimSpace(text),
		SourceLang: source,
		TargetLang: target,
		inputChars: utf8.RuneCountInString(text),
	}
}

// Passthrough reports whether Text is returned as is without a provider call.
// Check Validate first: over-long text is rejected even when it would pass through.
func (r TranslationRequest) Passthrough() bool {
	if r.Text == "" {
		return true
	}
	return r.SourceLang != LanguageCodeAuto && r.SourceLang == r.TargetLang
}

func (r TranslationRequest) Validate() error {
	if r.inputChars >= MaxTranslationChars {
		return fmt.Errorf("%w: text has %d characters, must be under %d", ErrTranslationService, r.inputChars, MaxTranslationChars)
	}
	return nil
}

// Instruction is the prompt LLM-backed translators send.
func (r TranslationRequest) Instruction() string {
	source := "the detected source language"
	if r.SourceLang != LanguageCodeAuto {
		source = fmt.Sprintf("%s (%s)", LanguageName(r.SourceLang), r.SourceLang)
	}
	target := fmt.Sprintf("%s (%s)", LanguageName(r.TargetLang), r.TargetLang)

	var b strings.Builder
	b.WriteString("Translate the text between the <text> tags from ")
	b.WriteString(source)
	b.WriteString(" to ")
	b.WriteString(target)
	b.WriteString(". Preserve meaning, names and numbers. Return only the translation.\n<text>\n")
	b.WriteString(r.Text)
	b.WriteString("\n</text>")
	return b.String()
}

func (r TranslationRequest) Metadata(meta GenerationMetadata) {
	if meta == nil {
		return
	}
	meta[MetadataKeySourceLanguage] = r.SourceLang
	meta[MetadataKeyTargetLanguage] = r.TargetLang
}
