package model

import (
	"strings"
	"time"
)

type ResultSource string

const (
	ResultSourceAudio ResultSource = "audio"
	ResultSourceText  ResultSource = "text"
)

type TranscriptionResult struct {
	RawText              string `json:"text" jsonschema:"description=Verbatim transcript of the audio in the spoken language"`
	DetectedLanguageCode string `json:"language" jsonschema:"description=Two-letter ISO 639-1 code of the spoken language"`
}

// PipelineResult is the record a presentation surface renders for one request.
type PipelineResult struct {
	Source               ResultSource                  `json:"source"`
	OriginalText         string                        `json:"original_text"`
	EnglishTranscription string                        `json:"english_transcription,omitempty"`
	DetectedLanguage     string                        `json:"detected_language"`
	TranslatedText       string                        `json:"translated_text"`
	AudioPath            string                        `json:"-"`
	ProcessingTime       time.Duration                 `json:"processing_time_ns"`
	Metadata             map[string]GenerationMetadata `json:"metadata,omitempty"`
}

type Section struct {
	Title string
	Body  string
}

func (r PipelineResult) Sections() []Section {
	if r.Source == ResultSourceText {
		return []Section{
			{Title: "Original Text", Body: r.OriginalText},
			{Title: "Detected Language", Body: r.DetectedLanguage},
			{Title: "English Translation", Body: r.TranslatedText},
		}
	}

	return []Section{
		{Title: "Original Transcription", Body: r.OriginalText},
		{Title: "English Transcription", Body: r.EnglishTranscription},
		{Title: "Detected Language", Body: r.DetectedLanguage},
		{Title: "English Translation", Body: r.TranslatedText},
	}
}

func DisplayLanguage(code string) string {
	return strings.ToUpper(code)
}
