package main

import (
	"fmt"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/capture"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/detect"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/google"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/llms/openai_response"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/media"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/pipeline"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// buildPipeline wires the configured providers into a pipeline. Nothing here
// talks to the network; credentials are checked on first use.
func buildPipeline(cfg *config.Config, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	detector, err := newDetector(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	recognizer, err := newRecognizer(cfg, detector)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	translator, err := newTranslator(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	capturer, err := capture.NewCapturer(capture.DefaultDevice(), cfg.Capture)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	opts := []pipeline.Option{
		pipeline.WithCapturer(capturer),
		pipeline.WithAudioExtractor(media.NewFFmpegExtractor(cfg.FFmpegPath, cfg.Capture.SampleRate)),
		pipeline.WithAllowList(cfg.AllowList...),
		pipeline.WithTranscriptionTranslation(pipeline.TranscriptionTranslation(cfg.TranscriptionTranslation)),
		pipeline.WithTempDir(cfg.TempDir),
	}
	p, err := pipeline.New(recognizer, translator, detector, append(opts, extra...)...)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return p, nil
}

// newDetector builds the language detector. English and the allow-list are
// always candidates so a restricted DETECTOR_LANGUAGES cannot hide them.
func newDetector(cfg *config.Config) (*detect.LinguaDetector, error) {
	var opts []detect.Option
	if cfg.AllDetectorLanguages() {
		opts = append(opts, detect.WithAllLanguages())
	} else {
		opts = append(opts, detect.WithLanguages(detectorLanguages(cfg)...))
	}
	if cfg.DetectorMinRelativeDistance != nil {
		opts = append(opts, detect.WithMinimumRelativeDistance(*cfg.DetectorMinRelativeDistance))
	}
	return detect.NewLinguaDetector(opts...)
}

func detectorLanguages(cfg *config.Config) []string {
	base := cfg.DetectorLanguages
	if len(base) == 0 {
		base = detect.DefaultLanguages
	}

	seen := make(map[string]bool)
	var languages []string
	for _, group := range [][]string{base, {model.LanguageCodeEnglish}, cfg.AllowList} {
		for _, code := range group {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			languages = append(languages, code)
		}
	}
	return languages
}

func newRecognizer(cfg *config.Config, detector model.LanguageDetector) (model.Recognizer, error) {
	switch cfg.Recognizer {
	case config.RecognizerOpenAI:
		recognizer, err := openai.NewRecognizer(model.AudioOptions{
			URL:       cfg.OpenAIBaseURL,
			AuthToken: cfg.OpenAIToken,
			Model:     cfg.OpenAIAudioModel,
		}, detector)
		if err != nil {
			return nil, utils.WrapIfNotNil(err)
		}
		return recognizer, nil
	case config.RecognizerGemini:
		return gemini.NewRecognizer(model.AudioOptions{
			URL:       cfg.GeminiBaseURL,
			AuthToken: cfg.GeminiKey,
			Model:     cfg.GeminiModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown recognizer provider %q", cfg.Recognizer)
	}
}

func newTranslator(cfg *config.Config) (model.Translator, error) {
	switch cfg.Translator {
	case config.TranslatorGoogle:
		return google.NewTranslator(google.WithBaseURL(cfg.GoogleTranslateURL)), nil
	case config.TranslatorOpenAIResponse:
		return openai_response.NewTranslator(
			generatorOptions(cfg.OpenAIBaseURL, cfg.OpenAIToken, cfg.OpenAITranslateModel)...,
		), nil
	case config.TranslatorGemini:
		return gemini.NewTranslator(
			generatorOptions(cfg.GeminiBaseURL, cfg.GeminiKey, cfg.GeminiModel)...,
		), nil
	case config.TranslatorBedrock:
		return bedrock.NewTranslator(generatorOptions("", "", cfg.BedrockModel)...), nil
	case config.TranslatorOllama:
		return ollama.NewTranslator(generatorOptions(cfg.OllamaBaseURL, "", cfg.OllamaModel)...), nil
	default:
		return nil, fmt.Errorf("unknown translator provider %q", cfg.Translator)
	}
}

func generatorOptions(url string, authToken string, modelName string) []model.GeneratorOption {
	opts := make([]model.GeneratorOption, 0, 3)
	if url != "" {
		opts = append(opts, model.WithURL(url))
	}
	if authToken != "" {
		opts = append(opts, model.WithAuthToken(authToken))
	}
	if modelName != "" {
		opts = append(opts, model.WithModel(modelName))
	}
	return opts
}
