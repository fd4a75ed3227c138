package openai

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
)

const defaultAudioTranscriptionModelName = "whisper-1"

type transcriptionAPI interface {
	transcribe(ctx context.Context, params openai.AudioTranscriptionNewParams) (*openai.AudioTranscriptionNewResponseUnion, error)
}

func (c *client) transcribe(
	ctx context.Context,
	params openai.AudioTranscriptionNewParams,
) (*openai.AudioTranscriptionNewResponseUnion, error) {
	return c.apiClient.Audio.Transcriptions.New(ctx, params)
}

// Recognizer transcribes clips with the Whisper transcription endpoint.
// Whisper models answer in verbose JSON, which carries the detected language.
// Models without verbose output fall back to the optional language detector.
type Recognizer struct {
	api      transcriptionAPI
	opts     model.AudioOptions
	detector model.LanguageDetector
}

func NewRecognizer(opts model.AudioOptions, detector model.LanguageDetector) (*Recognizer, error) {
	cfg := audioGeneratorConfigFromOptions(opts)
	c, err := newClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &Recognizer{
		api:      c,
		opts:     cloneAudioOptions(opts),
		detector: detector,
	}, nil
}

func (r *Recognizer) Transcribe(ctx context.Context, clip model.AudioClip) (model.TranscriptionResult, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(r.opts)
	meta := initMetadata(providerName, modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request model=%q path=%q", modelName, clip.Path)

	response, err := r.runAudioTranscription(ctx, clip.Path, modelName)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(err)
	}
	applyOpenAIAudioTranscriptionMetadata(meta, response)

	result := model.TranscriptionResult{
		RawText:              strings.TrimSpace(response.Text),
		DetectedLanguageCode: model.NormalizeLanguageCode(response.Language),
	}
	if result.DetectedLanguageCode == "" && result.RawText != "" && r.detector != nil {
		code, detectErr := r.detector.DetectLanguage(ctx, result.RawText)
		if detectErr != nil {
			log.Errorf("error: %v", detectErr)
			return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(detectErr)
		}
		result.DetectedLanguageCode = code
	}

	log.Debugf(
		"audio_transcription_response language=%q chars=%d",
		result.DetectedLanguageCode,
		len(result.RawText),
	)
	return result, meta, nil
}

func (r *Recognizer) runAudioTranscription(
	ctx context.Context,
	filePath string,
	modelName string,
) (*openai.AudioTranscriptionNewResponseUnion, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, utils.WrapWithKind(model.ErrDecode, errors.New("file path is required"))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, utils.WrapWithKind(model.ErrDecode, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, utils.WrapWithKind(model.ErrDecode, err)
	}
	if info.Size() == 0 {
		return nil, utils.WrapWithKind(model.ErrDecode, errors.New("audio file is empty"))
	}

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(modelName),
		ResponseFormat: resolveResponseFormat(modelName),
	}
	prompt, err := buildAudioTranscriptionPrompt(r.opts)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}

	response, err := r.api.transcribe(ctx, params)
	if err != nil {
		if isBadRequest(err) {
			return nil, utils.WrapWithKind(model.ErrDecode, err)
		}
		return nil, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return nil, utils.WrapIfNotNil(errors.New("audio transcriptions API returned nil response"))
	}

	return response, nil
}

func resolveResponseFormat(modelName string) openai.AudioResponseFormat {
	if strings.HasPrefix(strings.ToLower(modelName), "whisper") {
		return openai.AudioResponseFormatVerboseJSON
	}
	return openai.AudioResponseFormatJSON
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) (string, error) {
	customPrompt := strings.TrimSpace(opts.Prompt)
	if customPrompt != "" {
		return customPrompt, nil
	}

	return buildCommonMissedWordsPrompt(opts.Keywords)
}

func buildCommonMissedWordsPrompt(keywords []model.AudioKeyword) (string, error) {
	normalizedKeywords := normalizeAudioKeywords(keywords)
	if len(normalizedKeywords) == 0 {
		return "", nil
	}

	keywordsJSON, err := json.Marshal(normalizedKeywords)
	if err != nil {
		return "", err
	}

	return "Common missed words: " + string(keywordsJSON), nil
}

func normalizeAudioKeywords(keywords []model.AudioKeyword) []model.AudioKeyword {
	if len(keywords) == 0 {
		return nil
	}

	normalized := make([]model.AudioKeyword, 0, len(keywords))
	for _, keyword := range keywords {
		word := strings.TrimSpace(keyword.Word)
		definition := strings.TrimSpace(keyword.Definition)
		commonMistypes := make([]string, 0, len(keyword.CommonMistypes))
		for _, candidate := range keyword.CommonMistypes {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			commonMistypes = append(commonMistypes, candidate)
		}

		if word == "" && definition == "" && len(commonMistypes) == 0 {
			continue
		}

		normalized = append(normalized, model.AudioKeyword{
			Word:           word,
			CommonMistypes: commonMistypes,
			Definition:     definition,
		})
	}

	if len(normalized) == 0 {
		return nil
	}

	return normalized
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		return modelName
	}

	fromEnv := strings.TrimSpace(os.Getenv(envOpenAIAudioModel))
	if fromEnv != "" {
		return fromEnv
	}
	return defaultAudioTranscriptionModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		IgnoreInvalidGeneratorOptions: opts.IgnoreInvalidGeneratorOptions,
		URL:                           opts.URL,
		AuthToken:                     opts.AuthToken,
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		cfg.Model = &modelName
	}

	return cfg
}

func cloneAudioOptions(opts model.AudioOptions) model.AudioOptions {
	cloned := opts
	if len(opts.Keywords) == 0 {
		cloned.Keywords = nil
		return cloned
	}

	cloned.Keywords = make([]model.AudioKeyword, len(opts.Keywords))
	for i, keyword := range opts.Keywords {
		clonedKeyword := keyword
		if len(keyword.CommonMistypes) > 0 {
			clonedKeyword.CommonMistypes = append([]string(nil), keyword.CommonMistypes...)
		} else {
			clonedKeyword.CommonMistypes = nil
		}
		cloned.Keywords[i] = clonedKeyword
	}

	return cloned
}

func applyOpenAIAudioTranscriptionMetadata(
	meta model.GenerationMetadata,
	response *openai.AudioTranscriptionNewResponseUnion,
) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
	if response.Duration > 0 {
		meta[model.MetadataKeyAudioDurationSec] = strconv.FormatFloat(response.Duration, 'f', 2, 64)
	}
}
