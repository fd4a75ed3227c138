package gemini

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"google.golang.org/genai"
)

const transcriptionInstruction = "Transcribe this audio verbatim in the language that is spoken. " +
	"Do not translate. Set language to the two-letter ISO 639-1 code of the spoken language. " +
	"If nothing is said, return an empty text."

// Recognizer transcribes a clip with one multimodal GenerateContent call and
// reads the transcript and language from a JSON schema response.
type Recognizer struct {
	api  contentAPI
	opts model.AudioOptions
	cfg  model.GeneratorConfig
}

func NewRecognizer(opts model.AudioOptions) *Recognizer {
	cfg := audioGeneratorConfigFromOptions(opts)
	return &Recognizer{
		api:  liveContentAPI{cfg: cfg},
		opts: cloneAudioOptions(opts),
		cfg:  cfg,
	}
}

func (r *Recognizer) Transcribe(ctx context.Context, clip model.AudioClip) (model.TranscriptionResult, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(r.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	audioBytes, mimeType, err := readClip(clip)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(err)
	}

	schema, err := generateJSONSchema[model.TranscriptionResult]()
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(buildAudioTranscriptionPrompt(r.opts)),
				genai.NewPartFromBytes(audioBytes, mimeType),
			},
			genai.RoleUser,
		),
	}

	log.Infof("audio_transcription_request model=%q path=%q mime=%q bytes=%d", modelName, clip.Path, mimeType, len(audioBytes))
	response, err := r.api.generateContent(ctx, modelName, contents, buildGenerateContentConfig(r.cfg, schema))
	if err != nil {
		if isBadRequest(err) {
			err = utils.WrapWithKind(model.ErrDecode, err)
		}
		log.Errorf("error: %v", err)
		return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	result, err := decodeJSONResponse[model.TranscriptionResult](response)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptionResult{}, meta, utils.WrapIfNotNil(err)
	}
	result.RawText = strings.TrimSpace(result.RawText)
	result.DetectedLanguageCode = model.NormalizeLanguageCode(result.DetectedLanguageCode)

	log.Debugf("audio_transcription_response language=%q chars=%d", result.DetectedLanguageCode, len(result.RawText))
	return result, meta, nil
}

func readClip(clip model.AudioClip) ([]byte, string, error) {
	if strings.TrimSpace(clip.Path) == "" {
		return nil, "", utils.WrapWithKind(model.ErrDecode, errors.New("file path is required"))
	}

	audioBytes, err := os.ReadFile(clip.Path)
	if err != nil {
		return nil, "", utils.WrapWithKind(model.ErrDecode, err)
	}
	if len(audioBytes) == 0 {
		return nil, "", utils.WrapWithKind(model.ErrDecode, errors.New("audio file is empty"))
	}

	mimeType := strings.TrimSpace(clip.MIMEType)
	if !strings.HasPrefix(mimeType, "audio/") {
		mimeType, err = resolveAudioMIMEType(clip.Path)
		if err != nil {
			return nil, "", utils.WrapWithKind(model.ErrDecode, err)
		}
	}
	return audioBytes, mimeType, nil
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) string {
	if custom := strings.TrimSpace(opts.Prompt); custom != "" {
		return custom
	}

	words := buildWordsToWatchPrompt(opts.Keywords)
	if words == "" {
		return transcriptionInstruction
	}
	return transcriptionInstruction + " Prioritize these terms if present: " + words + "."
}

func buildWordsToWatchPrompt(keywords []model.AudioKeyword) string {
	words := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		word := strings.TrimSpace(keyword.Word)
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return strings.Join(words, ", ")
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		IgnoreInvalidGeneratorOptions: opts.IgnoreInvalidGeneratorOptions,
		URL:                           opts.URL,
		AuthToken:                     opts.AuthToken,
	}
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func cloneAudioOptions(opts model.AudioOptions) model.AudioOptions {
	cloned := opts
	cloned.Keywords = append([]model.AudioKeyword(nil), opts.Keywords...)
	return cloned
}

func resolveAudioMIMEType(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", errors.New("audio file extension is required to determine mime type")
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", errors.New("unsupported audio file extension: " + ext)
	}
	return mimeType, nil
}
