package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/media"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/google/uuid"
)

// TranscriptionTranslation controls how the English transcription of an
// allow-listed language is produced.
type TranscriptionTranslation string

const (
	// TranscriptionTranslationReuse translates once and uses the result for both fields.
	TranscriptionTranslationReuse TranscriptionTranslation = "reuse"
	// TranscriptionTranslationIndependent issues a separate translate call per field.
	TranscriptionTranslationIndependent TranscriptionTranslation = "independent"
)

const (
	StepTranscription        = "transcription"
	StepEnglishTranscription = "english_transcription"
	StepTranslation          = "translation"
)

const (
	logFieldRequestID  = "request_id"
	logFieldEntryPoint = "entry_point"
)

var DefaultAllowList = []string{"hi", "te"}

// Capturer records a fixed-length clip to outputPath.
type Capturer interface {
	Record(ctx context.Context, outputPath string) (model.AudioClip, error)
}

// Pipeline sequences recognition, detection and translation for one request
// at a time. Entry points hold a mutex for their whole run, so the injected
// recognizer is never used concurrently.
type Pipeline struct {
	mu sync.Mutex

	recognizer model.Recognizer
	translator model.Translator
	detector   model.LanguageDetector
	capturer   Capturer
	extractor  media.AudioExtractor

	allowList map[string]struct{}
	mode      TranscriptionTranslation
	tempDir   string

	clipHandler ClipHandler
}

// ClipHandler sees each clip staged by OnFileUploaded or OnRecordTriggered
// while its file still exists, so callers can keep or play it back.
type ClipHandler func(ctx context.Context, clip model.AudioClip) error

type Option func(*Pipeline)

func WithCapturer(capturer Capturer) Option {
	return func(p *Pipeline) {
		p.capturer = capturer
	}
}

func WithAudioExtractor(extractor media.AudioExtractor) Option {
	return func(p *Pipeline) {
		p.extractor = extractor
	}
}

// WithAllowList replaces the languages whose transcription is translated to English.
func WithAllowList(codes ...string) Option {
	return func(p *Pipeline) {
		p.allowList = make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if normalized := model.NormalizeLanguageCode(code); normalized != "" {
				p.allowList[normalized] = struct{}{}
			}
		}
	}
}

func WithTranscriptionTranslation(mode TranscriptionTranslation) Option {
	return func(p *Pipeline) {
		p.mode = mode
	}
}

// WithTempDir sets where uploads and recordings are staged. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) {
		p.tempDir = dir
	}
}

// WithClipHandler runs handler on staged clips before recognition. A handler
// error is logged and does not fail the request.
func WithClipHandler(handler ClipHandler) Option {
	return func(p *Pipeline) {
		p.clipHandler = handler
	}
}

func New(
	recognizer model.Recognizer,
	translator model.Translator,
	detector model.LanguageDetector,
	opts ...Option,
) (*Pipeline, error) {
	if recognizer == nil {
		return nil, utils.WrapIfNotNil(errors.New("recognizer is required"))
	}
	if translator == nil {
		return nil, utils.WrapIfNotNil(errors.New("translator is required"))
	}
	if detector == nil {
		return nil, utils.WrapIfNotNil(errors.New("language detector is required"))
	}

	p := &Pipeline{
		recognizer: recognizer,
		translator: translator,
		detector:   detector,
		mode:       TranscriptionTranslationReuse,
	}
	WithAllowList(DefaultAllowList...)(p)
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	switch p.mode {
	case TranscriptionTranslationReuse, TranscriptionTranslationIndependent:
	default:
		return nil, utils.WrapIfNotNil(errors.New("unknown transcription translation mode: " + string(p.mode)))
	}
	return p, nil
}

// RunAudioPipeline transcribes clip and translates the transcript to English.
// The clip stays owned by the caller and is not removed.
func (p *Pipeline) RunAudioPipeline(ctx context.Context, clip model.AudioClip) (model.PipelineResult, error) {
	ctx = requestContext(ctx, "audio")
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	result, err := p.runAudio(ctx, clip)
	if err != nil {
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	result.AudioPath = clip.Path
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// RunTextPipeline detects the language of text and translates it to English.
// Blank text fails with model.ErrValidation before any detector or translator call.
func (p *Pipeline) RunTextPipeline(ctx context.Context, text string) (model.PipelineResult, error) {
	ctx = requestContext(ctx, "text")
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	result, err := p.runText(ctx, text)
	if err != nil {
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	result.ProcessingTime = time.Since(start)
	return result, nil
}

func (p *Pipeline) runAudio(ctx context.Context, clip model.AudioClip) (model.PipelineResult, error) {
	log := logging.NewLogger(ctx)
	log.Infof("audio_pipeline_request path=%q mime=%q", clip.Path, clip.MIMEType)

	transcription, transcriptionMeta, err := p.recognizer.Transcribe(ctx, clip)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}

	code := model.NormalizeLanguageCode(transcription.DetectedLanguageCode)
	result := model.PipelineResult{
		Source:           model.ResultSourceAudio,
		OriginalText:     transcription.RawText,
		DetectedLanguage: model.DisplayLanguage(code),
		Metadata: map[string]model.GenerationMetadata{
			StepTranscription: transcriptionMeta,
		},
	}

	result.EnglishTranscription = transcription.RawText
	if p.inAllowList(code) {
		english, englishMeta, err := p.translator.Translate(ctx, transcription.RawText, code, model.LanguageCodeEnglish)
		if err != nil {
			log.Errorf("error: %v", err)
			return model.PipelineResult{}, utils.WrapIfNotNil(err)
		}
		result.EnglishTranscription = english
		result.Metadata[StepEnglishTranscription] = englishMeta

		if p.mode == TranscriptionTranslationReuse {
			result.TranslatedText = english
			result.Metadata[StepTranslation] = englishMeta
			return p.logAudioResult(log, result), nil
		}
	}

	translated, translationMeta, err := p.translator.Translate(ctx, transcription.RawText, code, model.LanguageCodeEnglish)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	result.TranslatedText = translated
	result.Metadata[StepTranslation] = translationMeta
	return p.logAudioResult(log, result), nil
}

func (p *Pipeline) logAudioResult(log logging.Logger, result model.PipelineResult) model.PipelineResult {
	log.Infof(
		"audio_pipeline_response language=%q original_chars=%d translated_chars=%d",
		result.DetectedLanguage,
		len(result.OriginalText),
		len(result.TranslatedText),
	)
	return result
}

func (p *Pipeline) runText(ctx context.Context, text string) (model.PipelineResult, error) {
	log := logging.NewLogger(ctx)
	if strings.TrimSpace(text) == "" {
		log.Warnf("text_pipeline_request rejected: %v", model.ErrValidation)
		return model.PipelineResult{}, model.ErrValidation
	}
	log.Infof("text_pipeline_request chars=%d", len(text))

	code, err := p.detector.DetectLanguage(ctx, text)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	code = model.NormalizeLanguageCode(code)

	translated, translationMeta, err := p.translator.Translate(ctx, text, code, model.LanguageCodeEnglish)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}

	return model.PipelineResult{
		Source:           model.ResultSourceText,
		OriginalText:     text,
		DetectedLanguage: model.DisplayLanguage(code),
		TranslatedText:   translated,
		Metadata: map[string]model.GenerationMetadata{
			StepTranslation: translationMeta,
		},
	}, nil
}

// requestContext tags ctx with a request id and entry point unless an outer
// entry point already did.
func requestContext(ctx context.Context, entryPoint string) context.Context {
	if _, ok := logging.Fields(ctx)[logFieldRequestID]; ok {
		return ctx
	}
	return logging.WithFields(ctx, logFieldRequestID, uuid.NewString(), logFieldEntryPoint, entryPoint)
}

func (p *Pipeline) inAllowList(code string) bool {
	_, ok := p.allowList[code]
	return ok
}
