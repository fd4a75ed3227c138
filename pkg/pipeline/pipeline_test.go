package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/stretchr/testify/suite"
)

type PipelineSuite struct {
	suite.Suite
	tempDir    string
	recognizer *fakeRecognizer
	translator *fakeTranslator
	detector   *fakeDetector
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.recognizer = &fakeRecognizer{}
	s.translator = &fakeTranslator{translations: map[string]string{
		"नमस्ते दुनिया": "Hello world",
		"నమస్కారం":      "Hello",
		"bonjour":       "hello",
		"नमस्ते":        "Hello",
	}}
	s.detector = &fakeDetector{code: "hi"}
}

func (s *PipelineSuite) newPipeline(opts ...Option) *Pipeline {
	opts = append([]Option{WithTempDir(s.tempDir)}, opts...)
	p, err := New(s.recognizer, s.translator, s.detector, opts...)
	s.Require().NoError(err)
	return p
}

func (s *PipelineSuite) clip() model.AudioClip {
	path := s.tempDir + "/caller.wav"
	s.Require().NoError(os.WriteFile(path, []byte("RIFF"), 0o600))
	return model.AudioClip{Path: path, MIMEType: "audio/wav"}
}

func (s *PipelineSuite) stagedFiles() []string {
	entries, err := os.ReadDir(s.tempDir)
	s.Require().NoError(err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == "caller.wav" {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

func (s *PipelineSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.translator, s.detector)
	s.Error(err)
	_, err = New(s.recognizer, nil, s.detector)
	s.Error(err)
	_, err = New(s.recognizer, s.translator, nil)
	s.Error(err)
}

func (s *PipelineSuite) TestNewRejectsUnknownMode() {
	_, err := New(s.recognizer, s.translator, s.detector, WithTranscriptionTranslation("twice"))
	s.Require().Error(err)
	s.Contains(err.Error(), "unknown transcription translation mode")
}

func (s *PipelineSuite) TestAudioEnglishClipPassesTranscriptionThrough() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello world", DetectedLanguageCode: "en"}
	p := s.newPipeline()

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)

	s.Equal(model.ResultSourceAudio, result.Source)
	s.Equal("hello world", result.OriginalText)
	s.Equal("hello world", result.EnglishTranscription)
	s.Equal("EN", result.DetectedLanguage)
	s.Equal("hello world", result.TranslatedText)
	s.Equal([]translateCall{{Text: "hello world", Source: "en", Target: "en"}}, s.translator.Calls())
	s.NotContains(result.Metadata, StepEnglishTranscription)
	s.Contains(result.Metadata, StepTranscription)
}

func (s *PipelineSuite) TestAudioAllowListedLanguageReusesTranslation() {
	s.recognizer.result = model.TranscriptionResult{RawText: "नमस्ते दुनिया", DetectedLanguageCode: "hi"}
	p := s.newPipeline()

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)

	s.Equal("नमस्ते दुनिया", result.OriginalText)
	s.Equal("Hello world", result.EnglishTranscription)
	s.Equal("Hello world", result.TranslatedText)
	s.Equal("HI", result.DetectedLanguage)
	s.Len(s.translator.Calls(), 1)
}

func (s *PipelineSuite) TestAudioAllowListedLanguageIndependentCalls() {
	s.recognizer.result = model.TranscriptionResult{RawText: "నమస్కారం", DetectedLanguageCode: "te"}
	p := s.newPipeline(WithTranscriptionTranslation(TranscriptionTranslationIndependent))

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)

	calls := s.translator.Calls()
	s.Require().Len(calls, 2)
	s.Equal(calls[0], calls[1])
	s.Equal(translateCall{Text: "నమస్కారం", Source: "te", Target: "en"}, calls[0])
	s.Equal(result.EnglishTranscription, result.TranslatedText)
	s.Equal("TE", result.DetectedLanguage)
	s.Contains(result.Metadata, StepEnglishTranscription)
	s.Contains(result.Metadata, StepTranslation)
}

func (s *PipelineSuite) TestAudioOutsideAllowListKeepsOriginalTranscription() {
	s.recognizer.result = model.TranscriptionResult{RawText: "bonjour", DetectedLanguageCode: "fr"}
	p := s.newPipeline()

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)

	s.Equal("bonjour", result.EnglishTranscription)
	s.Equal("hello", result.TranslatedText)
	s.Equal("FR", result.DetectedLanguage)
	s.Equal([]translateCall{{Text: "bonjour", Source: "fr", Target: "en"}}, s.translator.Calls())
}

func (s *PipelineSuite) TestAudioCustomAllowList() {
	s.recognizer.result = model.TranscriptionResult{RawText: "bonjour", DetectedLanguageCode: "fr"}
	p := s.newPipeline(WithAllowList("FR"))

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)
	s.Equal("hello", result.EnglishTranscription)
}

func (s *PipelineSuite) TestAudioDetectedLanguageIsUppercasedCode() {
	for _, code := range []string{"en", "hi", "te", "fr", "yue", "haw"} {
		s.recognizer.result = model.TranscriptionResult{RawText: "x", DetectedLanguageCode: code}
		result, err := s.newPipeline().RunAudioPipeline(context.Background(), s.clip())
		s.Require().NoError(err)
		s.Equal(strings.ToUpper(code), result.DetectedLanguage)
	}
}

func (s *PipelineSuite) TestAudioSilenceProducesEmptyResult() {
	s.recognizer.result = model.TranscriptionResult{RawText: "", DetectedLanguageCode: "en"}
	p := s.newPipeline()

	result, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)
	s.Equal("", result.OriginalText)
	s.Equal("", result.EnglishTranscription)
	s.Equal("", result.TranslatedText)
}

func (s *PipelineSuite) TestAudioDecodeErrorPropagates() {
	s.recognizer.err = utils.WrapWithKind(model.ErrDecode, errors.New("bad header"))
	p := s.newPipeline()

	_, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.ErrorIs(err, model.ErrDecode)
	s.Empty(s.translator.Calls())
}

func (s *PipelineSuite) TestAudioTranslationErrorPropagates() {
	s.recognizer.result = model.TranscriptionResult{RawText: "नमस्ते दुनिया", DetectedLanguageCode: "hi"}
	s.translator.err = utils.WrapWithKind(model.ErrTranslationService, errors.New("429"))
	p := s.newPipeline()

	_, err := p.RunAudioPipeline(context.Background(), s.clip())
	s.ErrorIs(err, model.ErrTranslationService)
	s.False(model.IsRecoverable(err))
}

func (s *PipelineSuite) TestRunAudioPipelineLeavesCallerClip() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello", DetectedLanguageCode: "en"}
	clip := s.clip()

	result, err := s.newPipeline().RunAudioPipeline(context.Background(), clip)
	s.Require().NoError(err)
	s.Equal(clip.Path, result.AudioPath)
	s.FileExists(clip.Path)
}

func (s *PipelineSuite) TestTextBlankIsValidationWarning() {
	p := s.newPipeline()

	for _, text := range []string{"", "   ", "\n\t"} {
		result, err := p.OnTextSubmitted(context.Background(), text)
		s.Require().Error(err)
		s.ErrorIs(err, model.ErrValidation)
		s.True(model.IsRecoverable(err))
		s.Equal(model.PipelineResult{}, result)
	}
	s.Equal(0, s.detector.calls)
	s.Empty(s.translator.Calls())
}

func (s *PipelineSuite) TestTextHindiGreeting() {
	p := s.newPipeline()

	result, err := p.OnTextSubmitted(context.Background(), "नमस्ते")
	s.Require().NoError(err)

	s.Equal(model.ResultSourceText, result.Source)
	s.Equal("नमस्ते", result.OriginalText)
	s.Equal("HI", result.DetectedLanguage)
	s.Equal("Hello", result.TranslatedText)
	s.Equal("", result.EnglishTranscription)
	s.Equal([]translateCall{{Text: "नमस्ते", Source: "hi", Target: "en"}}, s.translator.Calls())
	s.Len(result.Sections(), 3)
}

func (s *PipelineSuite) TestTextEnglishIsTranslatedAsNoop() {
	s.detector.code = "en"

	result, err := s.newPipeline().RunTextPipeline(context.Background(), "good morning")
	s.Require().NoError(err)
	s.Equal("good morning", result.TranslatedText)
	s.Equal("EN", result.DetectedLanguage)
}

func (s *PipelineSuite) TestTextDetectionErrorPropagates() {
	s.detector.err = utils.WrapWithKind(model.ErrDetection, errors.New("ambiguous"))

	_, err := s.newPipeline().RunTextPipeline(context.Background(), "ok")
	s.ErrorIs(err, model.ErrDetection)
	s.Empty(s.translator.Calls())
}

func (s *PipelineSuite) TestEntryPointsAreSerialized() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello", DetectedLanguageCode: "en"}
	s.recognizer.delay = 5 * time.Millisecond
	p := s.newPipeline()
	clip := s.clip()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = p.RunAudioPipeline(context.Background(), clip)
				return
			}
			_, _ = p.OnFileUploaded(context.Background(), []byte("ID3"), "audio/mpeg")
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), s.recognizer.maxActive.Load())
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestRequestContextKeepsOuterRequestID() {
	ctx := requestContext(context.Background(), "upload")
	fields := logging.Fields(ctx)
	s.NotEmpty(fields["request_id"])
	s.Equal("upload", fields["entry_point"])

	inner := requestContext(ctx, "text")
	s.Equal(fields, logging.Fields(inner))
}
