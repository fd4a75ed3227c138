package detect

import (
	"context"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/stretchr/testify/suite"
)

type LinguaDetectorSuite struct {
	suite.Suite
	detector *LinguaDetector
}

func TestLinguaDetectorSuite(t *testing.T) {
	suite.Run(t, new(LinguaDetectorSuite))
}

func (s *LinguaDetectorSuite) SetupSuite() {
	detector, err := NewLinguaDetector(WithLanguages("en", "hi", "te"))
	s.Require().NoError(err)
	s.detector = detector
}

func (s *LinguaDetectorSuite) TestDetectsHindiGreeting() {
	code, err := s.detector.DetectLanguage(context.Background(), "नमस्ते")
	s.Require().NoError(err)
	s.Equal("hi", code)
}

func (s *LinguaDetectorSuite) TestDetectsTelugu() {
	code, err := s.detector.DetectLanguage(context.Background(), "నమస్కారం, మీరు ఎలా ఉన్నారు")
	s.Require().NoError(err)
	s.Equal("te", code)
}

func (s *LinguaDetectorSuite) TestDetectsEnglishSentence() {
	code, err := s.detector.DetectLanguage(context.Background(), "The weather is lovely today and we are going for a walk.")
	s.Require().NoError(err)
	s.Equal("en", code)
}

func (s *LinguaDetectorSuite) TestTextWithoutLettersIsDetectionError() {
	for _, text := range []string{"", "   ", "12345 !!", "🙂"} {
		_, err := s.detector.DetectLanguage(context.Background(), text)
		s.Require().Error(err, text)
		s.ErrorIs(err, model.ErrDetection, text)
	}
}

func (s *LinguaDetectorSuite) TestDefaultDetectorReadsShortHindiAsHindi() {
	detector, err := NewLinguaDetector()
	s.Require().NoError(err)

	for _, text := range []string{"नमस्ते", "नमस्ते दुनिया", "नमस्ते, आप कैसे हैं?"} {
		code, err := detector.DetectLanguage(context.Background(), text)
		s.Require().NoError(err, text)
		s.Equal("hi", code, text)
	}
}

func (s *LinguaDetectorSuite) TestDefaultDetectorReadsTeluguAndEnglish() {
	detector, err := NewLinguaDetector()
	s.Require().NoError(err)

	code, err := detector.DetectLanguage(context.Background(), "నమస్కారం")
	s.Require().NoError(err)
	s.Equal("te", code)

	code, err = detector.DetectLanguage(context.Background(), "The weather is lovely today and we are going for a walk.")
	s.Require().NoError(err)
	s.Equal("en", code)
}

func (s *LinguaDetectorSuite) TestShortTextIsDetectionError() {
	detector, err := NewLinguaDetector()
	s.Require().NoError(err)

	for _, text := range []string{"a", "ok", "hi", " I ", "5 a"} {
		_, err := detector.DetectLanguage(context.Background(), text)
		s.Require().Error(err, text)
		s.ErrorIs(err, model.ErrDetection, text)
		s.Contains(err.Error(), "too short", text)
	}
}

func (s *LinguaDetectorSuite) TestLetterWeight() {
	s.Equal(0, letterWeight("12 !!"))
	s.Equal(2, letterWeight("ok"))
	s.Equal(4, letterWeight("नमस्ते"))
	s.Equal(4, letterWeight("你好"))
	s.Equal(4, letterWeight("안녕"))
}

func (s *LinguaDetectorSuite) TestLanguageSetNeedsTwoKnownLanguages() {
	_, err := NewLinguaDetector(WithLanguages("hi"))
	s.Error(err)

	_, err = NewLinguaDetector(WithLanguages("xx", "yy"))
	s.Error(err)

	detector, err := NewLinguaDetector(WithAllLanguages())
	s.Require().NoError(err)
	s.NotNil(detector)
}

func (s *LinguaDetectorSuite) TestDefaultLanguagesHaveOneDevanagariLanguage() {
	languages := resolveLanguages(DefaultLanguages)
	s.Len(languages, len(DefaultLanguages))
	for _, code := range DefaultLanguages {
		s.NotContains([]string{"mr", "ne", "sa"}, code)
	}
}

func (s *LinguaDetectorSuite) TestInvalidMinimumRelativeDistance() {
	detector, err := NewLinguaDetector(WithMinimumRelativeDistance(1.5))
	s.Error(err)
	s.Nil(detector)
}

func (s *LinguaDetectorSuite) TestResolveLanguagesIgnoresUnknownCodes() {
	languages := resolveLanguages([]string{"hindi", "TE", "xx", ""})
	s.Len(languages, 2)
	s.Empty(resolveLanguages(nil))
}
