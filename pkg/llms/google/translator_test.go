package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/stretchr/testify/suite"
)

type TranslatorSuite struct {
	suite.Suite
	server   *httptest.Server
	calls    atomic.Int32
	status   int
	body     string
	lastForm url.Values
	lastURL  *url.URL
}

func TestTranslatorSuite(t *testing.T) {
	suite.Run(t, new(TranslatorSuite))
}

func (s *TranslatorSuite) SetupTest() {
	s.calls.Store(0)
	s.status = http.StatusOK
	s.body = `[[["Hello ","नमस्ते ",null,null,10],["world","दुनिया",null,null,10]],null,"hi",null,null,null,1]`
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.lastURL = r.URL
		bits, _ := io.ReadAll(r.Body)
		s.lastForm, _ = url.ParseQuery(string(bits))
		w.WriteHeader(s.status)
		_, _ = fmt.Fprint(w, s.body)
	}))
}

func (s *TranslatorSuite) TearDownTest() {
	s.server.Close()
}

func (s *TranslatorSuite) translator() *Translator {
	return NewTranslator(WithBaseURL(s.server.URL+"/"), WithHTTPClient(s.server.Client()))
}

func (s *TranslatorSuite) TestTranslateJoinsSegments() {
	out, meta, err := s.translator().Translate(context.Background(), "नमस्ते दुनिया", "hi", "en")
	s.Require().NoError(err)

	s.Equal("Hello world", out)
	s.Equal(translatePath, s.lastURL.Path)
	s.Equal("gtx", s.lastURL.Query().Get("client"))
	s.Equal("hi", s.lastURL.Query().Get("sl"))
	s.Equal("en", s.lastURL.Query().Get("tl"))
	s.Equal("नमस्ते दुनिया", s.lastForm.Get("q"))
	s.Equal(providerName, meta[model.MetadataKeyProvider])
	s.Equal("hi", meta[model.MetadataKeySourceLanguage])
	s.NotEmpty(meta[model.MetadataKeyLatencyMs])
}

func (s *TranslatorSuite) TestTranslateWithoutSourceUsesAuto() {
	_, _, err := s.translator().Translate(context.Background(), "hola", "", "en")
	s.Require().NoError(err)
	s.Equal(model.LanguageCodeAuto, s.lastURL.Query().Get("sl"))
}

func (s *TranslatorSuite) TestTranslateEmptyTextMakesNoCall() {
	out, _, err := s.translator().Translate(context.Background(), " \n ", "hi", "en")
	s.Require().NoError(err)
	s.Equal("", out)
	s.Equal(int32(0), s.calls.Load())
}

func (s *TranslatorSuite) TestTranslateSameLanguageMakesNoCall() {
	out, _, err := s.translator().Translate(context.Background(), "Hello", "en", "en")
	s.Require().NoError(err)
	s.Equal("Hello", out)
	s.Equal(int32(0), s.calls.Load())
}

func (s *TranslatorSuite) TestTranslateRateLimitIsTranslationServiceError() {
	s.status = http.StatusTooManyRequests
	s.body = "slow down"

	_, _, err := s.translator().Translate(context.Background(), "hola", "es", "en")
	s.Require().Error(err)
	s.ErrorIs(err, model.ErrTranslationService)
	s.Contains(err.Error(), "429")
	s.Equal(int32(1), s.calls.Load())
}

func (s *TranslatorSuite) TestTranslateMalformedBodyIsTranslationServiceError() {
	s.body = `{"unexpected":true}`

	_, _, err := s.translator().Translate(context.Background(), "hola", "es", "en")
	s.ErrorIs(err, model.ErrTranslationService)
}

func (s *TranslatorSuite) TestTranslateUnreachableServiceIsTranslationServiceError() {
	translator := s.translator()
	s.server.Close()

	_, _, err := translator.Translate(context.Background(), "hola", "es", "en")
	s.ErrorIs(err, model.ErrTranslationService)
}

func (s *TranslatorSuite) TestTranslateRejectsLongText() {
	_, _, err := s.translator().Translate(context.Background(), strings.Repeat("a", model.MaxTranslationChars+1), "es", "en")
	s.ErrorIs(err, model.ErrTranslationService)
	s.Equal(int32(0), s.calls.Load())
}

func (s *TranslatorSuite) TestTranslateRejectsTextAtLimit() {
	_, _, err := s.translator().Translate(context.Background(), strings.Repeat("a", model.MaxTranslationChars), "es", "en")
	s.ErrorIs(err, model.ErrTranslationService)
	s.Equal(int32(0), s.calls.Load())

	_, _, err = s.translator().Translate(context.Background(), strings.Repeat("a", model.MaxTranslationChars-1), "es", "en")
	s.Require().NoError(err)
	s.Equal(int32(1), s.calls.Load())
}

func (s *TranslatorSuite) TestTranslateLongSameLanguageTextIsRejected() {
	_, _, err := s.translator().Translate(context.Background(), strings.Repeat("a", model.MaxTranslationChars), "en", "en")
	s.ErrorIs(err, model.ErrTranslationService)
}

func (s *TranslatorSuite) TestTranslateTrimsText() {
	out, _, err := s.translator().Translate(context.Background(), "  Hello \n", "en", "en")
	s.Require().NoError(err)
	s.Equal("Hello", out)

	_, _, err = s.translator().Translate(context.Background(), "\n नमस्ते दुनिया  ", "hi", "en")
	s.Require().NoError(err)
	s.Equal("नमस्ते दुनिया", s.lastForm.Get("q"))
}

func (s *TranslatorSuite) TestParseTranslationWithoutSegmentsFails() {
	_, err := parseTranslation([]byte(`[[],null,"es"]`))
	s.Require().Error(err)
	s.Contains(err.Error(), "no translated segments")
}

func (s *TranslatorSuite) TestNewAPIClientUsesEnvBaseURL() {
	s.T().Setenv(envGoogleBaseURL, "https://translate.example.local/")
	client := newAPIClient("", nil)
	s.Equal("https://translate.example.local", client.baseURL)

	s.T().Setenv(envGoogleBaseURL, "")
	s.Equal(defaultBaseURL, newAPIClient("", nil).baseURL)
}
